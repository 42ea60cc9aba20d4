package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ApplicationMetrics tracks domain-specific metrics (media ingestion,
// comment moderation, social engagement)
type ApplicationMetrics struct {
	// Media ingestion
	MediaUploadsTotal       prometheus.CounterVec
	MediaUploadBytes        prometheus.HistogramVec
	MediaIngestionFailures  prometheus.CounterVec
	MediaIngestionDuration  prometheus.HistogramVec

	// Comment moderation
	CommentGateRejections prometheus.CounterVec

	// Social engagement
	FollowTogglesTotal prometheus.CounterVec
	LikesTotal         prometheus.CounterVec
	CommentsTotal      prometheus.CounterVec
	MemesCreated       prometheus.CounterVec
	MemeViewsTotal     prometheus.CounterVec
}

var (
	appInstance *ApplicationMetrics
	appOnce     sync.Once
)

// InitializeApplicationMetrics creates and registers all application metrics
func InitializeApplicationMetrics() *ApplicationMetrics {
	appOnce.Do(func() {
		appInstance = &ApplicationMetrics{
			MediaUploadsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "media_uploads_total",
					Help: "Total number of media uploads",
				},
				[]string{"kind", "status"},
			),
			MediaUploadBytes: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "media_upload_bytes",
					Help:    "Stored media size in bytes",
					Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
				},
				[]string{"kind"},
			),
			MediaIngestionFailures: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "media_ingestion_failures_total",
					Help: "Total number of rejected or failed ingestions",
				},
				[]string{"reason"},
			),
			MediaIngestionDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "media_ingestion_duration_seconds",
					Help:    "Time to validate, normalize and store an upload",
					Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
				},
				[]string{"kind"},
			),

			CommentGateRejections: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "comment_gate_rejections_total",
					Help: "Comments rejected by the abuse gate",
				},
				[]string{"reason"},
			),

			FollowTogglesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "follow_toggles_total",
					Help: "Follow graph toggles",
				},
				[]string{"action"},
			),
			LikesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "likes_total",
					Help: "Like toggles",
				},
				[]string{"target", "action"},
			),
			CommentsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "comments_total",
					Help: "Comments accepted and persisted",
				},
				[]string{"kind"},
			),
			MemesCreated: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memes_created_total",
					Help: "Memes successfully published",
				},
				[]string{"media_type"},
			),
			MemeViewsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "meme_views_total",
					Help: "First-time meme views recorded",
				},
				[]string{},
			),
		}
	})
	return appInstance
}

// App returns the global application metrics instance
func App() *ApplicationMetrics {
	if appInstance == nil {
		return InitializeApplicationMetrics()
	}
	return appInstance
}
