package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/idnofunny/backend/internal/database"
	"github.com/idnofunny/backend/internal/dto"
	apierrors "github.com/idnofunny/backend/internal/errors"
	"github.com/idnofunny/backend/internal/feed"
	"github.com/idnofunny/backend/internal/logger"
	"github.com/idnofunny/backend/internal/media"
	"github.com/idnofunny/backend/internal/metrics"
	"github.com/idnofunny/backend/internal/models"
	"github.com/idnofunny/backend/internal/util"
)

const maxFeedPageSize = 100

// popularityOrder ranks memes by derived like count, newest first among
// ties. Likes are rows in meme_likes, never a stored counter.
const popularityOrder = "(SELECT COUNT(*) FROM meme_likes WHERE meme_likes.meme_id = memes.id) DESC, memes.created_at DESC"

// GetFeed returns a page of memes with per-viewer annotations. Anonymous
// requests get the same page without the viewer-relative fields.
func (h *Handlers) GetFeed(c *gin.Context) {
	page, perPage := util.ParsePagination(c.Query("page"), c.Query("per_page"), maxFeedPageSize)
	mode := feed.ParseSortMode(c.Query("sort"))
	start := time.Now()

	query := database.DB.Model(&models.Meme{}).
		Preload("User").
		Preload("Category")

	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("memes.category_id = ?", categoryID)
	}
	if tag := util.NormalizeHashtag(c.Query("hashtag")); tag != "" {
		query = query.
			Joins("JOIN meme_hashtags ON meme_hashtags.meme_id = memes.id").
			Joins("JOIN hashtags ON hashtags.id = meme_hashtags.hashtag_id").
			Where("hashtags.name = ?", tag)
	}
	if q := c.Query("q"); q != "" {
		query = query.Where("LOWER(memes.title) LIKE LOWER(?)", "%"+q+"%")
	}

	switch mode {
	case feed.SortPopularity:
		query = query.Order(popularityOrder)
	default:
		query = query.Order("memes.created_at DESC")
	}

	var memes []models.Meme
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&memes).Error; err != nil {
		logger.Log.Error("feed query failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to load feed")
		return
	}

	annotated, err := h.engine.Assemble(c.Request.Context(), viewerID(c), memes, mode)
	if err != nil {
		logger.Log.Error("feed assembly failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to load feed")
		return
	}

	hashtags, err := h.memePageHashtags(memes)
	if err != nil {
		logger.Log.Error("hashtag lookup failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to load feed")
		return
	}

	metrics.Get().FeedGenerationTime.
		WithLabelValues(string(mode)).
		Observe(time.Since(start).Seconds())

	c.JSON(http.StatusOK, gin.H{
		"memes":    dto.ToMemeResponses(annotated, hashtags),
		"page":     page,
		"per_page": perPage,
		"sort":     string(mode),
	})
}

// GetMeme returns one annotated meme. An authenticated view is recorded at
// most once per account.
func (h *Handlers) GetMeme(c *gin.Context) {
	memeID := c.Param("id")

	if viewer := viewerID(c); viewer != nil {
		if err := h.social.RecordView(c.Request.Context(), *viewer, memeID); err != nil {
			// A failed view write never blocks the read
			logger.Log.Warn("view record failed",
				zap.String("meme_id", memeID), zap.Error(err))
		} else {
			metrics.App().MemeViewsTotal.WithLabelValues().Inc()
		}
	}

	var meme models.Meme
	err := database.DB.Preload("User").Preload("Category").
		First(&meme, "id = ?", memeID).Error
	if util.HandleDBError(c, err, "meme") {
		return
	}

	annotated, err := h.engine.Assemble(c.Request.Context(), viewerID(c), []models.Meme{meme}, feed.SortRecency)
	if err != nil {
		logger.Log.Error("meme annotation failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to load meme")
		return
	}

	hashtags, err := hashtagNamesByMeme([]string{meme.ID})
	if err != nil {
		logger.Log.Error("hashtag lookup failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to load meme")
		return
	}

	c.JSON(http.StatusOK, gin.H{"meme": dto.ToMemeResponse(&annotated[0], hashtags[meme.ID])})
}

// CreateMeme ingests a multipart upload and publishes it. The media file is
// validated, normalized and stored before anything touches the database; a
// failed database write rolls every row back so no half-published meme
// survives.
func (h *Handlers) CreateMeme(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateMemeRequest
	if err := c.ShouldBind(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("media")
	if err != nil {
		util.RespondValidationError(c, "media", "media file is required")
		return
	}

	if req.CategoryID != "" {
		var category models.Category
		err := database.DB.First(&category, "id = ?", req.CategoryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondValidationError(c, "category_id", "unknown category")
			return
		}
		if err != nil {
			util.RespondInternalError(c, "Failed to create meme")
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.RespondBadRequest(c, "Could not read upload")
		return
	}
	defer file.Close()

	start := time.Now()
	ref, err := h.validator.ValidateAndStore(
		c.Request.Context(), file,
		fileHeader.Header.Get("Content-Type"), fileHeader.Filename,
	)
	if err != nil {
		h.respondIngestError(c, err)
		return
	}
	metrics.App().MediaIngestionDuration.
		WithLabelValues(string(ref.Kind)).
		Observe(time.Since(start).Seconds())
	metrics.App().MediaUploadsTotal.WithLabelValues(string(ref.Kind), "accepted").Inc()
	metrics.App().MediaUploadBytes.WithLabelValues(string(ref.Kind)).Observe(float64(ref.Size))

	meme := models.Meme{
		UserID:    userID,
		Title:     req.Title,
		MediaURL:  ref.URL,
		MediaType: models.MediaKind(ref.Kind),
	}
	if req.CategoryID != "" {
		meme.CategoryID = &req.CategoryID
	}
	tags := util.NormalizeHashtags(req.Hashtags)

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&meme).Error; err != nil {
			return err
		}
		for _, name := range tags {
			var tag models.Hashtag
			if err := tx.Where("name = ?", name).
				FirstOrCreate(&tag, models.Hashtag{Name: name}).Error; err != nil {
				return err
			}
			link := models.MemeHashtag{MemeID: meme.ID, HashtagID: tag.ID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error("meme create failed", zap.Error(err))
		// The stored object is orphaned at this point; best effort cleanup
		if delErr := h.validator.Remove(c.Request.Context(), ref.Key); delErr != nil {
			logger.Log.Warn("orphaned media cleanup failed",
				zap.String("key", ref.Key), zap.Error(delErr))
		}
		util.RespondInternalError(c, "Failed to create meme")
		return
	}

	metrics.App().MemesCreated.WithLabelValues(string(meme.MediaType)).Inc()
	logger.Log.Info("meme published",
		zap.String("meme_id", meme.ID),
		zap.String("user_id", userID),
		zap.String("media_type", string(meme.MediaType)))

	database.DB.Preload("User").Preload("Category").First(&meme, "id = ?", meme.ID)
	annotated := feed.AnnotatedMeme{Meme: meme}
	c.JSON(http.StatusCreated, gin.H{"meme": dto.ToMemeResponse(&annotated, tags)})
}

// DeleteMeme removes the caller's own meme
func (h *Handlers) DeleteMeme(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	memeID := c.Param("id")

	var meme models.Meme
	err := database.DB.First(&meme, "id = ?", memeID).Error
	if util.HandleDBError(c, err, "meme") {
		return
	}
	if meme.UserID != userID {
		util.RespondForbidden(c, "You can only delete your own memes")
		return
	}

	if err := database.DB.Delete(&meme).Error; err != nil {
		logger.Log.Error("meme delete failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to delete meme")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Meme deleted"})
}

// ToggleMemeLike flips the caller's like on a meme
func (h *Handlers) ToggleMemeLike(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	memeID := c.Param("id")

	if !h.memeExists(c, memeID) {
		return
	}

	liked, err := h.social.ToggleMemeLike(c.Request.Context(), userID, memeID)
	if err != nil {
		logger.Log.Error("meme like toggle failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to toggle like")
		return
	}

	action := "unliked"
	if liked {
		action = "liked"
	}
	metrics.App().LikesTotal.WithLabelValues("meme", action).Inc()

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// ReportMeme files an abuse report against a meme
func (h *Handlers) ReportMeme(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	memeID := c.Param("id")

	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if !h.memeExists(c, memeID) {
		return
	}

	report := models.Report{
		MemeID:     memeID,
		ReporterID: userID,
		Reason:     req.Reason,
	}
	if err := database.DB.Create(&report).Error; err != nil {
		logger.Log.Error("report create failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to submit report")
		return
	}

	logger.Log.Info("meme reported",
		zap.String("meme_id", memeID),
		zap.String("reporter_id", userID))

	c.JSON(http.StatusCreated, gin.H{"message": "Report submitted", "report_id": report.ID})
}

// GetCategories lists all categories
func (h *Handlers) GetCategories(c *gin.Context) {
	var categories []models.Category
	if err := database.DB.Order("name").Find(&categories).Error; err != nil {
		util.RespondInternalError(c, "Failed to load categories")
		return
	}

	responses := make([]*dto.CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = dto.ToCategoryResponse(&categories[i])
	}
	c.JSON(http.StatusOK, gin.H{"categories": responses})
}

// memeExists writes a 404/500 response and returns false when the meme
// cannot be loaded
func (h *Handlers) memeExists(c *gin.Context, memeID string) bool {
	var count int64
	err := database.DB.Model(&models.Meme{}).Where("id = ?", memeID).Count(&count).Error
	if err != nil {
		util.RespondInternalError(c)
		return false
	}
	if count == 0 {
		util.RespondNotFound(c, "meme")
		return false
	}
	return true
}

// memePageHashtags collects hashtag names for a feed page
func (h *Handlers) memePageHashtags(memes []models.Meme) (map[string][]string, error) {
	ids := make([]string, len(memes))
	for i := range memes {
		ids[i] = memes[i].ID
	}
	return hashtagNamesByMeme(ids)
}

// respondIngestError maps media pipeline failures onto API error codes
func (h *Handlers) respondIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, media.ErrUnsupportedKind):
		metrics.App().MediaIngestionFailures.WithLabelValues("unsupported_kind").Inc()
		util.RespondWithAPIError(c, apierrors.UnsupportedMediaKind())
	case errors.Is(err, media.ErrCorruptMedia):
		metrics.App().MediaIngestionFailures.WithLabelValues("corrupt").Inc()
		util.RespondWithAPIError(c, apierrors.CorruptMedia("media"))
	case errors.Is(err, media.ErrTooLarge):
		metrics.App().MediaIngestionFailures.WithLabelValues("too_large").Inc()
		util.RespondWithAPIError(c, apierrors.PayloadTooLarge("video exceeds the 50 MiB limit"))
	default:
		metrics.App().MediaIngestionFailures.WithLabelValues("internal").Inc()
		logger.Log.Error("media ingestion failed", zap.Error(err))
		util.RespondWithAPIError(c, apierrors.IngestionFailed())
	}
}
