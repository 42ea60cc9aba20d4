package feed

import (
	"context"
	"sort"

	"github.com/idnofunny/backend/internal/models"
)

// SortMode selects the feed ordering
type SortMode string

const (
	// SortRecency orders by creation time, newest first
	SortRecency SortMode = "recent"

	// SortPopularity orders by like count, ties broken by recency. Memes
	// nobody liked naturally sink to the bottom.
	SortPopularity SortMode = "popular"
)

// ParseSortMode maps a query value onto a sort mode, defaulting to recency
func ParseSortMode(s string) SortMode {
	if s == string(SortPopularity) {
		return SortPopularity
	}
	return SortRecency
}

// Store is the read side of the aggregation engine. Every method takes the
// full ID set for a page and answers with one bulk query, so assembling a
// feed costs a fixed number of round trips regardless of page size.
type Store interface {
	// LikeCountsByMeme returns like totals keyed by meme ID. Memes with no
	// likes are absent from the map.
	LikeCountsByMeme(ctx context.Context, memeIDs []string) (map[string]int64, error)

	// LikedMemeIDs returns the subset of memeIDs the viewer has liked
	LikedMemeIDs(ctx context.Context, viewerID string, memeIDs []string) (map[string]bool, error)

	// FollowedIDs returns the subset of ownerIDs the viewer follows
	FollowedIDs(ctx context.Context, viewerID string, ownerIDs []string) (map[string]bool, error)

	// LikeCountsByComment returns like totals keyed by comment ID
	LikeCountsByComment(ctx context.Context, commentIDs []string) (map[string]int64, error)

	// ReplyCountsByComment returns direct reply totals keyed by comment ID
	ReplyCountsByComment(ctx context.Context, commentIDs []string) (map[string]int64, error)

	// LikedCommentIDs returns the subset of commentIDs the viewer has liked
	LikedCommentIDs(ctx context.Context, viewerID string, commentIDs []string) (map[string]bool, error)
}

// AnnotatedMeme is a meme decorated with aggregate and viewer-relative state
type AnnotatedMeme struct {
	models.Meme

	LikeCount     int64 `json:"like_count"`
	LikedByMe     bool  `json:"is_liked_by_me"`
	OwnerFollowed bool  `json:"owner_is_followed"`
}

// AnnotatedComment is a comment decorated the same way
type AnnotatedComment struct {
	models.Comment

	LikeCount  int64 `json:"like_count"`
	ReplyCount int64 `json:"reply_count"`
	LikedByMe  bool  `json:"is_liked_by_me"`
}

// Engine assembles annotated, sorted feeds out of raw model rows
type Engine struct {
	store Store
}

// NewEngine creates an engine over the given read store
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Assemble annotates and sorts one page of memes for a viewer. A nil viewer
// is an anonymous request: aggregate counts are still attached but the
// per-viewer lookups are skipped entirely and every viewer-relative flag
// stays false.
func (e *Engine) Assemble(ctx context.Context, viewerID *string, memes []models.Meme, mode SortMode) ([]AnnotatedMeme, error) {
	out, err := e.AnnotateMemes(ctx, viewerID, memes)
	if err != nil {
		return nil, err
	}
	sortMemes(out, mode)
	return out, nil
}

// AnnotateMemes attaches aggregate counts and viewer-relative flags without
// reordering. Used for listings that carry their own order, like a user's
// like history.
func (e *Engine) AnnotateMemes(ctx context.Context, viewerID *string, memes []models.Meme) ([]AnnotatedMeme, error) {
	if len(memes) == 0 {
		return []AnnotatedMeme{}, nil
	}

	memeIDs := make([]string, len(memes))
	ownerIDs := make([]string, len(memes))
	for i, m := range memes {
		memeIDs[i] = m.ID
		ownerIDs[i] = m.UserID
	}

	likeCounts, err := e.store.LikeCountsByMeme(ctx, memeIDs)
	if err != nil {
		return nil, err
	}

	var liked, followed map[string]bool
	if viewerID != nil {
		if liked, err = e.store.LikedMemeIDs(ctx, *viewerID, memeIDs); err != nil {
			return nil, err
		}
		if followed, err = e.store.FollowedIDs(ctx, *viewerID, ownerIDs); err != nil {
			return nil, err
		}
	}

	out := make([]AnnotatedMeme, len(memes))
	for i, m := range memes {
		out[i] = AnnotatedMeme{
			Meme:          m,
			LikeCount:     likeCounts[m.ID],
			LikedByMe:     liked[m.ID],
			OwnerFollowed: followed[m.UserID],
		}
	}
	return out, nil
}

// AnnotateComments decorates one page of comments for a viewer. Same
// anonymous short-circuit as Assemble; order is left untouched since
// comments always list oldest first.
func (e *Engine) AnnotateComments(ctx context.Context, viewerID *string, comments []models.Comment) ([]AnnotatedComment, error) {
	if len(comments) == 0 {
		return []AnnotatedComment{}, nil
	}

	commentIDs := make([]string, len(comments))
	for i, c := range comments {
		commentIDs[i] = c.ID
	}

	likeCounts, err := e.store.LikeCountsByComment(ctx, commentIDs)
	if err != nil {
		return nil, err
	}
	replyCounts, err := e.store.ReplyCountsByComment(ctx, commentIDs)
	if err != nil {
		return nil, err
	}

	var liked map[string]bool
	if viewerID != nil {
		if liked, err = e.store.LikedCommentIDs(ctx, *viewerID, commentIDs); err != nil {
			return nil, err
		}
	}

	out := make([]AnnotatedComment, len(comments))
	for i, c := range comments {
		out[i] = AnnotatedComment{
			Comment:    c,
			LikeCount:  likeCounts[c.ID],
			ReplyCount: replyCounts[c.ID],
			LikedByMe:  liked[c.ID],
		}
	}
	return out, nil
}

func sortMemes(memes []AnnotatedMeme, mode SortMode) {
	switch mode {
	case SortPopularity:
		sort.SliceStable(memes, func(i, j int) bool {
			if memes[i].LikeCount != memes[j].LikeCount {
				return memes[i].LikeCount > memes[j].LikeCount
			}
			return memes[i].CreatedAt.After(memes[j].CreatedAt)
		})
	default:
		sort.SliceStable(memes, func(i, j int) bool {
			return memes[i].CreatedAt.After(memes[j].CreatedAt)
		})
	}
}
