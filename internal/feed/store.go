package feed

import (
	"context"

	"github.com/idnofunny/backend/internal/models"
	"gorm.io/gorm"
)

// GormStore answers the engine's bulk lookups with one query each
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm handle as the engine's read store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

type countRow struct {
	ID    string
	Total int64
}

func (s *GormStore) LikeCountsByMeme(ctx context.Context, memeIDs []string) (map[string]int64, error) {
	var rows []countRow
	err := s.db.WithContext(ctx).Model(&models.MemeLike{}).
		Select("meme_id AS id, COUNT(*) AS total").
		Where("meme_id IN ?", memeIDs).
		Group("meme_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return countMap(rows), nil
}

func (s *GormStore) LikedMemeIDs(ctx context.Context, viewerID string, memeIDs []string) (map[string]bool, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.MemeLike{}).
		Where("user_id = ? AND meme_id IN ?", viewerID, memeIDs).
		Pluck("meme_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return idSet(ids), nil
}

func (s *GormStore) FollowedIDs(ctx context.Context, viewerID string, ownerIDs []string) (map[string]bool, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id IN ?", viewerID, ownerIDs).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return idSet(ids), nil
}

func (s *GormStore) LikeCountsByComment(ctx context.Context, commentIDs []string) (map[string]int64, error) {
	var rows []countRow
	err := s.db.WithContext(ctx).Model(&models.CommentLike{}).
		Select("comment_id AS id, COUNT(*) AS total").
		Where("comment_id IN ?", commentIDs).
		Group("comment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return countMap(rows), nil
}

func (s *GormStore) ReplyCountsByComment(ctx context.Context, commentIDs []string) (map[string]int64, error) {
	var rows []countRow
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("parent_id AS id, COUNT(*) AS total").
		Where("parent_id IN ?", commentIDs).
		Group("parent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return countMap(rows), nil
}

func (s *GormStore) LikedCommentIDs(ctx context.Context, viewerID string, commentIDs []string) (map[string]bool, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.CommentLike{}).
		Where("user_id = ? AND comment_id IN ?", viewerID, commentIDs).
		Pluck("comment_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return idSet(ids), nil
}

func countMap(rows []countRow) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Total
	}
	return out
}

func idSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
