package social

import (
	"context"
	"errors"

	"github.com/idnofunny/backend/internal/logger"
	"github.com/idnofunny/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrSelfFollow rejects follow edges pointing back at their own origin
var ErrSelfFollow = errors.New("users cannot follow themselves")

// Service owns the follow graph and the like relations. All of them are
// toggle-style: the row's existence is the whole state, counts are always
// derived by counting rows.
type Service struct {
	db *gorm.DB
}

// NewService creates a social service over the given database
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ToggleFollow flips the follower -> followed edge and reports the new state
func (s *Service) ToggleFollow(ctx context.Context, followerID, followedID string) (following bool, err error) {
	if followerID == followedID {
		return false, ErrSelfFollow
	}

	var existing models.Follow
	err = s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&existing).Error

	if err == nil {
		if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			return false, err
		}
		logger.Log.Debug("follow removed",
			zap.String("follower_id", followerID),
			zap.String("followed_id", followedID),
		)
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	follow := models.Follow{FollowerID: followerID, FollowedID: followedID}
	if err := s.db.WithContext(ctx).Create(&follow).Error; err != nil {
		return false, err
	}
	logger.Log.Debug("follow created",
		zap.String("follower_id", followerID),
		zap.String("followed_id", followedID),
	)
	return true, nil
}

// IsFollowing reports whether the follower -> followed edge exists
func (s *Service) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	return count > 0, err
}

// FollowerCount returns how many users follow the given user
func (s *Service) FollowerCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followed_id = ?", userID).
		Count(&count).Error
	return count, err
}

// FollowingCount returns how many users the given user follows
func (s *Service) FollowingCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Count(&count).Error
	return count, err
}

// FollowersOf lists the users following userID
func (s *Service) FollowersOf(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	return users, err
}

// FollowingOf lists the users userID follows
func (s *Service) FollowingOf(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	return users, err
}

// ToggleMemeLike flips the viewer's like on a meme and reports the new state
func (s *Service) ToggleMemeLike(ctx context.Context, userID, memeID string) (liked bool, err error) {
	var existing models.MemeLike
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND meme_id = ?", userID, memeID).
		First(&existing).Error

	if err == nil {
		return false, s.db.WithContext(ctx).Delete(&existing).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	like := models.MemeLike{UserID: userID, MemeID: memeID}
	return true, s.db.WithContext(ctx).Create(&like).Error
}

// ToggleCommentLike flips the viewer's like on a comment
func (s *Service) ToggleCommentLike(ctx context.Context, userID, commentID string) (liked bool, err error) {
	var existing models.CommentLike
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		First(&existing).Error

	if err == nil {
		return false, s.db.WithContext(ctx).Delete(&existing).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	like := models.CommentLike{UserID: userID, CommentID: commentID}
	return true, s.db.WithContext(ctx).Create(&like).Error
}

// RecordView counts a view once per (user, meme). The first view inserts a
// guard row and bumps the stored counter; repeats are no-ops.
func (s *Service) RecordView(ctx context.Context, userID, memeID string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.MemeView{}).
		Where("user_id = ? AND meme_id = ?", userID, memeID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		view := models.MemeView{UserID: userID, MemeID: memeID}
		if err := tx.Create(&view).Error; err != nil {
			return err
		}
		return tx.Model(&models.Meme{}).
			Where("id = ?", memeID).
			UpdateColumn("views", gorm.Expr("views + 1")).Error
	})
}
