package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/idnofunny/backend/internal/database"
	"github.com/idnofunny/backend/internal/dto"
	apierrors "github.com/idnofunny/backend/internal/errors"
	"github.com/idnofunny/backend/internal/logger"
	"github.com/idnofunny/backend/internal/metrics"
	"github.com/idnofunny/backend/internal/models"
	"github.com/idnofunny/backend/internal/social"
	"github.com/idnofunny/backend/internal/util"
)

// GetMe returns the authenticated user's own account, private fields
// included
func (h *Handlers) GetMe(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	profile, err := h.buildProfile(c, user, nil)
	if err != nil {
		util.RespondInternalError(c, "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": dto.UserDetailResponse{
		UserProfileResponse: *profile,
		Email:               user.Email,
		IsActive:            user.IsActive,
	}})
}

// UpdateMe changes the caller's username
func (h *Handlers) UpdateMe(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if req.Username == nil {
		util.RespondBadRequest(c, "Nothing to update")
		return
	}

	var taken int64
	err := database.DB.Model(&models.User{}).
		Where("LOWER(username) = LOWER(?) AND id <> ?", *req.Username, user.ID).
		Count(&taken).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to update profile")
		return
	}
	if taken > 0 {
		util.RespondConflict(c, "username")
		return
	}

	if err := database.DB.Model(user).Update("username", *req.Username).Error; err != nil {
		logger.Log.Error("profile update failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": dto.ToUserResponse(user)})
}

// UploadAvatar replaces the caller's profile picture. Avatars run through
// the same image normalization as meme uploads.
func (h *Handlers) UploadAvatar(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		util.RespondValidationError(c, "avatar", "avatar file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.RespondBadRequest(c, "Could not read upload")
		return
	}
	defer file.Close()

	ref, err := h.validator.StoreAvatar(
		c.Request.Context(), file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		h.respondIngestError(c, err)
		return
	}

	if err := database.DB.Model(user).Update("avatar_url", ref.URL).Error; err != nil {
		logger.Log.Error("avatar update failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to update avatar")
		return
	}
	user.AvatarURL = &ref.URL

	c.JSON(http.StatusOK, gin.H{"avatar_url": ref.URL})
}

// DeleteMe anonymizes the caller's account. Memes and comments stay up
// under the scrubbed identity; the account can never log in again.
func (h *Handlers) DeleteMe(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.auth.Anonymize(c.Request.Context(), userID); err != nil {
		logger.Log.Error("account anonymization failed",
			zap.String("user_id", userID), zap.Error(err))
		util.RespondInternalError(c, "Failed to delete account")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

// GetUserProfile returns a user's public profile with follower counts and,
// for authenticated viewers, whether they follow this user
func (h *Handlers) GetUserProfile(c *gin.Context) {
	user, ok := h.loadUser(c, c.Param("id"))
	if !ok {
		return
	}

	profile, err := h.buildProfile(c, user, viewerID(c))
	if err != nil {
		util.RespondInternalError(c, "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// ToggleFollow flips the caller's follow edge toward another user
func (h *Handlers) ToggleFollow(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	if _, ok := h.loadUser(c, targetID); !ok {
		return
	}

	following, err := h.social.ToggleFollow(c.Request.Context(), userID, targetID)
	if errors.Is(err, social.ErrSelfFollow) {
		util.RespondWithAPIError(c, apierrors.SelfFollow())
		return
	}
	if err != nil {
		logger.Log.Error("follow toggle failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to toggle follow")
		return
	}

	action := "unfollowed"
	if following {
		action = "followed"
	}
	metrics.App().FollowTogglesTotal.WithLabelValues(action).Inc()

	c.JSON(http.StatusOK, gin.H{"following": following})
}

// GetFollowers lists who follows a user, most recent first
func (h *Handlers) GetFollowers(c *gin.Context) {
	userID := c.Param("id")
	if _, ok := h.loadUser(c, userID); !ok {
		return
	}

	users, err := h.social.FollowersOf(c.Request.Context(), userID)
	if err != nil {
		util.RespondInternalError(c, "Failed to load followers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": dto.ToUserResponses(users)})
}

// GetFollowing lists who a user follows, most recent first
func (h *Handlers) GetFollowing(c *gin.Context) {
	userID := c.Param("id")
	if _, ok := h.loadUser(c, userID); !ok {
		return
	}

	users, err := h.social.FollowingOf(c.Request.Context(), userID)
	if err != nil {
		util.RespondInternalError(c, "Failed to load following")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": dto.ToUserResponses(users)})
}

// GetUserMemes returns a user's memes, newest first, annotated for the
// viewer
func (h *Handlers) GetUserMemes(c *gin.Context) {
	userID := c.Param("id")
	page, perPage := util.ParsePagination(c.Query("page"), c.Query("per_page"), maxFeedPageSize)

	if _, ok := h.loadUser(c, userID); !ok {
		return
	}

	var memes []models.Meme
	err := database.DB.Preload("User").Preload("Category").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&memes).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load memes")
		return
	}

	h.respondMemePage(c, memes, page, perPage)
}

// GetLikedMemes returns the memes the caller liked, most recently liked
// first
func (h *Handlers) GetLikedMemes(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, perPage := util.ParsePagination(c.Query("page"), c.Query("per_page"), maxFeedPageSize)

	var memes []models.Meme
	err := database.DB.Preload("User").Preload("Category").
		Joins("JOIN meme_likes ON meme_likes.meme_id = memes.id").
		Where("meme_likes.user_id = ?", userID).
		Order("meme_likes.created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&memes).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load liked memes")
		return
	}

	h.respondMemePage(c, memes, page, perPage)
}

// GetViewedMemes returns the caller's view history, most recent first
func (h *Handlers) GetViewedMemes(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, perPage := util.ParsePagination(c.Query("page"), c.Query("per_page"), maxFeedPageSize)

	var memes []models.Meme
	err := database.DB.Preload("User").Preload("Category").
		Joins("JOIN meme_views ON meme_views.meme_id = memes.id").
		Where("meme_views.user_id = ?", userID).
		Order("meme_views.created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&memes).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load view history")
		return
	}

	h.respondMemePage(c, memes, page, perPage)
}

// loadUser writes a 404/500 response and returns false when the user
// cannot be found
func (h *Handlers) loadUser(c *gin.Context, userID string) (*models.User, bool) {
	var user models.User
	err := database.DB.First(&user, "id = ?", userID).Error
	if util.HandleDBError(c, err, "user") {
		return nil, false
	}
	return &user, true
}

// buildProfile assembles counts and viewer-relative fields for a user.
// viewer is nil for anonymous requests and for the owner's own profile.
func (h *Handlers) buildProfile(c *gin.Context, user *models.User, viewer *string) (*dto.UserProfileResponse, error) {
	ctx := c.Request.Context()

	followers, err := h.social.FollowerCount(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	following, err := h.social.FollowingCount(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var memeCount int64
	if err := database.DB.Model(&models.Meme{}).
		Where("user_id = ?", user.ID).Count(&memeCount).Error; err != nil {
		return nil, err
	}

	// Likes received across all of the user's memes, one aggregate
	var totalLikes int64
	err = database.DB.Model(&models.MemeLike{}).
		Joins("JOIN memes ON memes.id = meme_likes.meme_id").
		Where("memes.user_id = ? AND memes.deleted_at IS NULL", user.ID).
		Count(&totalLikes).Error
	if err != nil {
		return nil, err
	}

	profile := &dto.UserProfileResponse{
		UserResponse:   *dto.ToUserResponse(user),
		FollowerCount:  followers,
		FollowingCount: following,
		MemeCount:      memeCount,
		TotalLikes:     totalLikes,
	}

	if viewer != nil && *viewer != user.ID {
		isFollowing, err := h.social.IsFollowing(ctx, *viewer, user.ID)
		if err != nil {
			return nil, err
		}
		profile.IsFollowing = &isFollowing
	}

	return profile, nil
}

// respondMemePage annotates a meme page and writes the standard list
// envelope. The caller's query order is preserved.
func (h *Handlers) respondMemePage(c *gin.Context, memes []models.Meme, page, perPage int) {
	annotated, err := h.engine.AnnotateMemes(c.Request.Context(), viewerID(c), memes)
	if err != nil {
		logger.Log.Error("meme annotation failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to load memes")
		return
	}

	hashtags, err := h.memePageHashtags(memes)
	if err != nil {
		util.RespondInternalError(c, "Failed to load memes")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"memes":    dto.ToMemeResponses(annotated, hashtags),
		"page":     page,
		"per_page": perPage,
	})
}
