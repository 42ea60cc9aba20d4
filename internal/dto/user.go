package dto

import (
	"time"

	"github.com/idnofunny/backend/internal/models"
)

// UserResponse is the public user representation (safe for API responses)
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfileResponse adds the aggregate and viewer-relative profile fields
type UserProfileResponse struct {
	UserResponse
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	MemeCount      int64 `json:"meme_count"`
	TotalLikes     int64 `json:"total_likes"`

	// Only set for authenticated viewers
	IsFollowing *bool `json:"is_following,omitempty"`
}

// UserDetailResponse includes private info for the account owner
type UserDetailResponse struct {
	UserProfileResponse
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// UpdateUserRequest for profile updates
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" binding:"omitempty,min=3,max=30"`
}

// ToUserResponse converts models.User to UserResponse (excludes sensitive fields)
func ToUserResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}

	avatar := ""
	if user.AvatarURL != nil {
		avatar = *user.AvatarURL
	}

	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: avatar,
		CreatedAt: user.CreatedAt,
	}
}

// ToUserResponses converts a slice of users to responses
func ToUserResponses(users []models.User) []*UserResponse {
	responses := make([]*UserResponse, len(users))
	for i := range users {
		responses[i] = ToUserResponse(&users[i])
	}
	return responses
}
