package dto

import (
	"time"

	"github.com/idnofunny/backend/internal/feed"
	"github.com/idnofunny/backend/internal/models"
)

// CategoryResponse is the public category representation
type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MemeResponse is the annotated meme representation returned by feed and
// detail endpoints
type MemeResponse struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	MediaURL  string        `json:"media_url"`
	MediaType string        `json:"media_type"`
	Views     int           `json:"views"`
	User      *UserResponse `json:"user,omitempty"`
	Category  *CategoryResponse `json:"category,omitempty"`
	Hashtags  []string      `json:"hashtags,omitempty"`
	CreatedAt time.Time     `json:"created_at"`

	LikeCount     int64 `json:"like_count"`
	LikedByMe     bool  `json:"is_liked_by_me"`
	OwnerFollowed bool  `json:"owner_is_followed"`
}

// CommentResponse is the annotated comment representation
type CommentResponse struct {
	ID        string        `json:"id"`
	MemeID    string        `json:"meme_id"`
	Text      string        `json:"text"`
	ParentID  *string       `json:"parent_id,omitempty"`
	User      *UserResponse `json:"user,omitempty"`
	CreatedAt time.Time     `json:"created_at"`

	LikeCount  int64 `json:"like_count"`
	ReplyCount int64 `json:"reply_count"`
	LikedByMe  bool  `json:"is_liked_by_me"`
}

// CreateMemeRequest carries the multipart form fields for a meme upload.
// The media file itself arrives as the "media" form file.
type CreateMemeRequest struct {
	Title      string `form:"title" binding:"required,min=1,max=200"`
	CategoryID string `form:"category_id"`
	Hashtags   string `form:"hashtags"` // comma-separated
}

// CreateCommentRequest is the payload for posting a comment
type CreateCommentRequest struct {
	Text     string  `json:"text" binding:"required,min=1,max=2000"`
	ParentID *string `json:"parent_id,omitempty"`
}

// CreateReportRequest is the payload for reporting a meme
type CreateReportRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=1000"`
}

// ToCategoryResponse converts a category model
func ToCategoryResponse(c *models.Category) *CategoryResponse {
	if c == nil {
		return nil
	}
	return &CategoryResponse{ID: c.ID, Name: c.Name}
}

// ToMemeResponse converts an annotated meme, including hashtag names when
// preloaded
func ToMemeResponse(m *feed.AnnotatedMeme, hashtags []string) *MemeResponse {
	if m == nil {
		return nil
	}

	resp := &MemeResponse{
		ID:            m.ID,
		Title:         m.Title,
		MediaURL:      m.MediaURL,
		MediaType:     string(m.MediaType),
		Views:         m.Views,
		Hashtags:      hashtags,
		CreatedAt:     m.CreatedAt,
		LikeCount:     m.LikeCount,
		LikedByMe:     m.LikedByMe,
		OwnerFollowed: m.OwnerFollowed,
	}
	if m.User.ID != "" {
		resp.User = ToUserResponse(&m.User)
	}
	if m.Category != nil {
		resp.Category = ToCategoryResponse(m.Category)
	}
	return resp
}

// ToMemeResponses converts a page of annotated memes
func ToMemeResponses(memes []feed.AnnotatedMeme, hashtagsByMeme map[string][]string) []*MemeResponse {
	responses := make([]*MemeResponse, len(memes))
	for i := range memes {
		responses[i] = ToMemeResponse(&memes[i], hashtagsByMeme[memes[i].ID])
	}
	return responses
}

// ToCommentResponse converts an annotated comment
func ToCommentResponse(c *feed.AnnotatedComment) *CommentResponse {
	if c == nil {
		return nil
	}

	resp := &CommentResponse{
		ID:         c.ID,
		MemeID:     c.MemeID,
		Text:       c.Text,
		ParentID:   c.ParentID,
		CreatedAt:  c.CreatedAt,
		LikeCount:  c.LikeCount,
		ReplyCount: c.ReplyCount,
		LikedByMe:  c.LikedByMe,
	}
	if c.User.ID != "" {
		resp.User = ToUserResponse(&c.User)
	}
	return resp
}

// ToCommentResponses converts a page of annotated comments
func ToCommentResponses(comments []feed.AnnotatedComment) []*CommentResponse {
	responses := make([]*CommentResponse, len(comments))
	for i := range comments {
		responses[i] = ToCommentResponse(&comments[i])
	}
	return responses
}
