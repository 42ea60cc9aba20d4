package models

import (
	"time"

	"gorm.io/gorm"
)

// MediaKind classifies a meme's stored media
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// Category is a simple tag memes can be filed under
type Category struct {
	ID   string `gorm:"primaryKey;type:uuid" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	CreatedAt time.Time `json:"created_at"`
}

// Hashtag is a lowercase, #-stripped tag, many-to-many with memes
type Hashtag struct {
	ID   string `gorm:"primaryKey;type:uuid" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	CreatedAt time.Time `json:"created_at"`
}

// MemeHashtag links memes to hashtags
type MemeHashtag struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	MemeID    string `gorm:"not null;index;uniqueIndex:idx_meme_hashtags_unique" json:"meme_id"`
	HashtagID string `gorm:"not null;index;uniqueIndex:idx_meme_hashtags_unique" json:"hashtag_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Meme represents an uploaded meme (image or video)
type Meme struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Title     string    `gorm:"not null;index" json:"title"`
	MediaURL  string    `gorm:"not null" json:"media_url"`
	MediaType MediaKind `gorm:"type:varchar(10);default:image" json:"media_type"`

	CategoryID *string   `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	// One view per (user, meme), guarded by MemeView rows. This is the only
	// stored counter; like counts are always derived from meme_likes.
	Views int `gorm:"default:0" json:"views"`

	Comments []Comment `gorm:"foreignKey:MemeID" json:"comments,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Comment represents a comment on a meme.
// ParentID builds a self-referential tree of unbounded depth; a parent must
// be a comment on the same meme.
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	MemeID string `gorm:"not null;index" json:"meme_id"`
	Meme   Meme   `gorm:"foreignKey:MemeID" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Text string `gorm:"type:text;not null" json:"text"`

	ParentID *string    `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent   *Comment   `gorm:"foreignKey:ParentID" json:"-"`
	Replies  []*Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MemeLike marks that a user liked a meme. Existence is the like; the pair
// is unique so a toggle flips membership instead of incrementing anything.
type MemeLike struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_meme_likes_user_meme" json:"user_id"`
	MemeID string `gorm:"not null;index;uniqueIndex:idx_meme_likes_user_meme" json:"meme_id"`

	CreatedAt time.Time `json:"created_at"`
}

// CommentLike marks that a user liked a comment
type CommentLike struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string `gorm:"not null;index;uniqueIndex:idx_comment_likes_user_comment" json:"user_id"`
	CommentID string `gorm:"not null;index;uniqueIndex:idx_comment_likes_user_comment" json:"comment_id"`

	CreatedAt time.Time `json:"created_at"`
}

// MemeView records that a user has seen a meme, guarding the one-view-per-
// account-per-post rule on Meme.Views. Anonymous views are never recorded.
type MemeView struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_meme_views_user_meme" json:"user_id"`
	MemeID string `gorm:"not null;index;uniqueIndex:idx_meme_views_user_meme" json:"meme_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Follow is a directed edge in the follow graph. Self-edges are rejected at
// the service layer before they ever reach storage.
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"follower_id"`
	FollowedID string `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"followed_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Report is an immutable moderation report against a meme
type Report struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	MemeID     string `gorm:"not null;index" json:"meme_id"`
	Meme       Meme   `gorm:"foreignKey:MemeID" json:"-"`
	ReporterID string `gorm:"not null;index" json:"reporter_id"`
	Reporter   User   `gorm:"foreignKey:ReporterID" json:"-"`

	Reason string `gorm:"type:text;not null" json:"reason"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hooks for GORM

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (h *Hashtag) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = generateUUID()
	}
	return nil
}

func (mh *MemeHashtag) BeforeCreate(tx *gorm.DB) error {
	if mh.ID == "" {
		mh.ID = generateUUID()
	}
	return nil
}

func (m *Meme) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (l *MemeLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (l *CommentLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (v *MemeView) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = generateUUID()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}
