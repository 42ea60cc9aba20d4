package moderation

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/idnofunny/backend/internal/models"
	"gorm.io/gorm"
)

// Rejection reasons, in the order the gate checks them. Flood gets its own
// reason so clients can tell "slow down" apart from "don't repeat yourself".
var (
	ErrProfanity      = errors.New("comment contains inappropriate language")
	ErrDuplicate      = errors.New("comment repeats the author's previous comment")
	ErrFlood          = errors.New("comment submitted too soon after the previous one")
	ErrParentNotFound = errors.New("parent comment not found")
)

// floodInterval is the minimum gap between two comments by the same author
// on the same meme.
const floodInterval = time.Second

// Store is the slice of comment history the gate reads. It never writes.
type Store interface {
	// LastCommentByAuthor returns the author's most recent comment on the
	// meme, or nil when there is none.
	LastCommentByAuthor(ctx context.Context, memeID, authorID string) (*models.Comment, error)

	// ParentExists reports whether the comment exists on the given meme.
	ParentExists(ctx context.Context, parentID, memeID string) (bool, error)
}

// CommentInput is a candidate comment before persistence
type CommentInput struct {
	AuthorID string
	MemeID   string
	Text     string
	ParentID *string
}

// Gate evaluates candidate comments against the anti-abuse policies. It is
// stateless beyond reading the author's comment history; on accept it stores
// nothing and simply signals the caller to persist.
type Gate struct {
	store  Store
	filter *WordFilter
	minGap time.Duration
	now    func() time.Time
}

// NewGate creates a gate with the base dictionary plus the curated
// supplemental word list.
func NewGate(store Store) *Gate {
	return &Gate{
		store:  store,
		filter: NewWordFilter(baseWords, supplementalWords),
		minGap: floodInterval,
		now:    time.Now,
	}
}

// Evaluate runs the checks in fixed order, short-circuiting on the first
// failure: profanity, exact duplicate, flood rate, parent validity.
func (g *Gate) Evaluate(ctx context.Context, in CommentInput) error {
	if g.filter.Match(in.Text) {
		return ErrProfanity
	}

	last, err := g.store.LastCommentByAuthor(ctx, in.MemeID, in.AuthorID)
	if err != nil {
		return err
	}
	if last != nil {
		if equalNormalized(last.Text, in.Text) {
			return ErrDuplicate
		}
		if g.now().Sub(last.CreatedAt) < g.minGap {
			return ErrFlood
		}
	}

	if in.ParentID != nil && *in.ParentID != "" {
		// The parent must be a comment on the same meme; cross-meme
		// replies are rejected as not found.
		ok, err := g.store.ParentExists(ctx, *in.ParentID, in.MemeID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrParentNotFound
		}
	}

	return nil
}

// equalNormalized compares comment texts case-insensitively after trimming
// surrounding whitespace.
func equalNormalized(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// WordFilter matches whole words against a flat dictionary
type WordFilter struct {
	words map[string]struct{}
}

// NewWordFilter builds a filter from one or more word lists
func NewWordFilter(lists ...[]string) *WordFilter {
	words := make(map[string]struct{})
	for _, list := range lists {
		for _, w := range list {
			words[strings.ToLower(w)] = struct{}{}
		}
	}
	return &WordFilter{words: words}
}

// Match reports whether any word in the text is on the dictionary. Matching
// is case-insensitive and tokenizes on anything that is not a letter or
// digit, so punctuation never hides a match.
func (f *WordFilter) Match(text string) bool {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if _, ok := f.words[tok]; ok {
			return true
		}
	}
	return false
}

// GormStore reads comment history through gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm handle as the gate's history reader
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) LastCommentByAuthor(ctx context.Context, memeID, authorID string) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).
		Where("meme_id = ? AND user_id = ?", memeID, authorID).
		Order("created_at DESC").
		First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *GormStore) ParentExists(ctx context.Context, parentID, memeID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND meme_id = ?", parentID, memeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
