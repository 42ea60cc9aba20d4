package feed

import (
	"context"
	"testing"

	"github.com/idnofunny/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Meme{},
		&models.Comment{},
		&models.MemeLike{},
		&models.CommentLike{},
		&models.Follow{},
	)
	require.NoError(t, err)
	return db
}

func TestGormStoreLikeCountsByMeme(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.MemeLike{UserID: "u1", MemeID: "m1"}).Error)
	require.NoError(t, db.Create(&models.MemeLike{UserID: "u2", MemeID: "m1"}).Error)
	require.NoError(t, db.Create(&models.MemeLike{UserID: "u1", MemeID: "m2"}).Error)
	require.NoError(t, db.Create(&models.MemeLike{UserID: "u1", MemeID: "outside"}).Error)

	counts, err := store.LikeCountsByMeme(ctx, []string{"m1", "m2", "m3"})
	require.NoError(t, err)

	assert.Equal(t, int64(2), counts["m1"])
	assert.Equal(t, int64(1), counts["m2"])

	// Unliked memes are simply absent
	_, ok := counts["m3"]
	assert.False(t, ok)
	_, ok = counts["outside"]
	assert.False(t, ok, "memes outside the page must not leak in")
}

func TestGormStoreLikedMemeIDs(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.MemeLike{UserID: "viewer", MemeID: "m1"}).Error)
	require.NoError(t, db.Create(&models.MemeLike{UserID: "other", MemeID: "m2"}).Error)

	liked, err := store.LikedMemeIDs(ctx, "viewer", []string{"m1", "m2"})
	require.NoError(t, err)

	assert.True(t, liked["m1"])
	assert.False(t, liked["m2"], "another user's like is not the viewer's")
}

func TestGormStoreFollowedIDs(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Follow{FollowerID: "viewer", FollowedID: "owner1"}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: "owner2", FollowedID: "viewer"}).Error)

	followed, err := store.FollowedIDs(ctx, "viewer", []string{"owner1", "owner2"})
	require.NoError(t, err)

	assert.True(t, followed["owner1"])
	assert.False(t, followed["owner2"], "a follow edge is directed")
}

func TestGormStoreCommentAggregates(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	parent := models.Comment{MemeID: "m1", UserID: "u1", Text: "parent"}
	require.NoError(t, db.Create(&parent).Error)
	require.NoError(t, db.Create(&models.Comment{MemeID: "m1", UserID: "u2", Text: "reply a", ParentID: &parent.ID}).Error)
	require.NoError(t, db.Create(&models.Comment{MemeID: "m1", UserID: "u3", Text: "reply b", ParentID: &parent.ID}).Error)

	require.NoError(t, db.Create(&models.CommentLike{UserID: "viewer", CommentID: parent.ID}).Error)

	replies, err := store.ReplyCountsByComment(ctx, []string{parent.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), replies[parent.ID])

	likes, err := store.LikeCountsByComment(ctx, []string{parent.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), likes[parent.ID])

	liked, err := store.LikedCommentIDs(ctx, "viewer", []string{parent.ID})
	require.NoError(t, err)
	assert.True(t, liked[parent.ID])
}

func TestEngineWithGormStore(t *testing.T) {
	db := setupTestDB(t)
	engine := NewEngine(NewGormStore(db))
	ctx := context.Background()

	meme := models.Meme{UserID: "owner", Title: "cats", MediaURL: "/static/a.jpg"}
	require.NoError(t, db.Create(&meme).Error)
	require.NoError(t, db.Create(&models.MemeLike{UserID: "viewer", MemeID: meme.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: "viewer", FollowedID: "owner"}).Error)

	out, err := engine.Assemble(ctx, strPtr("viewer"), []models.Meme{meme}, SortRecency)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, int64(1), out[0].LikeCount)
	assert.True(t, out[0].LikedByMe)
	assert.True(t, out[0].OwnerFollowed)
}
