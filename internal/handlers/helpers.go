package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/idnofunny/backend/internal/database"
)

// viewerID returns the authenticated user's ID as a pointer, or nil for
// anonymous requests. The feed engine keys its per-viewer lookups off this.
// Unlike util.GetUserIDFromContext it never writes a response, so it is
// safe on optionally-authenticated routes.
func viewerID(c *gin.Context) *string {
	value, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	if id, ok := value.(string); ok && id != "" {
		return &id
	}
	return nil
}

// hashtagNamesByMeme loads hashtag names for a page of memes in one query
func hashtagNamesByMeme(memeIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(memeIDs))
	if len(memeIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		MemeID string
		Name   string
	}
	err := database.DB.
		Table("meme_hashtags").
		Select("meme_hashtags.meme_id, hashtags.name").
		Joins("JOIN hashtags ON hashtags.id = meme_hashtags.hashtag_id").
		Where("meme_hashtags.meme_id IN ?", memeIDs).
		Order("hashtags.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.MemeID] = append(result[row.MemeID], row.Name)
	}
	return result, nil
}
