package util

import (
	"github.com/gin-gonic/gin"

	"github.com/idnofunny/backend/internal/models"
)

// GetUserFromContext returns the user the auth middleware loaded. On a
// missing or malformed entry it writes the error response itself and
// returns false, so handlers just bail out.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get("user")
	if !exists {
		RespondUnauthorized(c)
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok {
		RespondInternalError(c, "invalid user in context")
		return nil, false
	}
	return user, true
}

// GetUserIDFromContext is the id-only variant for handlers that never touch
// the account row
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		RespondUnauthorized(c)
		return "", false
	}
	userID, ok := v.(string)
	if !ok {
		RespondInternalError(c, "invalid user id in context")
		return "", false
	}
	return userID, true
}
