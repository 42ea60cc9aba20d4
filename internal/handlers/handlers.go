package handlers

import (
	"github.com/idnofunny/backend/internal/auth"
	"github.com/idnofunny/backend/internal/feed"
	"github.com/idnofunny/backend/internal/media"
	"github.com/idnofunny/backend/internal/moderation"
	"github.com/idnofunny/backend/internal/social"
	"github.com/idnofunny/backend/internal/tasks"
)

// Handlers contains all HTTP handlers with their dependencies
type Handlers struct {
	auth      *auth.Service
	validator *media.Validator
	gate      *moderation.Gate
	engine    *feed.Engine
	social    *social.Service
	emails    *tasks.EmailQueue
}

// NewHandlers creates handlers with the given services. The email queue may
// be nil; verification and recovery emails are then skipped (codes still
// land in the code store, which is what the tests read).
func NewHandlers(
	authService *auth.Service,
	validator *media.Validator,
	gate *moderation.Gate,
	engine *feed.Engine,
	socialService *social.Service,
	emails *tasks.EmailQueue,
) *Handlers {
	return &Handlers{
		auth:      authService,
		validator: validator,
		gate:      gate,
		engine:    engine,
		social:    socialService,
		emails:    emails,
	}
}
