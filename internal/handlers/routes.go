package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/idnofunny/backend/internal/middleware"
)

// RouteOptions carries per-route middleware the server wires in. Nil
// entries are skipped, which is what the tests use.
type RouteOptions struct {
	// AuthLimiter throttles credential endpoints (login, register)
	AuthLimiter gin.HandlerFunc

	// UploadLimiter throttles meme and avatar uploads per user
	UploadLimiter gin.HandlerFunc

	// CommentLimiter throttles comment creation per user
	CommentLimiter gin.HandlerFunc
}

func chain(mw gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if mw == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{mw, handler}
}

// RegisterRoutes mounts the API under /api/v1
func (h *Handlers) RegisterRoutes(r *gin.Engine, opts RouteOptions) {
	api := r.Group("/api/v1")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", chain(opts.AuthLimiter, h.Register)...)
		authRoutes.POST("/verify", h.VerifyEmail)
		authRoutes.POST("/resend-code", h.ResendVerificationCode)
		authRoutes.POST("/login", chain(opts.AuthLimiter, h.Login)...)
		authRoutes.POST("/password/forgot", h.RequestPasswordReset)
		authRoutes.POST("/password/reset", h.ConfirmPasswordReset)
	}

	// Read endpoints work anonymously; a valid token adds the
	// viewer-relative annotations
	public := api.Group("", h.OptionalAuthMiddleware())
	{
		public.GET("/memes", h.GetFeed)
		public.GET("/memes/:id", h.GetMeme)
		public.GET("/memes/:id/comments", h.GetComments)
		public.GET("/categories", middleware.CacheResponse(5*time.Minute), h.GetCategories)
		public.GET("/users/:id", h.GetUserProfile)
		public.GET("/users/:id/followers", h.GetFollowers)
		public.GET("/users/:id/following", h.GetFollowing)
		public.GET("/users/:id/memes", h.GetUserMemes)
	}

	authed := api.Group("", h.AuthMiddleware())
	{
		authed.POST("/memes", chain(opts.UploadLimiter, h.CreateMeme)...)
		authed.DELETE("/memes/:id", h.DeleteMeme)
		authed.POST("/memes/:id/like", h.ToggleMemeLike)
		authed.POST("/memes/:id/report", h.ReportMeme)
		authed.POST("/memes/:id/comments", chain(opts.CommentLimiter, h.CreateComment)...)

		authed.POST("/comments/:commentId/like", h.ToggleCommentLike)
		authed.DELETE("/comments/:commentId", h.DeleteComment)

		authed.GET("/me", h.GetMe)
		authed.PATCH("/me", h.UpdateMe)
		authed.DELETE("/me", h.DeleteMe)
		authed.POST("/me/avatar", chain(opts.UploadLimiter, h.UploadAvatar)...)
		authed.GET("/me/likes", h.GetLikedMemes)
		authed.GET("/me/history", h.GetViewedMemes)

		authed.POST("/users/:id/follow", h.ToggleFollow)
	}
}
