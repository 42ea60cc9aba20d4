package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/idnofunny/backend/internal/auth"
	"github.com/idnofunny/backend/internal/dto"
	"github.com/idnofunny/backend/internal/logger"
	"github.com/idnofunny/backend/internal/models"
	"github.com/idnofunny/backend/internal/util"
)

// verifyRequest carries an email verification attempt
type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// emailRequest is shared by resend-code and password recovery
type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// resetRequest confirms a password reset with the emailed token
type resetRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// Register creates an inactive account and emails its verification code
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	user, code, err := h.auth.Register(c.Request.Context(), req)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		util.RespondConflict(c, "email")
		return
	case errors.Is(err, auth.ErrUsernameExists):
		util.RespondConflict(c, "username")
		return
	case err != nil:
		logger.Log.Error("registration failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to register")
		return
	}

	h.sendVerificationEmail(user.Email, code)

	c.JSON(http.StatusCreated, gin.H{
		"user":    dto.ToUserResponse(user),
		"message": "Verification code sent to your email",
	})
}

// VerifyEmail activates an account with its emailed code and logs it in
func (h *Handlers) VerifyEmail(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		util.RespondNotFound(c, "user")
		return
	case errors.Is(err, auth.ErrInvalidCode):
		util.RespondBadRequest(c, "Invalid or expired verification code")
		return
	case err != nil:
		logger.Log.Error("email verification failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to verify email")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ResendVerificationCode issues a fresh code for an unverified account
func (h *Handlers) ResendVerificationCode(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	user, code, err := h.auth.ResendVerificationCode(c.Request.Context(), req.Email)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		util.RespondNotFound(c, "user")
		return
	case err != nil:
		logger.Log.Error("resend verification failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to resend code")
		return
	}

	h.sendVerificationEmail(user.Email, code)

	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent to your email"})
}

// Login authenticates a verified account and returns a JWT
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	switch {
	case errors.Is(err, auth.ErrNotVerified):
		util.RespondForbidden(c, "Email not verified")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		util.RespondUnauthorized(c, "Invalid email or password")
		return
	case err != nil:
		logger.Log.Error("login failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RequestPasswordReset emails a reset token. The response never reveals
// whether the address belongs to an account.
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	user, token, err := h.auth.RequestPasswordReset(req.Email)
	if err != nil {
		logger.Log.Error("password reset request failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to process request")
		return
	}
	if user != nil && h.emails != nil {
		if _, err := h.emails.SubmitPasswordReset(user.Email, token); err != nil {
			logger.Log.Error("failed to queue reset email",
				zap.String("email", user.Email), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "If that email exists, a reset link is on its way"})
}

// ConfirmPasswordReset sets a new password using an emailed reset token
func (h *Handlers) ConfirmPasswordReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	err := h.auth.ResetPassword(req.Token, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidResetToken):
		util.RespondBadRequest(c, "Invalid or expired reset token")
		return
	case err != nil:
		logger.Log.Error("password reset failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to reset password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (h *Handlers) sendVerificationEmail(to, code string) {
	if h.emails == nil {
		return
	}
	if _, err := h.emails.SubmitVerification(to, code); err != nil {
		logger.Log.Error("failed to queue verification email",
			zap.String("email", to), zap.Error(err))
	}
}

// AuthMiddleware validates the Bearer token and loads the current user into
// the request context
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := h.userFromBearer(c)
		if !ok {
			util.RespondUnauthorized(c)
			c.Abort()
			return
		}
		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// OptionalAuthMiddleware loads the current user when a valid token is
// present and lets anonymous requests straight through
func (h *Handlers) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := h.userFromBearer(c); ok {
			c.Set("user_id", user.ID)
			c.Set("user", user)
		}
		c.Next()
	}
}

func (h *Handlers) userFromBearer(c *gin.Context) (*models.User, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, false
	}
	user, err := h.auth.ValidateToken(token)
	if err != nil {
		return nil, false
	}
	return user, true
}
