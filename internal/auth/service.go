package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/idnofunny/backend/internal/database"
	"github.com/idnofunny/backend/internal/logger"
	"github.com/idnofunny/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUsernameExists     = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("account not verified")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

const (
	verifyCodeTTL = 10 * time.Minute
	resetTokenTTL = 30 * time.Minute
	tokenLifetime = 24 * time.Hour
)

// CodeStore holds short-lived verification codes. *cache.RedisClient
// satisfies it; tests swap in a map.
type CodeStore interface {
	SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Service handles registration, login, email verification, password
// recovery and account anonymization.
type Service struct {
	jwtSecret []byte
	codes     CodeStore
}

// NewService creates a new authentication service
func NewService(jwtSecret []byte, codes CodeStore) *Service {
	return &Service{jwtSecret: jwtSecret, codes: codes}
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=30"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates an inactive user and issues a verification code. The
// caller is responsible for delivering the code by email; the account stays
// unusable until VerifyEmail sees it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, string, error) {
	var existing models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&existing).Error
	if err == nil {
		return nil, "", ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("database error: %w", err)
	}

	err = database.DB.Where("LOWER(username) = LOWER(?)", req.Username).First(&existing).Error
	if err == nil {
		return nil, "", ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("database error: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	hashedStr := string(hashed)
	user := models.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(req.Email),
		Username:     req.Username,
		PasswordHash: &hashedStr,
		IsActive:     false,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	code, err := s.issueVerificationCode(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	logger.Log.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
	)
	return &user, code, nil
}

// ResendVerificationCode issues a fresh code for an unverified account
func (s *Service) ResendVerificationCode(ctx context.Context, email string) (*models.User, string, error) {
	user, err := s.FindUserByEmail(email)
	if err != nil {
		return nil, "", err
	}
	if user.IsActive {
		return nil, "", ErrUserExists
	}

	code, err := s.issueVerificationCode(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, code, nil
}

// VerifyEmail activates the account when the code matches. Codes are single
// use: a successful match burns the key.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) (*AuthResponse, error) {
	user, err := s.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}

	key := verifyKey(user.ID)
	stored, err := s.codes.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("code lookup failed: %w", err)
	}
	if stored != code {
		return nil, ErrInvalidCode
	}

	user.IsActive = true
	if err := database.DB.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}
	if err := s.codes.Del(ctx, key); err != nil {
		logger.Log.Warn("failed to burn verification code", zap.Error(err))
	}

	logger.Log.Info("user verified", zap.String("user_id", user.ID))
	return s.generateAuthResponse(user)
}

// Login authenticates with email/password. Unverified accounts are turned
// away before the password is even checked.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.FindUserByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrNotVerified
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateAuthResponse(user)
}

// FindUserByEmail finds user by email (case-insensitive)
func (s *Service) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// generateAuthResponse creates JWT token and auth response
func (s *Service) generateAuthResponse(user *models.User) (*AuthResponse, error) {
	expiresAt := time.Now().Add(tokenLifetime)

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		Token:     tokenString,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a JWT token and returns fresh user data
func (s *Service) ValidateToken(tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid user_id in token")
	}

	var user models.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return &user, nil
}

// RequestPasswordReset stores a reset token on the user row and returns it
// for delivery. A missing or passwordless account returns nil without error
// so callers never reveal whether the email exists.
func (s *Service) RequestPasswordReset(email string) (*models.User, string, error) {
	var user models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("database error: %w", err)
	}
	if user.PasswordHash == nil {
		return nil, "", nil
	}

	tokenStr := strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", "")
	expires := time.Now().Add(resetTokenTTL)
	user.ResetToken = &tokenStr
	user.ResetTokenExpires = &expires
	if err := database.DB.Save(&user).Error; err != nil {
		return nil, "", fmt.Errorf("failed to store reset token: %w", err)
	}

	return &user, tokenStr, nil
}

// ResetPassword validates the reset token and updates the user's password
func (s *Service) ResetPassword(token, newPassword string) error {
	var user models.User
	err := database.DB.
		Where("reset_token = ? AND reset_token_expires > ?", token, time.Now()).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	hashedStr := string(hashed)
	user.PasswordHash = &hashedStr
	user.ResetToken = nil
	user.ResetTokenExpires = nil
	if err := database.DB.Save(&user).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	logger.Log.Info("password reset", zap.String("user_id", user.ID))
	return nil
}

// Anonymize scrubs an account in place instead of deleting the row, so the
// user's memes and comments keep a valid author. The handle and email become
// placeholders, credentials are invalidated and the account is deactivated.
func (s *Service) Anonymize(ctx context.Context, userID string) error {
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	user.Username = "deleted_" + suffix
	user.Email = "deleted_" + suffix + "@anonymized.invalid"
	user.PasswordHash = nil
	user.AvatarURL = nil
	user.ResetToken = nil
	user.ResetTokenExpires = nil
	user.IsActive = false

	if err := database.DB.Save(&user).Error; err != nil {
		return fmt.Errorf("failed to anonymize user: %w", err)
	}

	logger.Log.Info("account anonymized", zap.String("user_id", userID))
	return nil
}

// issueVerificationCode generates a 6-digit code and stores it for the TTL
func (s *Service) issueVerificationCode(ctx context.Context, userID string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	if err := s.codes.SetEx(ctx, verifyKey(userID), code, verifyCodeTTL); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}
	return code, nil
}

func verifyKey(userID string) string {
	return "verify:" + userID
}
