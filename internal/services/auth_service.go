package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"medibook-server/internal/apperror"
	"medibook-server/internal/config"
	"medibook-server/internal/models"
	"medibook-server/internal/utils"

	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidRefresh     = "Invalid or expired refresh token"
)

// dummyPasswordHash is compared against when the email is unknown so both
// login failures cost one bcrypt comparison.
var dummyPasswordHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
})

// TokenRevoker denylists access tokens until they expire.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=customer doctor admin"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by register, login and refresh.
type AuthResult struct {
	User         models.UserSanitized `json:"user"`
	Token        string               `json:"token"`
	RefreshToken string               `json:"refresh_token"`
}

// AuthService handles registration, login and token lifecycle.
type AuthService struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Revoker TokenRevoker
}

func NewAuthService(db *gorm.DB, cfg *config.Config, revoker TokenRevoker) *AuthService {
	return &AuthService{DB: db, Cfg: cfg, Revoker: revoker}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	db := s.DB.WithContext(ctx)

	user, err := createUser(db, in)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(db, user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	db := s.DB.WithContext(ctx)

	var user models.User
	if err := db.Where("email = ?", normalizeEmail(in.Email)).First(&user).Error; err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("find user by email: %w", err)
		}
		(&models.User{Password: dummyPasswordHash()}).CheckPassword(in.Password)
		return nil, apperror.BadRequest(msgInvalidCredentials)
	}

	if !user.CheckPassword(in.Password) {
		return nil, apperror.BadRequest(msgInvalidCredentials)
	}
	return s.issueTokens(db, &user)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := utils.ValidateToken(refreshToken, s.Cfg.JWTRefreshSecret)
	if err != nil {
		return nil, apperror.Unauthenticated(msgInvalidRefresh)
	}

	var result *AuthResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		err := forUpdate(tx).
			Where("token = ? AND user_id = ? AND is_revoked = ? AND expires_at > ?", refreshToken, claims.UserID, false, time.Now()).
			First(&stored).Error
		if err != nil {
			if isNotFound(err) {
				return apperror.Unauthenticated(msgInvalidRefresh)
			}
			return err
		}

		var user models.User
		if err := tx.First(&user, "id = ?", claims.UserID).Error; err != nil {
			if isNotFound(err) {
				return apperror.Unauthenticated(msgInvalidRefresh)
			}
			return err
		}

		if err := tx.Model(&stored).Update("is_revoked", true).Error; err != nil {
			return err
		}

		result, err = s.issueTokens(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Logout revokes the presented refresh token and, when a revoker is
// configured, the access token identified by tokenID.
func (s *AuthService) Logout(ctx context.Context, userID, tokenID string, tokenTTL time.Duration, refreshToken string) error {
	if refreshToken != "" {
		err := s.DB.WithContext(ctx).Model(&models.RefreshToken{}).
			Where("token = ? AND user_id = ?", refreshToken, userID).
			Update("is_revoked", true).Error
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
	}

	if s.Revoker != nil && tokenID != "" {
		if err := s.Revoker.RevokeToken(ctx, tokenID, tokenTTL); err != nil {
			log.Warnf("failed to denylist access token for user %s: %v", userID, err)
		}
	}
	return nil
}

func (s *AuthService) issueTokens(db *gorm.DB, user *models.User) (*AuthResult, error) {
	accessToken, refreshToken, err := utils.GenerateTokens(user, s.Cfg)
	if err != nil {
		return nil, err
	}

	stored := models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(time.Duration(s.Cfg.JWTRefreshExpirationHours) * time.Hour),
	}
	if err := db.Create(&stored).Error; err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResult{User: user.Sanitize(), Token: accessToken, RefreshToken: refreshToken}, nil
}

// createUser inserts a user with a hashed password, rejecting duplicate emails.
func createUser(db *gorm.DB, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if count > 0 {
		return nil, apperror.Conflict(msgUserExists)
	}

	user := models.User{
		Name:  in.Name,
		Email: email,
		Role:  models.Role(in.Role),
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict(msgUserExists)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}
