package handlers

import (
	"context"
	"time"

	"medibook-server/internal/middleware"
	"medibook-server/internal/services"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthService is the subset of services.AuthService used over HTTP.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Logout(ctx context.Context, userID, tokenID string, tokenTTL time.Duration, refreshToken string) error
}

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	Service AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service AuthService) *AuthHandler {
	return &AuthHandler{Service: service}
}

// RefreshTokenRequest carries the refresh token to rotate or revoke.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	res, err := h.Service.Register(c.Request.Context(), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, "User registered successfully", res)
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	res, err := h.Service.Login(c.Request.Context(), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Login successful", res)
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	res, err := h.Service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Token refreshed successfully", res)
}

// Logout revokes the caller's refresh token and access token. The body is optional.
func (h *AuthHandler) Logout(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req LogoutRequest
	if c.Request.ContentLength > 0 && !utils.BindAndValidate(c, &req) {
		return
	}

	tokenID, ttl := middleware.GetTokenFromContext(c)
	if err := h.Service.Logout(c.Request.Context(), caller.UserID, tokenID, ttl, req.RefreshToken); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Logged out successfully", nil)
}
