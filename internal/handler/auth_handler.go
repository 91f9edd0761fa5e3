package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/buildmart/buildmart_api/internal/service"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// AuthHandler handles registration, login, and profile endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new customer account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid registration payload")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, utils.ErrDuplicateEmail) {
			utils.Error(c, 409, "DUPLICATE_EMAIL", "An account with this email already exists")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to register")
		return
	}

	utils.Success(c, 201, "Registered successfully", result)
}

// Login verifies credentials and returns a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid login payload")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredentials) {
			utils.Error(c, 401, "INVALID_CREDENTIALS", "Email or password is incorrect")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to login")
		return
	}

	utils.Success(c, 200, "Logged in successfully", result)
}

// GetProfile returns the authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := c.GetInt("user_id")
	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, utils.ErrUserNotFound) {
			utils.Error(c, 404, "USER_NOT_FOUND", "User not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get profile")
		return
	}

	utils.Success(c, 200, "Profile retrieved successfully", gin.H{"user": user})
}
