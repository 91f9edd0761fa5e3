package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// UserStore is the user persistence surface for authentication.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	ExistsEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

// AuthService handles registration and credential login.
type AuthService struct {
	users UserStore
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the credential login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResult carries the signed token plus the safe user profile.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a new customer account and returns a signed session token.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.users.ExistsEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, utils.ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := utils.GenerateJWT(user.ID, user.Name, user.IsAdmin)
	if err != nil {
		return nil, err
	}

	log.Info().Int("user_id", user.ID).Msg("User registered")
	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies the credentials and returns a signed session token. A
// missing user and a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrUserNotFound) {
			return nil, utils.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(user.ID, user.Name, user.IsAdmin)
	if err != nil {
		return nil, err
	}

	log.Info().Int("user_id", user.ID).Msg("User logged in")
	return &AuthResult{Token: token, User: user}, nil
}

// GetProfile returns the authenticated user's profile.
func (s *AuthService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}
