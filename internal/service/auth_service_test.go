package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmart/buildmart_api/internal/models"
	"github.com/buildmart/buildmart_api/internal/utils"
)

type fakeUserStore struct {
	users  map[string]*models.User
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, utils.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, utils.ErrUserNotFound
}

func (f *fakeUserStore) ExistsEmail(_ context.Context, email string) (bool, error) {
	_, ok := f.users[email]
	return ok, nil
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.nextID++
	user.ID = f.nextID
	f.users[user.Email] = user
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	utils.SetJWTSecret("test-secret")
	svc := NewAuthService(newFakeUserStore())

	result, err := svc.Register(context.Background(), &RegisterRequest{
		Name:     "Ana",
		Email:    "Ana@Example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "ana@example.com", result.User.Email)
	assert.NotEqual(t, "correct-horse", result.User.PasswordHash)

	// Email lookup is case-insensitive on login too.
	login, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "ANA@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	utils.SetJWTSecret("test-secret")
	svc := NewAuthService(newFakeUserStore())

	_, err := svc.Register(context.Background(), &RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), &RegisterRequest{Name: "Ana Two", Email: "ana@example.com", Password: "password456"})
	assert.True(t, errors.Is(err, utils.ErrDuplicateEmail))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	utils.SetJWTSecret("test-secret")
	svc := NewAuthService(newFakeUserStore())

	_, err := svc.Register(context.Background(), &RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, utils.ErrInvalidCredentials))

	// Unknown user yields the same error as a wrong password.
	_, err = svc.Login(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.True(t, errors.Is(err, utils.ErrInvalidCredentials))
}
