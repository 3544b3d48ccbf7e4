package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatwave-backend/internal/domain"
	redisrepo "chatwave-backend/internal/repository/redis"
	apperrors "chatwave-backend/pkg/errors"
	"chatwave-backend/pkg/jwt"
	"chatwave-backend/pkg/password"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, profilePic *string) error {
	args := m.Called(ctx, userID, fullName, profilePic)
	return args.Error(0)
}

func (m *mockUserRepo) ListOthers(ctx context.Context, userID uuid.UUID) ([]*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) CreateSession(ctx context.Context, session *redisrepo.Session, ttl time.Duration) error {
	args := m.Called(ctx, session, ttl)
	return args.Error(0)
}

func (m *mockSessionRepo) GetSession(ctx context.Context, refreshToken string) (*redisrepo.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redisrepo.Session), args.Error(1)
}

func (m *mockSessionRepo) DeleteSession(ctx context.Context, userID, refreshToken string) error {
	args := m.Called(ctx, userID, refreshToken)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteAllUserSessions(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newTestService(users *mockUserRepo, sessions *mockSessionRepo) *Service {
	jwtManager := jwt.NewManager("test-secret", 15*time.Minute, 24*time.Hour)
	return NewService(users, sessions, jwtManager)
}

func TestRegisterSuccess(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions)

	users.On("EmailExists", mock.Anything, "alice@example.com").Return(false, nil)
	users.On("UsernameExists", mock.Anything, "alice").Return(false, nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	sessions.On("CreateSession", mock.Anything, mock.AnythingOfType("*redis.Session"), mock.Anything).Return(nil)

	resp, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "s3cret-pass",
		FullName: "Alice Example",
	})

	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	users.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions)

	users.On("EmailExists", mock.Anything, "alice@example.com").Return(true, nil)

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "s3cret-pass",
		FullName: "Alice Example",
	})

	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeEmailExists, appErr.Code)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterShortPassword(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions)

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "abc",
		FullName: "Alice Example",
	})

	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
}

func TestLoginSuccess(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions)

	hash, err := password.Hash("s3cret-pass")
	require.NoError(t, err)
	user := &domain.User{
		UserID:       uuid.New(),
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: hash,
	}

	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
	sessions.On("CreateSession", mock.Anything, mock.AnythingOfType("*redis.Session"), mock.Anything).Return(nil)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	}, "test-agent", "127.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, user.UserID, resp.User.UserID)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
}

func TestLoginWrongPassword(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions)

	hash, err := password.Hash("s3cret-pass")
	require.NoError(t, err)
	user := &domain.User{UserID: uuid.New(), Email: "alice@example.com", PasswordHash: hash}

	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

	_, err = svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	}, "", "")

	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidCreds, appErr.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions)

	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	}, "", "")

	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidCreds, appErr.Code)
}

func TestRefreshRotatesSession(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions)

	user := &domain.User{UserID: uuid.New(), Email: "alice@example.com", Username: "alice"}
	jwtManager := jwt.NewManager("test-secret", 15*time.Minute, 24*time.Hour)
	refreshToken, err := jwtManager.GenerateRefreshToken(user.UserID)
	require.NoError(t, err)

	sessions.On("GetSession", mock.Anything, refreshToken).Return(&redisrepo.Session{
		UserID:       user.UserID.String(),
		RefreshToken: refreshToken,
	}, nil)
	users.On("GetByID", mock.Anything, user.UserID).Return(user, nil)
	sessions.On("DeleteSession", mock.Anything, user.UserID.String(), refreshToken).Return(nil)
	sessions.On("CreateSession", mock.Anything, mock.AnythingOfType("*redis.Session"), mock.Anything).Return(nil)

	resp, err := svc.Refresh(context.Background(), refreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, refreshToken, resp.Tokens.RefreshToken)
	sessions.AssertExpectations(t)
}

func TestRefreshRevokedSession(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions)

	jwtManager := jwt.NewManager("test-secret", 15*time.Minute, 24*time.Hour)
	refreshToken, err := jwtManager.GenerateRefreshToken(uuid.New())
	require.NoError(t, err)

	sessions.On("GetSession", mock.Anything, refreshToken).Return(nil, nil)

	_, err = svc.Refresh(context.Background(), refreshToken, "", "")
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidToken, appErr.Code)
}

func TestLogoutAll(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions)

	userID := uuid.New()
	sessions.On("DeleteAllUserSessions", mock.Anything, userID.String()).Return(nil)

	require.NoError(t, svc.LogoutAll(context.Background(), userID))
	sessions.AssertExpectations(t)
}

func TestUpdateAvatar(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions)

	avatarURL := "http://localhost:9000/chat-media/images/2026/08/31/abc.png"
	user := &domain.User{UserID: uuid.New(), Email: "alice@example.com", Username: "alice", FullName: "Alice"}
	updated := &domain.User{UserID: user.UserID, Email: user.Email, Username: user.Username, FullName: user.FullName, ProfilePic: &avatarURL}

	users.On("GetByID", mock.Anything, user.UserID).Return(user, nil).Once()
	users.On("UpdateProfile", mock.Anything, user.UserID, "Alice", mock.MatchedBy(func(pic *string) bool {
		return pic != nil && *pic == avatarURL
	})).Return(nil)
	users.On("GetByID", mock.Anything, user.UserID).Return(updated, nil)

	resp, err := svc.UpdateAvatar(context.Background(), user.UserID, avatarURL)
	require.NoError(t, err)
	require.NotNil(t, resp.ProfilePic)
	assert.Equal(t, avatarURL, *resp.ProfilePic)
	users.AssertExpectations(t)
}
