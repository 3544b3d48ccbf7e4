// Package auth implements account registration, login, and refresh token
// session management.
package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatwave-backend/internal/domain"
	redisrepo "chatwave-backend/internal/repository/redis"
	"chatwave-backend/pkg/constants"
	apperrors "chatwave-backend/pkg/errors"
	"chatwave-backend/pkg/jwt"
	"chatwave-backend/pkg/logger"
	"chatwave-backend/pkg/password"
)

// UserRepository defines the user persistence operations the service needs
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, profilePic *string) error
	ListOthers(ctx context.Context, userID uuid.UUID) ([]*domain.User, error)
}

// SessionRepository defines the refresh session operations the service needs
type SessionRepository interface {
	CreateSession(ctx context.Context, session *redisrepo.Session, ttl time.Duration) error
	GetSession(ctx context.Context, refreshToken string) (*redisrepo.Session, error)
	DeleteSession(ctx context.Context, userID, refreshToken string) error
	DeleteAllUserSessions(ctx context.Context, userID string) error
}

// Service implements authentication business logic
type Service struct {
	users      UserRepository
	sessions   SessionRepository
	jwtManager *jwt.Manager
}

// NewService creates a new auth service
func NewService(users UserRepository, sessions SessionRepository, jwtManager *jwt.Manager) *Service {
	return &Service{users: users, sessions: sessions, jwtManager: jwtManager}
}

// Register creates a new account and signs it in
func (s *Service) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	if err := password.Validate(req.Password); err != nil {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeValidation, err.Error(), http.StatusBadRequest)
	}

	emailTaken, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to check email", err)
	}
	if emailTaken {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeEmailExists, "email already registered", http.StatusConflict)
	}

	usernameTaken, err := s.users.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to check username", err)
	}
	if usernameTaken {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeUsernameExists, "username already taken", http.StatusConflict)
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to hash password", err)
	}

	user := &domain.User{
		UserID:       uuid.New(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		FullName:     req.FullName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to create user", err)
	}

	logger.Info("user registered",
		zap.String("user_id", user.UserID.String()),
		zap.String("username", user.Username))

	return s.issueTokens(ctx, user, "", "")
}

// Login verifies credentials and starts a session
func (s *Service) Login(ctx context.Context, req *domain.LoginRequest, userAgent, clientIP string) (*domain.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to look up user", err)
	}
	if user == nil || !password.Verify(user.PasswordHash, req.Password) {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeInvalidCreds, "invalid email or password", http.StatusUnauthorized)
	}

	logger.Info("user logged in", zap.String("user_id", user.UserID.String()))
	return s.issueTokens(ctx, user, userAgent, clientIP)
}

// Refresh exchanges a live refresh token for a new token pair, rotating the
// session in the process
func (s *Service) Refresh(ctx context.Context, refreshToken, userAgent, clientIP string) (*domain.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeInvalidToken, "invalid refresh token", http.StatusUnauthorized)
	}

	session, err := s.sessions.GetSession(ctx, refreshToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to load session", err)
	}
	if session == nil {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeInvalidToken, "session expired or revoked", http.StatusUnauthorized)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to look up user", err)
	}
	if user == nil {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeUserNotFound, "user no longer exists", http.StatusUnauthorized)
	}

	if err := s.sessions.DeleteSession(ctx, claims.UserID.String(), refreshToken); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to rotate session", err)
	}

	return s.issueTokens(ctx, user, userAgent, clientIP)
}

// Logout revokes a single session
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if err := s.sessions.DeleteSession(ctx, userID.String(), refreshToken); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to revoke session", err)
	}
	return nil
}

// LogoutAll revokes every session the user has
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.DeleteAllUserSessions(ctx, userID.String()); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to revoke sessions", err)
	}
	return nil
}

// GetProfile returns a user's public profile
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to look up user", err)
	}
	if user == nil {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeUserNotFound, "user not found", http.StatusNotFound)
	}
	return user.ToResponse(), nil
}

// UpdateProfile changes a user's display name and optionally profile picture
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, profilePic *string) (*domain.UserResponse, error) {
	if err := s.users.UpdateProfile(ctx, userID, fullName, profilePic); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to update profile", err)
	}
	return s.GetProfile(ctx, userID)
}

// UpdateAvatar points a user's profile picture at a freshly uploaded URL
func (s *Service) UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) (*domain.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to look up user", err)
	}
	if user == nil {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeUserNotFound, "user not found", http.StatusNotFound)
	}
	return s.UpdateProfile(ctx, userID, user.FullName, &url)
}

// ListContacts returns every other user for the conversation sidebar
func (s *Service) ListContacts(ctx context.Context, userID uuid.UUID) ([]*domain.UserResponse, error) {
	users, err := s.users.ListOthers(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to list users", err)
	}
	out := make([]*domain.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.ToResponse()
	}
	return out, nil
}

func (s *Service) issueTokens(ctx context.Context, user *domain.User, userAgent, clientIP string) (*domain.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.UserID, user.Email, user.Username)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to issue access token", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.UserID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to issue refresh token", err)
	}

	now := time.Now().UTC()
	session := &redisrepo.Session{
		UserID:       user.UserID.String(),
		RefreshToken: refreshToken,
		UserAgent:    userAgent,
		ClientIP:     clientIP,
		CreatedAt:    now,
		ExpiresAt:    now.Add(constants.RefreshTokenExpiry),
	}
	if err := s.sessions.CreateSession(ctx, session, constants.RefreshTokenExpiry); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to store session", err)
	}

	return &domain.AuthResponse{
		User: user.ToResponse(),
		Tokens: domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
	}, nil
}
