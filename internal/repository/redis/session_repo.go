package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"chatwave-backend/internal/database"
)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user:sessions:"
)

// Session represents a refresh token session stored in Redis
type Session struct {
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"refresh_token"`
	UserAgent    string    `json:"user_agent"`
	ClientIP     string    `json:"client_ip"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionRepository manages refresh token sessions in Redis
type SessionRepository struct {
	redis *database.RedisClient
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(redis *database.RedisClient) *SessionRepository {
	return &SessionRepository{redis: redis}
}

// CreateSession stores a session keyed by its refresh token and indexes it
// under the owning user for bulk revocation
func (r *SessionRepository) CreateSession(ctx context.Context, session *Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	sessionKey := sessionKeyPrefix + session.RefreshToken
	if err := r.redis.SafeSet(ctx, sessionKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	userKey := userSessionKeyPrefix + session.UserID
	if err := r.redis.SafeSAdd(ctx, userKey, session.RefreshToken).Err(); err != nil {
		return fmt.Errorf("failed to index session: %w", err)
	}
	if err := r.redis.SafeExpire(ctx, userKey, ttl).Err(); err != nil {
		return fmt.Errorf("failed to expire session index: %w", err)
	}
	return nil
}

// GetSession retrieves a session by refresh token. Returns nil when the
// session does not exist or has expired.
func (r *SessionRepository) GetSession(ctx context.Context, refreshToken string) (*Session, error) {
	data, err := r.redis.SafeGet(ctx, sessionKeyPrefix+refreshToken).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// DeleteSession revokes a single session
func (r *SessionRepository) DeleteSession(ctx context.Context, userID, refreshToken string) error {
	if err := r.redis.SafeDel(ctx, sessionKeyPrefix+refreshToken).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := r.redis.SafeSRem(ctx, userSessionKeyPrefix+userID, refreshToken).Err(); err != nil {
		return fmt.Errorf("failed to remove session from index: %w", err)
	}
	return nil
}

// DeleteAllUserSessions revokes every session belonging to a user
func (r *SessionRepository) DeleteAllUserSessions(ctx context.Context, userID string) error {
	userKey := userSessionKeyPrefix + userID
	tokens, err := r.redis.SafeSMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, sessionKeyPrefix+t)
	}
	keys = append(keys, userKey)

	if err := r.redis.SafeDel(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}
