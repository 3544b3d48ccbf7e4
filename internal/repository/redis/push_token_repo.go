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
	pushTokenKeyPrefix = "push:token:"
	userTokensPrefix   = "push:user:"
	pushTokenTTL       = 90 * 24 * time.Hour
)

// PushToken represents a registered device push token
type PushToken struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"` // "fcm" or "apns"
	CreatedAt time.Time `json:"created_at"`
}

// PushTokenRepository manages device push tokens in Redis
type PushTokenRepository struct {
	redis *database.RedisClient
}

// NewPushTokenRepository creates a new push token repository
func NewPushTokenRepository(redis *database.RedisClient) *PushTokenRepository {
	return &PushTokenRepository{redis: redis}
}

func userTokensKey(userID string) string {
	return fmt.Sprintf("%s%s:tokens", userTokensPrefix, userID)
}

// RegisterToken stores a push token and links it to the user
func (r *PushTokenRepository) RegisterToken(ctx context.Context, token *PushToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal push token: %w", err)
	}

	if err := r.redis.SafeSet(ctx, pushTokenKeyPrefix+token.Token, data, pushTokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to store push token: %w", err)
	}
	if err := r.redis.SafeSAdd(ctx, userTokensKey(token.UserID), token.Token).Err(); err != nil {
		return fmt.Errorf("failed to index push token: %w", err)
	}
	return nil
}

// UnregisterToken removes a push token
func (r *PushTokenRepository) UnregisterToken(ctx context.Context, userID, token string) error {
	if err := r.redis.SafeDel(ctx, pushTokenKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete push token: %w", err)
	}
	if err := r.redis.SafeSRem(ctx, userTokensKey(userID), token).Err(); err != nil {
		return fmt.Errorf("failed to remove push token from index: %w", err)
	}
	return nil
}

// GetUserTokens returns all registered push tokens for a user. Tokens whose
// detail record has expired are pruned from the index as they are found.
func (r *PushTokenRepository) GetUserTokens(ctx context.Context, userID string) ([]*PushToken, error) {
	tokenStrings, err := r.redis.SafeSMembers(ctx, userTokensKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user push tokens: %w", err)
	}

	tokens := make([]*PushToken, 0, len(tokenStrings))
	for _, t := range tokenStrings {
		data, err := r.redis.SafeGet(ctx, pushTokenKeyPrefix+t).Bytes()
		if err != nil {
			if err == goredis.Nil {
				r.redis.SafeSRem(ctx, userTokensKey(userID), t)
				continue
			}
			return nil, fmt.Errorf("failed to get push token: %w", err)
		}
		var token PushToken
		if err := json.Unmarshal(data, &token); err != nil {
			continue
		}
		tokens = append(tokens, &token)
	}
	return tokens, nil
}
