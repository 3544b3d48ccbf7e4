package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatwave-backend/internal/database"
	"chatwave-backend/pkg/logger"
)

const (
	presenceOnlineKey = "presence:online"
	presenceUserKey   = "presence:user:%s"
)

// PresenceRepository mirrors the in-memory connection registry into Redis so
// that auxiliary surfaces (push decisions, directory listings) can read
// online status without touching the hub.
type PresenceRepository struct {
	redis *database.RedisClient
	ttl   time.Duration
}

// NewPresenceRepository creates a new presence repository
func NewPresenceRepository(redis *database.RedisClient, ttl time.Duration) *PresenceRepository {
	return &PresenceRepository{redis: redis, ttl: ttl}
}

// SetOnline marks a user as online. Best effort; presence truth lives in the
// registry and a degraded Redis only costs freshness of the mirror.
func (r *PresenceRepository) SetOnline(ctx context.Context, userID uuid.UUID) {
	if err := r.redis.SafeSAdd(ctx, presenceOnlineKey, userID.String()).Err(); err != nil {
		logger.Warn("failed to mirror online presence", zap.Error(err), zap.String("user_id", userID.String()))
		return
	}
	userKey := fmt.Sprintf(presenceUserKey, userID.String())
	if err := r.redis.SafeSet(ctx, userKey, time.Now().UTC().Format(time.RFC3339), r.ttl).Err(); err != nil {
		logger.Warn("failed to set presence heartbeat", zap.Error(err), zap.String("user_id", userID.String()))
	}
}

// SetOffline marks a user as offline
func (r *PresenceRepository) SetOffline(ctx context.Context, userID uuid.UUID) {
	if err := r.redis.SafeSRem(ctx, presenceOnlineKey, userID.String()).Err(); err != nil {
		logger.Warn("failed to mirror offline presence", zap.Error(err), zap.String("user_id", userID.String()))
	}
	userKey := fmt.Sprintf(presenceUserKey, userID.String())
	if err := r.redis.SafeDel(ctx, userKey).Err(); err != nil {
		logger.Warn("failed to clear presence heartbeat", zap.Error(err), zap.String("user_id", userID.String()))
	}
}

// IsOnline reports whether the user appears in the online mirror
func (r *PresenceRepository) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := r.redis.SafeSIsMember(ctx, presenceOnlineKey, userID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check presence: %w", err)
	}
	return n, nil
}

// OnlineUsers returns the set of user IDs currently mirrored as online
func (r *PresenceRepository) OnlineUsers(ctx context.Context) ([]uuid.UUID, error) {
	members, err := r.redis.SafeSMembers(ctx, presenceOnlineKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list online users: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// OnlineCount returns how many users are mirrored as online
func (r *PresenceRepository) OnlineCount(ctx context.Context) (int64, error) {
	n, err := r.redis.SafeSCard(ctx, presenceOnlineKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count online users: %w", err)
	}
	return n, nil
}
