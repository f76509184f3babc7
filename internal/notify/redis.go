// Package notify delivers transient user-visible notifications. Every
// asynchronous outcome, success or failure, surfaces as exactly one
// notification; this is the sole error/status surface toward the user.
package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
)

const userChannelPrefix = "mytolk:notify:"

// UserChannel returns the pub/sub channel carrying notifications for a user.
func UserChannel(userID uuid.UUID) string {
	return userChannelPrefix + userID.String()
}

var _ model.Notifier = (*RedisNotifier)(nil)

// RedisNotifier publishes notifications to a per-user Redis channel, from
// which connected WebSocket clients receive them.
type RedisNotifier struct {
	rdb    *redis.Client
	logger *logger.Logger
}

func NewRedisNotifier(rdb *redis.Client, logger *logger.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, logger: logger}
}

// Notify is best-effort: a notification that cannot be delivered is logged
// and dropped, never failing the operation that produced it.
func (n *RedisNotifier) Notify(ctx context.Context, userID uuid.UUID, notification model.Notification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		n.logger.Error("failed to marshal notification",
			"user_id", userID,
			"error", err.Error())
		return
	}

	if err := n.rdb.Publish(ctx, UserChannel(userID), payload).Err(); err != nil {
		n.logger.Error("failed to publish notification",
			"user_id", userID,
			"title", notification.Title,
			"error", err.Error())
	}
}

// Subscribe opens the raw pub/sub handle for a user's notifications.
func (n *RedisNotifier) Subscribe(ctx context.Context, userID uuid.UUID) *redis.PubSub {
	return n.rdb.Subscribe(ctx, UserChannel(userID))
}
