package push

import (
	"context"
	"encoding/json"
	"fmt"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/planline/backend/domain"
)

// RedisGateway publishes notifications on a per-user Redis channel. Edge
// servers holding the user's WebSocket subscribe to that channel and forward
// the payload; PUBLISH to a channel without subscribers is a no-op, which
// gives the required best-effort semantics for disconnected users.
type RedisGateway struct {
	client *redislib.Client
	prefix string
	logger *zap.Logger
}

// NewRedisGateway creates a gateway publishing on "<prefix><userID>".
func NewRedisGateway(client *redislib.Client, prefix string, logger *zap.Logger) *RedisGateway {
	if prefix == "" {
		prefix = "notify:user:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisGateway{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (g *RedisGateway) PushToUser(ctx context.Context, userID string, notification *domain.Notification) error {
	if g == nil || g.client == nil || userID == "" || notification == nil {
		return nil
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	channel := fmt.Sprintf("%s%s", g.prefix, userID)
	if err := g.client.Publish(ctx, channel, payload).Err(); err != nil {
		g.logger.Warn("real-time push failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return err
	}
	return nil
}

var _ Gateway = (*RedisGateway)(nil)
