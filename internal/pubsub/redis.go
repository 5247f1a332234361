package pubsub

import (
	"context"
	"fmt"

	"github.com/ZJUSCT/rankboard/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay republishes broker topics to redis so bots running in other
// processes can follow leaderboard changes.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
}

func NewRedisRelay(ctx context.Context, cfg config.Redis) (*RedisRelay, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	zap.S().Infof("connected to redis at %s", cfg.Addr)
	return &RedisRelay{rdb: rdb, channel: cfg.Channel}, nil
}

// ChannelFor is the redis channel a broker topic is relayed to.
func (r *RedisRelay) ChannelFor(topic string) string {
	return r.channel + ":" + topic
}

// Forward relays topic until ctx is done or the topic is closed.
func (r *RedisRelay) Forward(ctx context.Context, broker *Broker, topic string) {
	msgs, unsubscribe := broker.Subscribe(topic)
	defer unsubscribe()

	channel := r.ChannelFor(topic)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if err := r.rdb.Publish(ctx, channel, msg).Err(); err != nil {
				zap.S().Warnf("relay %s to redis: %v", topic, err)
			}
		}
	}
}

func (r *RedisRelay) Close() error {
	return r.rdb.Close()
}
