package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const defaultRedisChannel = "snapcopy-events"

// RedisConfig configures RedisSink.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
	Channel string `yaml:"channel"`
	// HistoryKey, when set, names a list holding the most recent payloads
	// of every event, newest first.
	HistoryKey  string `yaml:"history_key"`
	HistorySize int64  `yaml:"history_size"`
}

// RedisSink publishes every event on "<channel>:<event name>", so
// subscribers pick events with PSUBSCRIBE "<channel>:*" or a single name
// such as "snapcopy-events:snapshot.copy.requested".
type RedisSink struct {
	Client      *redis.Client
	Channel     string
	HistoryKey  string
	HistorySize int64
}

// NewRedisSink returns a RedisSink based on config.
func NewRedisSink(c RedisConfig) (*RedisSink, error) {
	if !c.Enabled || c.DSN == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(c.DSN)
	if err != nil {
		return nil, err
	}
	channel := c.Channel
	if channel == "" {
		channel = defaultRedisChannel
	}
	size := c.HistorySize
	if size <= 0 {
		size = 100
	}
	return &RedisSink{
		Client:      redis.NewClient(opt),
		Channel:     channel,
		HistoryKey:  c.HistoryKey,
		HistorySize: size,
	}, nil
}

// ChannelFor returns the pub/sub channel an event named name is published on.
func (s *RedisSink) ChannelFor(name string) string {
	return s.Channel + ":" + name
}

func (s *RedisSink) Emit(ctx context.Context, e Event) error {
	if s == nil || s.Client == nil {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Publish(ctx, s.ChannelFor(e.Name), data)
		if s.HistoryKey != "" {
			p.LPush(ctx, s.HistoryKey, data)
			p.LTrim(ctx, s.HistoryKey, 0, s.HistorySize-1)
		}
		return nil
	})
	return err
}

// Close closes the client.
func (s *RedisSink) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Close()
}
