package sink

import (
	"context"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const redisName = "redis"

// DefaultRedisStream is the stream key used when none is configured.
const DefaultRedisStream = "clevertap:profiles"

// RedisConfig configures a RedisStream.
type RedisConfig struct {
	// Stream is the key of the Redis stream.
	Stream string

	// MaxLen trims the stream to about this many entries. Zero keeps
	// every entry.
	MaxLen int64
}

// RedisStream appends every record to a Redis stream with XADD.
//
// Entry fields: stream, run_id, emitted_at (Unix milliseconds) and data
// (the record as a JSON object).
type RedisStream struct {
	redis  *redis.Client
	config RedisConfig
	owned  bool
}

// NewRedisStream creates a sink on an existing client. Close leaves the
// client open.
func NewRedisStream(redisClient *redis.Client, config RedisConfig) *RedisStream {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if config.Stream == "" {
		config.Stream = DefaultRedisStream
	}
	return &RedisStream{
		redis:  redisClient,
		config: config,
	}
}

// OpenRedisStream connects to the Redis server at rawURL
// (redis://[user:pass@]host:port/db) and checks it is reachable.
// Close closes the connection.
func OpenRedisStream(ctx context.Context, rawURL string, config RedisConfig) (*RedisStream, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	s := NewRedisStream(redisClient, config)
	s.owned = true
	return s, nil
}

// StreamKey returns the key records are appended to.
func (s *RedisStream) StreamKey() string {
	return s.config.Stream
}

// Write implements Sink.
func (s *RedisStream) Write(ctx context.Context, rec Record) error {
	data, err := json.Marshal(map[string]any(rec.Data))
	if err != nil {
		writeErrors.WithLabelValues(redisName).Inc()
		return fmt.Errorf("marshal record: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.config.Stream,
		Values: map[string]any{
			"stream":     rec.Stream,
			"run_id":     rec.RunID,
			"emitted_at": strconv.FormatInt(rec.EmittedAt.UnixMilli(), 10),
			"data":       string(data),
		},
	}
	if s.config.MaxLen > 0 {
		args.MaxLen = s.config.MaxLen
	}

	if err := s.redis.XAdd(ctx, args).Err(); err != nil {
		writeErrors.WithLabelValues(redisName).Inc()
		return fmt.Errorf("redis xadd: %w", err)
	}
	recordsWritten.WithLabelValues(redisName).Inc()
	return nil
}

// Close closes the connection if the sink opened it.
func (s *RedisStream) Close() error {
	if !s.owned {
		return nil
	}
	return s.redis.Close()
}
