package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"sensor-anomaly-analyzer/models"
)

const keyPrefix = "analysis:"

// ErrUnavailable is returned by NoopStore and by handlers when no result store is configured.
var ErrUnavailable = errors.New("result store unavailable")

// ResultStore keeps analysis results keyed by run id.
type ResultStore interface {
	SaveAnalysis(ctx context.Context, result models.AnalysisResult) error
	GetAnalysis(ctx context.Context, runID string) (*models.AnalysisResult, error)
	Close() error
}

type Options struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	TTL          time.Duration
}

type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(ctx context.Context, opts Options) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	return &RedisClient{
		client: rdb,
		ttl:    opts.TTL,
	}, nil
}

func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

// SaveAnalysis stores the result as JSON. A zero TTL keeps it until evicted by redis.
func (rc *RedisClient) SaveAnalysis(ctx context.Context, result models.AnalysisResult) error {
	if result.RunID == "" {
		return errors.New("run id is required")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}

	return rc.client.Set(ctx, keyPrefix+result.RunID, data, rc.ttl).Err()
}

// GetAnalysis returns nil, nil when no result is stored under runID.
func (rc *RedisClient) GetAnalysis(ctx context.Context, runID string) (*models.AnalysisResult, error) {
	val, err := rc.client.Get(ctx, keyPrefix+runID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", runID, err)
	}

	return &result, nil
}

// NoopStore discards results. It stands in when redis is disabled.
type NoopStore struct{}

func (NoopStore) SaveAnalysis(context.Context, models.AnalysisResult) error { return nil }

func (NoopStore) GetAnalysis(context.Context, string) (*models.AnalysisResult, error) {
	return nil, ErrUnavailable
}

func (NoopStore) Close() error { return nil }
