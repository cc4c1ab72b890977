package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	publicTreeCacheKey = "categories:public-tree"
	cacheKeyPrefix     = "categories"
	serviceName        = "admin-service"
)

// RedisClient хранит сериализованное публичное дерево категорий
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// NewRedisClientFromConn оборачивает готовый клиент (тесты с miniredis)
func NewRedisClientFromConn(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

func (r *RedisClient) SetPublicTree(ctx context.Context, tree []entity.PublicCategory, ttl time.Duration) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal category tree: %w", err)
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	if err := r.client.Set(ctx, publicTreeCacheKey, data, ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set category tree in cache: %w", err)
	}

	return nil
}

func (r *RedisClient) GetPublicTree(ctx context.Context) ([]entity.PublicCategory, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, publicTreeCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, cacheKeyPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get category tree from cache: %w", err)
	}

	var tree []entity.PublicCategory
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category tree: %w", err)
	}

	metrics.RecordCacheHit(serviceName, cacheKeyPrefix)
	return tree, nil
}

func (r *RedisClient) DeletePublicTree(ctx context.Context) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := r.client.Del(ctx, publicTreeCacheKey).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete category tree from cache: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
