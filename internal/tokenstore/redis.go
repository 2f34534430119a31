package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/chronicleink/newswave/internal/config"
)

const redisKeyPrefix = "newswave:tokens:"

// RedisProvider хранит данные экземпляра в хеше newswave:tokens:<instance>.
type RedisProvider struct {
	Db *redis.Client
}

// NewRedisProvider подключается к redis и проверяет соединение.
func NewRedisProvider(ctx context.Context, cfg config.RedisConnection) (*RedisProvider, error) {
	const op = "tokenstore.NewRedisProvider"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RedisProvider{Db: db}, nil
}

// Open возвращает хранилище экземпляра.
func (p *RedisProvider) Open(_ context.Context, instance string) (Store, error) {
	return &redisStore{db: p.Db, hash: redisKeyPrefix + instance}, nil
}

// Close закрывает клиент.
func (p *RedisProvider) Close() error {
	return p.Db.Close()
}

type redisStore struct {
	db   *redis.Client
	hash string
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	const op = "tokenstore.redis.Get"
	val, err := s.db.HGet(ctx, s.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return val, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	const op = "tokenstore.redis.Set"
	if err := s.db.HSet(ctx, s.hash, key, value).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	const op = "tokenstore.redis.Delete"
	if err := s.db.HDel(ctx, s.hash, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context) error {
	const op = "tokenstore.redis.Clear"
	if err := s.db.Del(ctx, s.hash).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
