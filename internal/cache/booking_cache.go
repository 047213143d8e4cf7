// Package cache keeps resolved bookings in Redis so that list views do not
// hit the booking directory once per plan.
package cache

import (
	"alcyxob/club-app/internal/config"
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const bookingKeyPrefix = "club:booking:"

// Store is the part of a Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// NewRedisClient connects to Redis and checks the connection with a ping.
func NewRedisClient(cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	logger.Info("redis connected", zap.String("addr", cfg.Addr))
	return rdb, nil
}

type cachedBookingDirectory struct {
	next   repository.BookingDirectory
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedBookingDirectory caches GetByID results for ttl. Cache errors are
// logged and never fail a lookup. ListByTeam is not cached: candidate
// schedules depend on the current time.
func NewCachedBookingDirectory(next repository.BookingDirectory, store Store, ttl time.Duration, logger *zap.Logger) repository.BookingDirectory {
	return &cachedBookingDirectory{next: next, store: store, ttl: ttl, logger: logger}
}

func bookingKey(id primitive.ObjectID) string {
	return bookingKeyPrefix + id.Hex()
}

func (c *cachedBookingDirectory) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Booking, error) {
	key := bookingKey(id)

	raw, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var booking domain.Booking
		if err := json.Unmarshal(raw, &booking); err == nil {
			return &booking, nil
		}
		c.logger.Warn("dropping undecodable cached booking", zap.String("key", key))
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.logger.Warn("booking cache read failed", zap.String("key", key), zap.Error(err))
	}

	booking, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(booking); err == nil {
		if err := c.store.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("booking cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return booking, nil
}

func (c *cachedBookingDirectory) ListByTeam(ctx context.Context, teamID primitive.ObjectID, purpose domain.BookingPurpose, from time.Time) ([]domain.Booking, error) {
	return c.next.ListByTeam(ctx, teamID, purpose, from)
}
