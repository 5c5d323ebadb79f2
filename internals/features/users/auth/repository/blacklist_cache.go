package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const blacklistKeyPrefix = "automark:blacklist:"

// Blacklist: token_blacklist di DB, dengan redis (opsional) sebagai cache di depannya.
type Blacklist struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewBlacklist(db *gorm.DB, rdb *redis.Client) *Blacklist {
	return &Blacklist{db: db, redis: rdb}
}

// Add menyimpan hash token sampai expiredAt.
func (b *Blacklist) Add(ctx context.Context, tokenHash string, expiredAt time.Time) error {
	if err := BlacklistToken(ctx, b.db, tokenHash, expiredAt); err != nil {
		return err
	}
	if b.redis != nil {
		ttl := time.Until(expiredAt)
		if ttl > 0 {
			if err := b.redis.Set(ctx, blacklistKeyPrefix+tokenHash, "1", ttl).Err(); err != nil {
				log.Printf("[WARN] redis set blacklist gagal: %v", err)
			}
		}
	}
	return nil
}

// Contains: cek redis dulu, kalau miss/error jatuh ke DB.
func (b *Blacklist) Contains(ctx context.Context, tokenHash string) (bool, error) {
	if b.redis != nil {
		_, err := b.redis.Get(ctx, blacklistKeyPrefix+tokenHash).Result()
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, redis.Nil):
		default:
			log.Printf("[WARN] redis get blacklist gagal, fallback DB: %v", err)
		}
	}
	return IsTokenBlacklisted(ctx, b.db, tokenHash)
}

// NewRedisClient: nil kalau url kosong.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
