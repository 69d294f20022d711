// Package otc stores one-time codes that bridge the OAuth callback
// redirect to the API token exchange. A code is redeemable exactly once
// and expires on its own.
package otc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bryanfernandez-eng/linkvault/internal/service"
)

var ErrCodeNotFound = errors.New("code not found")

const keyPrefix = "otc:"

type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedis(cfg RedisConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Redis{
		rdb: rdb,
		ttl: cfg.TTL,
	}
}

type codeEntry struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (r *Redis) CreateCode(ctx context.Context, ts service.TokenPair) (string, error) {
	payload, err := json.Marshal(codeEntry{
		AccessToken:  ts.AccessToken,
		RefreshToken: ts.RefreshToken,
	})
	if err != nil {
		return "", fmt.Errorf("serialize tokens: %w", err)
	}

	// SetNX guards against the astronomically unlikely code collision.
	for range 3 {
		code := generateCode()
		ok, err := r.rdb.SetNX(ctx, keyPrefix+code, payload, r.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("store code in redis: %w", err)
		}
		if ok {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique code")
}

func (r *Redis) RedeemCode(ctx context.Context, code string) (service.TokenPair, error) {
	val, err := r.rdb.GetDel(ctx, keyPrefix+code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return service.TokenPair{}, ErrCodeNotFound
		}

		return service.TokenPair{}, fmt.Errorf("retrieve code from redis: %w", err)
	}

	var ce codeEntry
	if err := json.Unmarshal([]byte(val), &ce); err != nil {
		return service.TokenPair{}, fmt.Errorf("deserialize code entry: %w", err)
	}

	return service.TokenPair{
		AccessToken:  ce.AccessToken,
		RefreshToken: ce.RefreshToken,
	}, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func generateCode() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}
