package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrResetTokenInvalid is returned for an unknown, used or expired reset token.
var ErrResetTokenInvalid = errors.New("reset token invalid or expired")

const resetKeyPrefix = "auth:reset:"

// ResetTokens issues single-use password reset tokens.
type ResetTokens interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, error)
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

// RedisResetTokens stores reset tokens in Redis with a TTL.
type RedisResetTokens struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisResetTokens creates a Redis-backed token store.
func NewRedisResetTokens(client *redis.Client, ttl time.Duration) *RedisResetTokens {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisResetTokens{client: client, ttl: ttl}
}

func newToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Issue creates a token for userID.
func (r *RedisResetTokens) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := r.client.Set(ctx, resetKeyPrefix+token, userID.String(), r.ttl).Err(); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// Consume returns the token's user and deletes the token.
func (r *RedisResetTokens) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := r.client.GetDel(ctx, resetKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrResetTokenInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("read reset token: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrResetTokenInvalid
	}
	return id, nil
}
