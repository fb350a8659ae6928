package redisx

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps session tokens in Redis so every instance behind the load
// balancer sees the same sign-ins. Saving refreshes the TTL.
type TokenStore struct {
	rdb redis.Cmdable
}

func NewTokenStore(rdb redis.Cmdable) *TokenStore { return &TokenStore{rdb: rdb} }

func (s *TokenStore) Load(ctx context.Context, sessionID string) (string, error) {
	tok, err := s.rdb.Get(ctx, fmt.Sprintf(KeyToken, sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return tok, errors.Wrap(err, "redis get token")
}

func (s *TokenStore) Save(ctx context.Context, sessionID, token string) error {
	err := s.rdb.Set(ctx, fmt.Sprintf(KeyToken, sessionID), token, TTLToken).Err()
	return errors.Wrap(err, "redis set token")
}

func (s *TokenStore) Delete(ctx context.Context, sessionID string) error {
	err := s.rdb.Del(ctx, fmt.Sprintf(KeyToken, sessionID)).Err()
	return errors.Wrap(err, "redis del token")
}
