// Package redisstore keeps the token pair in a Redis hash so several console
// processes on one host can share a session.
package redisstore

import (
	"context"
	"fmt"

	"github.com/DiegoxdGarcia2/smart-condominium/token"
	"github.com/redis/go-redis/v9"
)

var _ token.Store = (*Store)(nil)

type Store struct {
	client redis.UniversalClient
	key    string
}

func New(client redis.UniversalClient, key string) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("[redisstore.New] client is required")
	}
	if key == "" {
		return nil, fmt.Errorf("[redisstore.New] key is required")
	}
	return &Store{client: client, key: key}, nil
}

func (s *Store) Load(ctx context.Context) (token.Pair, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return token.Pair{}, fmt.Errorf("[redisstore.Load] %w", err)
	}
	return token.Pair{
		Access:  fields[token.AccessTokenKey],
		Refresh: fields[token.RefreshTokenKey],
	}, nil
}

// Save writes both fields in one MULTI/EXEC. When pair.Refresh is empty only
// the access field is replaced.
func (s *Store) Save(ctx context.Context, pair token.Pair) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if pair.Access == "" {
			pipe.HDel(ctx, s.key, token.AccessTokenKey)
		} else {
			pipe.HSet(ctx, s.key, token.AccessTokenKey, pair.Access)
		}
		if pair.Refresh != "" {
			pipe.HSet(ctx, s.key, token.RefreshTokenKey, pair.Refresh)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("[redisstore.Save] %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("[redisstore.Clear] %w", err)
	}
	return nil
}
