package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// DialRedis connects to addr and verifies the connection with a bounded PING.
func DialRedis(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisStore keeps each pending exchange as a JSON string under prefix+key.
// Put is SET NX and Take is GETDEL, so every instance sharing the server
// observes a single winner per key.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore builds a store. A positive ttl expires entries that are never
// answered; zero keeps them until taken.
func NewRedisStore(rdb *goredis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Put inserts ex under key. ErrDuplicate when key is already pending.
func (s *RedisStore) Put(ctx context.Context, key string, ex domain.Exchange) error {
	ex.CorrelationKey = key
	b, err := json.Marshal(ex)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, s.prefix+key, b, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

// Take removes and returns the exchange stored under key, or ErrNotFound.
// An entry that no longer decodes is consumed and reported as not found.
func (s *RedisStore) Take(ctx context.Context, key string) (*domain.Exchange, error) {
	b, err := s.rdb.GetDel(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var ex domain.Exchange
	if err := json.Unmarshal(b, &ex); err != nil {
		return nil, ErrNotFound
	}
	ex.CorrelationKey = key
	return &ex, nil
}

// Snapshot scans the prefix and returns every decodable entry.
func (s *RedisStore) Snapshot(ctx context.Context) (map[string]domain.Exchange, error) {
	out := map[string]domain.Exchange{}
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		b, err := s.rdb.Get(ctx, full).Bytes()
		if errors.Is(err, goredis.Nil) {
			continue // taken meanwhile
		}
		if err != nil {
			return nil, err
		}
		var ex domain.Exchange
		if err := json.Unmarshal(b, &ex); err != nil {
			continue
		}
		key := strings.TrimPrefix(full, s.prefix)
		ex.CorrelationKey = key
		out[key] = ex
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
