package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisScanBatch = 128

// RedisStore shares the query cache between dashboard processes through
// Redis. Keys are namespaced under "toq:" so the store can coexist with
// other tenants of the same server.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis at addr. A positive ttl bounds how long
// entries survive without a write; zero keeps them until invalidated.
func NewRedisStore(addr string, password string, db int, ttl time.Duration) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: rdb, prefix: "toq:", ttl: ttl}
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key.Canonical()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis cache get: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("redis cache decode: %w", err)
	}
	return entry, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis cache encode: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key.Canonical(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, key Key) error {
	return s.invalidateRaw(ctx, s.prefix+key.Canonical())
}

func (s *RedisStore) invalidateRaw(ctx context.Context, raw string) error {
	data, err := s.client.Get(ctx, raw).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis cache get: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Unreadable entries cannot be trusted either way; drop them.
		return s.client.Del(ctx, raw).Err()
	}
	entry.Stale = true
	updated, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis cache encode: %w", err)
	}
	if err := s.client.Set(ctx, raw, updated, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

func (s *RedisStore) InvalidatePrefix(ctx context.Context, prefix Key) error {
	raws, err := s.scanPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	for _, raw := range raws {
		if err := s.invalidateRaw(ctx, raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, s.prefix+key.Canonical()).Err(); err != nil {
		return fmt.Errorf("redis cache del: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	raws, err := s.scanPrefix(ctx, Key{})
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, raws...).Err(); err != nil {
		return fmt.Errorf("redis cache clear: %w", err)
	}
	return nil
}

// scanPrefix lists the raw Redis keys whose parts start with prefix. The
// SCAN glob narrows the candidates; the elementwise check decides, since
// glob matching cannot distinguish part boundaries inside the encoding.
func (s *RedisStore) scanPrefix(ctx context.Context, prefix Key) ([]string, error) {
	glob := escapeMatch(s.prefix+strings.TrimSuffix(prefix.Canonical(), "]")) + "*"
	var raws []string
	iter := s.client.Scan(ctx, 0, glob, redisScanBatch).Iterator()
	for iter.Next(ctx) {
		raw := iter.Val()
		parts, ok := parseCanonicalKey(strings.TrimPrefix(raw, s.prefix))
		if !ok || !parts.HasPrefix(prefix) {
			continue
		}
		raws = append(raws, raw)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis cache scan: %w", err)
	}
	return raws, nil
}

// escapeMatch quotes glob metacharacters for a Redis MATCH pattern.
func escapeMatch(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
