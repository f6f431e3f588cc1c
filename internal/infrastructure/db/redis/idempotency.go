package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eventos/reservas-api/internal/core/ports"
)

const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore implements ports.IdempotencyStore on Redis.
// Key format: idem:reservas:<client key>
// Value format: <reservation id>:<fingerprint>, id 0 while pending.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore wraps client; keys expire after ttl (24h when ttl <= 0).
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim atomically takes ownership of key with SET NX.
func (s *IdempotencyStore) Claim(ctx context.Context, key, fingerprint string) (ports.IdempotencyRecord, bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), encodeRecord(0, fingerprint), s.ttl).Result()
	if err != nil {
		return ports.IdempotencyRecord{}, false, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		return ports.IdempotencyRecord{Fingerprint: fingerprint}, true, nil
	}

	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		// Expired or released between SETNX and GET: treat as in flight.
		return ports.IdempotencyRecord{Fingerprint: fingerprint}, false, nil
	}
	if err != nil {
		return ports.IdempotencyRecord{}, false, fmt.Errorf("idempotency lookup: %w", err)
	}

	rec, err := decodeRecord(val)
	if err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

// Complete stores the created reservation id under key.
func (s *IdempotencyStore) Complete(ctx context.Context, key, fingerprint string, id int64) error {
	return s.client.Set(ctx, s.key(key), encodeRecord(id, fingerprint), s.ttl).Err()
}

// Release deletes key so the client can retry.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *IdempotencyStore) key(k string) string {
	return "idem:reservas:" + k
}

func encodeRecord(id int64, fingerprint string) string {
	return strconv.FormatInt(id, 10) + ":" + fingerprint
}

func decodeRecord(val string) (ports.IdempotencyRecord, error) {
	idPart, fingerprint, _ := strings.Cut(val, ":")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return ports.IdempotencyRecord{}, fmt.Errorf("idempotency lookup: corrupt value %q", val)
	}
	return ports.IdempotencyRecord{ReservationID: id, Fingerprint: fingerprint}, nil
}
