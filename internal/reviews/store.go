package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yourorg/listings-api/internal/redisx"
)

type MemoryStore struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return nil, nil
	}
	s := *m.snap
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	m.snap = &s
	m.mu.Unlock()
	return nil
}

const (
	DefaultRedisKey = "reviews:google"
	// the key outlives the freshness TTL so a stale copy is still there when Places fails
	DefaultRedisKeyTTL = 24 * time.Hour
)

type RedisStore struct {
	Client *redisx.Client
	Key    string
	KeyTTL time.Duration
}

type envelope struct {
	Data Snapshot `json:"data"`
	Meta struct {
		LastFetch  time.Time `json:"last_fetch_at"`
		TTLSeconds int       `json:"ttl_seconds"`
		Source     string    `json:"source"`
	} `json:"meta"`
}

func encodeEntry(s Snapshot, keyTTL time.Duration) ([]byte, error) {
	env := envelope{Data: s}
	env.Meta.LastFetch = s.FetchedAt
	env.Meta.TTLSeconds = int(keyTTL.Seconds())
	env.Meta.Source = "google_places"
	return json.Marshal(env)
}

func decodeEntry(raw string) (*Snapshot, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("decode cached reviews: %w", err)
	}
	if env.Data.FetchedAt.IsZero() {
		env.Data.FetchedAt = env.Meta.LastFetch
	}
	return &env.Data, nil
}

func (r *RedisStore) key() string {
	if r.Key == "" {
		return DefaultRedisKey
	}
	return r.Key
}

func (r *RedisStore) keyTTL() time.Duration {
	if r.KeyTTL <= 0 {
		return DefaultRedisKeyTTL
	}
	return r.KeyTTL
}

func (r *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	val, err := r.Client.Get(ctx, r.key())
	if errors.Is(err, redisx.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeEntry(val)
}

func (r *RedisStore) Save(ctx context.Context, s Snapshot) error {
	b, err := encodeEntry(s, r.keyTTL())
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, r.key(), string(b), r.keyTTL())
}
