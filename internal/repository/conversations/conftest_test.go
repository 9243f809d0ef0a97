package conversations

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/pantrychef-io/pantrychef/internal/db"
)

// mockStore implements the consumer interface for tests. The fallback
// behavior is an in-memory map so round trips work without stubs.
type mockStore struct {
	data map[string][]byte

	getFn        func(ctx context.Context, key string) ([]byte, error)
	setFn        func(ctx context.Context, key string, value []byte) error
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	incrByFn     func(ctx context.Context, key string, val int64) error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) IncrBy(ctx context.Context, key string, val int64) error {
	if m.incrByFn != nil {
		return m.incrByFn(ctx, key, val)
	}
	cur, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	m.data[key] = []byte(strconv.FormatInt(cur+val, 10))
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms, 24*time.Hour), ms
}
