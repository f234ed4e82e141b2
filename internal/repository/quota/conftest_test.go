package quota

import (
	"context"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tokengate/internal/db"
)

// mockStore implements the consumer interface for tests. A nil fn falls
// back to the in-memory data map.
type mockStore struct {
	data map[string]string

	getFn    func(ctx context.Context, key string) ([]byte, error)
	setFn    func(ctx context.Context, key string, value []byte) error
	incrByFn func(ctx context.Context, key string, val int64) (int64, error)
	delFn    func(ctx context.Context, key string) error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return []byte(v), nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.data[key] = string(value)
	return nil
}

func (m *mockStore) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	if m.incrByFn != nil {
		return m.incrByFn(ctx, key, val)
	}
	cur, _ := strconv.ParseInt(m.data[key], 10, 64)
	cur += val
	m.data[key] = strconv.FormatInt(cur, 10)
	return cur, nil
}

func (m *mockStore) IncrByCapped(_ context.Context, key string, val, ceiling int64) (bool, int64, error) {
	cur, _ := strconv.ParseInt(m.data[key], 10, 64)
	if cur+val > ceiling {
		return false, cur, nil
	}
	cur += val
	m.data[key] = strconv.FormatInt(cur, 10)
	return true, cur, nil
}

func (m *mockStore) CompareAndSwap(_ context.Context, key, expectedOld, newVal string) (bool, error) {
	if m.data[key] != expectedOld {
		return false, nil
	}
	m.data[key] = newVal
	return true, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	delete(m.data, key)
	return nil
}

func newTestStore(t *testing.T) (*Store, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms, "tokengate:test:", zap.NewNop()), ms
}
