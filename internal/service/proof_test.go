package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carshare-console/internal/model"
)

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemBackend() *memBackend {
	return &memBackend{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memBackend) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memBackend) GetDel(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, redis.Nil
	}
	delete(m.data, key)
	return v, nil
}

func TestProofStore_PutTake(t *testing.T) {
	backend := newMemBackend()
	store := NewProofStore(backend, "secret", 0)

	in := Proof{
		Kind:    "txn3",
		Message: "Reservation deleted.",
		Txn3:    &model.Txn3Result{DeletedRows: 1, VerifiedGone: true},
	}
	token, err := store.Put(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	for _, ttl := range backend.ttls {
		assert.Equal(t, 5*time.Minute, ttl)
	}

	got, err := store.Take(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	_, err = store.Take(context.Background(), token)
	assert.ErrorIs(t, err, ErrProofNotFound, "proofs are one-shot")
}

func TestProofStore_RejectsForeignSignature(t *testing.T) {
	backend := newMemBackend()
	token, err := NewProofStore(backend, "other", time.Minute).Put(context.Background(), Proof{Kind: "txn1"})
	require.NoError(t, err)

	_, err = NewProofStore(backend, "secret", time.Minute).Take(context.Background(), token)
	assert.ErrorIs(t, err, ErrProofNotFound)
}

func TestProofStore_Expired(t *testing.T) {
	store := NewProofStore(newMemBackend(), "secret", time.Minute)
	token, err := store.Put(context.Background(), Proof{Kind: "txn2"})
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = store.Take(context.Background(), token)
	assert.ErrorIs(t, err, ErrProofNotFound)
}

func TestProofStore_Garbage(t *testing.T) {
	_, err := NewProofStore(newMemBackend(), "secret", time.Minute).Take(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrProofNotFound)
}

func TestProofStore_BackendError(t *testing.T) {
	backend := newMemBackend()
	backend.err = errors.New("connection refused")

	_, err := NewProofStore(backend, "secret", time.Minute).Put(context.Background(), Proof{Kind: "txn1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProofNotFound)
}
