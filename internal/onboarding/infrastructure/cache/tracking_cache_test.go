package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/internal/onboarding/infrastructure/persistence/memory"
)

type mapKV struct {
	mu   sync.Mutex
	data map[string]string
	gets int
	fail bool
}

func newMapKV() *mapKV { return &mapKV{data: map[string]string{}} }

func (m *mapKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.fail {
		return "", errors.New("connection refused")
	}
	return m.data[key], nil
}

func (m *mapKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("connection refused")
	}
	m.data[key] = value.(string)
	return nil
}

type countingRepo struct {
	*memory.ApplicationRepository
	trackingLookups int
}

func (c *countingRepo) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Application, error) {
	c.trackingLookups++
	return c.ApplicationRepository.GetByTrackingID(ctx, trackingID)
}

func TestTrackingCacheServesFromMapping(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{ApplicationRepository: memory.NewApplicationRepository()}
	kv := newMapKV()
	repo := NewTrackingCachedRepository(inner, kv, time.Hour)

	app := domain.NewApplication("app-1", "LLC-AAAAA-00001", domain.ClientData{Email: "a@b.co"}, time.Now())
	require.NoError(t, repo.Create(ctx, app))
	require.Equal(t, "app-1", kv.data[keyPrefix+"LLC-AAAAA-00001"])

	got, err := repo.GetByTrackingID(ctx, "LLC-AAAAA-00001")
	require.NoError(t, err)
	require.Equal(t, "app-1", got.ID)
	require.Equal(t, 0, inner.trackingLookups)
}

func TestTrackingCacheFallsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{ApplicationRepository: memory.NewApplicationRepository()}
	kv := newMapKV()
	kv.fail = true
	repo := NewTrackingCachedRepository(inner, kv, time.Hour)

	app := domain.NewApplication("app-1", "LLC-AAAAA-00001", domain.ClientData{Email: "a@b.co"}, time.Now())
	require.NoError(t, repo.Create(ctx, app))

	got, err := repo.GetByTrackingID(ctx, "LLC-AAAAA-00001")
	require.NoError(t, err)
	require.Equal(t, "app-1", got.ID)
	require.Equal(t, 1, inner.trackingLookups)

	_, err = repo.GetByTrackingID(ctx, "LLC-ZZZZZ-99999")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
