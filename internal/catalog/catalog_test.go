package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"print3d-bot/pkg/api"
)

type fakeCache struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	setKeys []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return data, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = data
	f.setKeys = append(f.setKeys, key)
	return nil
}

type fakeServicesAPI struct {
	services []api.Service
	err      error
	calls    int
}

func (f *fakeServicesAPI) ListServices(ctx context.Context, activeOnly bool) ([]api.Service, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.services, nil
}

func TestServicesCacheMissThenHit(t *testing.T) {
	backend := &fakeServicesAPI{
		services: []api.Service{{ID: 1, Name: "3D печать"}},
	}
	cache := newFakeCache()
	cat := New(backend, cache, time.Minute, zap.NewNop())

	services, err := cat.Services(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, []string{"services:active"}, cache.setKeys)

	// second call is served from cache
	services, err = cat.Services(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, 1, backend.calls)
}

func TestServicesCacheKeyPerScope(t *testing.T) {
	backend := &fakeServicesAPI{services: []api.Service{{ID: 1}}}
	cache := newFakeCache()
	cat := New(backend, cache, time.Minute, zap.NewNop())

	_, err := cat.Services(context.Background(), true)
	require.NoError(t, err)
	_, err = cat.Services(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, []string{"services:active", "services:all"}, cache.setKeys)
}

func TestServicesWithoutCache(t *testing.T) {
	backend := &fakeServicesAPI{services: []api.Service{{ID: 1}}}
	cat := New(backend, nil, time.Minute, zap.NewNop())

	_, err := cat.Services(context.Background(), true)
	require.NoError(t, err)
	_, err = cat.Services(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.calls)
}

func TestServicesCorruptCacheEntryRefetches(t *testing.T) {
	backend := &fakeServicesAPI{services: []api.Service{{ID: 1}}}
	cache := newFakeCache()
	cache.data["services:active"] = []byte("{not json")
	cat := New(backend, cache, time.Minute, zap.NewNop())

	services, err := cat.Services(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, 1, backend.calls)
}

func TestServicesCacheSetFailureIsNonFatal(t *testing.T) {
	backend := &fakeServicesAPI{services: []api.Service{{ID: 1}}}
	cache := newFakeCache()
	cache.setErr = errors.New("redis down")
	cat := New(backend, cache, time.Minute, zap.NewNop())

	services, err := cat.Services(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, services, 1)
}

func TestServicesBackendError(t *testing.T) {
	backend := &fakeServicesAPI{err: errors.New("unreachable")}
	cat := New(backend, newFakeCache(), time.Minute, zap.NewNop())

	_, err := cat.Services(context.Background(), true)
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	backend := &fakeServicesAPI{
		services: []api.Service{{ID: 1, Name: "3D печать"}, {ID: 2, Name: "Постобработка"}},
	}
	cat := New(backend, nil, time.Minute, zap.NewNop())

	svc, found, err := cat.Find(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Постобработка", svc.Name)

	_, found, err = cat.Find(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindServedFromCache(t *testing.T) {
	backend := &fakeServicesAPI{}
	cache := newFakeCache()
	cached, err := json.Marshal([]api.Service{{ID: 5, Name: "Кэшированная"}})
	require.NoError(t, err)
	cache.data["services:active"] = cached

	cat := New(backend, cache, time.Minute, zap.NewNop())

	svc, found, err := cat.Find(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Кэшированная", svc.Name)
	assert.Equal(t, 0, backend.calls)
}
