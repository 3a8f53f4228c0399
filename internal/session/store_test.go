package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(zap.NewNop())
}

func TestStoreCreateOverwrites(t *testing.T) {
	st := newTestStore(t)

	first := st.Create(1)
	first.CustomerName = "Иван"

	second := st.Create(1)
	assert.Equal(t, StepStart, second.Step)
	assert.Empty(t, second.CustomerName)
	assert.Equal(t, 1, st.Count())
}

func TestStoreGet(t *testing.T) {
	st := newTestStore(t)

	_, ok := st.Get(1)
	assert.False(t, ok)

	created := st.Create(1)
	got, ok := st.Get(1)
	require.True(t, ok)
	assert.Same(t, created, got)
}

func TestStoreUpdate(t *testing.T) {
	st := newTestStore(t)
	st.Create(1)

	step := StepContactInfo
	serviceID := int64(5)
	name := "3D печать"
	s, ok := st.Update(1, FieldChanges{
		Step:        &step,
		ServiceID:   &serviceID,
		ServiceName: &name,
	})
	require.True(t, ok)
	assert.Equal(t, StepContactInfo, s.Step)
	require.NotNil(t, s.ServiceID)
	assert.Equal(t, int64(5), *s.ServiceID)
	assert.Equal(t, "3D печать", s.ServiceName)

	// fields not mentioned stay untouched
	customer := "Иван"
	s, ok = st.Update(1, FieldChanges{CustomerName: &customer})
	require.True(t, ok)
	assert.Equal(t, StepContactInfo, s.Step)
	assert.Equal(t, "Иван", s.CustomerName)
}

func TestStoreUpdate_UnknownUser(t *testing.T) {
	st := newTestStore(t)

	step := StepDelivery
	_, ok := st.Update(99, FieldChanges{Step: &step})
	assert.False(t, ok)
}

func TestStoreUpdate_SkippedPhone(t *testing.T) {
	st := newTestStore(t)
	st.Create(1)

	skipped := ""
	s, ok := st.Update(1, FieldChanges{CustomerPhone: &skipped})
	require.True(t, ok)
	require.NotNil(t, s.CustomerPhone)
	assert.Empty(t, *s.CustomerPhone)
}

func TestStoreClearIdempotent(t *testing.T) {
	st := newTestStore(t)
	st.Create(1)

	assert.True(t, st.Clear(1))
	assert.False(t, st.Clear(1))
	assert.Equal(t, 0, st.Count())
}

func TestStoreSweep(t *testing.T) {
	st := newTestStore(t)

	old := st.Create(1)
	old.CreatedAt = time.Now().Add(-25 * time.Hour)

	fresh := st.Create(2)
	fresh.CreatedAt = time.Now().Add(-1 * time.Hour)

	removed := st.Sweep(24 * time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := st.Get(1)
	assert.False(t, ok)
	_, ok = st.Get(2)
	assert.True(t, ok)
}

func TestStoreConcurrentAccess(t *testing.T) {
	st := newTestStore(t)

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			st.Create(userID)
			step := StepFileUpload
			st.Update(userID, FieldChanges{Step: &step})
			st.Get(userID)
			st.Count()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, st.Count())
}
