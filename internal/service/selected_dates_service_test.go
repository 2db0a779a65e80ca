package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirai-juku/scheduling-api/internal/dto"
)

func newSelectedDatesFixture() (*SelectedDatesService, *memoryStore) {
	store := newMemoryStore()
	svc := NewSelectedDatesService(store, time.Hour, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC) }
	return svc, store
}

func TestSelectedDatesPutCleansInput(t *testing.T) {
	svc, store := newSelectedDatesFixture()

	resp, err := svc.Put(context.Background(), "u1", dto.SelectedDatesPayload{
		Dates: []string{"2025-07-01", "2025-06-20", "2025-06-20", "2025-06-01", "2025-06-15"},
	})
	require.NoError(t, err)

	// Past dates and duplicates dropped, today kept, ascending order.
	assert.Equal(t, []string{"2025-06-15", "2025-06-20", "2025-07-01"}, resp.Dates)
	assert.Contains(t, store.values, "calendar:selected:u1")
}

func TestSelectedDatesPutRejectsMalformedDate(t *testing.T) {
	svc, _ := newSelectedDatesFixture()

	_, err := svc.Put(context.Background(), "u1", dto.SelectedDatesPayload{Dates: []string{"06/20/2025"}})
	require.Error(t, err)
}

func TestSelectedDatesGetMissIsEmpty(t *testing.T) {
	svc, _ := newSelectedDatesFixture()

	resp, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{}, resp.Dates)
}

func TestSelectedDatesGetFiltersStaleEntries(t *testing.T) {
	svc, store := newSelectedDatesFixture()
	require.NoError(t, store.Set(context.Background(), "calendar:selected:u1",
		[]string{"2025-06-01", "2025-06-20"}, time.Hour))

	resp, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-20"}, resp.Dates)
}

func TestSelectedDatesScopedPerUser(t *testing.T) {
	svc, _ := newSelectedDatesFixture()

	_, err := svc.Put(context.Background(), "u1", dto.SelectedDatesPayload{Dates: []string{"2025-06-20"}})
	require.NoError(t, err)

	resp, err := svc.Get(context.Background(), "u2")
	require.NoError(t, err)
	assert.Empty(t, resp.Dates)
}
