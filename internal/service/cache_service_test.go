package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirai-juku/scheduling-api/internal/dto"
)

func TestPreviewKeyIsStable(t *testing.T) {
	req := dto.PreviewSeriesRequest{Definition: mondaysDefinition("10:00", "11:00")}

	key := PreviewKey(req)
	assert.True(t, strings.HasPrefix(key, "scheduling:preview:"))
	assert.Equal(t, key, PreviewKey(req))

	other := dto.PreviewSeriesRequest{Definition: mondaysDefinition("10:00", "11:30")}
	assert.NotEqual(t, key, PreviewKey(other))
}

func TestCacheServiceRoundTrip(t *testing.T) {
	store := newMemoryStore()
	svc := NewCacheService(store, nil, time.Minute, nil, true)

	require.NoError(t, svc.Set(context.Background(), "k", map[string]int{"n": 7}, 0))

	var out map[string]int
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, out["n"])

	hit, err = svc.Get(context.Background(), "absent", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	store := newMemoryStore()
	svc := NewCacheService(store, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, store.values)

	var out int
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}
