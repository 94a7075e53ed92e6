package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
	"github.com/hydavinci/formula-1-schedule/internal/cache/memory"
)

type race struct {
	Round string `json:"round"`
}

func TestKeyStringIsPure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  cache.Key
		want string
	}{
		{cache.NewKey("ergast", 2024), "ergast_2024"},
		{cache.NewKey("formula1_com", 2023), "formula1_com_2023"},
		{cache.NewKey("results", 2024).WithDiscriminator("last"), "results_2024_last"},
		{cache.NewKey("driver_standings", 2022).WithDiscriminator("7"), "driver_standings_2022_7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.key.String())
		assert.Equal(t, tt.key.String(), tt.key.String())
	}
	assert.Equal(t, cache.NewKey("ergast", 2024), cache.Key{Source: "ergast", Year: 2024})
}

func TestLayerSaveThenLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	layer, err := cache.NewLayer(memory.New(), zap.NewNop())
	require.NoError(t, err)

	key := cache.NewKey("ergast", 2024)
	var got []race
	assert.False(t, layer.Load(ctx, key, &got))

	layer.Save(ctx, key, []race{{Round: "1"}, {Round: "2"}})
	require.True(t, layer.Load(ctx, key, &got))
	assert.Equal(t, []race{{Round: "1"}, {Round: "2"}}, got)
}

func TestLayerCorruptPayloadIsMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	core, logs := observer.New(zap.WarnLevel)
	layer, err := cache.NewLayer(store, zap.New(core))
	require.NoError(t, err)

	store.Inject("ergast_2024", []byte("{not json"), time.Now())

	var got []race
	assert.False(t, layer.Load(ctx, cache.NewKey("ergast", 2024), &got))
	assert.Equal(t, 1, logs.FilterMessage("cache payload corrupt, treating as miss").Len())

	layer.Save(ctx, cache.NewKey("ergast", 2024), []race{{Round: "1"}})
	assert.True(t, layer.Load(ctx, cache.NewKey("ergast", 2024), &got))
}

func TestLayerNoTTLNeverExpires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	layer, err := cache.NewLayer(store, zap.NewNop(), cache.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	store.Inject("ergast_2020", []byte(`[{"round":"1"}]`), time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	var got []race
	assert.True(t, layer.Load(ctx, cache.NewKey("ergast", 2020), &got))
}

func TestLayerTTLPolicyPerSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	layer, err := cache.NewLayer(store, zap.NewNop(),
		cache.WithPolicy(cache.Policy{TTL: map[string]time.Duration{"formula1_com": time.Hour}}),
		cache.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	old := now.Add(-2 * time.Hour)
	store.Inject("formula1_com_2024", []byte(`[{"round":"1"}]`), old)
	store.Inject("ergast_2024", []byte(`[{"round":"1"}]`), old)
	store.Inject("formula1_com_2023", []byte(`[{"round":"1"}]`), now.Add(-time.Minute))

	var got []race
	assert.False(t, layer.Load(ctx, cache.NewKey("formula1_com", 2024), &got), "stale scrape should expire")
	assert.True(t, layer.Load(ctx, cache.NewKey("ergast", 2024), &got), "no TTL for ergast")
	assert.True(t, layer.Load(ctx, cache.NewKey("formula1_com", 2023), &got), "fresh record")
}

func TestLayerBypassSkipsReadsButWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	layer, err := cache.NewLayer(store, zap.NewNop())
	require.NoError(t, err)
	bypass, err := cache.NewLayer(store, zap.NewNop(), cache.WithPolicy(cache.Policy{Bypass: true}))
	require.NoError(t, err)

	key := cache.NewKey("ergast", 2024)
	layer.Save(ctx, key, []race{{Round: "1"}})

	var got []race
	assert.False(t, bypass.Load(ctx, key, &got))
	bypass.Save(ctx, key, []race{{Round: "9"}})
	require.True(t, layer.Load(ctx, key, &got))
	assert.Equal(t, "9", got[0].Round)
}

type failingStore struct{}

func (failingStore) Get(context.Context, cache.Key) (cache.Record, error) {
	return cache.Record{}, errors.New("disk on fire")
}

func (failingStore) Put(context.Context, cache.Key, []byte) error {
	return errors.New("disk on fire")
}

func (failingStore) Clear(context.Context) error {
	return errors.New("disk on fire")
}

func TestLayerSwallowsBackendErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	layer, err := cache.NewLayer(failingStore{}, zap.New(core))
	require.NoError(t, err)

	var got []race
	assert.False(t, layer.Load(ctx, cache.NewKey("ergast", 2024), &got))
	layer.Save(ctx, cache.NewKey("ergast", 2024), []race{{Round: "1"}})
	assert.Equal(t, 2, logs.Len())
	assert.Error(t, layer.Clear(ctx))
}

func TestNewLayerRequiresStore(t *testing.T) {
	t.Parallel()

	_, err := cache.NewLayer(nil, nil)
	assert.Error(t, err)
}

func TestLayerContextBypass(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	layer, err := cache.NewLayer(memory.New(), zap.NewNop())
	require.NoError(t, err)

	key := cache.NewKey("ergast", 2024)
	layer.Save(ctx, key, []race{{Round: "1"}})

	var got []race
	assert.False(t, layer.Load(cache.ContextWithBypass(ctx), key, &got))
	assert.True(t, layer.Load(ctx, key, &got))
}
