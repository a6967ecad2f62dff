package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelplanner/internal/domain/models"
)

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) (string, error)              { return "", f.err }
func (f failingKV) Set(context.Context, string, string, time.Duration) error { return f.err }
func (f failingKV) Ping(context.Context) error                               { return f.err }
func (f failingKV) Close() error                                             { return nil }

func TestCacheItineraryRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := NewMemoryCache(time.Hour)

	saved := models.SavedItinerary{
		Itinerary: models.Itinerary{
			ID:    "it-1",
			Title: "Cultural Paris Experience",
			DailyItinerary: models.DailyPlan{
				{Label: "Day 1", Activities: []models.Activity{{Name: "Museum Tour", Cost: 40}}},
				{Label: "Day 2", Activities: []models.Activity{{Name: "Local Market", Cost: 20}}},
			},
		},
		Destination: "Paris",
		StartDate:   "2025-06-01",
		Owner:       "ana@example.com",
	}
	require.NoError(t, cache.SaveItinerary(ctx, saved))

	got, err := cache.LoadItinerary(ctx, "it-1")
	require.NoError(t, err)
	assert.Equal(t, "Paris", got.Destination)
	require.Len(t, got.Itinerary.DailyItinerary, 2)
	assert.Equal(t, "Day 1", got.Itinerary.DailyItinerary[0].Label)

	_, err = cache.LoadItinerary(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheRejectsEmptyItineraryID(t *testing.T) {
	t.Parallel()
	err := NewMemoryCache(time.Hour).SaveItinerary(context.Background(), models.SavedItinerary{})
	assert.Error(t, err)
}

func TestMemoryCacheExpires(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kv := &memoryKV{items: map[string]memoryEntry{}, now: func() time.Time { return now }}
	cache := &Cache{kv: kv, ttl: time.Minute}
	ctx := context.Background()

	f := models.Forecast{"2025-01-01": {Condition: "Sunny", High: 80, Low: 65}}
	require.NoError(t, cache.SaveForecast(ctx, "New York", "2025-01-01", 3, f))

	got, err := cache.LoadForecast(ctx, "new  york", "2025-01-01", 3)
	require.NoError(t, err)
	assert.Equal(t, "Sunny", got["2025-01-01"].Condition)

	now = now.Add(2 * time.Minute)
	_, err = cache.LoadForecast(ctx, "New York", "2025-01-01", 3)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheBackendErrorsAreWrapped(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection refused")
	cache := &Cache{kv: failingKV{err: boom}, ttl: time.Minute}
	ctx := context.Background()

	_, err := cache.LoadItinerary(ctx, "it-1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.ErrorIs(t, cache.Ping(ctx), boom)
}

func TestWeatherKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "weather:tokyo_japan:2025-04-01:5", weatherKey(" Tokyo  Japan ", "2025-04-01", 5))
}
