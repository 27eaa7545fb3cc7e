package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lessonflow/lessonflow/internal/schedtime"
)

type countingLoader struct {
	keys  []string
	calls int
}

func (l *countingLoader) LoadHolidays(ctx context.Context, rangeStart, rangeEnd time.Time) ([]string, error) {
	l.calls++
	return l.keys, nil
}

func TestHolidayCache_PopulatesAndServesFromRedis(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{keys: []string{"2025-06-19", "2025-09-07"}}
	cache := NewHolidayCache(client, loader, time.Hour)

	start, end := schedtime.MonthBounds(2025, time.June)
	ctx := context.Background()

	first, err := cache.Holidays(ctx, start, end)
	require.NoError(t, err)
	require.Contains(t, first, "2025-06-19")
	require.Equal(t, 1, loader.calls)

	second, err := cache.Holidays(ctx, start, end)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, loader.calls, "second read must hit the cache")
}

func TestHolidayCache_ExpiredEntryReloads(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{keys: []string{"2025-06-19"}}
	cache := NewHolidayCache(client, loader, time.Minute)

	start, end := schedtime.MonthBounds(2025, time.June)
	ctx := context.Background()

	_, err := cache.Holidays(ctx, start, end)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = cache.Holidays(ctx, start, end)
	require.NoError(t, err)
	require.Equal(t, 2, loader.calls)
}

func TestHolidayCache_NilClientPassesThrough(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	loader := &countingLoader{keys: []string{"2025-06-19"}}
	cache := NewHolidayCache(nil, loader, time.Hour)

	start, end := schedtime.MonthBounds(2025, time.June)
	set, err := cache.Holidays(context.Background(), start, end)
	require.NoError(t, err)
	require.Contains(t, set, "2025-06-19")
	require.Equal(t, 1, loader.calls)
}
