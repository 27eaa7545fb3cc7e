package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lessonflow/lessonflow/internal/schedtime"
)

// HolidayLoader fetches holiday date keys from persistence.
type HolidayLoader interface {
	LoadHolidays(ctx context.Context, rangeStart, rangeEnd time.Time) ([]string, error)
}

// HolidayCache serves the shared holiday calendar through Redis. The calendar
// changes a handful of times a year, so a short TTL keeps staleness bounded
// without a bump protocol.
type HolidayCache struct {
	client *redis.Client
	loader HolidayLoader
	ttl    time.Duration
}

// NewHolidayCache instantiates the cache helper. A nil client degrades to a
// pass-through loader.
func NewHolidayCache(client *redis.Client, loader HolidayLoader, ttl time.Duration) *HolidayCache {
	return &HolidayCache{client: client, loader: loader, ttl: ttl}
}

func holidayKey(rangeStart, rangeEnd time.Time) string {
	return fmt.Sprintf("payroll:holidays:%s:%s", schedtime.DateKey(rangeStart), schedtime.DateKey(rangeEnd))
}

// Holidays returns the holiday date-key set for a range, populating the cache
// on a miss. Satisfies HolidaySource.
func (c *HolidayCache) Holidays(ctx context.Context, rangeStart, rangeEnd time.Time) (map[string]struct{}, error) {
	if c.client == nil {
		keys, err := c.loader.LoadHolidays(ctx, rangeStart, rangeEnd)
		if err != nil {
			return nil, err
		}
		return toSet(keys), nil
	}

	cacheKey := holidayKey(rangeStart, rangeEnd)
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var keys []string
		if jsonErr := json.Unmarshal(raw, &keys); jsonErr == nil {
			return toSet(keys), nil
		}
		// Corrupt entry; fall through to reload.
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("payroll: holiday cache get: %w", err)
	}

	keys, err := c.loader.LoadHolidays(ctx, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	if encoded, jsonErr := json.Marshal(keys); jsonErr == nil {
		_ = c.client.Set(ctx, cacheKey, encoded, c.ttl).Err()
	}
	return toSet(keys), nil
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set
}
