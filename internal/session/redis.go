package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session state in Redis hashes so multiple instances can
// share one session space. HIncrBy gives the per-counter atomicity the
// contract requires; TTLs replace the in-memory sweep.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string { return s.prefix + ":" + id }

func wrapStoreErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

func (s *RedisStore) GetOrCreate(ctx context.Context, id string) (Snapshot, error) {
	key := s.key(id)
	now := time.Now()

	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, key, "created_at", now.UnixNano())
	pipe.HSet(ctx, key, "last_seen", now.UnixNano())
	pipe.Expire(ctx, key, s.ttl)
	all := pipe.HGetAll(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Snapshot{}, wrapStoreErr("redis get_or_create", err)
	}
	return s.parse(id, all.Val()), nil
}

func (s *RedisStore) Update(ctx context.Context, id string, delta Delta) error {
	key := s.key(id)
	now := time.Now()

	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, key, "created_at", now.UnixNano())
	pipe.HSet(ctx, key, "last_seen", now.UnixNano())
	for field, n := range map[string]int64{
		"pointer_moves":     delta.PointerMoves,
		"scrolls":           delta.Scrolls,
		"clicks":            delta.Clicks,
		"input_events":      delta.InputEvents,
		"pages_visited":     delta.PagesVisited,
		"resource_requests": delta.ResourceRequests,
		"searches":          delta.Searches,
		"api_calls":         delta.APICalls,
	} {
		if n != 0 {
			pipe.HIncrBy(ctx, key, field, n)
		}
	}
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapStoreErr("redis update", err)
	}
	return nil
}

func (s *RedisStore) Touch(ctx context.Context, id string) error {
	key := s.key(id)
	now := time.Now()

	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, key, "created_at", now.UnixNano())
	pipe.HSet(ctx, key, "last_seen", now.UnixNano())
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapStoreErr("redis touch", err)
	}
	return nil
}

func (s *RedisStore) Extract(ctx context.Context, id string, now time.Time) (Snapshot, error) {
	snap, err := s.GetOrCreate(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	// Counters stay strictly HIncrBy-atomic; the extraction timestamp is a
	// plain overwrite, which is enough for the navigation interval.
	if err := s.client.HSet(ctx, s.key(id), "prev_extraction", now.UnixNano()).Err(); err != nil {
		return Snapshot{}, wrapStoreErr("redis extract", err)
	}
	return snap, nil
}

func (s *RedisStore) parse(id string, fields map[string]string) Snapshot {
	snap := Snapshot{ID: id}
	asTime := func(field string) time.Time {
		if v, ok := fields[field]; ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				return time.Unix(0, n)
			}
		}
		return time.Time{}
	}
	asInt := func(field string) int64 {
		if v, ok := fields[field]; ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
		return 0
	}

	snap.CreatedAt = asTime("created_at")
	snap.LastSeenAt = asTime("last_seen")
	snap.PrevExtractionAt = asTime("prev_extraction")
	snap.Counters = Counters{
		PointerMoves:     asInt("pointer_moves"),
		Scrolls:          asInt("scrolls"),
		Clicks:           asInt("clicks"),
		InputEvents:      asInt("input_events"),
		PagesVisited:     asInt("pages_visited"),
		ResourceRequests: asInt("resource_requests"),
		Searches:         asInt("searches"),
		APICalls:         asInt("api_calls"),
	}
	return snap
}

func (s *RedisStore) Close() error { return s.client.Close() }
