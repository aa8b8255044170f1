package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreKeySpace(t *testing.T) {
	s := NewRedisStore(nil, "snare:sess", time.Hour)
	assert.Equal(t, "snare:sess:abc", s.key("abc"))
}

func TestRedisStoreParse(t *testing.T) {
	s := NewRedisStore(nil, "snare:sess", time.Hour)

	snap := s.parse("sess-1", map[string]string{
		"created_at":      "1787479200000000000",
		"last_seen":       "1787479500000000000",
		"pointer_moves":   "12",
		"clicks":          "3",
		"searches":        "not-a-number",
		"prev_extraction": "0",
	})

	assert.Equal(t, "sess-1", snap.ID)
	assert.Equal(t, int64(12), snap.Counters.PointerMoves)
	assert.Equal(t, int64(3), snap.Counters.Clicks)
	assert.Zero(t, snap.Counters.Searches, "unparsable counter defaults to zero")
	assert.Zero(t, snap.Counters.Scrolls, "absent counter defaults to zero")
	assert.True(t, snap.PrevExtractionAt.IsZero(), "zero sentinel means never extracted")
	assert.True(t, snap.LastSeenAt.After(snap.CreatedAt))
}

func TestRedisStoreWrapsUnavailability(t *testing.T) {
	// A client pointed at a closed port fails fast; every store error must
	// unwrap to ErrStoreUnavailable so scoring knows it can degrade.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	s := NewRedisStore(client, "snare:sess", time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := s.GetOrCreate(ctx, "sess-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))

	err = s.Update(ctx, "sess-1", Delta{Clicks: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))

	err = s.Touch(ctx, "sess-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
}
