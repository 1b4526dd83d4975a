package cache_test

import (
	"testing"

	"github.com/PioneersHub/pytanis-go/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrack struct {
	ID   int
	Name string
}

func TestGetMissReturnsFalse(t *testing.T) {
	c := cache.New()
	_, ok := c.Get(cache.KindTrack, "7")
	assert.False(t, ok)
}

func TestPutThenGetIsIdempotent(t *testing.T) {
	c := cache.New()
	track := fakeTrack{ID: 7, Name: "PyData"}

	c.Put(cache.KindTrack, "7", track)
	c.Put(cache.KindTrack, "7", track)

	v, ok := c.Get(cache.KindTrack, "7")
	require.True(t, ok)
	assert.Equal(t, track, v)
	assert.Equal(t, 1, c.Len(cache.KindTrack), "repeated puts of the same entry must not grow the bucket")
}

func TestBulkPutFillsKindInOneCall(t *testing.T) {
	c := cache.New()
	c.BulkPut(cache.KindSubmissionType, map[string]interface{}{
		"1": fakeTrack{ID: 1, Name: "Talk"},
		"2": fakeTrack{ID: 2, Name: "Tutorial"},
	})

	assert.Equal(t, 2, c.Len(cache.KindSubmissionType))
	v, ok := c.Get(cache.KindSubmissionType, "2")
	require.True(t, ok)
	assert.Equal(t, fakeTrack{ID: 2, Name: "Tutorial"}, v)
}

func TestClearRemovesOnlyOneKind(t *testing.T) {
	c := cache.New()
	c.Put(cache.KindTrack, "7", fakeTrack{ID: 7})
	c.Put(cache.KindRoom, "1", fakeTrack{ID: 1})

	c.Clear(cache.KindTrack)

	_, ok := c.Get(cache.KindTrack, "7")
	assert.False(t, ok)
	_, ok = c.Get(cache.KindRoom, "1")
	assert.True(t, ok, "clearing one kind must not affect another")
}

func TestClearAllRemovesEverything(t *testing.T) {
	c := cache.New()
	c.Put(cache.KindTrack, "7", fakeTrack{ID: 7})
	c.Put(cache.KindRoom, "1", fakeTrack{ID: 1})

	c.ClearAll()

	assert.Equal(t, 0, c.Len(cache.KindTrack))
	assert.Equal(t, 0, c.Len(cache.KindRoom))
}

func TestSoftLimitEvictsLeastRecentlyInserted(t *testing.T) {
	c := cache.New(cache.WithSoftLimit(2))
	c.Put(cache.KindTrack, "1", fakeTrack{ID: 1})
	c.Put(cache.KindTrack, "2", fakeTrack{ID: 2})
	c.Put(cache.KindTrack, "3", fakeTrack{ID: 3})

	assert.Equal(t, 2, c.Len(cache.KindTrack))
	_, ok := c.Get(cache.KindTrack, "1")
	assert.False(t, ok, "oldest insertion must be evicted once the soft limit is exceeded")
	_, ok = c.Get(cache.KindTrack, "3")
	assert.True(t, ok)
}

func TestSetPrepopulationDisablesHeuristic(t *testing.T) {
	c := cache.New()
	assert.True(t, c.ShouldPrepopulate(500))

	c.SetPrepopulation(false)
	assert.False(t, c.ShouldPrepopulate(500))
}

func TestPrepopulationThresholdSkipsBoundedQueries(t *testing.T) {
	c := cache.New(cache.WithPrepopulationThreshold(10))
	assert.False(t, c.ShouldPrepopulate(3), "a small bounded query should skip the bulk-fetch heuristic")
	assert.True(t, c.ShouldPrepopulate(20))
}
