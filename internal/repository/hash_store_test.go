package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST SUITE 1: MEMORY HASH STORE
// ============================================================================

func TestCheckAndInsert_FirstImageIsOriginal(t *testing.T) {
	store := NewMemoryHashStore(0.95)

	isDup, confidence, err := store.CheckAndInsert(context.Background(), "a5a5a5a5a5a5a5a5")

	require.NoError(t, err)
	assert.False(t, isDup)
	assert.Equal(t, 0.0, confidence, "an empty store reports zero confidence")
	assert.Equal(t, 1, store.Size())
}

func TestCheckAndInsert_ExactResubmission(t *testing.T) {
	store := NewMemoryHashStore(0.95)
	ctx := context.Background()

	_, _, err := store.CheckAndInsert(ctx, "a5a5a5a5a5a5a5a5")
	require.NoError(t, err)

	isDup, confidence, err := store.CheckAndInsert(ctx, "a5a5a5a5a5a5a5a5")

	require.NoError(t, err)
	assert.True(t, isDup)
	assert.Equal(t, 100.0, confidence)
	assert.Equal(t, 1, store.Size(), "duplicates are not inserted")
}

func TestCheckAndInsert_NearDuplicateWithinThreshold(t *testing.T) {
	store := NewMemoryHashStore(0.95)
	ctx := context.Background()

	_, _, err := store.CheckAndInsert(ctx, "0000000000000000")
	require.NoError(t, err)

	// 3 differing bits: similarity 61/64 = 0.953125, above the 0.95
	// threshold.
	isDup, confidence, err := store.CheckAndInsert(ctx, "0000000000000007")

	require.NoError(t, err)
	assert.True(t, isDup)
	assert.InDelta(t, 95.3125, confidence, 0.001)
}

func TestCheckAndInsert_DistinctImageBelowThreshold(t *testing.T) {
	store := NewMemoryHashStore(0.95)
	ctx := context.Background()

	_, _, err := store.CheckAndInsert(ctx, "0000000000000000")
	require.NoError(t, err)

	// 4 differing bits: similarity 60/64 = 0.9375, below threshold.
	isDup, confidence, err := store.CheckAndInsert(ctx, "000000000000000f")

	require.NoError(t, err)
	assert.False(t, isDup)
	assert.InDelta(t, 93.75, confidence, 0.001)
	assert.Equal(t, 2, store.Size(), "non-duplicates join the store")
}

func TestCheckAndInsert_ReportsClosestMatch(t *testing.T) {
	store := NewMemoryHashStore(0.95)
	ctx := context.Background()

	_, _, err := store.CheckAndInsert(ctx, "ffffffffffffffff")
	require.NoError(t, err)
	_, _, err = store.CheckAndInsert(ctx, "00000000000000ff")
	require.NoError(t, err)

	_, confidence, err := store.CheckAndInsert(ctx, "000000000000007f")

	require.NoError(t, err)
	assert.InDelta(t, 98.4375, confidence, 0.001, "confidence comes from the most similar stored hash")
}

func TestCheckAndInsert_ConcurrentSameHash(t *testing.T) {
	store := NewMemoryHashStore(0.95)
	ctx := context.Background()

	const submitters = 16
	originals := make(chan struct{}, submitters)
	var wg sync.WaitGroup
	for range submitters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isDup, _, err := store.CheckAndInsert(ctx, "a5a5a5a5a5a5a5a5")
			assert.NoError(t, err)
			if !isDup {
				originals <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(originals)

	assert.Len(t, originals, 1, "exactly one concurrent submission of the same image may pass as original")
	assert.Equal(t, 1, store.Size())
}
