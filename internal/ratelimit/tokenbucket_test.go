package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/PioneersHub/pytanis-go/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketAllowsBurstThenBlocks(t *testing.T) {
	b := ratelimit.New(ratelimit.Config{RatePerSecond: 1, Burst: 2})
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
	assert.False(t, b.Allow(), "burst exhausted, next token not yet available")
}

func TestBucketWaitRespectsContextCancellation(t *testing.T) {
	b := ratelimit.New(ratelimit.Config{RatePerSecond: 0.001, Burst: 1})
	require.True(t, b.Allow(), "consume the single burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := b.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDefaultConfigIsUsedWhenRateIsZero(t *testing.T) {
	b := ratelimit.New(ratelimit.Config{})
	assert.True(t, b.Allow())
}
