package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketAllow(t *testing.T) {
	// Zero refill rate so the test does not depend on elapsed time.
	tb := NewTokenBucket(3, 0)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketAllowN(t *testing.T) {
	tb := NewTokenBucket(10, 0)

	assert.True(t, tb.AllowN(7))
	assert.False(t, tb.AllowN(5))
	assert.True(t, tb.AllowN(3))
	assert.False(t, tb.AllowN(1))
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(2, 0)

	assert.True(t, tb.AllowN(2))
	assert.False(t, tb.Allow())

	tb.Reset()

	assert.True(t, tb.AllowN(2))
}

func TestTokenBucketAvailableNeverExceedsMax(t *testing.T) {
	tb := NewTokenBucket(5, 1000)

	assert.LessOrEqual(t, tb.Available(), 5.0)
}
