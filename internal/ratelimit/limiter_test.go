package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Disabled(t *testing.T) {
	l := New(Config{})
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow())
	}
	assert.Equal(t, time.Duration(0), l.RetryAfter())
	require.NoError(t, l.Wait(context.Background()))
}

func TestLimiter_Burst(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, BurstSize: 3})

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
	assert.Equal(t, time.Second, l.RetryAfter())
}

func TestLimiter_ZeroBurstIsOne(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1})
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestLimiter_RecordRejection(t *testing.T) {
	l := New(Config{RequestsPerSecond: 100, BurstSize: 100})
	l.RecordRejection(time.Hour)

	assert.False(t, l.Allow())
	assert.Greater(t, l.RetryAfter(), 59*time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := New(Config{RequestsPerSecond: 0.001, BurstSize: 1})
	require.True(t, l.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx))
}
