package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow(t *testing.T) {
	rl := NewFixedWindowLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("1.1.1.1")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.1.1.1")
	assert.True(t, ok)

	now = now.Add(20 * time.Second)
	ok, retry := rl.Allow("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retry)

	// other clients have their own window
	ok, _ = rl.Allow("2.2.2.2")
	assert.True(t, ok)

	now = now.Add(40 * time.Second)
	ok, _ = rl.Allow("1.1.1.1")
	assert.True(t, ok)
}

func TestFixedWindow_StopTwice(t *testing.T) {
	rl := NewFixedWindowLimiter(1, time.Millisecond)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
