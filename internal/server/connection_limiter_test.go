package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnLimiter_PerIPBurst(t *testing.T) {
	l := NewConnLimiter(100, 0.001, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Acquire("10.0.0.1"), "attempt %d within burst", i)
	}
	assert.False(t, l.Acquire("10.0.0.1"), "burst exhausted")

	// Another IP has its own bucket.
	assert.True(t, l.Acquire("10.0.0.2"))
}

func TestConnLimiter_GlobalCap(t *testing.T) {
	l := NewConnLimiter(2, 1000, 1000)

	assert.True(t, l.Acquire("10.0.0.1"))
	assert.True(t, l.Acquire("10.0.0.2"))
	assert.False(t, l.Acquire("10.0.0.3"), "cap reached")
	assert.Equal(t, int64(2), l.Current())

	l.Release()
	assert.True(t, l.Acquire("10.0.0.3"))
}
