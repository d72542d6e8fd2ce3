package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldProcess_DropsRepeatWithinTTL(t *testing.T) {
	d := New(time.Minute, 10)
	clock := time.Unix(1_700_000_000, 0)
	d.now = func() time.Time { return clock }

	assert.True(t, d.ShouldProcess("a"))
	assert.False(t, d.ShouldProcess("a"))
	assert.True(t, d.ShouldProcess("b"))

	clock = clock.Add(2 * time.Minute)
	assert.True(t, d.ShouldProcess("a"), "expired entry must be processed again")
}

func TestShouldProcess_EmptyID(t *testing.T) {
	d := New(time.Minute, 10)
	assert.True(t, d.ShouldProcess(""))
	assert.True(t, d.ShouldProcess(""))
	assert.Equal(t, 0, d.Len())
}

func TestShouldProcess_RespectsCap(t *testing.T) {
	d := New(time.Hour, 3)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		assert.True(t, d.ShouldProcess(id))
	}
	assert.LessOrEqual(t, d.Len(), 3)
}

func TestNew_Defaults(t *testing.T) {
	d := New(0, 0)
	assert.Equal(t, 10*time.Minute, d.ttl)
	assert.Equal(t, 10000, d.max)
}
