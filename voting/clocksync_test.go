package voting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOffsetAndCorrectedNow(t *testing.T) {
	server := time.Date(2026, 5, 1, 18, 0, 10, 0, time.UTC)
	local := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	offset := Offset(server, local)
	assert.Equal(t, 10*time.Second, offset)
	assert.Equal(t, server, CorrectedNow(local, offset))

	// A client running ahead of the server gets a negative offset.
	behind := Offset(local, server)
	assert.Equal(t, -10*time.Second, behind)
}

func TestRemainingSeconds(t *testing.T) {
	end := time.Date(2026, 5, 1, 18, 1, 0, 0, time.UTC)

	t.Run("Whole seconds", func(t *testing.T) {
		now := end.Add(-30 * time.Second)
		assert.Equal(t, 30, RemainingSeconds(end, now))
	})

	t.Run("Fractions round up", func(t *testing.T) {
		now := end.Add(-30*time.Second - 200*time.Millisecond)
		assert.Equal(t, 31, RemainingSeconds(end, now))
	})

	t.Run("Clamped at zero past the deadline", func(t *testing.T) {
		assert.Equal(t, 0, RemainingSeconds(end, end))
		assert.Equal(t, 0, RemainingSeconds(end, end.Add(5*time.Second)))
	})
}

func TestInstanceKey(t *testing.T) {
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, "1777658400000", InstanceKey(start))
	assert.NotEqual(t, InstanceKey(start), InstanceKey(start.Add(time.Millisecond)))
}
