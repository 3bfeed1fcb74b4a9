package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventTime(t *testing.T) {
	t.Run("Naive dashboard timestamp with microseconds", func(t *testing.T) {
		raw := "2026-05-01T18:00:00.123456"
		parsed := ParseEventTime(&raw)
		require.NotNil(t, parsed)
		assert.Equal(t, time.Date(2026, 5, 1, 18, 0, 0, 123456000, time.UTC), parsed.UTC())
	})

	t.Run("Naive timestamp without fraction", func(t *testing.T) {
		raw := "2026-05-01T18:00:00"
		parsed := ParseEventTime(&raw)
		require.NotNil(t, parsed)
		assert.Equal(t, 18, parsed.Hour())
	})

	t.Run("RFC 3339 with offset", func(t *testing.T) {
		raw := "2026-05-01T18:00:00+02:00"
		parsed := ParseEventTime(&raw)
		require.NotNil(t, parsed)
		assert.Equal(t, time.Date(2026, 5, 1, 16, 0, 0, 0, time.UTC), parsed.UTC())
	})

	t.Run("Bare date", func(t *testing.T) {
		raw := "2026-05-01"
		parsed := ParseEventTime(&raw)
		require.NotNil(t, parsed)
		assert.Equal(t, 2026, parsed.Year())
	})

	t.Run("Nil, empty and garbage come back nil", func(t *testing.T) {
		assert.Nil(t, ParseEventTime(nil))
		empty := ""
		assert.Nil(t, ParseEventTime(&empty))
		garbage := "not a date"
		assert.Nil(t, ParseEventTime(&garbage))
	})
}
