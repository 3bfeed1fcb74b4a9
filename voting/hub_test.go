package voting

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mistenes/mikdashboard-voting-sub000/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubSubscribe(t *testing.T) {
	logging.Log = logrus.New()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC))
	hub := NewHub()
	s := NewSession(clock, hub, 60, 70)

	t.Run("Late joiner receives the current snapshot immediately", func(t *testing.T) {
		_, err := s.Start(0)
		require.NoError(t, err)

		id, ch := s.Subscribe()
		defer s.Unsubscribe(id)

		select {
		case snap := <-ch:
			assert.Equal(t, StatusInProgress, snap.Status)
			assert.NotNil(t, snap.VoteEndTime)
		default:
			t.Fatal("expected an immediate snapshot on subscribe")
		}
	})

	t.Run("Subscribers observe mutations in apply order", func(t *testing.T) {
		id, ch := s.Subscribe()
		defer s.Unsubscribe(id)
		<-ch // initial snapshot

		_, err := s.CastVote("order-voter", ChoiceYes)
		require.NoError(t, err)
		_, err = s.Finish()
		require.NoError(t, err)

		first := <-ch
		second := <-ch
		assert.Equal(t, StatusInProgress, first.Status)
		assert.Equal(t, 1, first.Tally[ChoiceYes])
		assert.Equal(t, StatusFinished, second.Status)
	})
}

func TestHubRemove(t *testing.T) {
	logging.Log = logrus.New()
	hub := NewHub()
	clock := clockwork.NewFakeClock()
	s := NewSession(clock, hub, 60, 70)

	t.Run("Unsubscribe closes the channel and shrinks the set", func(t *testing.T) {
		id, ch := s.Subscribe()
		assert.Equal(t, 1, hub.Count())

		s.Unsubscribe(id)
		assert.Equal(t, 0, hub.Count())

		<-ch // drain initial snapshot
		_, open := <-ch
		assert.False(t, open)
	})

	t.Run("Unsubscribe of unknown id is a no-op", func(t *testing.T) {
		s.Unsubscribe("not-there")
		assert.Equal(t, 0, hub.Count())
	})

	t.Run("Slow subscriber is dropped instead of blocking the writer", func(t *testing.T) {
		_, ch := s.Subscribe()
		require.Equal(t, 1, hub.Count())

		// Fill the buffer without draining; the next publishes must not block.
		for i := 0; i < subscriberBuffer+2; i++ {
			s.ApplyEvent(&Event{ID: i + 1, Title: "spam"}, 0)
		}

		assert.Equal(t, 0, hub.Count())
		// Channel was closed after being dropped.
		for range ch {
		}
	})
}

func TestHubSubscriberGauge(t *testing.T) {
	logging.Log = logrus.New()
	hub := NewHub()
	clock := clockwork.NewFakeClock()
	s := NewSession(clock, hub, 60, 70)

	var seen []int
	hub.OnSubscriberChange(func(count int) { seen = append(seen, count) })

	a, _ := s.Subscribe()
	b, _ := s.Subscribe()
	s.Unsubscribe(a)
	s.Unsubscribe(b)

	assert.Equal(t, []int{1, 2, 1, 0}, seen)
}
