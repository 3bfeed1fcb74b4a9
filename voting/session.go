package voting

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mistenes/mikdashboard-voting-sub000/logging"
)

type SessionStore interface {
	Snapshot() Snapshot
	Start(totalVoters int) (Snapshot, error)
	Finish() (Snapshot, error)
	Reset() (Snapshot, error)
	CastVote(voterID string, choice Choice) (Snapshot, error)
	ApplyEvent(event *Event, delegateCount int) Snapshot
	ActiveEvent() *Event
	Subscribe() (string, <-chan Snapshot)
	Unsubscribe(id string)
}

// Session is the single authoritative voting-session record. All reads and
// writes go through the mutex; the broadcast to subscribers happens while the
// mutation lock is still held, so subscribers observe every state in the
// order it was applied.
type Session struct {
	mu    sync.Mutex
	clock clockwork.Clock
	hub   *Hub

	status          Status
	tally           map[Choice]int
	totalVoters     int
	defaultVoters   int
	startTime       *time.Time
	endTime         *time.Time
	durationSeconds int
	event           *Event
	delegateCount   int

	// ballots holds the voter identities that already cast in the current
	// vote instance; cleared on every Start.
	ballots map[string]bool

	closeTimer clockwork.Timer
}

func NewSession(clock clockwork.Clock, hub *Hub, durationSeconds, defaultVoters int) *Session {
	return &Session{
		clock:           clock,
		hub:             hub,
		status:          StatusWaiting,
		tally:           emptyTally(),
		totalVoters:     defaultVoters,
		defaultVoters:   defaultVoters,
		durationSeconds: durationSeconds,
		ballots:         make(map[string]bool),
	}
}

func emptyTally() map[Choice]int {
	return map[Choice]int{ChoiceYes: 0, ChoiceNo: 0, ChoiceAbstain: 0}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	// The close timer broadcasts the FINISHED transition, but reads never
	// depend on it having fired: a window in the past is finished.
	if s.status == StatusInProgress && s.endTime != nil && s.clock.Now().After(*s.endTime) {
		s.finishLocked()
	}

	tally := make(map[Choice]int, len(s.tally))
	for c, n := range s.tally {
		tally[c] = n
	}

	snap := Snapshot{
		Status:              s.status,
		Tally:               tally,
		TotalVoters:         s.totalVoters,
		VoteStartTime:       s.startTime,
		VoteEndTime:         s.endTime,
		VoteDurationSeconds: s.durationSeconds,
		ServerTime:          s.clock.Now().UTC(),
		Event:               s.event,
		DelegateCount:       s.delegateCount,
	}
	if s.startTime != nil {
		snap.VoteKey = InstanceKey(*s.startTime)
	}
	return snap
}

// Start opens a new vote instance. Valid only from WAITING. The tally is
// zeroed, the window stamped, and a server-side timer armed so the vote
// closes at the deadline even if every client disappears.
func (s *Session) Start(totalVoters int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusWaiting {
		return Snapshot{}, ErrInvalidTransition
	}

	now := s.clock.Now().UTC()
	end := now.Add(time.Duration(s.durationSeconds) * time.Second)

	s.status = StatusInProgress
	s.tally = emptyTally()
	s.ballots = make(map[string]bool)
	s.startTime = &now
	s.endTime = &end
	if totalVoters > 0 {
		s.totalVoters = totalVoters
	}

	key := InstanceKey(now)
	s.closeTimer = s.clock.AfterFunc(time.Duration(s.durationSeconds)*time.Second, func() {
		s.autoFinish(key)
	})

	logging.Log.Infof("SESSION: vote started, ends %s, total voters %d", end.Format(time.RFC3339), s.totalVoters)
	return s.broadcastLocked(), nil
}

// Finish closes the active vote. Valid only from IN_PROGRESS.
func (s *Session) Finish() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress {
		return Snapshot{}, ErrInvalidTransition
	}

	s.finishLocked()
	logging.Log.Info("SESSION: vote finished by admin")
	return s.broadcastLocked(), nil
}

func (s *Session) finishLocked() {
	s.status = StatusFinished
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
}

// autoFinish is the timer callback that enforces the vote window
// server-side. The instance key guards against a stale timer closing a
// newer vote after an admin abort and restart.
func (s *Session) autoFinish(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress || s.startTime == nil || InstanceKey(*s.startTime) != key {
		return
	}

	s.finishLocked()
	logging.Log.Info("SESSION: vote window elapsed, finished by timer")
	s.broadcastLocked()
}

// Reset returns the session to WAITING. Valid from FINISHED, and from
// IN_PROGRESS as an explicit admin abort.
func (s *Session) Reset() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusFinished && s.status != StatusInProgress {
		return Snapshot{}, ErrInvalidTransition
	}

	if s.status == StatusInProgress {
		logging.Log.Warn("SESSION: active vote aborted by admin")
	}

	s.status = StatusWaiting
	s.tally = emptyTally()
	s.ballots = make(map[string]bool)
	s.startTime = nil
	s.endTime = nil
	s.totalVoters = s.defaultVoters
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}

	logging.Log.Info("SESSION: reset to waiting")
	return s.broadcastLocked(), nil
}

// CastVote applies one ballot to the tally. A voter identity may cast at
// most once per vote instance; repeats are rejected without touching the
// tally. The window check is independent of the close timer so a stalled
// timer can never extend a vote.
func (s *Session) CastVote(voterID string, choice Choice) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress {
		return Snapshot{}, ErrVoteNotActive
	}
	if s.endTime != nil && s.clock.Now().After(*s.endTime) {
		return Snapshot{}, ErrVoteNotActive
	}
	if !ValidChoices[choice] {
		return Snapshot{}, ErrInvalidChoice
	}
	if s.ballots[voterID] {
		return Snapshot{}, ErrAlreadyVoted
	}

	s.ballots[voterID] = true
	s.tally[choice]++

	return s.broadcastLocked(), nil
}

// ApplyEvent replaces the event metadata attached to snapshots. It never
// touches status or tally: an already-running vote keeps running even if
// the dashboard disables voting mid-flight.
func (s *Session) ApplyEvent(event *Event, delegateCount int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.event = event
	s.delegateCount = delegateCount
	if event != nil {
		logging.Log.Infof("SESSION: event metadata updated: %q (voting enabled: %t, delegates: %d)",
			event.Title, event.IsVotingEnabled, delegateCount)
	} else {
		logging.Log.Info("SESSION: active event cleared")
	}
	return s.broadcastLocked()
}

// ActiveEvent returns the current event metadata, or nil when none has
// been synced. Callers must treat the result as read-only.
func (s *Session) ActiveEvent() *Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event
}

// Subscribe registers a new observer and delivers the current snapshot as
// its first message, so late joiners do not wait for the next mutation.
func (s *Session) Subscribe() (string, <-chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hub.add(s.snapshotLocked())
}

func (s *Session) Unsubscribe(id string) {
	s.hub.remove(id)
}

func (s *Session) broadcastLocked() Snapshot {
	snap := s.snapshotLocked()
	s.hub.publish(snap)
	return snap
}
