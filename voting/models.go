package voting

import "time"

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

type Choice string

const (
	ChoiceYes     Choice = "igen"
	ChoiceNo      Choice = "nem"
	ChoiceAbstain Choice = "tartozkodott"
)

var ValidChoices = map[Choice]bool{
	ChoiceYes:     true,
	ChoiceNo:      true,
	ChoiceAbstain: true,
}

// Event mirrors the active voting event as pushed by the membership
// dashboard. It is display metadata only; changing it never moves the
// session status.
type Event struct {
	ID               int        `json:"id"`
	Title            string     `json:"title"`
	EventDate        *time.Time `json:"event_date,omitempty"`
	DelegateDeadline *time.Time `json:"delegate_deadline,omitempty"`
	IsVotingEnabled  bool       `json:"is_voting_enabled"`
	DelegateLimit    *int       `json:"delegate_limit,omitempty"`
}

// Snapshot is the full session state serialized for clients. Every
// mutation produces a fresh one; clients never receive diffs.
type Snapshot struct {
	Status              Status         `json:"status"`
	Tally               map[Choice]int `json:"tally"`
	TotalVoters         int            `json:"total_voters"`
	VoteStartTime       *time.Time     `json:"vote_start_time,omitempty"`
	VoteEndTime         *time.Time     `json:"vote_end_time,omitempty"`
	VoteDurationSeconds int            `json:"vote_duration_seconds"`
	VoteKey             string         `json:"vote_key,omitempty"`
	ServerTime          time.Time      `json:"server_time"`
	Event               *Event         `json:"event"`
	DelegateCount       int            `json:"delegate_count"`
}
