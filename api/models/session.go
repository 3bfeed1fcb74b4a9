package models

type StartVoteRequest struct {
	TotalVoters int `json:"total_voters,omitempty"`
}

type CastVoteRequest struct {
	Choice string `json:"choice"`
}

// EventSyncRequest mirrors the signed metadata push from the membership
// dashboard. A nil Event clears the active event.
type EventSyncRequest struct {
	Event         *EventSyncEvent `json:"event"`
	DelegateCount int             `json:"delegate_count"`
}

type EventSyncEvent struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	EventDate        *string `json:"event_date"`
	DelegateDeadline *string `json:"delegate_deadline"`
	IsVotingEnabled  bool    `json:"is_voting_enabled"`
	DelegateLimit    *int    `json:"delegate_limit"`
}

type EventSyncResponse struct {
	Message string `json:"message"`
}
