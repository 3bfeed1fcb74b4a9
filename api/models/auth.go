package models

import (
	"time"

	"github.com/mistenes/mikdashboard-voting-sub000/auth"
	"github.com/mistenes/mikdashboard-voting-sub000/voting"
)

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Code       string `json:"code,omitempty"`
}

type PrincipalResponse struct {
	Role            string `json:"role"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	OrganizationID  int    `json:"organization_id,omitempty"`
	EventID         int    `json:"event_id,omitempty"`
	IsEventDelegate bool   `json:"is_event_delegate"`
	View            string `json:"view,omitempty"`
}

func TransformPrincipalToResponse(p auth.Principal) PrincipalResponse {
	return PrincipalResponse{
		Role:            string(p.Role),
		Email:           p.Email,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		OrganizationID:  p.OrganizationID,
		EventID:         p.EventID,
		IsEventDelegate: p.IsEventDelegate,
		View:            p.View,
	}
}

// ParseEventTime accepts the dashboard's datetime formats: RFC 3339 with or
// without fraction, or a naive local ISO timestamp. Unparseable or empty
// values come back nil rather than failing the whole payload.
func ParseEventTime(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t
		}
	}
	return nil
}

func TransformSyncEventToVotingEvent(e *EventSyncEvent) *voting.Event {
	if e == nil {
		return nil
	}
	return &voting.Event{
		ID:               e.ID,
		Title:            e.Title,
		EventDate:        ParseEventTime(e.EventDate),
		DelegateDeadline: ParseEventTime(e.DelegateDeadline),
		IsVotingEnabled:  e.IsVotingEnabled,
		DelegateLimit:    e.DelegateLimit,
	}
}

func TransformActiveEventToVotingEvent(e *auth.ActiveEventInfo) *voting.Event {
	if e == nil {
		return nil
	}
	return &voting.Event{
		ID:               e.ID,
		Title:            e.Title,
		EventDate:        ParseEventTime(e.EventDate),
		DelegateDeadline: ParseEventTime(e.DelegateDeadline),
		IsVotingEnabled:  e.IsVotingEnabled,
	}
}
