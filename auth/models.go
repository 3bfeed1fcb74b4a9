package auth

import "errors"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleVoter Role = "voter"
)

// Principal is the identity bound to a session token. Event linkage and the
// delegate/voting flags are copied from the membership system at login time
// and used for gating and display only.
type Principal struct {
	Role            Role   `json:"role"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	UserID          int    `json:"user_id,omitempty"`
	OrganizationID  int    `json:"organization_id,omitempty"`
	EventID         int    `json:"event_id,omitempty"`
	IsEventDelegate bool   `json:"is_event_delegate"`
	View            string `json:"view,omitempty"`
}

// VoterIdentity is the key used for server-side ballot deduplication. It
// must be stable for a user across reconnects within one vote instance.
func (p Principal) VoterIdentity() string {
	return p.Email
}

// CanCastBallot reports whether this principal may vote at all. Admins may
// always cast; voters must be delegates for the active event. Public-view
// spectators hold voter role without delegate status and are rejected here.
func (p Principal) CanCastBallot() bool {
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleVoter:
		return p.IsEventDelegate
	}
	return false
}

var ErrUnauthorized = errors.New("missing, unknown or expired session")
var ErrInvalidToken = errors.New("invalid token")
var ErrBadCredentials = errors.New("invalid credentials")
var ErrUnavailable = errors.New("membership service unavailable")
var ErrForbidden = errors.New("insufficient permissions")
