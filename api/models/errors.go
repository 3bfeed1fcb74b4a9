package models

// ErrorResponse carries a machine-checkable code alongside a human-readable
// message. Codes are stable; messages are not.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

const (
	CodeInvalidTransition  = "invalid_transition"
	CodeInvalidChoice      = "invalid_choice"
	CodeVoteNotActive      = "vote_not_active"
	CodeAlreadyVoted       = "already_voted"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeInvalidToken       = "invalid_token"
	CodeServiceUnavailable = "service_unavailable"
	CodeInvalidRequest     = "invalid_request"
)
