package auth

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mistenes/mikdashboard-voting-sub000/logging"
)

// ActiveEventInfo is the dashboard's view of the currently active voting
// event, returned with a successful delegated login.
type ActiveEventInfo struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Description      *string `json:"description"`
	EventDate        *string `json:"event_date"`
	DelegateDeadline *string `json:"delegate_deadline"`
	IsVotingEnabled  bool    `json:"is_voting_enabled"`
	DelegateCount    int     `json:"delegate_count"`
}

// AuthResult is the membership system's response to a delegated credential
// check.
type AuthResult struct {
	Email               string           `json:"email"`
	IsAdmin             bool             `json:"is_admin"`
	FirstName           *string          `json:"first_name"`
	LastName            *string          `json:"last_name"`
	OrganizationID      *int             `json:"organization_id"`
	OrganizationFeePaid *bool            `json:"organization_fee_paid"`
	MustChangePassword  bool             `json:"must_change_password"`
	ActiveEvent         *ActiveEventInfo `json:"active_event"`
	IsEventDelegate     bool             `json:"is_event_delegate"`
}

type authenticateRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

// MembershipClient verifies credentials against the membership dashboard.
// Every request is signed with the shared secret and bounded by the
// configured timeout; an unreachable or erroring dashboard is reported as
// ErrUnavailable, distinct from an explicit credential rejection.
type MembershipClient struct {
	baseURL string
	secret  []byte
	client  *http.Client
	clock   clockwork.Clock
}

func NewMembershipClient(baseURL, secret string, timeout time.Duration, clock clockwork.Clock) *MembershipClient {
	return &MembershipClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		client:  &http.Client{Timeout: timeout},
		clock:   clock,
	}
}

// Authenticate delegates a credential check to the dashboard. The request
// carries HMAC(secret, "timestamp:email:password") so the dashboard only
// answers callers holding the shared secret.
func (c *MembershipClient) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	timestamp := c.clock.Now().Unix()
	canonical := strings.ToLower(strings.TrimSpace(email))

	mac := hmac.New(sha256.New, c.secret)
	fmt.Fprintf(mac, "%d:%s:%s", timestamp, canonical, password)

	payload, err := json.Marshal(authenticateRequest{
		Email:     canonical,
		Password:  password,
		Timestamp: timestamp,
		Signature: hex.EncodeToString(mac.Sum(nil)),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/voting/authenticate", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		logging.Log.Errorf("MEMBERSHIP: authenticate call failed: %v", err)
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var result AuthResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			logging.Log.Errorf("MEMBERSHIP: malformed authenticate response: %v", err)
			return nil, ErrUnavailable
		}
		return &result, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrBadCredentials
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrForbidden
	case resp.StatusCode >= 500:
		logging.Log.Errorf("MEMBERSHIP: authenticate returned %d", resp.StatusCode)
		return nil, ErrUnavailable
	default:
		logging.Log.Errorf("MEMBERSHIP: unexpected authenticate status %d", resp.StatusCode)
		return nil, ErrBadCredentials
	}
}
