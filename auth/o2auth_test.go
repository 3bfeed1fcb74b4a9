package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClaims() TokenClaims {
	date := "2026-05-01T18:00:00"
	return TokenClaims{
		UID:             42,
		Org:             7,
		Email:           "delegate@example.org",
		Role:            "voter",
		FirstName:       "Anna",
		LastName:        "Kiss",
		Event:           3,
		EventTitle:      "Tavaszi közgyűlés",
		EventDate:       &date,
		IsVotingEnabled: true,
		DelegateCount:   12,
	}
}

func TestTokenVerify(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 17, 0, 0, 0, time.UTC))
	verifier := NewTokenVerifier("shared-secret", clock)

	t.Run("Happy path - valid token round-trips", func(t *testing.T) {
		token, err := verifier.Mint(testClaims(), 5*time.Minute)
		require.NoError(t, err)

		claims, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "delegate@example.org", claims.Email)
		assert.Equal(t, "voter", claims.Role)
		assert.Equal(t, 3, claims.Event)
		assert.Equal(t, 12, claims.DelegateCount)
	})

	t.Run("Tampered payload fails even with future exp", func(t *testing.T) {
		token, err := verifier.Mint(testClaims(), time.Hour)
		require.NoError(t, err)

		encoded, sig, _ := strings.Cut(token, ".")
		body, err := base64.RawURLEncoding.DecodeString(encoded)
		require.NoError(t, err)
		tampered := strings.Replace(string(body), `"role":"voter"`, `"role":"admin"`, 1)
		require.NotEqual(t, string(body), tampered)

		forged := base64.RawURLEncoding.EncodeToString([]byte(tampered)) + "." + sig
		_, err = verifier.Verify(forged)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired token rejected with correct MAC", func(t *testing.T) {
		token, err := verifier.Mint(testClaims(), time.Minute)
		require.NoError(t, err)

		clock.Advance(2 * time.Minute)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Wrong secret rejected", func(t *testing.T) {
		other := NewTokenVerifier("other-secret", clock)
		token, err := other.Mint(testClaims(), time.Hour)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Malformed tokens rejected uniformly", func(t *testing.T) {
		for _, token := range []string{"", "nodot", "..", "a.b", "!!!.deadbeef", base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".deadbeef"} {
			_, err := verifier.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
		}
	})
}

func TestSyncVerifier(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 17, 0, 0, 0, time.UTC))
	verifier := NewSyncVerifier("shared-secret", time.Minute, clock)
	body := []byte(`{"delegate_count": 4, "event": {"id": 1, "title": "Közgyűlés", "is_voting_enabled": true}}`)

	t.Run("Happy path - signed body verifies", func(t *testing.T) {
		ts, sig, err := verifier.Sign(body)
		require.NoError(t, err)
		assert.NoError(t, verifier.Verify(ts, sig, body))
	})

	t.Run("Dashboard-signed accented payload verifies", func(t *testing.T) {
		// Header pair produced by the dashboard itself for this body:
		// HMAC over "1777654800:" + the sorted, compact, ensure_ascii
		// serialization (accents as \uXXXX escapes, raw UTF-8 on the wire).
		wire := []byte(`{"event": {"id": 1, "title": "Közgyűlés", "is_voting_enabled": true}, "delegate_count": 4}`)
		ts := "1777654800"
		sig := "aa391b33406b2e393d5fc3e173a36ae8322afa8c5237b64e47765fdb79637fa9"

		assert.NoError(t, verifier.Verify(ts, sig, wire))
	})

	t.Run("Verification is whitespace-insensitive via canonical form", func(t *testing.T) {
		ts, sig, err := verifier.Sign(body)
		require.NoError(t, err)

		reformatted := []byte(`{"event":{"is_voting_enabled":true,"title":"Közgyűlés","id":1},"delegate_count":4}`)
		assert.NoError(t, verifier.Verify(ts, sig, reformatted))
	})

	t.Run("Tampered body rejected", func(t *testing.T) {
		ts, sig, err := verifier.Sign(body)
		require.NoError(t, err)

		tampered := []byte(`{"delegate_count": 5, "event": {"id": 1, "title": "Közgyűlés", "is_voting_enabled": true}}`)
		assert.ErrorIs(t, verifier.Verify(ts, sig, tampered), ErrInvalidToken)
	})

	t.Run("Stale timestamp rejected", func(t *testing.T) {
		ts, sig, err := verifier.Sign(body)
		require.NoError(t, err)

		clock.Advance(2 * time.Minute)
		assert.ErrorIs(t, verifier.Verify(ts, sig, body), ErrInvalidToken)
	})

	t.Run("Garbage headers rejected", func(t *testing.T) {
		assert.ErrorIs(t, verifier.Verify("not-a-number", "deadbeef", body), ErrInvalidToken)
		assert.ErrorIs(t, verifier.Verify("", "", body), ErrInvalidToken)
	})
}
