package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mistenes/mikdashboard-voting-sub000/voting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performSignedSync(t *testing.T, api *testAPI, body []byte, timestamp, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/internal/event-sync", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-voting-timestamp", timestamp)
	req.Header.Set("x-voting-signature", signature)

	res := httptest.NewRecorder()
	api.router.ServeHTTP(res, req)
	return res
}

func TestEventSync(t *testing.T) {
	t.Run("Happy path - signed push updates event metadata", func(t *testing.T) {
		api := setupTestAPI(t, "http://127.0.0.1:1")

		body, err := json.Marshal(map[string]any{
			"event": map[string]any{
				"id":                3,
				"title":             "Tavaszi közgyűlés",
				"event_date":        "2026-05-01T18:00:00",
				"delegate_deadline": nil,
				"is_voting_enabled": true,
				"delegate_limit":    nil,
			},
			"delegate_count": 12,
		})
		require.NoError(t, err)

		ts, sig, err := api.sync.Sign(body)
		require.NoError(t, err)

		res := performSignedSync(t, api, body, ts, sig)
		require.Equal(t, http.StatusOK, res.Code)

		snap := api.service.Snapshot()
		require.NotNil(t, snap.Event)
		assert.Equal(t, "Tavaszi közgyűlés", snap.Event.Title)
		assert.True(t, snap.Event.IsVotingEnabled)
		assert.Equal(t, 12, snap.DelegateCount)
		require.NotNil(t, snap.Event.EventDate)
		assert.Equal(t, 2026, snap.Event.EventDate.Year())
	})

	t.Run("Null event clears the active event", func(t *testing.T) {
		api := setupTestAPI(t, "http://127.0.0.1:1")
		api.service.ApplyEvent(&voting.Event{ID: 1, Title: "Régi"}, 5)

		body := []byte(`{"event":null,"delegate_count":0}`)
		ts, sig, err := api.sync.Sign(body)
		require.NoError(t, err)

		res := performSignedSync(t, api, body, ts, sig)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Nil(t, api.service.ActiveEvent())
	})

	t.Run("Bad signature rejected", func(t *testing.T) {
		api := setupTestAPI(t, "http://127.0.0.1:1")

		body := []byte(`{"event":null,"delegate_count":0}`)
		ts, _, err := api.sync.Sign(body)
		require.NoError(t, err)

		res := performSignedSync(t, api, body, ts, "deadbeef")
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Nil(t, api.service.ActiveEvent())
	})

	t.Run("Stale timestamp rejected", func(t *testing.T) {
		api := setupTestAPI(t, "http://127.0.0.1:1")

		body := []byte(`{"event":null,"delegate_count":0}`)
		ts, sig, err := api.sync.Sign(body)
		require.NoError(t, err)

		api.clock.Advance(5 * time.Minute)
		res := performSignedSync(t, api, body, ts, sig)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("Tampered body rejected", func(t *testing.T) {
		api := setupTestAPI(t, "http://127.0.0.1:1")

		body := []byte(`{"event":null,"delegate_count":0}`)
		ts, sig, err := api.sync.Sign(body)
		require.NoError(t, err)

		res := performSignedSync(t, api, []byte(`{"event":null,"delegate_count":99}`), ts, sig)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})
}
