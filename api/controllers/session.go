package controllers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/mistenes/mikdashboard-voting-sub000/api/models"
	"github.com/mistenes/mikdashboard-voting-sub000/api/transport"
	"github.com/mistenes/mikdashboard-voting-sub000/auth"
	"github.com/mistenes/mikdashboard-voting-sub000/logging"
	"github.com/mistenes/mikdashboard-voting-sub000/voting"
)

type SessionController struct {
	service   voting.SessionStore
	sessions  *auth.Store
	clock     clockwork.Clock
	heartbeat time.Duration
}

func NewSessionController(service voting.SessionStore, sessions *auth.Store, clock clockwork.Clock, heartbeat time.Duration) *SessionController {
	return &SessionController{
		service:   service,
		sessions:  sessions,
		clock:     clock,
		heartbeat: heartbeat,
	}
}

func (c *SessionController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/session")

	group.GET("", c.getSession)
	group.GET("/stream", c.stream)

	admin := group.Group("", transport.SessionAuthMiddleware(c.sessions, auth.RoleAdmin))
	admin.POST("/start", c.startVote)
	admin.POST("/finish", c.finishVote)
	admin.POST("/reset", c.resetVote)

	voter := group.Group("", transport.SessionAuthMiddleware(c.sessions, auth.RoleAdmin, auth.RoleVoter))
	voter.POST("/vote", c.castVote)
}

// getSession godoc
// @Summary Current session snapshot
// @Description Returns the full voting-session state including the server timestamp used for clock correction
// @Tags session
// @Produce json
// @Success 200 {object} voting.Snapshot
// @Router /api/session [get]
func (c *SessionController) getSession(g *gin.Context) {
	g.JSON(http.StatusOK, c.service.Snapshot())
}

// startVote godoc
// @Summary Start a vote
// @Description Opens a new vote window; admin only, valid only from waiting
// @Tags session
// @Accept json
// @Produce json
// @Param request body models.StartVoteRequest false "Optional total voter override"
// @Success 200 {object} voting.Snapshot
// @Failure 403 {object} models.ErrorResponse "Voting disabled for the active event"
// @Failure 409 {object} models.ErrorResponse "Invalid transition"
// @Router /api/session/start [post]
func (c *SessionController) startVote(g *gin.Context) {
	// The body is optional, but when one arrives it must parse. Checking
	// for io.EOF instead of ContentLength keeps chunked requests honest.
	var req models.StartVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: models.CodeInvalidRequest, Error: "invalid request format"})
		return
	}

	// An event with voting disabled blocks new votes; a vote that is
	// already running is unaffected by a later flag flip.
	if ev := c.service.ActiveEvent(); ev != nil && !ev.IsVotingEnabled {
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Code: models.CodeForbidden, Error: "voting is disabled for the active event"})
		return
	}

	snap, err := c.service.Start(req.TotalVoters)
	if err != nil {
		writeSessionError(g, err)
		return
	}
	g.JSON(http.StatusOK, snap)
}

// finishVote godoc
// @Summary Finish the active vote
// @Tags session
// @Produce json
// @Success 200 {object} voting.Snapshot
// @Failure 409 {object} models.ErrorResponse "Invalid transition"
// @Router /api/session/finish [post]
func (c *SessionController) finishVote(g *gin.Context) {
	snap, err := c.service.Finish()
	if err != nil {
		writeSessionError(g, err)
		return
	}
	g.JSON(http.StatusOK, snap)
}

// resetVote godoc
// @Summary Reset the session to waiting
// @Description Valid from finished, or from in_progress as an explicit admin abort
// @Tags session
// @Produce json
// @Success 200 {object} voting.Snapshot
// @Failure 409 {object} models.ErrorResponse "Invalid transition"
// @Router /api/session/reset [post]
func (c *SessionController) resetVote(g *gin.Context) {
	snap, err := c.service.Reset()
	if err != nil {
		writeSessionError(g, err)
		return
	}
	g.JSON(http.StatusOK, snap)
}

// castVote godoc
// @Summary Cast a ballot
// @Description Applies one ballot to the tally; one per voter per vote instance
// @Tags session
// @Accept json
// @Produce json
// @Param request body models.CastVoteRequest true "Ballot"
// @Success 200 {object} voting.Snapshot
// @Failure 400 {object} models.ErrorResponse "Invalid choice or no active vote"
// @Failure 403 {object} models.ErrorResponse "Caller may not vote on this event"
// @Failure 409 {object} models.ErrorResponse "Ballot already cast"
// @Router /api/session/vote [post]
func (c *SessionController) castVote(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Code: models.CodeUnauthorized, Error: "no session"})
		return
	}
	if !principal.CanCastBallot() {
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Code: models.CodeForbidden, Error: "not a delegate for the active event"})
		return
	}

	var req models.CastVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: models.CodeInvalidRequest, Error: "invalid request format"})
		return
	}

	snap, err := c.service.CastVote(principal.VoterIdentity(), voting.Choice(req.Choice))
	if err != nil {
		writeSessionError(g, err)
		return
	}

	transport.VotesCastTotal.WithLabelValues(req.Choice).Inc()
	g.JSON(http.StatusOK, snap)
}

// stream godoc
// @Summary Session event stream
// @Description Long-lived text/event-stream; emits the current snapshot immediately, a snapshot on every mutation, and periodic heartbeats
// @Tags session
// @Produce text/event-stream
// @Success 200 {string} string "SSE stream"
// @Router /api/session/stream [get]
func (c *SessionController) stream(g *gin.Context) {
	id, updates := c.service.Subscribe()
	defer c.service.Unsubscribe(id)

	g.Header("Content-Type", "text/event-stream")
	g.Header("Cache-Control", "no-cache")
	g.Header("Connection", "keep-alive")
	g.Header("X-Accel-Buffering", "no")

	g.Writer.WriteHeaderNow()
	g.Writer.Flush()

	ticker := c.clock.NewTicker(c.heartbeat)
	defer ticker.Stop()
	clientGone := g.Request.Context().Done()

	for {
		select {
		case snap, open := <-updates:
			if !open {
				return
			}
			g.SSEvent("session", snap)
			g.Writer.Flush()
		case <-ticker.Chan():
			g.SSEvent("heartbeat", gin.H{"server_time": c.clock.Now().UTC()})
			g.Writer.Flush()
		case <-clientGone:
			logging.Log.Debugf("STREAM: client %s disconnected", id)
			return
		}
	}
}

func writeSessionError(g *gin.Context, err error) {
	switch {
	case errors.Is(err, voting.ErrInvalidTransition):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Code: models.CodeInvalidTransition, Error: err.Error()})
	case errors.Is(err, voting.ErrAlreadyVoted):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Code: models.CodeAlreadyVoted, Error: err.Error()})
	case errors.Is(err, voting.ErrInvalidChoice):
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: models.CodeInvalidChoice, Error: err.Error()})
	case errors.Is(err, voting.ErrVoteNotActive):
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: models.CodeVoteNotActive, Error: err.Error()})
	default:
		logging.Log.Errorf("SESSION: unexpected error: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Code: "internal_error", Error: "unexpected error"})
	}
}
