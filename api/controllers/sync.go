package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mistenes/mikdashboard-voting-sub000/api/models"
	"github.com/mistenes/mikdashboard-voting-sub000/auth"
	"github.com/mistenes/mikdashboard-voting-sub000/logging"
	"github.com/mistenes/mikdashboard-voting-sub000/voting"
)

// InternalController receives the signed event-metadata pushes the
// membership dashboard sends whenever the active event changes.
type InternalController struct {
	service  voting.SessionStore
	verifier *auth.SyncVerifier
}

func NewInternalController(service voting.SessionStore, verifier *auth.SyncVerifier) *InternalController {
	return &InternalController{service: service, verifier: verifier}
}

func (c *InternalController) RegisterRoutes(engine *gin.Engine) {
	engine.POST("/api/internal/event-sync", c.eventSync)
}

// eventSync godoc
// @Summary Ingest event metadata from the dashboard
// @Description Body is authenticated by the x-voting-timestamp and x-voting-signature headers (HMAC over timestamp:canonicalJSON)
// @Tags internal
// @Accept json
// @Produce json
// @Success 200 {object} models.EventSyncResponse
// @Failure 401 {object} models.ErrorResponse "Bad signature or stale timestamp"
// @Router /api/internal/event-sync [post]
func (c *InternalController) eventSync(g *gin.Context) {
	body, err := io.ReadAll(g.Request.Body)
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: models.CodeInvalidRequest, Error: "could not read body"})
		return
	}

	if err := c.verifier.Verify(g.GetHeader("x-voting-timestamp"), g.GetHeader("x-voting-signature"), body); err != nil {
		logging.Log.Warn("SYNC: rejected event-sync push with bad signature")
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Code: models.CodeInvalidToken, Error: "invalid signature"})
		return
	}

	var req models.EventSyncRequest
	if err := json.Unmarshal(body, &req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: models.CodeInvalidRequest, Error: "invalid payload"})
		return
	}

	c.service.ApplyEvent(models.TransformSyncEventToVotingEvent(req.Event), req.DelegateCount)
	g.JSON(http.StatusOK, &models.EventSyncResponse{Message: "event synchronized"})
}
