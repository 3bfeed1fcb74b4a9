package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mistenes/mikdashboard-voting-sub000/api/models"
	"github.com/mistenes/mikdashboard-voting-sub000/api/transport"
	"github.com/mistenes/mikdashboard-voting-sub000/auth"
	"github.com/mistenes/mikdashboard-voting-sub000/logging"
	"github.com/mistenes/mikdashboard-voting-sub000/voting"
)

type AuthControllerConfig struct {
	LocalAdminEmail    string
	LocalAdminPassword string
	CookieSecure       bool
	SessionTTLSeconds  int
}

type AuthController struct {
	sessions   *auth.Store
	membership *auth.MembershipClient
	verifier   *auth.TokenVerifier
	service    voting.SessionStore
	config     AuthControllerConfig
}

func NewAuthController(sessions *auth.Store, membership *auth.MembershipClient, verifier *auth.TokenVerifier, service voting.SessionStore, config AuthControllerConfig) *AuthController {
	return &AuthController{
		sessions:   sessions,
		membership: membership,
		verifier:   verifier,
		service:    service,
		config:     config,
	}
}

func (c *AuthController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/auth")

	group.POST("/login", c.login)
	group.POST("/logout", c.logout)
	group.GET("/session", transport.SessionAuthMiddleware(c.sessions), c.currentSession)

	engine.GET("/o2auth", c.redeemToken)
}

// login godoc
// @Summary Log in with membership credentials
// @Description Delegates the credential check to the membership dashboard; a configured local admin pair works as a break-glass fallback
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.PrincipalResponse
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Failure 403 {object} models.ErrorResponse "No voting access for this account"
// @Failure 503 {object} models.ErrorResponse "Membership system unreachable"
// @Router /api/auth/login [post]
func (c *AuthController) login(g *gin.Context) {
	var req models.LoginRequest
	if err := g.ShouldBindJSON(&req); err != nil || req.Identifier == "" || req.Password == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: models.CodeInvalidRequest, Error: "identifier and password are required"})
		return
	}

	identifier := strings.ToLower(strings.TrimSpace(req.Identifier))

	if c.isLocalAdmin(identifier, req.Password) {
		principal := auth.Principal{Role: auth.RoleAdmin, Email: identifier}
		logging.Log.Warnf("AUTH: local admin fallback used by %s", identifier)
		c.establishSession(g, principal)
		return
	}

	result, err := c.membership.Authenticate(g.Request.Context(), identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUnavailable):
			g.JSON(http.StatusServiceUnavailable, &models.ErrorResponse{Code: models.CodeServiceUnavailable, Error: "membership system unavailable, try again later"})
		case errors.Is(err, auth.ErrForbidden):
			g.JSON(http.StatusForbidden, &models.ErrorResponse{Code: models.CodeForbidden, Error: "no voting access for this account"})
		default:
			g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Code: models.CodeUnauthorized, Error: "invalid credentials"})
		}
		return
	}

	principal := principalFromAuthResult(result)
	c.applyEventFromLogin(result)
	c.establishSession(g, principal)
}

// redeemToken godoc
// @Summary Redeem an o2auth handoff token
// @Description Verifies the dashboard-minted token, mints a local session and redirects to the app root
// @Tags auth
// @Produce json
// @Param token query string true "Handoff token"
// @Success 302 {string} string "Redirect to /"
// @Failure 401 {object} models.ErrorResponse "Invalid token"
// @Router /o2auth [get]
func (c *AuthController) redeemToken(g *gin.Context) {
	claims, err := c.verifier.Verify(g.Query("token"))
	if err != nil {
		logging.Log.Warn("AUTH: o2auth token rejected")
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Code: models.CodeInvalidToken, Error: "invalid token"})
		return
	}

	role := auth.RoleVoter
	if claims.Role == string(auth.RoleAdmin) {
		role = auth.RoleAdmin
	}
	view := claims.View
	if view == "" {
		view = "default"
	}

	principal := auth.Principal{
		Role:           role,
		Email:          claims.Email,
		FirstName:      claims.FirstName,
		LastName:       claims.LastName,
		UserID:         claims.UID,
		OrganizationID: claims.Org,
		EventID:        claims.Event,
		// The dashboard only hands non-public tokens to delegates and
		// admins; public-view spectators cannot cast.
		IsEventDelegate: role == auth.RoleAdmin || view != "public",
		View:            view,
	}

	c.applyEventFromClaims(claims)

	id, err := c.sessions.Create(principal)
	if err != nil {
		logging.Log.Errorf("AUTH: failed to create session: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Code: "internal_error", Error: "could not create session"})
		return
	}
	c.setSessionCookie(g, id)
	g.Redirect(http.StatusFound, "/")
}

// logout godoc
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} models.EventSyncResponse
// @Router /api/auth/logout [post]
func (c *AuthController) logout(g *gin.Context) {
	if id, err := g.Cookie(transport.SessionCookieName); err == nil && id != "" {
		c.sessions.Delete(id)
	}
	g.SetSameSite(http.SameSiteLaxMode)
	g.SetCookie(transport.SessionCookieName, "", -1, "/", "", c.config.CookieSecure, true)
	g.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// currentSession godoc
// @Summary Current principal
// @Tags auth
// @Produce json
// @Success 200 {object} models.PrincipalResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/auth/session [get]
func (c *AuthController) currentSession(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Code: models.CodeUnauthorized, Error: "no session"})
		return
	}
	g.JSON(http.StatusOK, models.TransformPrincipalToResponse(principal))
}

func (c *AuthController) isLocalAdmin(identifier, password string) bool {
	if c.config.LocalAdminEmail == "" || c.config.LocalAdminPassword == "" {
		return false
	}
	return identifier == strings.ToLower(c.config.LocalAdminEmail) && password == c.config.LocalAdminPassword
}

func (c *AuthController) establishSession(g *gin.Context, principal auth.Principal) {
	id, err := c.sessions.Create(principal)
	if err != nil {
		logging.Log.Errorf("AUTH: failed to create session: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Code: "internal_error", Error: "could not create session"})
		return
	}
	c.setSessionCookie(g, id)
	g.JSON(http.StatusOK, models.TransformPrincipalToResponse(principal))
}

func (c *AuthController) setSessionCookie(g *gin.Context, id string) {
	g.SetSameSite(http.SameSiteLaxMode)
	g.SetCookie(transport.SessionCookieName, id, c.config.SessionTTLSeconds, "/", "", c.config.CookieSecure, true)
}

func principalFromAuthResult(result *auth.AuthResult) auth.Principal {
	role := auth.RoleVoter
	if result.IsAdmin {
		role = auth.RoleAdmin
	}

	principal := auth.Principal{
		Role:            role,
		Email:           result.Email,
		IsEventDelegate: result.IsEventDelegate,
	}
	if result.FirstName != nil {
		principal.FirstName = *result.FirstName
	}
	if result.LastName != nil {
		principal.LastName = *result.LastName
	}
	if result.OrganizationID != nil {
		principal.OrganizationID = *result.OrganizationID
	}
	if result.ActiveEvent != nil {
		principal.EventID = result.ActiveEvent.ID
	}
	return principal
}

// applyEventFromLogin refreshes the session's event metadata from a login
// response when it brings a different event than the one currently held.
func (c *AuthController) applyEventFromLogin(result *auth.AuthResult) {
	if result.ActiveEvent == nil {
		return
	}
	current := c.service.ActiveEvent()
	if current != nil && current.ID == result.ActiveEvent.ID {
		return
	}
	c.service.ApplyEvent(models.TransformActiveEventToVotingEvent(result.ActiveEvent), result.ActiveEvent.DelegateCount)
}

func (c *AuthController) applyEventFromClaims(claims auth.TokenClaims) {
	if claims.Event == 0 {
		return
	}
	current := c.service.ActiveEvent()
	if current != nil && current.ID == claims.Event {
		return
	}
	event := &voting.Event{
		ID:               claims.Event,
		Title:            claims.EventTitle,
		EventDate:        models.ParseEventTime(claims.EventDate),
		DelegateDeadline: models.ParseEventTime(claims.DelegateDeadline),
		IsVotingEnabled:  claims.IsVotingEnabled,
	}
	c.service.ApplyEvent(event, claims.DelegateCount)
}
