package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/mistenes/mikdashboard-voting-sub000/api/controllers"
	"github.com/mistenes/mikdashboard-voting-sub000/api/transport"
	"github.com/mistenes/mikdashboard-voting-sub000/auth"
	"github.com/mistenes/mikdashboard-voting-sub000/logging"
	"github.com/mistenes/mikdashboard-voting-sub000/voting"
)

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

func (s *Server) Start() {
	mode := gin.ReleaseMode
	if os.Getenv("APP_ENV") == "local" {
		mode = gin.DebugMode
	}

	transport.InitMetrics()
	r := transport.NewRouter(mode)
	transport.RegisterMetricsRoute(r)

	clock := clockwork.NewRealClock()

	// Session state and fan-out
	hub := voting.NewHub()
	hub.OnSubscriberChange(func(count int) {
		transport.StreamSubscribers.Set(float64(count))
	})
	service := voting.NewSession(clock, hub, s.config.DurationSeconds, s.config.DefaultTotalVoters)

	// Auth plumbing
	sessions := auth.NewStore(clock, s.config.SessionTTL)
	stop := make(chan struct{})
	sessions.StartSweeper(time.Minute, stop)
	membership := auth.NewMembershipClient(s.config.BaseURL, s.config.O2AuthSecret, s.config.CallTimeout, clock)
	tokenVerifier := auth.NewTokenVerifier(s.config.O2AuthSecret, clock)
	syncVerifier := auth.NewSyncVerifier(s.config.O2AuthSecret, s.config.AuthMaxSkew, clock)

	//Register controllers
	sessionController := controllers.NewSessionController(service, sessions, clock, s.config.HeartbeatInterval)
	sessionController.RegisterRoutes(r)
	authController := controllers.NewAuthController(sessions, membership, tokenVerifier, service, controllers.AuthControllerConfig{
		LocalAdminEmail:    s.config.LocalAdminEmail,
		LocalAdminPassword: s.config.LocalAdminPassword,
		CookieSecure:       s.config.CookieSecure,
		SessionTTLSeconds:  int(s.config.SessionTTL / time.Second),
	})
	authController.RegisterRoutes(r)
	internalController := controllers.NewInternalController(service, syncVerifier)
	internalController.RegisterRoutes(r)

	runServer(r, s.config.Port, stop)
}

// runServer blocks until SIGINT/SIGTERM, then drains open connections.
// Stream clients are expected to reconnect on their own.
func runServer(engine *gin.Engine, port int, stop chan struct{}) {
	server := &http.Server{
		Handler: engine,
		Addr:    fmt.Sprintf(":%d", port),
	}

	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		close(stop)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logging.Log.Errorf("Shutdown did not complete cleanly: %v", err)
		}
	}()

	logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", port))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
}
