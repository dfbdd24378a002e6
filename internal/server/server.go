// Package server exposes pricing and simulation over HTTP, and streams live
// simulations over a websocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/contactkeval/option-greeks-sim/internal/live"
	"github.com/contactkeval/option-greeks-sim/internal/logger"
	"github.com/contactkeval/option-greeks-sim/internal/pricing"
)

const (
	// DefaultMaxPaths caps the paths a single ensemble request may ask for.
	DefaultMaxPaths = 10000

	// DefaultMaxDays caps the calendar days between valuation and expiry
	// for requests that simulate a path.
	DefaultMaxDays = 3660

	shutdownTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr     string
	MaxTicks int    // live default, 0 = live.DefaultMaxTicks
	Schedule string // live default, empty = live.DefaultSchedule
	MaxPaths int    // 0 = DefaultMaxPaths
	MaxDays  int    // 0 = DefaultMaxDays
}

// Server is the HTTP front end.
type Server struct {
	cfg    Config
	engine *gin.Engine
	now    func() time.Time
}

// New builds a server with all routes registered.
func New(cfg Config) *Server {
	if cfg.MaxTicks <= 0 {
		cfg.MaxTicks = live.DefaultMaxTicks
	}
	if cfg.Schedule == "" {
		cfg.Schedule = live.DefaultSchedule
	}
	if cfg.MaxPaths <= 0 {
		cfg.MaxPaths = DefaultMaxPaths
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = DefaultMaxDays
	}

	s := &Server{cfg: cfg, engine: gin.New(), now: time.Now}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.RegisterRoutes(s.engine)
	return s
}

// RegisterRoutes mounts the handlers on r.
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", s.health)

	api := r.Group("/api/v1")
	{
		api.POST("/price", s.price)
		api.POST("/simulate", s.simulate)
		api.POST("/ensemble", s.ensemble)
		api.GET("/live", s.live)
	}
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.engine}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("starting HTTP server on %s", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-ID", reqID)

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.Error(c.Errors.String())
			return
		}
		entry.Debug("request served")
	}
}

// fail maps err to a status code and writes it as JSON.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var invalid *pricing.InvalidContractError
	var bad badRequest
	switch {
	case errors.As(err, &invalid), errors.As(err, &bad), errors.Is(err, pricing.ErrUnsupportedOptionKind):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// bind decodes the request body, or the query for GET requests.
func bind(c *gin.Context, v any) bool {
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(v)
	} else {
		err = c.ShouldBindJSON(v)
	}
	if err != nil {
		fail(c, badRequest{err})
		return false
	}
	return true
}
