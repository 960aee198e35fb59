// Package server is a development load server. It serves the table page,
// single row fragments, accepts saves and pushes row change notifications.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AntoineGS/loadtracker/internal/config"
	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/state"
)

// Server serves loads from a store.
type Server struct {
	store    *state.Store
	logger   *slog.Logger
	metrics  *metrics
	hub      *Hub
	router   *gin.Engine
	customer string
	period   loads.Period
}

// New creates a server. customer and period are used when a request does
// not name them.
func New(store *state.Store, customer string, period loads.Period) *Server {
	s := &Server{
		store:    store,
		customer: customer,
		period:   period,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:  newMetrics(),
	}
	s.hub = newHub(s.logger, s.metrics)
	s.router = s.routes()
	return s
}

// WithLogger sets the logger
func (s *Server) WithLogger(logger *slog.Logger) *Server {
	s2 := *s
	s2.logger = logger
	s2.hub = newHub(logger, s2.metrics)
	s2.router = s2.routes()
	return &s2
}

// Hub returns the push hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET(config.DefaultTablePath, s.handleTable)
	r.GET(config.DefaultRowPath, s.handleRow)
	r.POST(config.DefaultUpdatePath, s.handleUpdate)
	r.GET(config.DefaultHubPath, s.hub.serve)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// ListenAndServe serves on addr until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving loads", "addr", addr, "customer", s.customer, "period", s.period.Key())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}
