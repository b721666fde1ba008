// Package server exposes failover sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vidrelay/vidrelay/catalog"
	"github.com/vidrelay/vidrelay/failover"
	"github.com/vidrelay/vidrelay/log"
)

const shutdownTimeout = 5 * time.Second

// Server is the resolution service.
type Server struct {
	catalog  *catalog.Catalog
	sessions *failover.Sessions
	engine   *gin.Engine
}

// New wires the routes. Call gin.SetMode before New to silence gin's debug output.
func New(c *catalog.Catalog, sessions *failover.Sessions) *Server {
	s := &Server{
		catalog:  c,
		sessions: sessions,
		engine:   gin.New(),
	}

	s.engine.Use(gin.Recovery(), Logger(), CORS())
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/providers", s.handleProviders)

	sessions := s.engine.Group("/sessions")
	sessions.POST("", s.handleOpen)
	sessions.GET("/:id", s.handleGet)
	sessions.DELETE("/:id", s.handleAbandon)
	sessions.POST("/:id/success", s.handleSuccess)
	sessions.POST("/:id/failure", s.handleFailure)
	sessions.POST("/:id/reset", s.handleReset)
	sessions.POST("/:id/switch", s.handleSwitch)
}

// Run serves on addr until ctx is done, then shuts down gracefully and
// waits for pending preference writes.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitor := make(chan struct{})
	go func() {
		defer close(janitor)
		s.sessions.Run(ctx)
	}()

	errc := make(chan error, 1)
	go func() {
		log.Infof("resolution service listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	<-janitor
	log.Info("resolution service stopped")
	return err
}
