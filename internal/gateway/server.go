package gateway

import (
	"context"
	"log"
	"net/http"
	"time"
)

// Server runs the dashboard HTTP server.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates the dashboard server on addr.
func NewServer(addr string, d Deps) *Server {
	if d.Started.IsZero() {
		d.Started = time.Now()
	}
	mux := http.NewServeMux()
	RegisterRoutes(mux, d)
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] dashboard server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[ERROR] dashboard server: %v", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
