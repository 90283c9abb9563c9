// Package api maps the locker and account operations onto a small JSON HTTP
// API. Handlers stay thin: they decode input, call a service and render the
// result or a mapped error.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/logging"
	"github.com/dmitrijs2005/gophlocker/internal/server/config"
	"github.com/dmitrijs2005/gophlocker/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address  string
	cfg      *config.Config
	locker   *services.LockerService
	accounts *services.AccountService
	logger   logging.Logger
	handler  http.Handler
}

func NewServer(cfg *config.Config, locker *services.LockerService, accounts *services.AccountService, l logging.Logger) *Server {
	s := &Server{
		address:  cfg.HTTPAddr,
		cfg:      cfg,
		locker:   locker,
		accounts: accounts,
		logger:   l.With("module", "http_server"),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /register", s.register)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("GET /profile/{user_id}", s.profile)
	mux.HandleFunc("POST /upload-photo/{user_id}", s.uploadPhoto)
	mux.HandleFunc("POST /locker/{user_id}", s.addItem)
	mux.HandleFunc("GET /locker/{user_id}", s.listItems)
	mux.HandleFunc("DELETE /locker/item/{item_id}", s.deleteItem)
	mux.HandleFunc("GET "+uploadPattern(s.cfg.UploadURLPrefix), s.serveUpload)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	// outermost first: request id -> logging -> recover -> cors -> limits -> mux
	var h http.Handler = mux
	h = limitMiddleware(s.cfg.MaxUploadBytes, s.cfg.RequestTimeout)(h)
	h = corsMiddleware(s.cfg.AllowedOrigins)(h)
	h = recoverMiddleware(s.logger)(h)
	h = loggingMiddleware(s.logger)(h)
	h = requestIDMiddleware(h)
	return h
}

func uploadPattern(prefix string) string {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		return "/{filename}"
	}
	return prefix + "/{filename}"
}

// Run serves HTTP on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
