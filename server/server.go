// Package server exposes the text pipeline and the listener controls over HTTP
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"home-voice-control/clients/controller"
	"home-voice-control/listener"
	"home-voice-control/logger"
	"home-voice-control/understanding"
)

// Server is a thin wrapper over chi and http.Server
type Server struct {
	addr       string
	mux        *chi.Mux
	srv        *http.Server
	pipeline   understanding.Interface
	dispatcher controller.Dispatcher
	control    listener.ControlInterface
	log        *logger.Logger
}

type Config struct {
	Addr       string
	Pipeline   understanding.Interface
	Dispatcher controller.Dispatcher
	// Control is nil when no microphone loop runs, the listener routes answer 503 then
	Control listener.ControlInterface
}

func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is nil")
	}

	if cfg.Pipeline == nil {
		return nil, errors.New("server: pipeline is nil")
	}

	if cfg.Dispatcher == nil {
		return nil, errors.New("server: dispatcher is nil")
	}

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		addr:       addr,
		mux:        chi.NewRouter(),
		pipeline:   cfg.Pipeline,
		dispatcher: cfg.Dispatcher,
		control:    cfg.Control,
		log:        logger.Named("http"),
	}
	s.routes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() {
	s.mux.Use(middleware.RequestID)
	s.mux.Use(middleware.Recoverer)
	s.mux.Use(s.requestLog)

	s.mux.Get("/healthz", s.healthz)
	s.mux.Route("/v1", func(r chi.Router) {
		r.Post("/parse", s.parse)
		r.Post("/commands", s.commands)
		r.Post("/listener/{action}", s.listenerAction)
	})
}

// Handler returns the router, handy for tests
func (s *Server) Handler() http.Handler { return s.mux }

// Addr returns the listening address
func (s *Server) Addr() string { return s.addr }

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errC := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("http listening")
		errC <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server: listening failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server: shutdown failed")
	}
	return nil
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}
