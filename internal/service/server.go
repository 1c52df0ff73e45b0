package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ServerConfig struct {
	Port               string
	APIKeys            []string
	RateLimitPerMinute int
}

type Server struct {
	cfg       ServerConfig
	shortener *Shortener
	resolver  *Resolver
	analytics *Analytics
	db        Pinger
}

func NewServer(cfg ServerConfig, shortener *Shortener, resolver *Resolver, analytics *Analytics, db Pinger) *Server {
	return &Server{
		cfg:       cfg,
		shortener: shortener,
		resolver:  resolver,
		analytics: analytics,
		db:        db,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	api := chain(rateLimit(s.cfg.RateLimitPerMinute), requireAPIKey(s.cfg.APIKeys))
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, api(h))
	}

	mux.HandleFunc("GET /api/health", s.handlerHealth)
	handle("POST /api/links", s.handlerCreateLink)
	handle("GET /api/links", s.handlerListLinks)
	handle("POST /api/links/bulk", s.handlerBulkCreate)
	handle("GET /api/links/{id}", s.handlerGetLink)
	handle("PATCH /api/links/{id}", s.handlerUpdateLink)
	handle("DELETE /api/links/{id}", s.handlerDeleteLink)
	handle("GET /api/links/{id}/clicks", s.handlerListClicks)
	handle("GET /api/links/{id}/stats", s.handlerStats)
	handle("GET /api/links/{id}/qr", s.handlerQR)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{slug}", s.handlerRedirect)

	return mux
}

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() { errChan <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
