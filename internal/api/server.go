// Package api serves run data over HTTP.
package api

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/verte-zerg/spirestats/internal/service"
)

// DefaultAddr is the local-only listen address.
const DefaultAddr = "127.0.0.1:3030"

// DefaultLiveInterval is the push interval for the live feed.
const DefaultLiveInterval = 5 * time.Second

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Version      string
	LiveInterval time.Duration
	Logger       *log.Logger
}

// Server routes API requests to the service.
type Server struct {
	svc          *service.Service
	version      string
	liveInterval time.Duration
	logger       *log.Logger
	upgrader     websocket.Upgrader
	router       *mux.Router
}

// NewServer builds the API router.
func NewServer(svc *service.Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.LiveInterval <= 0 {
		opts.LiveInterval = DefaultLiveInterval
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := &Server{
		svc:          svc,
		version:      opts.Version,
		liveInterval: opts.LiveInterval,
		logger:       opts.Logger,
		upgrader:     websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.withLogging, withCORS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/runs", s.handleRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{character}", s.handleCharacterRuns).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/stats/{character}", s.handleCharacterStats).Methods(http.MethodGet)
	api.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/characters", s.handleCharacters).Methods(http.MethodGet)
	api.HandleFunc("/runs-path", s.handleGetPath).Methods(http.MethodGet)
	api.HandleFunc("/runs-path", s.handleSetPath).Methods(http.MethodPut)
	api.HandleFunc("/runs-path", s.handleClearPath).Methods(http.MethodDelete)
	api.HandleFunc("/live", s.handleLive).Methods(http.MethodGet)
	r.HandleFunc(OpenAPIPath, s.handleOpenAPI).Methods(http.MethodGet)

	r.NotFoundHandler = withCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, apiError{Error: "Not found", Code: codeNotFound})
	}))
	// Preflight requests never match a route method, so they land here.
	r.MethodNotAllowedHandler = withCORS(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeError(w, http.StatusMethodNotAllowed, apiError{Error: "Method not allowed", Code: codeBadRequest})
	}))
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Printf("API server running at http://%s", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Printf("%s %s %d %s", r.Method, r.URL.RequestURI(), rec.status, time.Since(start).Round(time.Microsecond))
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
