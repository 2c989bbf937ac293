// Package server hosts the bridge handler behind a long-running HTTP listener.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/KafClaw/lexteams/internal/bridge"
)

// MessagesPath is the Bot Framework messaging endpoint.
const MessagesPath = "/api/messages"

const maxBodyBytes = 1 << 20

// ActivityHandler processes one raw activity.
type ActivityHandler interface {
	Handle(ctx context.Context, raw []byte) (bridge.Response, error)
}

type metrics struct {
	StartedAt time.Time `json:"started_at"`

	Received       int `json:"received"`
	Replied        int `json:"replied"`
	Ignored        int `json:"ignored"`
	BadRequests    int `json:"bad_requests"`
	TenantRejected int `json:"tenant_rejected"`
	DeliveryErrors int `json:"delivery_errors"`
	ConfigFailures int `json:"config_failures"`

	LastError   string `json:"last_error,omitempty"`
	LastErrorAt string `json:"last_error_at,omitempty"`
}

// Server routes webhook posts to an ActivityHandler.
type Server struct {
	handler ActivityHandler
	logger  *slog.Logger

	metricsMu sync.RWMutex
	metrics   metrics
}

// New creates a server for h.
func New(h ActivityHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		handler: h,
		logger:  logger,
		metrics: metrics{StartedAt: time.Now().UTC()},
	}
}

// Routes returns the HTTP routes served.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc(MessagesPath, s.handleMessages)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("lexteams listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Info("lexteams shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	s.note(func(m *metrics) { m.Received++ })

	resp, err := s.handler.Handle(r.Context(), raw)
	if err != nil {
		s.noteError(err)
		s.logger.Error("Activity handling failed", "error", err)
		http.Error(w, "delivery failed", http.StatusBadGateway)
		return
	}
	s.noteResponse(resp)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_ = json.NewEncoder(w).Encode(resp.Body)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.metricsMu.RLock()
	m := s.metrics
	s.metricsMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":      true,
		"metrics": m,
	})
}

func (s *Server) noteResponse(resp bridge.Response) {
	s.note(func(m *metrics) {
		switch {
		case resp.StatusCode == http.StatusBadRequest:
			m.BadRequests++
		case resp.StatusCode == http.StatusUnauthorized:
			m.TenantRejected++
		case resp.Body.Text == bridge.IgnoredText:
			m.Ignored++
		case resp.Body.Text == bridge.ConfigErrorText:
			m.ConfigFailures++
		default:
			m.Replied++
		}
	})
}

func (s *Server) noteError(err error) {
	s.note(func(m *metrics) {
		m.DeliveryErrors++
		m.LastError = err.Error()
		m.LastErrorAt = time.Now().UTC().Format(time.RFC3339)
	})
}

func (s *Server) note(fn func(*metrics)) {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	fn(&s.metrics)
}
