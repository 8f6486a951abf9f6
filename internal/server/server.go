// Package server is the HTTP front end of webhook mode: a status endpoint,
// the Telegram webhook and optional pprof handlers.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/hay-kot/dyna/internal/core/chat"
	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/hay-kot/dyna/internal/integration/telegram"
	"github.com/hay-kot/dyna/pkg/iojson"
)

// SecretHeader carries the secret token Telegram echoes on every webhook call.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Options configures the server.
type Options struct {
	Listen  string
	Path    string
	Secret  string
	Pprof   bool
	Version string
	// OnMessage receives every text message. It runs on the request
	// goroutine and should hand the work off rather than process it.
	OnMessage func(chat.Message)
	// Now is the clock used for status timestamps.
	Now func() time.Time
}

type Server struct {
	httpServer *http.Server
	listener   net.Listener
	opts       Options
}

// New builds the server and its routes.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleStatus)
	mux.HandleFunc("/api", s.handleStatus)
	mux.HandleFunc(opts.Path, s.handleWebhook)

	if opts.Pprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	s.httpServer = &http.Server{
		Addr:              opts.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routes for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	log := logging.Component("server")

	listener, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	log.Info().Str("addr", listener.Addr().String()).Str("webhook", s.opts.Path).Bool("pprof", s.opts.Pprof).Msg("starting webhook server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("webhook server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for open ones.
func (s *Server) Shutdown(ctx context.Context) error {
	log := logging.Component("server")
	log.Info().Msg("shutting down webhook server")
	return s.httpServer.Shutdown(ctx)
}

type statusResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/api" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Message:   "Dynalist Telegram Bot API is running",
		Endpoints: map[string]string{"webhook": s.opts.Path},
		Version:   s.opts.Version,
		Timestamp: s.opts.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	log := logging.Component("webhook")

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	if s.opts.Secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.Secret)) != 1 {
			log.Warn().Str("remote", r.RemoteAddr).Msg("rejected webhook with bad secret")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
	}

	msg, ok, err := telegram.DecodeUpdate(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		log.Warn().Err(err).Msg("bad webhook payload")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid update"})
		return
	}

	if ok && s.opts.OnMessage != nil {
		s.opts.OnMessage(msg)
	} else {
		log.Debug().Msg("non-text update ignored")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := iojson.WriteWith(w, w, v); err != nil {
		log := logging.Component("server")
		log.Debug().Err(err).Msg("write response")
	}
}
