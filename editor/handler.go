package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/minios-linux/sitetext/locale"
)

// MaxBodyBytes caps the size of a posted mapping.
const MaxBodyBytes = 8 << 20

type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NewHandler returns the editor API:
//
//	GET  /api/languages
//	GET  /api/translations/{lang}
//	POST /api/translations/{lang}
func NewHandler(svc *Service, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{svc: svc, log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/languages", h.languages)
	mux.HandleFunc("GET /api/translations/{lang}", h.getTranslations)
	mux.HandleFunc("POST /api/translations/{lang}", h.setTranslations)
	return h.logRequests(mux)
}

type handler struct {
	svc *Service
	log *zap.Logger
}

func (h *handler) languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Languages())
}

func (h *handler) getTranslations(w http.ResponseWriter, r *http.Request) {
	lang := r.PathValue("lang")
	m, err := h.svc.GetTranslations(lang)
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, response{Error: err.Error()})
	case err != nil:
		h.log.Error("loading translations", zap.String("language", lang), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, response{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, m)
	}
}

func (h *handler) setTranslations(w http.ResponseWriter, r *http.Request) {
	lang := r.PathValue("lang")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, response{Error: err.Error()})
		return
	}
	m, err := locale.DecodeJSON(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: fmt.Sprintf("invalid mapping: %v", err)})
		return
	}

	err = h.svc.SetTranslations(lang, m)
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, response{Error: err.Error()})
	case err != nil:
		h.log.Error("saving translations", zap.String("language", lang), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, response{Error: err.Error()})
	default:
		h.log.Info("translations saved", zap.String("language", lang), zap.Int("keys", m.Len()))
		writeJSON(w, http.StatusOK, response{Success: true})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// Serve runs handler on addr until ctx is cancelled. ready, when non-nil,
// receives the bound address once the listener is open.
func Serve(ctx context.Context, addr string, handler http.Handler, ready func(net.Addr)) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	server := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	if ready != nil {
		ready(listener.Addr())
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}
