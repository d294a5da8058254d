// Package server exposes a live skeleton over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mu-skeleton/internal/graph"
	"mu-skeleton/internal/logging"
	"mu-skeleton/internal/mathutil"
	"mu-skeleton/internal/preview"
	"mu-skeleton/internal/skeleton"
)

// Server serializes all skeleton access behind one mutex; the skeleton
// itself is not safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	skel     *skeleton.Skeleton
	gatherer prometheus.Gatherer
	preview  preview.Options
	log      *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithPreview sets the options used by GET /preview.
func WithPreview(o preview.Options) Option {
	return func(s *Server) { s.preview = o }
}

// New wraps skel. Metrics are served from gatherer; nil disables /metrics.
func New(skel *skeleton.Skeleton, gatherer prometheus.Gatherer, opts ...Option) *Server {
	s := &Server{skel: skel, gatherer: gatherer, log: logging.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/bones", s.listBones)
	r.Get("/bones/{index}/{field}", s.getProperty)
	r.Put("/bones/{index}/{field}", s.setProperty)
	r.Post("/evaluate", s.evaluate)
	r.Get("/order", s.order)
	r.Get("/graph", s.graph)
	r.Get("/preview", s.renderPreview)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down with a
// five second grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("graceful shutdown did not complete", "error", err)
			return srv.Close()
		}
		s.log.Info("server stopped")
		return nil
	}
}

// PropertyValue is one property in API responses.
type PropertyValue struct {
	Path  string                `json:"path"`
	Type  skeleton.PropertyType `json:"type,omitempty"`
	Value any                   `json:"value"`
}

// BonePose is one bone's evaluated pose.
type BonePose struct {
	Index  int                `json:"index"`
	Name   string             `json:"name"`
	Global mathutil.Transform `json:"global"`
	Matrix mathutil.Mat4      `json:"matrix"`
}

// EvaluateResponse is returned by POST /evaluate.
type EvaluateResponse struct {
	Version uint64     `json:"version"`
	Bones   []BonePose `json:"bones"`
}

type setRequest struct {
	Value any `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) listBones(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	props := s.skel.PropertyList()
	out := make([]PropertyValue, 0, len(props))
	for _, p := range props {
		v, err := s.skel.Get(p.Path)
		if err != nil {
			s.fail(w, err)
			return
		}
		out = append(out, PropertyValue{Path: p.Path, Type: p.Type, Value: v})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProperty(w http.ResponseWriter, r *http.Request) {
	path, err := propertyPath(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.skel.Get(path)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PropertyValue{Path: path, Value: v})
}

func (s *Server) setProperty(w http.ResponseWriter, r *http.Request) {
	path, err := propertyPath(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var body setRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.skel.Set(path, body.Value); err != nil {
		s.fail(w, err)
		return
	}
	v, err := s.skel.Get(path)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PropertyValue{Path: path, Value: v})
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.skel.Evaluate()

	resp := EvaluateResponse{Version: s.skel.Version(), Bones: make([]BonePose, s.skel.BoneCount())}
	for i := range resp.Bones {
		name, _ := s.skel.BoneName(i)
		g, _ := s.skel.BoneGlobalPose(i)
		resp.Bones[i] = BonePose{Index: i, Name: name, Global: g, Matrix: g.Mat4()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) order(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string][]int{"order": s.skel.ProcessOrder()})
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := graph.GenerateMermaid(s.skel, nil)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(out))
}

func (s *Server) renderPreview(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = preview.FormatWebP
	}
	opts := s.preview
	if v := r.URL.Query().Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 || size > 4096 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid size"})
			return
		}
		opts.Size = size
	}

	s.mu.Lock()
	s.skel.Evaluate()
	img := preview.Render(s.skel, opts)
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := preview.Encode(&buf, img, format); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.Write(buf.Bytes())
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	} else {
		s.log.Debug("request rejected", "error", err, "status", status)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, skeleton.ErrUnknownProperty), errors.Is(err, skeleton.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, skeleton.ErrReadOnlyProperty):
		return http.StatusConflict
	case errors.Is(err, skeleton.ErrTypeMismatch),
		errors.Is(err, skeleton.ErrInvalidParent),
		errors.Is(err, skeleton.ErrInvalidName),
		errors.Is(err, skeleton.ErrDuplicateName):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func propertyPath(r *http.Request) (string, error) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return "", fmt.Errorf("server: bad bone index %q: %w", chi.URLParam(r, "index"), skeleton.ErrUnknownProperty)
	}
	return skeleton.PropertyPath(idx, chi.URLParam(r, "field")), nil
}

func contentType(format string) string {
	if format == preview.FormatTGA {
		return "image/x-tga"
	}
	return "image/webp"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
