package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/apimonitor/internal/domain"
	apimw "github.com/hamed0406/apimonitor/internal/httpapi/middleware"
)

// RecentReader is the query side the handlers read from.
type RecentReader interface {
	Recent(ctx context.Context, limit int) []domain.Observation
}

type Server struct {
	Logger  *zap.Logger
	Query   RecentReader
	Targets []domain.Target
}

// Options tunes the router. Zero values allow every origin and disable
// rate limiting.
type Options struct {
	AllowedOrigins []string
	ReqPerMin      int
	Burst          int
}

func NewServer(l *zap.Logger, q RecentReader, targets []domain.Target) *Server {
	return &Server{Logger: l, Query: q, Targets: targets}
}

func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if len(opts.AllowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(opts.ReqPerMin, opts.Burst))
		r.Get("/", s.handleIndex)
		r.Get("/metrics", s.handleRecent)
		r.Get("/api/observations", s.handleRecent)
		r.Get("/api/targets", s.handleListTargets)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API Performance Monitor is running"})
}

// handleRecent serves the most recent observations, newest first.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	obs := s.Query.Recent(r.Context(), limit)
	out := make([]observationView, 0, len(obs))
	for _, o := range obs {
		out = append(out, toView(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	out := make([]targetView, 0, len(s.Targets))
	for _, t := range s.Targets {
		out = append(out, targetView{
			Name:      t.Name,
			URL:       t.URL,
			Interval:  t.Interval.String(),
			TimeoutMS: t.Timeout.Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type observationView struct {
	ID           int64   `json:"id"`
	Timestamp    string  `json:"timestamp"`
	TargetName   string  `json:"target_name"`
	LatencyMS    float64 `json:"latency_ms"`
	StatusCode   int     `json:"status_code"`
	ErrorMessage *string `json:"error_message"`
	Status       string  `json:"status"`
}

func toView(o domain.Observation) observationView {
	v := observationView{
		ID:         o.ID,
		Timestamp:  o.Timestamp.UTC().Format(time.RFC3339),
		TargetName: o.TargetName,
		LatencyMS:  o.LatencyMS,
		StatusCode: o.StatusCode,
		Status:     o.Status.String(),
	}
	if o.ErrorMessage != "" {
		msg := o.ErrorMessage
		v.ErrorMessage = &msg
	}
	return v
}

type targetView struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Interval  string `json:"interval"`
	TimeoutMS int64  `json:"timeout_ms"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := sonic.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	b, _ := sonic.Marshal(map[string]string{"error": msg})
	_, _ = w.Write(b)
}
