// Package server exposes the dashboard session over HTTP with a JSON API
// and a server-sent event stream.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/fburn/internal/pipeline"
)

// Config controls the HTTP runtime.
type Config struct {
	Addr         string
	MaxUploadMB  int
	EventsBuffer int
	Currency     string
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	UploadID        string    `json:"upload_id,omitempty"`
	UploadedAt      time.Time `json:"uploaded_at,omitzero"`
	Files           []string  `json:"files,omitempty"`
	Rows            int       `json:"rows"`
	Categories      int       `json:"categories"`
	Budgets         bool      `json:"budgets"`
	UnsavedBudgets  bool      `json:"unsaved_budgets"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service owns one session and serves it. Uploads replace the session's
// statement; categories and budgets persist through its store.
type Service struct {
	cfg       Config
	log       *log.Logger
	startedAt time.Time

	// mu guards session and the upload fields.
	mu         sync.Mutex
	session    *pipeline.Session
	uploadID   string
	uploadedAt time.Time

	evMu        sync.RWMutex
	nextEventID int64
	events      []Event
	nextSubID   int
	subs        map[int]chan Event
}

// New returns a service over sess. A nil logger discards output.
func New(sess *pipeline.Session, cfg Config, logger *log.Logger) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.MaxUploadMB < 1 {
		cfg.MaxUploadMB = 10
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Service{
		cfg:       cfg,
		log:       logger.WithPrefix("http"),
		startedAt: time.Now(),
		session:   sess,
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the routed API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/upload", s.handleUpload)
		r.Get("/transactions", s.handleTransactions)
		r.Get("/summary", s.handleSummary)
		r.Get("/payments", s.handlePayments)
		r.Post("/edits", s.handleEdits)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleCategories)
			r.Post("/", s.handleAddCategory)
			r.Post("/{name}/keywords", s.handleAddKeyword)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Use(s.requireBudgets)
			r.Get("/", s.handleBudgets)
			r.Put("/{name}", s.handleSetBudget)
			r.Post("/save", s.handleSaveBudgets)
		})

		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// Streams end when the server does.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		s.log.Info("listening", "addr", s.cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Service) requireBudgets(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.session.Budgeting() {
			writeError(w, http.StatusNotFound, "budgets are disabled")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) status() Status {
	s.mu.Lock()
	st := Status{
		StartedAt:      s.startedAt,
		UploadID:       s.uploadID,
		UploadedAt:     s.uploadedAt,
		Files:          s.session.Files(),
		Rows:           len(s.session.Result().Transactions),
		Categories:     len(s.session.Store().Names()),
		Budgets:        s.session.Budgeting(),
		UnsavedBudgets: s.session.Store().Dirty(),
	}
	s.mu.Unlock()

	s.evMu.RLock()
	st.EventCount = len(s.events)
	s.evMu.RUnlock()
	st.SubscriberCount = s.subscriberCount()
	return st
}
