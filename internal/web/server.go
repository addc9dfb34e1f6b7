package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"order_desk/internal/domain"
	"order_desk/internal/execution"
	"order_desk/internal/infra"
	"order_desk/internal/session"
)

// ConnectFunc opens a connected session for the given credentials.
type ConnectFunc func(ctx context.Context, creds execution.Credentials) (*session.Session, error)

// Server serves the order form and the JSON API for a single operator.
type Server struct {
	mu      sync.RWMutex
	current *session.Session

	connect ConnectFunc
	cfg     *infra.Config
	router  *mux.Router
	decoder *schema.Decoder
	page    *template.Template
	logger  *zap.Logger
}

// NewServer creates a server with no session; the operator connects from the page.
func NewServer(cfg *infra.Config, connect ConnectFunc, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	s := &Server{
		connect: connect,
		cfg:     cfg,
		router:  mux.NewRouter(),
		decoder: decoder,
		page:    template.Must(template.New("page").Parse(pageTemplate)),
		logger:  logger.Named("web"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/connect", s.handleConnect).Methods("POST")
	s.router.HandleFunc("/disconnect", s.handleDisconnect).Methods("POST")
	s.router.HandleFunc("/orders", s.handlePlaceOrderForm).Methods("POST")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/symbols", s.handleGetSymbols).Methods("GET")
	api.HandleFunc("/clock", s.handleGetClock).Methods("GET")
	api.HandleFunc("/orders", s.handlePlaceOrderJSON).Methods("POST")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.Use(s.checkOrigin)
}

// checkOrigin rejects state-changing requests sent from another site's page.
// Requests without Origin or Referer (curl, scripts) are let through.
func (s *Server) checkOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = r.Header.Get("Referer")
		}
		if origin != "" && !s.originAllowed(origin, r.Host) {
			s.logger.Warn("cross-origin request rejected",
				zap.String("origin", origin),
				zap.String("path", r.URL.Path),
			)
			respondJSON(w, http.StatusForbidden, ErrorResponse{
				Error:   "forbidden",
				Message: "cross-origin request rejected",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Host == host || u.Host == s.cfg.Server.Addr {
		return true
	}
	site := u.Scheme + "://" + u.Host
	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if allowed == site {
			return true
		}
	}
	return false
}

// Handler returns the router wrapped with CORS.
// With no allowed origins the API is same-origin only.
func (s *Server) Handler() http.Handler {
	if len(s.cfg.Server.AllowedOrigins) == 0 {
		return s.router
	}
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		_ = s.Close()
		return err
	case err := <-errCh:
		_ = s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close drops the current session.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}

func (s *Server) session() *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// swap installs next as the current session and closes the previous one.
func (s *Server) swap(next *session.Session) {
	s.mu.Lock()
	prev := s.current
	s.current = next
	s.mu.Unlock()

	if prev != nil {
		if err := prev.Close(); err != nil {
			s.logger.Warn("closing previous session", zap.Error(err))
		}
	}
}

var errNoSession = &domain.ConnectionError{Op: "session", Err: domain.ErrNotConnected}

// statusFor maps an error kind onto an HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConnection, domain.KindSubmission:
		return http.StatusBadGateway
	case domain.KindTimeSync:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
