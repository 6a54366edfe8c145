package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/careerlink/session-gate/authapi"
	"github.com/careerlink/session-gate/gate"
	"github.com/careerlink/session-gate/internal/config"
	"github.com/rs/zerolog/log"
)

// Authenticator exchanges credentials for a bearer token. authapi.Client
// satisfies it.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (authapi.Grant, error)
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	gate    *gate.Gate
	auth    Authenticator
	nowFunc func() time.Time
}

type Option func(*Server)

func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func New(cfg config.Config, authenticator Authenticator, options ...Option) (*Server, error) {
	if authenticator == nil {
		return nil, fmt.Errorf("[Server New] an authenticator is required")
	}

	prefix := cfg.GetProtectedPrefix()
	s := &Server{
		env:    cfg.GetEnv(),
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   authenticator,
		gate: gate.New(gate.Config{
			ProtectedPrefix: prefix,
			LoginPath:       cfg.GetLoginPath(),
			ForbiddenPath:   cfg.GetForbiddenPath(),
			NextParam:       nextParam,
			Policies:        gate.DefaultPolicies(prefix),
		}),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	if err := s.initRoutes(); err != nil {
		return nil, fmt.Errorf("[Server New] failed to register routes: %w", err)
	}
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
