// Package server is the local listener the checkout gateway redirects back to.
// It turns the success redirect into a confirmation poll.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/DiegoxdGarcia2/smart-condominium/payments"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config interface {
	GetAppName() string
	GetEnv() string
}

// Poller confirms a checkout session. *payments.Poller implements it.
type Poller interface {
	PollForCompletion(ctx context.Context, sessionID, accessToken string) payments.Result
}

type Server struct {
	env     string // Environment (e.g., "DEV", "production")
	appName string
	mux     *http.ServeMux
	routes  []string
	poller  Poller
	logger  zerolog.Logger
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(config Config, poller Poller, opts ...Option) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("[server.New] config is required")
	}
	if poller == nil {
		return nil, fmt.Errorf("[server.New] payment poller is required")
	}

	s := &Server{
		env:     config.GetEnv(),
		appName: config.GetAppName(),
		mux:     http.NewServeMux(),
		poller:  poller,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initRoutes()
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

// Routes returns the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	s.logger.Debug().Msgf("[%-19s] %s", displayMethod, path)
}
