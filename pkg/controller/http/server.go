package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
)

type Server struct {
	router   *chi.Mux
	uc       *usecase.Memory
	identity interfaces.IdentityProvider
}

type Options func(*Server)

// WithIdentity supplies a fallback identity used when a request does not
// carry an explicit user ID.
func WithIdentity(provider interfaces.IdentityProvider) Options {
	return func(s *Server) {
		s.identity = provider
	}
}

func New(uc *usecase.Memory, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK")) //nolint:errcheck
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/memories", func(r chi.Router) {
			r.Post("/", s.saveMemoryHandler)
			r.Get("/", s.retrieveMemoriesHandler)
			r.Delete("/{recordID}", s.forgetMemoryHandler)
		})
		r.Get("/stats", s.statsHandler)
		r.Post("/maintenance", s.maintenanceHandler)
		r.Delete("/users/{userID}/memories", s.purgeHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
