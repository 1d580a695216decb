package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/reelfeed/reelfeed/internal/auth"
	"github.com/reelfeed/reelfeed/internal/catalog"
	"github.com/reelfeed/reelfeed/internal/comment"
	"github.com/reelfeed/reelfeed/internal/database"
	"github.com/reelfeed/reelfeed/internal/docs"
	"github.com/reelfeed/reelfeed/internal/httputil"
	"github.com/reelfeed/reelfeed/internal/ratelimit"
	"github.com/reelfeed/reelfeed/internal/validate"
	"github.com/rs/cors"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB               database.DBTX
	Pinger           Pinger
	Storage          catalog.ObjectStorage
	JWTSecret        string
	BaseURL          string
	MaxUploadBytes   int64
	S3PublicEndpoint string
	CORSOrigins      []string
	EnableDocs       bool

	// Hub serves live comment streams. When nil the server builds one over DB.
	Hub *comment.Hub
	// CommentPublisher announces new comments. Defaults to Hub.
	CommentPublisher comment.Publisher
}

type Server struct {
	router         chi.Router
	pinger         Pinger
	enableDocs     bool
	authHandler    *auth.Handler
	catalogHandler *catalog.Handler
	commentHandler *comment.Handler
	authLimiter    *ratelimit.Limiter
	readLimiter    *ratelimit.Limiter
	writeLimiter   *ratelimit.Limiter
}

func New(cfg Config) (*Server, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:         cfg.BaseURL,
		StorageEndpoint: cfg.S3PublicEndpoint,
	}))
	r.Use(corsHandler(cfg.CORSOrigins))

	s := &Server{
		router:       r,
		pinger:       cfg.Pinger,
		enableDocs:   cfg.EnableDocs,
		authLimiter:  ratelimit.NewLimiter(0.5, 5),
		readLimiter:  ratelimit.NewLimiter(10, 40),
		writeLimiter: ratelimit.NewLimiter(1, 10),
	}

	if cfg.DB != nil {
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT secret is required")
		}

		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:8080"
		}
		secureCookies := strings.HasPrefix(baseURL, "https://")

		store := comment.NewStore(cfg.DB)
		hub := cfg.Hub
		if hub == nil {
			hub = comment.NewHub(store)
		}
		publisher := cfg.CommentPublisher
		if publisher == nil {
			publisher = hub
		}

		s.authHandler = auth.NewHandler(cfg.DB, cfg.JWTSecret, secureCookies)
		s.catalogHandler = catalog.NewHandler(cfg.DB, cfg.Storage, cfg.MaxUploadBytes)
		s.commentHandler = comment.NewHandler(store, hub, publisher)
	}

	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// StartCleanupLoop evicts idle rate-limit buckets until ctx is done.
func (s *Server) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	for _, l := range []*ratelimit.Limiter{s.authLimiter, s.readLimiter, s.writeLimiter} {
		l.StartCleanupLoop(ctx, interval)
	}
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/limits", handleLimits)

	if s.enableDocs {
		s.router.Get("/api/docs", docs.HandleDocs)
		s.router.Get("/api/docs/openapi.yaml", docs.HandleOpenAPI)
	}

	if s.authHandler != nil {
		s.router.Route("/api/auth", func(r chi.Router) {
			r.With(s.authLimiter.Middleware).Post("/register", s.authHandler.Register)
			r.With(s.authLimiter.Middleware).Post("/login", s.authHandler.Login)
			r.With(s.authLimiter.Middleware).Post("/refresh", s.authHandler.Refresh)
			r.Post("/logout", s.authHandler.Logout)
			r.With(s.authHandler.Middleware).Get("/me", s.authHandler.Me)
		})
	}

	if s.catalogHandler != nil {
		s.router.Route("/api/videos", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(s.readLimiter.Middleware)
				r.Get("/", s.catalogHandler.List)
				r.Get("/{id}", s.catalogHandler.Get)
				r.Get("/{id}/comments", s.commentHandler.List)
				r.Get("/{id}/comments/stream", s.commentHandler.Stream)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.writeLimiter.Middleware)
				r.Post("/{id}/like", s.catalogHandler.Like)
				r.Post("/{id}/share", s.catalogHandler.Share)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.writeLimiter.Middleware)
				r.Use(s.authHandler.Middleware)
				r.Get("/mine", s.catalogHandler.Mine)
				r.Post("/", s.catalogHandler.Upload)
				r.Delete("/{id}", s.catalogHandler.Delete)
				r.Post("/{id}/comments", s.commentHandler.Create)
			})
		})

		s.router.With(s.writeLimiter.Middleware, s.authHandler.Middleware).
			Post("/api/comments", s.commentHandler.Create)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleLimits(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, validate.FieldLimits())
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	})
	return c.Handler
}
