// Package api serves the seeded catalogue over HTTP and exposes the
// validation pipeline as an endpoint.
//
// Routes:
//
//	GET  /api/youtubers                  → all youtubers
//	GET  /api/youtubers/{id}             → one youtuber
//	GET  /api/youtubers/{id}/perfil      → social profile
//	GET  /api/youtubers/{id}/videos      → videos of a youtuber
//	GET  /api/videos                     → all videos with channel
//	GET  /api/videos/{id}                → one video
//	GET  /api/videos/{id}/categories     → categories of a video
//	POST /api/videos                     → create a video
//	GET  /api/categories                 → all categories
//	POST /api/usuaris                    → register a user
//	POST /api/validacio                  → run the validation checks
//	GET  /openapi.json                   → OpenAPI 3 description
//	GET  /api-docs                       → interactive API reference
//
// Every body is wrapped in {ok, missatge, resultat}; errors carry
// {ok:false, codi, missatge, detalls}.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ytetl/internal/metrics"
	"ytetl/internal/validation"
)

// ValidateFunc runs the validation pipeline on demand.
type ValidateFunc func(ctx context.Context) (*validation.Report, error)

// Config controls server startup.
type Config struct {
	Addr string

	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
}

// Server wraps http.Server for convenience.
type Server struct {
	cfg      Config
	store    *Store
	validate ValidateFunc
	doc      *openapi3.T
	router   chi.Router
}

// NewServer constructs a Server with its routes. validate may be nil, in
// which case POST /api/validacio answers 503.
func NewServer(cfg Config, store *Store, validate ValidateFunc) *Server {
	s := &Server{cfg: cfg, store: store, validate: validate, doc: OpenAPI()}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("api: listening addr=%s", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Printf("api: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() chi.Router {
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(recordRequests)

	r.Get("/openapi.json", s.serveOpenAPI)
	r.Get("/api-docs", serveDocs)

	r.Route("/api", func(r chi.Router) {
		r.Route("/youtubers", func(r chi.Router) {
			r.Get("/", s.listYoutubers)
			r.Get("/{id}", s.getYoutuber)
			r.Get("/{id}/perfil", s.getProfile)
			r.Get("/{id}/videos", s.youtuberVideos)
		})
		r.Route("/videos", func(r chi.Router) {
			r.Get("/", s.listVideos)
			r.Post("/", s.createVideo)
			r.Get("/{id}", s.getVideo)
			r.Get("/{id}/categories", s.videoCategories)
		})
		r.Get("/categories", s.listCategories)
		r.Post("/usuaris", s.createUser)
		r.Post("/validacio", s.runValidation)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Codi: codeNotFound, Missatge: "Ruta no trobada: " + r.URL.Path})
	})
	return r
}

// recordRequests reports one request metric per response, labelled by the
// matched route pattern.
func recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordRequest(route, r.Method, status, time.Since(start))
	})
}
