// Package api serves the JSON endpoints for accounts, tokens and recipes.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/eleven-am/recipe-api/internal/auth"
	"github.com/eleven-am/recipe-api/internal/orm"
	"github.com/eleven-am/recipe-api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Options configures a Server
type Options struct {
	Store  *store.Store
	Users  *auth.UserManager
	Tokens *auth.TokenService

	// CORSOrigins lists allowed browser origins; empty disables CORS headers
	CORSOrigins []string

	// Admin is mounted under /admin when set
	Admin http.Handler
}

// Server is the HTTP front of the recipe service
type Server struct {
	store  *store.Store
	users  *auth.UserManager
	tokens *auth.TokenService
	router chi.Router
}

// NewServer builds the router; Users and Tokens default to services on Store
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if opts.Users == nil {
		opts.Users = auth.NewUserManager(opts.Store, nil)
	}
	if opts.Tokens == nil {
		opts.Tokens = auth.NewTokenService(opts.Store, opts.Users)
	}

	s := &Server{
		store:  opts.Store,
		users:  opts.Users,
		tokens: opts.Tokens,
	}
	s.router = s.routes(opts)
	return s, nil
}

// ServeHTTP dispatches to the router
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(AccessLog)
	r.Use(Recoverer)

	if origins := cleanOrigins(opts.CORSOrigins); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w)
	})

	// the endpoints answer both at the root and under /api
	r.Group(func(r chi.Router) {
		r.Use(TokenAuth(s.tokens))
		s.endpoints(r)
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(TokenAuth(s.tokens))
		s.endpoints(r)
	})

	if opts.Admin != nil {
		r.Mount("/admin", opts.Admin)
	}

	return r
}

// endpoints registers the health, user and recipe routes on r
func (s *Server) endpoints(r chi.Router) {
	r.Handle("/health/", methods{http.MethodGet: s.handleHealth})

	r.Route("/user", func(r chi.Router) {
		r.Handle("/create/", methods{http.MethodPost: s.handleCreateUser})
		r.Handle("/token/", methods{http.MethodPost: s.handleCreateToken})
		r.With(RequireUser).Handle("/me/", methods{
			http.MethodGet:   s.handleGetProfile,
			http.MethodPut:   s.handleUpdateProfile,
			http.MethodPatch: s.handleUpdateProfile,
		})
	})

	r.Route("/recipe", func(r chi.Router) {
		r.Use(RequireUser)
		r.Handle("/recipes/", methods{
			http.MethodGet:  s.handleListRecipes,
			http.MethodPost: s.handleCreateRecipe,
		})
		r.Handle("/recipes/{id}/", methods{
			http.MethodGet:    s.handleGetRecipe,
			http.MethodPut:    s.handleUpdateRecipe,
			http.MethodPatch:  s.handleUpdateRecipe,
			http.MethodDelete: s.handleDeleteRecipe,
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail maps storage errors onto responses. Constraint violations the
// validators did not catch become 400s and dropped connections 503s.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case orm.IsNotFound(err):
		writeNotFound(w)
	case orm.IsConstraintError(err):
		requestLog(r, err).WithField("constraint", orm.GetConstraintName(err)).Warn("constraint violation")
		writeValidation(w, FieldErrors{nonFieldErrors: {msgConstraint}})
	case orm.IsRetryable(err):
		requestLog(r, err).Warn("database unavailable")
		w.Header().Set("Retry-After", "1")
		writeDetail(w, http.StatusServiceUnavailable, msgUnavailable)
	default:
		writeServerError(w, r, err)
	}
}

func cleanOrigins(in []string) []string {
	var out []string
	for _, raw := range in {
		for _, p := range strings.Split(raw, ",") {
			if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
