// Package admin is the staff console: server-rendered pages for managing
// users and recipes.
package admin

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/eleven-am/recipe-api/internal/auth"
	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/eleven-am/recipe-api/internal/models"
	"github.com/eleven-am/recipe-api/internal/store"
	"github.com/go-chi/chi/v5"
)

//go:embed templates/*.html
var templateFS embed.FS

// SessionCookie carries the staff member's token key
const SessionCookie = "admin_session"

// Options configures a Site
type Options struct {
	Store  *store.Store
	Users  *auth.UserManager
	Tokens *auth.TokenService

	// Prefix is the path the site is mounted under
	Prefix string

	// SecureCookie marks the session cookie Secure
	SecureCookie bool
}

// Site serves the admin pages
type Site struct {
	store        *store.Store
	users        *auth.UserManager
	tokens       *auth.TokenService
	prefix       string
	secureCookie bool
	pages        map[string]*template.Template
	router       chi.Router
}

// New parses the templates and builds the site routes
func New(opts Options) (*Site, error) {
	if opts.Store == nil {
		return nil, errors.New("admin: store is required")
	}
	if opts.Users == nil {
		opts.Users = auth.NewUserManager(opts.Store, nil)
	}
	if opts.Tokens == nil {
		opts.Tokens = auth.NewTokenService(opts.Store, opts.Users)
	}
	if opts.Prefix == "" {
		opts.Prefix = "/admin"
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Site{
		store:        opts.Store,
		users:        opts.Users,
		tokens:       opts.Tokens,
		prefix:       strings.TrimRight(opts.Prefix, "/"),
		secureCookie: opts.SecureCookie,
		pages:        pages,
	}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP dispatches to the site router
func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Site) routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/login/", s.handleLoginForm)
	r.Post("/login/", s.handleLogin)
	r.HandleFunc("/logout/", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireStaff)

		r.Get("/", s.handleIndex)

		r.Get("/users/", s.handleUserList)
		r.Get("/users/add/", s.handleUserAddForm)
		r.Post("/users/add/", s.handleUserAdd)
		r.Get("/users/{id}/change/", s.handleUserChangeForm)
		r.Post("/users/{id}/change/", s.handleUserChange)
		r.Get("/users/{id}/delete/", s.handleUserDeleteForm)
		r.Post("/users/{id}/delete/", s.handleUserDelete)

		r.Get("/recipes/", s.handleRecipeList)
		r.Get("/recipes/add/", s.handleRecipeAddForm)
		r.Post("/recipes/add/", s.handleRecipeAdd)
		r.Get("/recipes/{id}/change/", s.handleRecipeChangeForm)
		r.Post("/recipes/{id}/change/", s.handleRecipeChange)
		r.Get("/recipes/{id}/delete/", s.handleRecipeDeleteForm)
		r.Post("/recipes/{id}/delete/", s.handleRecipeDelete)
	})

	return r
}

// requireStaff sends anyone without an active staff session to the login page
func (s *Site) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := s.sessionUser(r)
		if user == nil || !user.IsStaff {
			target := s.prefix + "/login/?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

func (s *Site) sessionUser(r *http.Request) *models.User {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	user, err := s.tokens.Authenticate(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidToken) {
			logger.Admin().WithField("error", err.Error()).Warn("session lookup failed")
		}
		return nil
	}
	return user
}

// page is the data every template renders from
type page struct {
	Title  string
	Prefix string
	User   *models.User
	Errors map[string][]string
	Form   map[string]string

	Query   string
	Pages   pagination
	Next    string
	Adding  bool
	Kind    string
	Back    string
	Target  interface{}
	Users   []models.User
	Owners  []models.User
	Recipes []recipeRow
}

func (s *Site) newPage(r *http.Request, title string) *page {
	return &page{
		Title:  title,
		Prefix: s.prefix,
		User:   auth.UserFromContext(r.Context()),
		Errors: map[string][]string{},
		Form:   map[string]string{},
	}
}

func (s *Site) render(w http.ResponseWriter, r *http.Request, status int, name string, data *page) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.serverError(w, r, fmt.Errorf("unknown template %q", name))
		return
	}

	var buf strings.Builder
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		s.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func (s *Site) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Admin().WithFields(map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"error":  err.Error(),
	}).Error("admin request failed")
	http.Error(w, "Server Error (500)", http.StatusInternalServerError)
}

func parsePages() (map[string]*template.Template, error) {
	names := []string{"login", "index", "user_list", "user_form", "recipe_list", "recipe_form", "delete"}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

func (s *Site) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index", s.newPage(r, "Site administration"))
}
