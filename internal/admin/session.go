package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/eleven-am/recipe-api/internal/auth"
	"github.com/eleven-am/recipe-api/internal/logger"
)

const msgStaffLogin = "Please enter the correct email address and password for a staff account. Note that both fields may be case-sensitive."

func (s *Site) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if user := s.sessionUser(r); user != nil && user.IsStaff {
		http.Redirect(w, r, s.safeNext(r.URL.Query().Get("next")), http.StatusFound)
		return
	}

	p := s.newPage(r, "Log in")
	p.Next = r.URL.Query().Get("next")
	s.render(w, r, http.StatusOK, "login", p)
}

func (s *Site) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	next := r.PostFormValue("next")

	user, err := s.users.CheckCredentials(r.Context(), email, password)
	if err != nil && !errors.Is(err, auth.ErrInvalidCredentials) {
		s.serverError(w, r, err)
		return
	}
	if user == nil || !user.IsStaff {
		logger.Admin().WithField("email", email).Warn("rejected admin login")

		p := s.newPage(r, "Log in")
		p.Next = next
		p.Form["email"] = email
		p.Errors["__all__"] = []string{msgStaffLogin}
		s.render(w, r, http.StatusOK, "login", p)
		return
	}

	token, err := s.tokens.GetOrCreate(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if err := s.users.TouchLastLogin(r.Context(), user); err != nil {
		s.serverError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token.Key,
		Path:     s.prefix + "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	logger.Admin().WithField("user_id", user.ID).Info("staff login")
	http.Redirect(w, r, s.safeNext(next), http.StatusFound)
}

func (s *Site) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     s.prefix + "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	http.Redirect(w, r, s.prefix+"/login/", http.StatusFound)
}

// safeNext only follows redirects that stay inside the site
func (s *Site) safeNext(next string) string {
	if strings.HasPrefix(next, s.prefix+"/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return s.prefix + "/"
}
