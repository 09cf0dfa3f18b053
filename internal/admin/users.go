package admin

import (
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/eleven-am/recipe-api/internal/auth"
	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/eleven-am/recipe-api/internal/models"
	"github.com/eleven-am/recipe-api/internal/orm"
	"github.com/go-chi/chi/v5"
)

const (
	msgRequired        = "This field is required."
	msgEmailInvalid    = "Enter a valid email address."
	msgEmailTaken      = "User with this Email already exists."
	msgPasswordsDiffer = "The two password fields didn't match."
	msgTooLong         = "Ensure this value has at most 255 characters."
	msgPasswordTooLong = "Ensure this value has at most 72 bytes."
)

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func checked(v bool) string {
	if v {
		return "on"
	}
	return ""
}

func userForm(u *models.User) map[string]string {
	return map[string]string{
		"email":        u.Email,
		"name":         u.Name,
		"is_active":    checked(u.IsActive),
		"is_staff":     checked(u.IsStaff),
		"is_superuser": checked(u.IsSuperuser),
	}
}

// readUserForm copies the posted fields into form and u, collecting errors
func readUserForm(r *http.Request, u *models.User, form map[string]string, errs map[string][]string) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	name := strings.TrimSpace(r.PostFormValue("name"))

	form["email"] = email
	form["name"] = name
	form["is_active"] = r.PostFormValue("is_active")
	form["is_staff"] = r.PostFormValue("is_staff")
	form["is_superuser"] = r.PostFormValue("is_superuser")

	switch {
	case email == "":
		errs["email"] = append(errs["email"], msgRequired)
	case len(email) > 255:
		errs["email"] = append(errs["email"], msgTooLong)
	default:
		if _, err := mail.ParseAddress(email); err != nil {
			errs["email"] = append(errs["email"], msgEmailInvalid)
		}
	}
	if len(name) > 255 {
		errs["name"] = append(errs["name"], msgTooLong)
	}

	u.Email = email
	u.Name = name
	u.IsActive = form["is_active"] != ""
	u.IsStaff = form["is_staff"] != ""
	u.IsSuperuser = form["is_superuser"] != ""
}

func (s *Site) handleUserList(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	query := s.store.Users.Query(r.Context()).OrderBy(models.Users.ID.Asc())
	if q != "" {
		query = query.Where(orm.Or(models.Users.Email.IContains(q), models.Users.Name.IContains(q)))
	}

	n := pageNumber(r)
	users, err := paginate(query, n).Find()
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	p := s.newPage(r, "Select user to change")
	p.Query = q
	p.Users, p.Pages = pageRows(r, users, n)
	s.render(w, r, http.StatusOK, "user_list", p)
}

func (s *Site) handleUserAddForm(w http.ResponseWriter, r *http.Request) {
	p := s.newPage(r, "Add user")
	p.Adding = true
	p.Form["is_active"] = "on"
	s.render(w, r, http.StatusOK, "user_form", p)
}

func (s *Site) handleUserAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	p := s.newPage(r, "Add user")
	p.Adding = true

	var u models.User
	readUserForm(r, &u, p.Form, p.Errors)

	password1 := r.PostFormValue("password1")
	password2 := r.PostFormValue("password2")
	if password1 == "" {
		p.Errors["password1"] = append(p.Errors["password1"], msgRequired)
	} else if len(password1) > auth.MaxPasswordBytes {
		p.Errors["password1"] = append(p.Errors["password1"], msgPasswordTooLong)
	}
	if password2 == "" {
		p.Errors["password2"] = append(p.Errors["password2"], msgRequired)
	} else if password1 != "" && password1 != password2 {
		p.Errors["password2"] = append(p.Errors["password2"], msgPasswordsDiffer)
	}

	if len(p.Errors) > 0 {
		s.render(w, r, http.StatusOK, "user_form", p)
		return
	}

	created, err := s.users.Create(r.Context(), auth.UserParams{
		Email:       u.Email,
		Password:    password1,
		Name:        u.Name,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			p.Errors["email"] = append(p.Errors["email"], msgEmailTaken)
			s.render(w, r, http.StatusOK, "user_form", p)
			return
		}
		if errors.Is(err, auth.ErrPasswordTooLong) {
			p.Errors["password1"] = append(p.Errors["password1"], msgPasswordTooLong)
			s.render(w, r, http.StatusOK, "user_form", p)
			return
		}
		s.serverError(w, r, err)
		return
	}

	logger.Admin().WithField("user_id", created.ID).Info("added user %s", created.Email)
	http.Redirect(w, r, s.prefix+"/users/", http.StatusFound)
}

// loadUser writes a 404 when the id is unknown
func (s *Site) loadUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}

	user, err := s.store.Users.FindByID(r.Context(), id)
	if err != nil {
		if orm.IsNotFound(err) {
			http.NotFound(w, r)
		} else {
			s.serverError(w, r, err)
		}
		return nil, false
	}
	return user, true
}

func (s *Site) handleUserChangeForm(w http.ResponseWriter, r *http.Request) {
	user, ok := s.loadUser(w, r)
	if !ok {
		return
	}

	p := s.newPage(r, "Change user")
	p.Target = user
	p.Form = userForm(user)
	s.render(w, r, http.StatusOK, "user_form", p)
}

func (s *Site) handleUserChange(w http.ResponseWriter, r *http.Request) {
	user, ok := s.loadUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	p := s.newPage(r, "Change user")
	p.Target = user

	updated := *user
	readUserForm(r, &updated, p.Form, p.Errors)
	if len(p.Errors) > 0 {
		s.render(w, r, http.StatusOK, "user_form", p)
		return
	}

	if err := s.users.Save(r.Context(), &updated); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			p.Errors["email"] = append(p.Errors["email"], msgEmailTaken)
			s.render(w, r, http.StatusOK, "user_form", p)
			return
		}
		s.serverError(w, r, err)
		return
	}

	logger.Admin().WithField("user_id", updated.ID).Info("changed user %s", updated.Email)
	http.Redirect(w, r, s.prefix+"/users/", http.StatusFound)
}

func (s *Site) handleUserDeleteForm(w http.ResponseWriter, r *http.Request) {
	user, ok := s.loadUser(w, r)
	if !ok {
		return
	}

	p := s.newPage(r, "Are you sure?")
	p.Kind = "user"
	p.Target = user
	p.Back = s.prefix + "/users/" + strconv.FormatInt(user.ID, 10) + "/change/"
	s.render(w, r, http.StatusOK, "delete", p)
}

func (s *Site) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := s.store.Users.Delete(r.Context(), id); err != nil {
		if orm.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}

	logger.Admin().WithField("user_id", id).Info("deleted user")
	http.Redirect(w, r, s.prefix+"/users/", http.StatusFound)
}
