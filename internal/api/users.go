package api

import (
	"errors"
	"net/http"

	"github.com/eleven-am/recipe-api/internal/auth"
)

// readPayload decodes the body or writes the matching error response
func readPayload(w http.ResponseWriter, r *http.Request) (payload, bool) {
	p, err := decodePayload(r)
	if err == nil {
		return p, true
	}

	var pe *parseError
	switch {
	case errors.As(err, &pe):
		writeDetail(w, http.StatusBadRequest, pe.msg)
	case errors.Is(err, errUnsupportedMediaType):
		writeDetail(w, http.StatusUnsupportedMediaType, `Unsupported media type "`+r.Header.Get("Content-Type")+`" in request.`)
	default:
		writeServerError(w, r, err)
	}
	return nil, false
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := readPayload(w, r)
	if !ok {
		return
	}

	in, errs := parseUserInput(p, modeCreate)
	if !errs.Empty() {
		writeValidation(w, errs)
		return
	}

	name := ""
	if in.Name != nil {
		name = *in.Name
	}

	user, err := s.users.CreateUser(r.Context(), *in.Email, *in.Password, name)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeValidation(w, FieldErrors{"email": {msgEmailTaken}})
			return
		}
		if errors.Is(err, auth.ErrPasswordTooLong) {
			writeValidation(w, FieldErrors{"password": {msgPasswordTooLong}})
			return
		}
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, renderUser(user))
}

func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	p, ok := readPayload(w, r)
	if !ok {
		return
	}

	in, errs := parseTokenInput(p)
	if !errs.Empty() {
		writeValidation(w, errs)
		return
	}

	token, err := s.tokens.Obtain(r.Context(), *in.Email, *in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeValidation(w, FieldErrors{nonFieldErrors: {msgBadCredentials}})
			return
		}
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token.Key})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, renderUser(auth.UserFromContext(r.Context())))
}

// handleUpdateProfile serves PUT and PATCH on the caller's own account
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := readPayload(w, r)
	if !ok {
		return
	}

	in, errs := parseUserInput(p, modeFor(r.Method))
	if !errs.Empty() {
		writeValidation(w, errs)
		return
	}

	user := *auth.UserFromContext(r.Context())
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Password != nil {
		if err := s.users.SetPassword(&user, *in.Password); err != nil {
			if errors.Is(err, auth.ErrPasswordTooLong) {
				writeValidation(w, FieldErrors{"password": {msgPasswordTooLong}})
				return
			}
			writeServerError(w, r, err)
			return
		}
	}

	if err := s.users.Save(r.Context(), &user); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeValidation(w, FieldErrors{"email": {msgEmailTaken}})
			return
		}
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, renderUser(&user))
}
