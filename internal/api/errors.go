package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/eleven-am/recipe-api/internal/logger"
)

// Response messages
const (
	msgRequired         = "This field is required."
	msgBlank            = "This field may not be blank."
	msgNull             = "This field may not be null."
	msgNotString        = "Not a valid string."
	msgInvalidInteger   = "A valid integer is required."
	msgInvalidNumber    = "A valid number is required."
	msgInvalidEmail     = "Enter a valid email address."
	msgEmailTaken       = "user with this email already exists."
	msgPasswordTooLong  = "Ensure this field has no more than 72 bytes."
	msgReadOnlyOwner    = "The owner of a recipe cannot be set or changed."
	msgBadCredentials   = "Unable to authenticate with provided credentials."
	msgNotAuthenticated = "Authentication credentials were not provided."
	msgInvalidToken     = "Invalid token."
	msgNotFound         = "Not found."
	msgConstraint       = "The submitted data conflicts with stored records."
	msgUnavailable      = "Service temporarily unavailable, try again later."
	msgServerError      = "A server error occurred."
)

// nonFieldErrors is the key for errors not tied to one field
const nonFieldErrors = "non_field_errors"

// FieldErrors collects validation messages per field
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e FieldErrors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.HTTP().WithField("error", err.Error()).Warn("failed to encode response")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, errs FieldErrors) {
	writeJSON(w, http.StatusBadRequest, errs)
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Token`)
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeNotFound(w http.ResponseWriter) {
	writeDetail(w, http.StatusNotFound, msgNotFound)
}

// requestLog carries the request and err as log fields
func requestLog(r *http.Request, err error) *logger.Logger {
	return logger.HTTP().WithFields(map[string]interface{}{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": RequestIDFromContext(r.Context()),
		"error":      err.Error(),
	})
}

// writeServerError logs err and hides it from the client
func writeServerError(w http.ResponseWriter, r *http.Request, err error) {
	requestLog(r, err).Error("request failed")
	writeDetail(w, http.StatusInternalServerError, msgServerError)
}
