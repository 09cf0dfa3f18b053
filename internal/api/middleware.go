package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/eleven-am/recipe-api/internal/auth"
	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type requestIDKey struct{}

// RequestIDHeader is echoed back on every response
const RequestIDHeader = "X-Request-ID"

// RequestID tags the request with the caller's id or a fresh UUID
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFromContext returns the id set by RequestID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// AccessLog writes one line per request
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		l := logger.HTTP().WithFields(map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     status,
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).Round(time.Microsecond),
			"request_id": RequestIDFromContext(r.Context()),
		})
		if user := auth.UserFromContext(r.Context()); user != nil {
			l = l.WithField("user_id", user.ID)
		}

		switch {
		case status >= 500:
			l.Error("%s %s", r.Method, r.URL.Path)
		case status >= 400:
			l.Warn("%s %s", r.Method, r.URL.Path)
		default:
			l.Info("%s %s", r.Method, r.URL.Path)
		}
	})
}

// Recoverer turns a panic into a logged 500
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.HTTP().WithField("stack", string(debug.Stack())).Error("panic: %v", rec)
				writeServerError(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// TokenAuth reads "Authorization: Token <key>" (Bearer is accepted too).
// Requests without the header continue anonymously; a bad key is a 401.
func TokenAuth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.Fields(header)
			if !strings.EqualFold(parts[0], "token") && !strings.EqualFold(parts[0], "bearer") {
				next.ServeHTTP(w, r)
				return
			}
			switch len(parts) {
			case 1:
				writeUnauthorized(w, "Invalid token header. No credentials provided.")
				return
			case 2:
			default:
				writeUnauthorized(w, "Invalid token header. Token string should not contain spaces.")
				return
			}

			user, err := tokens.Authenticate(r.Context(), parts[1])
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					writeUnauthorized(w, msgInvalidToken)
					return
				}
				writeServerError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

// RequireUser rejects anonymous requests with 401
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserFromContext(r.Context()) == nil {
			writeUnauthorized(w, msgNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
