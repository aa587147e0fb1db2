package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	log "github.com/golang/glog"

	"github.com/w3licence/licence-gateway/pkg/model"
)

type contextKey string

const sessionContextKey contextKey = "session"

const slowRequest = 5 * time.Second

// requestLoggerMiddleware logs method, path, status and timing of each request
func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		log.V(2).Infof("Incoming request: %s %s", r.Method, r.URL.Path)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(startTime)
		switch {
		case rw.statusCode >= 500:
			log.Errorf("%s %s - %d - %dms", r.Method, r.URL.Path, rw.statusCode, duration.Milliseconds())
		case rw.statusCode >= 400:
			log.Warningf("%s %s - %d - %dms", r.Method, r.URL.Path, rw.statusCode, duration.Milliseconds())
		default:
			log.Infof("%s %s - %d - %dms", r.Method, r.URL.Path, rw.statusCode, duration.Milliseconds())
		}
		if duration > slowRequest {
			log.Warningf("Slow request %s %s took %v", r.Method, r.URL.Path, duration)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireSession rejects requests without a live session
func (s *Server) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			jsonError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		session, err := s.gate.Resolve(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, session)))
	})
}

// optionalSession attaches the session when a valid token is present
func (s *Server) optionalSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token != "" {
			session, err := s.gate.Resolve(r.Context(), token)
			if err == nil {
				r = r.WithContext(context.WithValue(r.Context(), sessionContextKey, session))
			}
		}
		next(w, r)
	})
}

func sessionFromContext(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}
