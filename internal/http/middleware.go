package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"thesisarchive/internal/auth"
)

// sessionMiddleware resolves the session cookie once per request. A missing,
// invalid or orphaned token leaves the request anonymous.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity, claims := s.resolver.ResolveToken(r.Context(), token)
		ctx := auth.WithSession(r.Context(), auth.Session{Identity: identity, Claims: claims})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessMiddleware applies the page policy. Redirects keep the method.
func (s *Server) accessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if s.policy.Bypass(path) {
			next.ServeHTTP(w, r)
			return
		}

		tier := s.policy.Classify(path)
		verdict := s.policy.Authorize(path, auth.IdentityFromContext(r.Context()))
		s.metrics.Verdict(tier.String(), verdict.String())
		if !verdict.Allow {
			s.logger.DebugContext(r.Context(), "access redirect", "path", path, "tier", tier.String(), "target", verdict.Target)
			http.Redirect(w, r, verdict.Target, http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
