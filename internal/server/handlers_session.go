package server

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/jonathan/screening-desk/internal/server/middleware"
)

type sessionKeyType struct{}

var sessionKey sessionKeyType

// withSession attaches the operator's session to the request, starting a new
// one when the cookie is missing, unknown or belongs to another operator.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator, _ := middleware.GetOperator(r)

		var sess *Session
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			sess = s.sessions.Lookup(cookie.Value)
		}
		if sess == nil || sess.Operator != operator {
			sess = s.sessions.Create(operator)
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sess.ID,
				Path:     "/app/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session attached by withSession.
func sessionFrom(r *http.Request) *Session {
	sess, _ := r.Context().Value(sessionKey).(*Session)
	return sess
}

// handleAuthSession exchanges an operator token for a cookie and redirects to
// the screening page, or to next when it is an /app path.
func (s *Server) handleAuthSession(w http.ResponseWriter, r *http.Request) {
	if s.jwtService == nil {
		s.errorResponse(w, http.StatusNotFound, "operator authentication is disabled")
		return
	}

	claims, err := s.jwtService.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		log.Printf("[server] rejected session token: %v", err)
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cookie := &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    r.URL.Query().Get("token"),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	}
	if claims.ExpiresAt != nil {
		cookie.Expires = claims.ExpiresAt.Time
	}
	http.SetCookie(w, cookie)

	target := "/app/screening"
	if next := r.URL.Query().Get("next"); isAppPath(next) {
		target = next
	}
	log.Printf("[server] operator %q signed in", claims.Operator)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// isAppPath reports whether p is a local /app path safe to redirect to.
func isAppPath(p string) bool {
	return strings.HasPrefix(p, "/app/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, "\\")
}
