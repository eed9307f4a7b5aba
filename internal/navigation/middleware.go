package navigation

import (
	"context"
	"net/http"
	"net/url"

	"github.com/wolfman30/carely-portal/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionSource returns the active session. *session.Manager satisfies it.
type SessionSource interface {
	Current() (session.Session, bool)
}

// Protect guards a subtree with the same checks as Resolve: no session
// redirects to the login view with a from parameter, a disallowed role
// redirects to it without one.
func Protect(sub Subtree, sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessions.Current()
			if !ok || !Authenticate(&s) {
				target := LoginPath + "?from=" + url.QueryEscape(r.URL.Path)
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			if !Authorize(&s, sub.Roles) {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session Protect admitted.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(session.Session)
	return s, ok
}
