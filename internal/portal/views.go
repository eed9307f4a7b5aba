package portal

import (
	"context"
	"net/http"
	"time"

	"github.com/wolfman30/carely-portal/internal/auth"
	"github.com/wolfman30/carely-portal/internal/carely"
	"github.com/wolfman30/carely-portal/internal/navigation"
	"github.com/wolfman30/carely-portal/internal/session"
)

type sessionView struct {
	Authenticated bool          `json:"authenticated"`
	Role          session.Role  `json:"role,omitempty"`
	User          *session.User `json:"user,omitempty"`
	Landing       string        `json:"landing,omitempty"`
	ExpiresAt     *time.Time    `json:"expiresAt,omitempty"`
}

type homeView struct {
	View    navigation.Decision `json:"view"`
	Session sessionView         `json:"session"`
}

func (h *Handler) current() (*session.Session, sessionView) {
	s, ok := h.sessions.Current()
	if !ok {
		return nil, sessionView{}
	}
	v := sessionView{
		Authenticated: true,
		Role:          s.User.Role,
		User:          &s.User,
		Landing:       auth.LandingFor(s.User.Role),
	}
	if claims, err := session.ParseClaims(s.Token); err == nil && !claims.ExpiresAt.IsZero() {
		exp := claims.ExpiresAt
		v.ExpiresAt = &exp
	}
	return &s, v
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	s, view := h.current()
	writeJSON(w, http.StatusOK, homeView{View: h.table.Resolve("/", s), Session: view})
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	_, view := h.current()
	writeJSON(w, http.StatusOK, view)
}

// Navigate resolves ?path= against the route table for the current session.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	s, _ := h.current()
	writeJSON(w, http.StatusOK, h.table.Resolve(path, s))
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, navigation.Decision{
		Path:     r.URL.Path,
		View:     navigation.ViewNotFound,
		NotFound: true,
	})
}

// Logout ends the session locally even when the backend call fails.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.sessions.IsAuthenticated() {
		if err := h.client.Auth.Logout(r.Context()); err != nil && !isUnauthorizedOrCanceled(r.Context(), err) {
			h.logger.Warn("backend logout failed", "error", err)
		}
	}
	if err := h.sessions.Logout(r.Context()); err != nil {
		h.logger.Error("session clear failed", "error", err)
	}
	h.SessionEnded()
	writeJSON(w, http.StatusOK, redirectResponse{Redirect: navigation.LandingPath})
}

// Unauthorized clears the session after the backend rejects its token.
// Flow state is only discarded when a session was actually active, so a
// failed sign-in attempt keeps the login form as it was.
func (h *Handler) Unauthorized(ctx context.Context) {
	active := h.sessions.IsAuthenticated()
	if err := h.sessions.Logout(ctx); err != nil {
		h.logger.Error("failed to clear session after 401", "error", err)
	}
	if active {
		h.SessionEnded()
	}
}

// SessionEnded discards every per-session flow: the booking draft, the
// login and registration state. Called on logout and whenever the backend
// rejects the token.
func (h *Handler) SessionEnded() {
	h.composer.Reset()
	h.login.Reset()
	h.registration.Reset()
}

func isUnauthorizedOrCanceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || carely.IsUnauthorized(err)
}

func (h *Handler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	txns, err := h.client.User.Transactions(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load payment history")
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

type patientDashboard struct {
	User          session.User `json:"user"`
	UnreadCount   int          `json:"unreadNotifications"`
	CareNoteCount int          `json:"careNotes"`
}

func (h *Handler) PatientDashboard(w http.ResponseWriter, r *http.Request) {
	s, _ := navigation.SessionFromContext(r.Context())
	unread, err := h.client.Common.UnreadNotifications(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load dashboard")
		return
	}
	notes, err := h.client.Common.CareNotes(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, patientDashboard{User: s.User, UnreadCount: len(unread), CareNoteCount: len(notes)})
}
