// Package navigation decides which view a path shows for the current
// session. Protected subtrees pass an authentication guard and then a role
// guard; either one redirects to the login view.
package navigation

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/carely-portal/internal/session"
)

const (
	LoginPath   = "/login"
	LandingPath = "/"

	ViewNotFound = "not-found"
)

// Subtree is a protected path prefix and the roles allowed under it.
// View patterns are relative to Prefix and use chi syntax, so "{id}"
// matches one path segment.
type Subtree struct {
	Prefix string
	Roles  []session.Role
	Views  map[string]string
}

// Table maps paths to view names.
type Table struct {
	public   *viewRouter
	subtrees []mounted
}

type mounted struct {
	Subtree
	views *viewRouter
}

// viewRouter matches paths with a chi tree. Handlers are never served;
// the matched route pattern keys the view name.
type viewRouter struct {
	mux   *chi.Mux
	views map[string]string
}

func newViewRouter(prefix string, views map[string]string) *viewRouter {
	vr := &viewRouter{mux: chi.NewRouter(), views: make(map[string]string, len(views))}
	for pattern, view := range views {
		full := prefix + "/" + strings.TrimPrefix(pattern, "/")
		vr.mux.Get(full, http.NotFound)
		vr.views[full] = view
	}
	return vr
}

func (vr *viewRouter) lookup(path string) (string, map[string]string, bool) {
	rctx := chi.NewRouteContext()
	if !vr.mux.Match(rctx, http.MethodGet, path) {
		return "", nil, false
	}
	view, ok := vr.views[rctx.RoutePattern()]
	if !ok {
		return "", nil, false
	}
	var params map[string]string
	for i, key := range rctx.URLParams.Keys {
		if params == nil {
			params = make(map[string]string)
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return view, params, true
}

// NewTable compiles public views, keyed by full path, and the protected
// subtrees into a table.
func NewTable(public map[string]string, subtrees ...Subtree) *Table {
	t := &Table{public: newViewRouter("", public)}
	for _, sub := range subtrees {
		t.subtrees = append(t.subtrees, mounted{Subtree: sub, views: newViewRouter(sub.Prefix, sub.Views)})
	}
	return t
}

var (
	UserSubtree = Subtree{
		Prefix: "/user",
		Roles:  []session.Role{session.RoleUser, session.RoleFamily},
		Views: map[string]string{
			"dashboard":     "user-dashboard",
			"profile":       "user-profile",
			"bookings":      "user-bookings",
			"services":      "browse-services",
			"notifications": "notifications",
			"transactions":  "user-transactions",
			"care-notes":    "care-notes",
		},
	}
	CaregiverSubtree = Subtree{
		Prefix: "/caregiver",
		Roles:  []session.Role{session.RoleCaregiver},
		Views: map[string]string{
			"dashboard":     "caregiver-dashboard",
			"care-notes":    "care-notes",
			"bookings":      "caregiver-bookings",
			"earnings":      "caregiver-earnings",
			"availability":  "caregiver-availability",
			"profile":       "caregiver-profile",
			"notifications": "caregiver-notifications",
			"invoice/{id}":  "invoice",
		},
	}
	AdminSubtree = Subtree{
		Prefix: "/admin",
		Roles:  []session.Role{session.RoleAdmin},
		Views: map[string]string{
			"dashboard":     "admin-dashboard",
			"users":         "manage-users",
			"caregivers":    "manage-caregivers",
			"patients":      "admin-patients",
			"bookings":      "admin-bookings",
			"broadcast":     "admin-broadcast",
			"analytics":     "admin-analytics",
			"transactions":  "all-transactions",
			"services":      "admin-services",
			"notifications": "notifications",
		},
	}
	PatientSubtree = Subtree{
		Prefix: "/patient",
		Roles:  []session.Role{session.RolePatient},
		Views: map[string]string{
			"dashboard":     "patient-dashboard",
			"notifications": "notifications",
			"care-notes":    "care-notes",
		},
	}
)

// DefaultTable is the portal's route table.
func DefaultTable() *Table {
	return NewTable(map[string]string{
		"/":                "home",
		"/login":           "login",
		"/register":        "register",
		"/payment-history": "payment-history",
	}, UserSubtree, CaregiverSubtree, AdminSubtree, PatientSubtree)
}

// Decision is the outcome of resolving a path.
type Decision struct {
	Path     string `json:"path"`
	View     string `json:"view,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	// From is the path the login view should return to.
	From     string            `json:"from,omitempty"`
	NotFound bool              `json:"notFound,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
}

// Allowed reports whether the view is shown as is.
func (d Decision) Allowed() bool {
	return d.Redirect == "" && !d.NotFound
}

// Authenticate lets a request through when there is an active session.
func Authenticate(s *session.Session) bool {
	return s != nil && s.Valid()
}

// Authorize lets a request through when the session role is allowed.
func Authorize(s *session.Session, allowed []session.Role) bool {
	if s == nil {
		return false
	}
	for _, r := range allowed {
		if r == s.User.Role {
			return true
		}
	}
	return false
}

// Resolve maps path to a view for s, which may be nil. It has no side
// effects and is evaluated on every navigation.
func (t *Table) Resolve(path string, s *session.Session) Decision {
	path = clean(path)
	d := Decision{Path: path}

	if view, params, ok := t.public.lookup(path); ok {
		d.View, d.Params = view, params
		return d
	}

	for _, sub := range t.subtrees {
		if !under(path, sub.Prefix) {
			continue
		}
		if !Authenticate(s) {
			d.Redirect, d.From = LoginPath, path
			return d
		}
		if !Authorize(s, sub.Roles) {
			d.Redirect = LoginPath
			return d
		}
		if view, params, ok := sub.views.lookup(path); ok {
			d.View, d.Params = view, params
			return d
		}
		d.View, d.NotFound = ViewNotFound, true
		return d
	}

	d.View, d.NotFound = ViewNotFound, true
	return d
}

func clean(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = "/" + strings.Trim(path, "/")
	return path
}

// under reports whether path is prefix or below it.
func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
