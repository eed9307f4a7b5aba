package carely

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// AdminAPI covers the admin console endpoints.
type AdminAPI struct {
	c *Client
}

// Broadcast sends an announcement to the given audience.
func (a *AdminAPI) Broadcast(ctx context.Context, audience Audience, msg Broadcast) error {
	switch audience {
	case AudienceUsers, AudienceCaregivers, AudienceAll:
	default:
		return fmt.Errorf("%w: broadcast: unknown audience %q", ErrInvalidRequest, audience)
	}
	if _, err := action(ctx, a.c, "admin", http.MethodPost, "/api/admin/broadcast/"+string(audience), msg); err != nil {
		return fmt.Errorf("broadcast %s: %w", audience, err)
	}
	return nil
}

func (a *AdminAPI) CreateService(ctx context.Context, in ServiceInput) (*Service, error) {
	out, err := call[Service](ctx, a.c, "admin", http.MethodPost, "/api/admin/services", in)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return &out, nil
}

func (a *AdminAPI) UpdateService(ctx context.Context, id string, in ServiceInput) (*Service, error) {
	out, err := call[Service](ctx, a.c, "admin", http.MethodPut, "/api/admin/services/"+url.PathEscape(id), in)
	if err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}
	return &out, nil
}

func (a *AdminAPI) DeleteService(ctx context.Context, id string) error {
	if _, err := action(ctx, a.c, "admin", http.MethodDelete, "/api/admin/services/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	return nil
}

// Bookings lists bookings; filter is "", "pending", "completed" or "rejected".
func (a *AdminAPI) Bookings(ctx context.Context, filter string) ([]Booking, error) {
	path := "/api/admin/bookings"
	switch filter {
	case "":
	case "pending", "completed", "rejected":
		path += "/" + filter
	default:
		return nil, fmt.Errorf("%w: list bookings: unknown filter %q", ErrInvalidRequest, filter)
	}
	out, err := call[[]Booking](ctx, a.c, "admin", http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list admin bookings: %w", err)
	}
	return out, nil
}

func (a *AdminAPI) Booking(ctx context.Context, id string) (*Booking, error) {
	out, err := call[Booking](ctx, a.c, "admin", http.MethodGet, "/api/admin/bookings/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get admin booking: %w", err)
	}
	return &out, nil
}

// AnalyticsReports names the analytics endpoints.
var AnalyticsReports = []string{"monthly-revenue", "most-active-cities", "location-overview", "platform-revenue"}

// Analytics fetches one report verbatim.
func (a *AdminAPI) Analytics(ctx context.Context, report string) (json.RawMessage, error) {
	known := false
	for _, r := range AnalyticsReports {
		if r == report {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: analytics: unknown report %q", ErrInvalidRequest, report)
	}
	out, err := call[json.RawMessage](ctx, a.c, "admin", http.MethodGet, "/api/admin/analytics/"+report, nil)
	if err != nil {
		return nil, fmt.Errorf("analytics %s: %w", report, err)
	}
	return out, nil
}

// AccountKind selects users, caregivers or patients.
type AccountKind string

const (
	KindUsers      AccountKind = "users"
	KindCaregivers AccountKind = "caregivers"
	KindPatients   AccountKind = "patients"
)

// Accounts lists accounts of kind. filter is "" or "blocked" for every
// kind, plus "verified", "unverified", "top-rated" and "lowest-rated" for
// caregivers.
func (a *AdminAPI) Accounts(ctx context.Context, kind AccountKind, filter string) ([]Account, error) {
	if err := checkAccountFilter(kind, filter); err != nil {
		return nil, err
	}
	path := "/api/admin/" + string(kind)
	if filter != "" {
		path += "/" + filter
	}
	out, err := call[[]Account](ctx, a.c, "admin", http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return out, nil
}

// Patient fetches one patient. The backend serves it under the singular path.
func (a *AdminAPI) Patient(ctx context.Context, id string) (json.RawMessage, error) {
	out, err := call[json.RawMessage](ctx, a.c, "admin", http.MethodGet, "/api/admin/patient/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return out, nil
}

// Moderate applies verb (block, unblock, verify, reject-verification) to an account.
func (a *AdminAPI) Moderate(ctx context.Context, kind AccountKind, id, verb string) error {
	if err := checkModeration(kind, verb); err != nil {
		return err
	}
	path := "/api/admin/" + string(kind) + "/" + url.PathEscape(id) + "/" + verb
	var body any
	if kind == KindCaregivers {
		body = struct{}{}
	}
	if _, err := action(ctx, a.c, "admin", http.MethodPatch, path, body); err != nil {
		return fmt.Errorf("%s %s: %w", verb, kind, err)
	}
	return nil
}

func checkAccountFilter(kind AccountKind, filter string) error {
	switch filter {
	case "", "blocked":
	case "verified", "unverified", "top-rated", "lowest-rated":
		if kind != KindCaregivers {
			return fmt.Errorf("%w: list %s: filter %q applies to caregivers only", ErrInvalidRequest, kind, filter)
		}
	default:
		return fmt.Errorf("%w: list %s: unknown filter %q", ErrInvalidRequest, kind, filter)
	}
	switch kind {
	case KindUsers, KindCaregivers, KindPatients:
		return nil
	}
	return fmt.Errorf("%w: list accounts: unknown kind %q", ErrInvalidRequest, kind)
}

func checkModeration(kind AccountKind, verb string) error {
	switch verb {
	case "block", "unblock":
	case "verify", "reject-verification":
		if kind != KindCaregivers {
			return fmt.Errorf("%w: %s: applies to caregivers only", ErrInvalidRequest, verb)
		}
	default:
		return fmt.Errorf("%w: moderate: unknown action %q", ErrInvalidRequest, verb)
	}
	switch kind {
	case KindUsers, KindCaregivers, KindPatients:
		return nil
	}
	return fmt.Errorf("%w: moderate: unknown kind %q", ErrInvalidRequest, kind)
}
