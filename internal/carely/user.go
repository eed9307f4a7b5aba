package carely

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wolfman30/carely-portal/internal/session"
)

// UserAPI covers endpoints for the user and family roles.
type UserAPI struct {
	c *Client
}

// FilteredServices lists services of one category.
func (a *UserAPI) FilteredServices(ctx context.Context, q ServiceQuery) (*ServiceList, error) {
	out, err := call[Page[Service]](ctx, a.c, "user", http.MethodGet, "/api/user/services/filter"+q.encode(true), nil)
	if err != nil {
		return nil, fmt.Errorf("filter services: %w", err)
	}
	list := &ServiceList{Services: out.Data, TotalPages: 1}
	if out.Pagination != nil && out.Pagination.TotalPages > 0 {
		list.TotalPages = out.Pagination.TotalPages
	}
	return list, nil
}

// BookService submits a booking request.
func (a *UserAPI) BookService(ctx context.Context, req BookingRequest) (*Booking, error) {
	out, err := call[Booking](ctx, a.c, "user", http.MethodPost, "/api/user/services/book", req)
	if err != nil {
		return nil, fmt.Errorf("book service: %w", err)
	}
	return &out, nil
}

// Bookings lists the caller's bookings with the given status.
func (a *UserAPI) Bookings(ctx context.Context, status BookingStatus) ([]Booking, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: list bookings: unknown status %q", ErrInvalidRequest, status)
	}
	path := "/api/user/bookings/all"
	if status != BookingsAll {
		path = "/api/user/bookings/" + string(status) + "/services"
	}
	out, err := call[[]Booking](ctx, a.c, "user", http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s bookings: %w", status, err)
	}
	return out, nil
}

func (a *UserAPI) CancelBooking(ctx context.Context, id string) error {
	path := "/api/user/bookings/" + url.PathEscape(id) + "/cancel"
	if _, err := action(ctx, a.c, "user", http.MethodPatch, path, nil); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	return nil
}

// BroadcastRequest opens a service request that arrived as a notification.
func (a *UserAPI) BroadcastRequest(ctx context.Context, id string) (json.RawMessage, error) {
	out, err := call[json.RawMessage](ctx, a.c, "user", http.MethodGet, "/api/user/notifications-request/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get broadcast request: %w", err)
	}
	return out, nil
}

func (a *UserAPI) Profile(ctx context.Context) (*session.User, error) {
	out, err := call[session.User](ctx, a.c, "user", http.MethodGet, "/api/user/profile", nil)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &out, nil
}

func (a *UserAPI) UpdateProfile(ctx context.Context, changes map[string]any) (*session.User, error) {
	out, err := call[session.User](ctx, a.c, "user", http.MethodPatch, "/api/user/profile", changes)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &out, nil
}

func (a *UserAPI) DeleteProfile(ctx context.Context) error {
	if _, err := action(ctx, a.c, "user", http.MethodDelete, "/api/user/profile", nil); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func (a *UserAPI) LinkedPatients(ctx context.Context) ([]session.LinkedPatient, error) {
	out, err := call[[]session.LinkedPatient](ctx, a.c, "user", http.MethodGet, "/api/user/patients", nil)
	if err != nil {
		return nil, fmt.Errorf("list linked patients: %w", err)
	}
	return out, nil
}

func (a *UserAPI) Transactions(ctx context.Context) ([]Transaction, error) {
	out, err := call[[]Transaction](ctx, a.c, "user", http.MethodGet, "/api/user/transaction/my", nil)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (a *UserAPI) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	out, err := call[Transaction](ctx, a.c, "user", http.MethodPost, "/api/user/transaction/create", req)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return &out, nil
}

func (a *UserAPI) Transaction(ctx context.Context, id string) (*Transaction, error) {
	out, err := call[Transaction](ctx, a.c, "user", http.MethodGet, "/api/user/transaction/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &out, nil
}
