package carely

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// CaregiverAPI covers endpoints for the caregiver role.
type CaregiverAPI struct {
	c *Client
}

func (a *CaregiverAPI) Bookings(ctx context.Context) ([]Booking, error) {
	out, err := call[[]Booking](ctx, a.c, "caregiver", http.MethodGet, "/api/caregiver/bookings", nil)
	if err != nil {
		return nil, fmt.Errorf("list caregiver bookings: %w", err)
	}
	return out, nil
}

func (a *CaregiverAPI) AcceptBooking(ctx context.Context, id string) error {
	return a.patchBooking(ctx, id, "accept", nil)
}

// DeclineBooking rejects a booking request. The backend route keeps its
// historical "cancle" spelling.
func (a *CaregiverAPI) DeclineBooking(ctx context.Context, id string) error {
	return a.patchBooking(ctx, id, "cancle", nil)
}

func (a *CaregiverAPI) UpdateBookingStatus(ctx context.Context, id, status string) error {
	return a.patchBooking(ctx, id, "status", map[string]string{"status": status})
}

func (a *CaregiverAPI) patchBooking(ctx context.Context, id, verb string, body any) error {
	path := "/api/caregiver/bookings/" + url.PathEscape(id) + "/" + verb
	if _, err := action(ctx, a.c, "caregiver", http.MethodPatch, path, body); err != nil {
		return fmt.Errorf("booking %s: %w", verb, err)
	}
	return nil
}

func (a *CaregiverAPI) AddCareNote(ctx context.Context, bookingID string, note CareNote) (*CareNote, error) {
	path := "/api/caregiver/bookings/" + url.PathEscape(bookingID) + "/care-notes"
	out, err := call[CareNote](ctx, a.c, "caregiver", http.MethodPost, path, note)
	if err != nil {
		return nil, fmt.Errorf("add care note: %w", err)
	}
	return &out, nil
}

func (a *CaregiverAPI) Profile(ctx context.Context) (json.RawMessage, error) {
	out, err := call[json.RawMessage](ctx, a.c, "caregiver", http.MethodGet, "/api/caregiver/me", nil)
	if err != nil {
		return nil, fmt.Errorf("get caregiver profile: %w", err)
	}
	return out, nil
}

func (a *CaregiverAPI) UpdateProfile(ctx context.Context, changes map[string]any) (json.RawMessage, error) {
	out, err := call[json.RawMessage](ctx, a.c, "caregiver", http.MethodPatch, "/api/caregiver/me", changes)
	if err != nil {
		return nil, fmt.Errorf("update caregiver profile: %w", err)
	}
	return out, nil
}

func (a *CaregiverAPI) UpdateAvailability(ctx context.Context, availability map[string]any) error {
	if _, err := action(ctx, a.c, "caregiver", http.MethodPatch, "/api/caregiver/availability", availability); err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	return nil
}

func (a *CaregiverAPI) Earnings(ctx context.Context) (json.RawMessage, error) {
	out, err := call[json.RawMessage](ctx, a.c, "caregiver", http.MethodGet, "/api/caregiver/earnings", nil)
	if err != nil {
		return nil, fmt.Errorf("get earnings: %w", err)
	}
	return out, nil
}
