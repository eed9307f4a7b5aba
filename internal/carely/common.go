package carely

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// CommonAPI covers endpoints shared by every signed-in role.
type CommonAPI struct {
	c *Client
}

func (a *CommonAPI) Categories(ctx context.Context) ([]Category, error) {
	out, err := call[[]Category](ctx, a.c, "common", http.MethodGet, "/api/common/categories/all", nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// Services lists the catalog with optional search and paging.
func (a *CommonAPI) Services(ctx context.Context, q ServiceQuery) (*ServiceList, error) {
	var env Envelope[[]Service]
	path := "/api/common/services/all" + q.encode(false)
	if err := a.c.doJSON(ctx, "common", http.MethodGet, path, nil, &env); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	list := &ServiceList{Services: env.Data, TotalPages: 1}
	if env.Pagination != nil && env.Pagination.TotalPages > 0 {
		list.TotalPages = env.Pagination.TotalPages
	}
	return list, nil
}

// Service fetches full details of one service.
func (a *CommonAPI) Service(ctx context.Context, id string) (*Service, error) {
	out, err := call[Service](ctx, a.c, "common", http.MethodGet, "/api/common/services/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return &out, nil
}

func (a *CommonAPI) Booking(ctx context.Context, id string) (*Booking, error) {
	out, err := call[Booking](ctx, a.c, "common", http.MethodGet, "/api/common/booking/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &out, nil
}

func (a *CommonAPI) Notifications(ctx context.Context) ([]Notification, error) {
	out, err := call[Page[Notification]](ctx, a.c, "common", http.MethodGet, "/api/common/notifications", nil)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out.Data, nil
}

func (a *CommonAPI) UnreadNotifications(ctx context.Context) ([]Notification, error) {
	out, err := call[Page[Notification]](ctx, a.c, "common", http.MethodGet, "/api/common/notifications/unread", nil)
	if err != nil {
		return nil, fmt.Errorf("list unread notifications: %w", err)
	}
	return out.Data, nil
}

func (a *CommonAPI) Notification(ctx context.Context, id string) (*Notification, error) {
	out, err := call[struct {
		Data Notification `json:"data"`
	}](ctx, a.c, "common", http.MethodGet, "/api/common/notifications/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return &out.Data, nil
}

func (a *CommonAPI) MarkNotificationRead(ctx context.Context, id string) error {
	path := "/api/common/notifications/" + url.PathEscape(id) + "/read"
	if _, err := action(ctx, a.c, "common", http.MethodPatch, path, nil); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (a *CommonAPI) DeleteNotification(ctx context.Context, id string) error {
	if _, err := action(ctx, a.c, "common", http.MethodDelete, "/api/common/notifications/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

func (a *CommonAPI) CareNotes(ctx context.Context) ([]CareNote, error) {
	out, err := call[[]CareNote](ctx, a.c, "common", http.MethodGet, "/api/common/carenotes", nil)
	if err != nil {
		return nil, fmt.Errorf("list care notes: %w", err)
	}
	return out, nil
}

// BookingCareNotes pages through the notes of one booking.
func (a *CommonAPI) BookingCareNotes(ctx context.Context, bookingID string, page, limit int) (*Page[CareNote], error) {
	var env Envelope[[]CareNote]
	path := "/api/common/carenotes/" + url.PathEscape(bookingID) + pageQuery(page, limit)
	if err := a.c.doJSON(ctx, "common", http.MethodGet, path, nil, &env); err != nil {
		return nil, fmt.Errorf("list booking care notes: %w", err)
	}
	return &Page[CareNote]{Data: env.Data, Pagination: env.Pagination}, nil
}

func (a *CommonAPI) AddCareNote(ctx context.Context, bookingID, note string) (*CareNote, error) {
	body := CareNote{BookingID: bookingID, Note: note}
	out, err := call[CareNote](ctx, a.c, "common", http.MethodPost, "/api/common/carenotes/add", body)
	if err != nil {
		return nil, fmt.Errorf("add care note: %w", err)
	}
	return &out, nil
}

func (q ServiceQuery) encode(withCategory bool) string {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if withCategory && q.CategoryName != "" {
		v.Set("categoryName", q.CategoryName)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func pageQuery(page, limit int) string {
	return ServiceQuery{Page: page, Limit: limit}.encode(false)
}
