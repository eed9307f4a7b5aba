package portal

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/carely-portal/internal/carely"
)

// notificationRoutes are shared by every signed-in role.
func (h *Handler) notificationRoutes(r chi.Router) {
	r.Get("/notifications", h.Notifications)
	r.Get("/notifications/unread", h.UnreadNotifications)
	r.Get("/notifications/{id}", h.Notification)
	r.Patch("/notifications/{id}/read", h.MarkNotificationRead)
	r.Delete("/notifications/{id}", h.DeleteNotification)
}

// commonRoutes add care notes to the notification routes.
func (h *Handler) commonRoutes(r chi.Router) {
	h.notificationRoutes(r)
	r.Get("/care-notes", h.CareNotes)
	r.Get("/bookings/{id}/care-notes", h.BookingCareNotes)
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.Common.Notifications(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load notifications")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) UnreadNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.Common.UnreadNotifications(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load notifications")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) Notification(w http.ResponseWriter, r *http.Request) {
	n, err := h.client.Common.Notification(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Failed to load notification")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Common.MarkNotificationRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "Failed to update notification")
		return
	}
	writeOK(w, "Marked as read")
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Common.DeleteNotification(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "Failed to delete notification")
		return
	}
	writeOK(w, "Notification deleted")
}

func (h *Handler) CareNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.client.Common.CareNotes(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load care notes")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) BookingCareNotes(w http.ResponseWriter, r *http.Request) {
	page, err := h.client.Common.BookingCareNotes(r.Context(), chi.URLParam(r, "id"), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		h.fail(w, r, err, "Failed to load care notes")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type careNoteRequest struct {
	Note   string          `json:"note"`
	Vitals json.RawMessage `json:"vitals,omitempty"`
}

// AddCareNote posts a note on a booking as a user, family member or patient.
func (h *Handler) AddCareNote(w http.ResponseWriter, r *http.Request) {
	var req careNoteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Note == "" {
		writeError(w, http.StatusUnprocessableEntity, "note is required")
		return
	}
	note, err := h.client.Common.AddCareNote(r.Context(), chi.URLParam(r, "id"), req.Note)
	if err != nil {
		h.fail(w, r, err, "Failed to add care note")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *Handler) Booking(w http.ResponseWriter, r *http.Request) {
	b, err := h.client.Common.Booking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Failed to load booking")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.client.Common.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load categories")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func serviceQuery(r *http.Request) carely.ServiceQuery {
	q := r.URL.Query()
	return carely.ServiceQuery{
		Search:       q.Get("search"),
		CategoryName: q.Get("category"),
		Page:         queryInt(r, "page"),
		Limit:        queryInt(r, "limit"),
	}
}
