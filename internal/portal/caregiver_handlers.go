package portal

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/carely-portal/internal/carely"
)

func (h *Handler) caregiverRoutes(r chi.Router) {
	r.Get("/dashboard", h.CaregiverDashboard)
	r.Get("/bookings", h.CaregiverBookings)
	r.Get("/bookings/{id}", h.Booking)
	r.Patch("/bookings/{id}/accept", h.AcceptBooking)
	r.Patch("/bookings/{id}/decline", h.DeclineBooking)
	r.Patch("/bookings/{id}/status", h.UpdateBookingStatus)
	r.Post("/bookings/{id}/care-notes", h.CaregiverCareNote)
	r.Get("/invoice/{id}", h.Booking)
	r.Get("/earnings", h.Earnings)
	r.Get("/profile", h.CaregiverProfile)
	r.Patch("/profile", h.UpdateCaregiverProfile)
	r.Patch("/availability", h.UpdateAvailability)
}

type caregiverDashboard struct {
	Bookings []carely.Booking `json:"bookings"`
	Earnings any              `json:"earnings"`
}

func (h *Handler) CaregiverDashboard(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.Caregiver.Bookings(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load dashboard")
		return
	}
	earnings, err := h.client.Caregiver.Earnings(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, caregiverDashboard{Bookings: list, Earnings: earnings})
}

func (h *Handler) CaregiverBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.Caregiver.Bookings(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load bookings")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) AcceptBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Caregiver.AcceptBooking(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "Failed to accept booking")
		return
	}
	writeOK(w, "Booking accepted")
}

func (h *Handler) DeclineBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Caregiver.DeclineBooking(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "Failed to decline booking")
		return
	}
	writeOK(w, "Booking declined")
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusUnprocessableEntity, "status is required")
		return
	}
	if err := h.client.Caregiver.UpdateBookingStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		h.fail(w, r, err, "Failed to update status")
		return
	}
	writeOK(w, "Status updated")
}

func (h *Handler) CaregiverCareNote(w http.ResponseWriter, r *http.Request) {
	var req careNoteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Note == "" {
		writeError(w, http.StatusUnprocessableEntity, "note is required")
		return
	}
	id := chi.URLParam(r, "id")
	note, err := h.client.Caregiver.AddCareNote(r.Context(), id, carely.CareNote{BookingID: id, Note: req.Note, Vitals: req.Vitals})
	if err != nil {
		h.fail(w, r, err, "Failed to add care note")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *Handler) Earnings(w http.ResponseWriter, r *http.Request) {
	raw, err := h.client.Caregiver.Earnings(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load earnings")
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (h *Handler) CaregiverProfile(w http.ResponseWriter, r *http.Request) {
	raw, err := h.client.Caregiver.Profile(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (h *Handler) UpdateCaregiverProfile(w http.ResponseWriter, r *http.Request) {
	var changes map[string]any
	if !decode(w, r, &changes) {
		return
	}
	raw, err := h.client.Caregiver.UpdateProfile(r.Context(), changes)
	if err != nil {
		h.fail(w, r, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (h *Handler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var availability map[string]any
	if !decode(w, r, &availability) {
		return
	}
	if err := h.client.Caregiver.UpdateAvailability(r.Context(), availability); err != nil {
		h.fail(w, r, err, "Failed to update availability")
		return
	}
	writeOK(w, "Availability updated")
}
