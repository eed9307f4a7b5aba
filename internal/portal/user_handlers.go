package portal

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/carely-portal/internal/bookings"
	"github.com/wolfman30/carely-portal/internal/carely"
	"github.com/wolfman30/carely-portal/internal/navigation"
)

func (h *Handler) userRoutes(r chi.Router) {
	r.Get("/dashboard", h.UserDashboard)
	r.Get("/services", h.BrowseServices)
	r.Get("/categories", h.Categories)

	r.Route("/composer", func(r chi.Router) {
		r.Get("/", h.ComposerState)
		r.Post("/open", h.ComposerOpen)
		r.Delete("/", h.ComposerClose)
		r.Post("/duration", h.ComposerDuration)
		r.Post("/card", h.ComposerOpenCard)
		r.Delete("/card", h.ComposerCloseCard)
		r.Post("/patient", h.ComposerPatient)
		r.Post("/schedule", h.ComposerSchedule)
		r.Post("/payment", h.ComposerPayment)
		r.Post("/submit", h.ComposerSubmit)
		r.Post("/reset", h.ComposerReset)
	})

	r.Get("/bookings", h.UserBookings)
	r.Get("/bookings/{id}", h.Booking)
	r.Patch("/bookings/{id}/cancel", h.CancelBooking)
	r.Post("/bookings/{id}/care-notes", h.AddCareNote)

	r.Get("/transactions", h.Transactions)
	r.Post("/transactions", h.CreateTransaction)
	r.Get("/transactions/{id}", h.Transaction)

	r.Get("/profile", h.UserProfile)
	r.Patch("/profile", h.UpdateUserProfile)
	r.Delete("/profile", h.DeleteUserProfile)
	r.Get("/patients", h.LinkedPatients)
	r.Get("/requests/{id}", h.BroadcastRequest)
}

type userDashboard struct {
	Bookings    []carely.Booking `json:"bookings"`
	UnreadCount int              `json:"unreadNotifications"`
}

func (h *Handler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.User.Bookings(r.Context(), carely.BookingsAll)
	if err != nil {
		h.fail(w, r, err, "Failed to load dashboard")
		return
	}
	unread, err := h.client.Common.UnreadNotifications(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, userDashboard{Bookings: list, UnreadCount: len(unread)})
}

func (h *Handler) BrowseServices(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.User.FilteredServices(r.Context(), serviceQuery(r))
	if err != nil {
		h.fail(w, r, err, "Failed to load services")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) ComposerState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.composer.State())
}

// composed answers a composer action with the new state.
func (h *Handler) composed(w http.ResponseWriter, r *http.Request, err error, generic string) {
	if err != nil {
		h.fail(w, r, err, generic)
		return
	}
	writeJSON(w, http.StatusOK, h.composer.State())
}

type openServiceRequest struct {
	ServiceID string `json:"serviceId"`
}

// ComposerOpen loads a service and offers the session user's linked
// patients.
func (h *Handler) ComposerOpen(w http.ResponseWriter, r *http.Request) {
	var req openServiceRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ServiceID == "" {
		writeError(w, http.StatusUnprocessableEntity, "serviceId is required")
		return
	}
	if s, ok := navigation.SessionFromContext(r.Context()); ok {
		h.composer.SetPatients(s.User.LinkedPatients)
	}
	h.composed(w, r, h.composer.OpenService(r.Context(), req.ServiceID), "Failed to load service details")
}

func (h *Handler) ComposerClose(w http.ResponseWriter, r *http.Request) {
	h.composer.CloseService()
	writeJSON(w, http.StatusOK, h.composer.State())
}

type durationRequest struct {
	Hours float64 `json:"hours"`
}

func (h *Handler) ComposerDuration(w http.ResponseWriter, r *http.Request) {
	var req durationRequest
	if !decode(w, r, &req) {
		return
	}
	h.composed(w, r, h.composer.SelectDuration(req.Hours), "Booking failed")
}

func (h *Handler) ComposerOpenCard(w http.ResponseWriter, r *http.Request) {
	h.composed(w, r, h.composer.OpenBookingCard(), "Booking failed")
}

func (h *Handler) ComposerCloseCard(w http.ResponseWriter, r *http.Request) {
	h.composer.CloseBookingCard()
	writeJSON(w, http.StatusOK, h.composer.State())
}

type patientRequest struct {
	PatientID string `json:"patientId"`
}

func (h *Handler) ComposerPatient(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if !decode(w, r, &req) {
		return
	}
	h.composed(w, r, h.composer.SelectPatient(req.PatientID), "Booking failed")
}

type scheduleRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *Handler) ComposerSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !decode(w, r, &req) {
		return
	}
	h.composed(w, r, h.composer.SetSchedule(req.Field, req.Value), "Booking failed")
}

type paymentRequest struct {
	Method string `json:"method"`
}

func (h *Handler) ComposerPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decode(w, r, &req) {
		return
	}
	h.composed(w, r, h.composer.SetPaymentMethod(req.Method), "Booking failed")
}

type submitResponse struct {
	Message string          `json:"message"`
	Booking *carely.Booking `json:"booking,omitempty"`
	State   bookings.State  `json:"state"`
}

// ComposerSubmit sends the draft. The caller refetches bookings afterwards.
func (h *Handler) ComposerSubmit(w http.ResponseWriter, r *http.Request) {
	if s, ok := navigation.SessionFromContext(r.Context()); ok {
		h.composer.SetPatients(s.User.LinkedPatients)
	}
	booking, err := h.composer.Submit(r.Context())
	if err != nil {
		h.fail(w, r, err, "Booking failed")
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{
		Message: "Booking request sent",
		Booking: booking,
		State:   h.composer.State(),
	})
}

func (h *Handler) ComposerReset(w http.ResponseWriter, r *http.Request) {
	h.composer.Reset()
	writeJSON(w, http.StatusOK, h.composer.State())
}

func (h *Handler) UserBookings(w http.ResponseWriter, r *http.Request) {
	status := carely.BookingStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = carely.BookingsAll
	}
	list, err := h.client.User.Bookings(r.Context(), status)
	if err != nil {
		h.fail(w, r, err, "Failed to load bookings")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.client.User.CancelBooking(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "Failed to cancel booking")
		return
	}
	writeOK(w, "Booking cancelled")
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.User.Transactions(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load transactions")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req carely.TransactionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.BookingID == "" {
		writeError(w, http.StatusUnprocessableEntity, "bookingId is required")
		return
	}
	txn, err := h.client.User.CreateTransaction(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "Payment failed")
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

func (h *Handler) Transaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.client.User.Transaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Failed to load transaction")
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (h *Handler) UserProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.client.User.Profile(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateUserProfile saves changes and refreshes the stored user.
func (h *Handler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	var changes map[string]any
	if !decode(w, r, &changes) {
		return
	}
	u, err := h.client.User.UpdateProfile(r.Context(), changes)
	if err != nil {
		h.fail(w, r, err, "Failed to update profile")
		return
	}
	if err := h.sessions.UpdateUser(r.Context(), *u); err != nil {
		h.logger.Warn("stored profile not refreshed", "error", err)
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteUserProfile removes the account and ends the session.
func (h *Handler) DeleteUserProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.client.User.DeleteProfile(r.Context()); err != nil {
		h.fail(w, r, err, "Failed to delete account")
		return
	}
	if err := h.sessions.Logout(r.Context()); err != nil {
		h.logger.Error("session clear failed", "error", err)
	}
	h.SessionEnded()
	writeJSON(w, http.StatusOK, redirectResponse{Redirect: navigation.LandingPath})
}

func (h *Handler) LinkedPatients(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.User.LinkedPatients(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load patients")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) BroadcastRequest(w http.ResponseWriter, r *http.Request) {
	raw, err := h.client.User.BroadcastRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Failed to load request")
		return
	}
	writeJSON(w, http.StatusOK, raw)
}
