package portal

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/carely-portal/internal/carely"
)

func (h *Handler) adminRoutes(r chi.Router) {
	r.Get("/dashboard", h.AdminDashboard)
	for _, kind := range []carely.AccountKind{carely.KindUsers, carely.KindCaregivers, carely.KindPatients} {
		r.Get("/"+string(kind), h.Accounts(kind))
		r.Patch("/"+string(kind)+"/{id}/{verb}", h.Moderate(kind))
	}
	r.Get("/patients/{id}", h.AdminPatient)
	r.Get("/bookings", h.AdminBookings)
	r.Get("/bookings/{id}", h.AdminBooking)
	r.Get("/analytics/{report}", h.Analytics)
	r.Post("/broadcast/{audience}", h.Broadcast)
	r.Get("/categories", h.Categories)
	r.Get("/services", h.AdminServices)
	r.Post("/services", h.CreateService)
	r.Put("/services/{id}", h.UpdateService)
	r.Delete("/services/{id}", h.DeleteService)
}

type adminDashboard struct {
	Reports map[string]any `json:"reports"`
}

// AdminDashboard gathers every analytics report.
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	out := adminDashboard{Reports: make(map[string]any, len(carely.AnalyticsReports))}
	for _, report := range carely.AnalyticsReports {
		raw, err := h.client.Admin.Analytics(r.Context(), report)
		if err != nil {
			h.fail(w, r, err, "Failed to load dashboard")
			return
		}
		out.Reports[report] = raw
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Accounts(kind carely.AccountKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.client.Admin.Accounts(r.Context(), kind, r.URL.Query().Get("filter"))
		if err != nil {
			h.fail(w, r, err, "Failed to load "+string(kind))
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (h *Handler) Moderate(kind carely.AccountKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		verb := chi.URLParam(r, "verb")
		if err := h.client.Admin.Moderate(r.Context(), kind, chi.URLParam(r, "id"), verb); err != nil {
			h.fail(w, r, err, "Failed to update account")
			return
		}
		writeOK(w, "Account updated")
	}
}

func (h *Handler) AdminPatient(w http.ResponseWriter, r *http.Request) {
	raw, err := h.client.Admin.Patient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Failed to load patient")
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (h *Handler) AdminBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.Admin.Bookings(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		h.fail(w, r, err, "Failed to load bookings")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) AdminBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.client.Admin.Booking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Failed to load booking")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	raw, err := h.client.Admin.Analytics(r.Context(), chi.URLParam(r, "report"))
	if err != nil {
		h.fail(w, r, err, "Failed to load analytics")
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var msg carely.Broadcast
	if !decode(w, r, &msg) {
		return
	}
	if msg.Title == "" || msg.Message == "" {
		writeError(w, http.StatusUnprocessableEntity, "title and message are required")
		return
	}
	audience := carely.Audience(chi.URLParam(r, "audience"))
	if err := h.client.Admin.Broadcast(r.Context(), audience, msg); err != nil {
		h.fail(w, r, err, "Failed to send broadcast")
		return
	}
	writeOK(w, "Broadcast sent")
}

func (h *Handler) AdminServices(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.Common.Services(r.Context(), serviceQuery(r))
	if err != nil {
		h.fail(w, r, err, "Failed to load services")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func validService(in carely.ServiceInput) bool {
	return in.Name != "" && in.CategoryName != ""
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var in carely.ServiceInput
	if !decode(w, r, &in) {
		return
	}
	if !validService(in) {
		writeError(w, http.StatusUnprocessableEntity, "name and categoryName are required")
		return
	}
	svc, err := h.client.Admin.CreateService(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "Failed to create service")
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var in carely.ServiceInput
	if !decode(w, r, &in) {
		return
	}
	if !validService(in) {
		writeError(w, http.StatusUnprocessableEntity, "name and categoryName are required")
		return
	}
	svc, err := h.client.Admin.UpdateService(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err, "Failed to update service")
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Admin.DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "Failed to delete service")
		return
	}
	writeOK(w, "Service deleted")
}
