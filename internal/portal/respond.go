package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/wolfman30/carely-portal/internal/auth"
	"github.com/wolfman30/carely-portal/internal/bookings"
	"github.com/wolfman30/carely-portal/internal/carely"
	"github.com/wolfman30/carely-portal/internal/geocode"
	"github.com/wolfman30/carely-portal/internal/identity"
	"github.com/wolfman30/carely-portal/internal/navigation"
	"github.com/wolfman30/carely-portal/internal/session"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
}

// redirectResponse tells the shell where to go after an action.
type redirectResponse struct {
	Redirect string        `json:"redirect"`
	User     *session.User `json:"user,omitempty"`
}

type okResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

func writeOK(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, okResponse{Success: true, Message: message})
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func isValidation(err error) bool {
	switch {
	case bookings.IsValidation(err), auth.IsValidation(err):
		return true
	case errors.Is(err, carely.ErrInvalidRequest),
		errors.Is(err, identity.ErrMissingCredential),
		errors.Is(err, identity.ErrInvalidCredential),
		errors.Is(err, geocode.ErrAddressNotFound):
		return true
	}
	return false
}

// fail answers an action error. A 401 from the backend has already ended
// the session through the client hook, so the shell is sent to the landing
// view. Local validation errors keep their message; backend failures get
// the generic one.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, generic string) {
	switch {
	case carely.IsUnauthorized(err):
		h.logger.Info("session ended by backend", "path", r.URL.Path)
		http.Redirect(w, r, navigation.LandingPath, http.StatusSeeOther)
	case errors.Is(err, session.ErrNoSession):
		http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
	case isValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, auth.ErrUploadsDisabled), errors.Is(err, auth.ErrGeocoderDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error(generic, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, generic)
	}
}
