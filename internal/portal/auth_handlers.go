package portal

import (
	"io"
	"net/http"

	"github.com/wolfman30/carely-portal/internal/auth"
	"github.com/wolfman30/carely-portal/internal/uploads"
)

// maxUploadMemory bounds the in-memory part of a multipart body; larger
// files spill to temporary files.
var maxUploadMemory int64 = 32 << 20

type roleRequest struct {
	Role string `json:"role"`
}

type credentialRequest struct {
	Credential string `json:"credential"`
}

type passwordRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) signedIn(w http.ResponseWriter, landing string) {
	resp := redirectResponse{Redirect: landing}
	if s, ok := h.sessions.Current(); ok {
		resp.User = &s.User
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) LoginState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.login.State())
}

func (h *Handler) LoginRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.login.SelectRole(req.Role); err != nil {
		h.fail(w, r, err, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, h.login.State())
}

func (h *Handler) LoginIdentity(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if !decode(w, r, &req) {
		return
	}
	landing, err := h.login.WithIdentity(r.Context(), req.Credential)
	if err != nil {
		h.fail(w, r, err, "Login failed")
		return
	}
	h.signedIn(w, landing)
}

func (h *Handler) LoginPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !decode(w, r, &req) {
		return
	}
	landing, err := h.login.WithPassword(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err, "Invalid username or password")
		return
	}
	h.signedIn(w, landing)
}

func (h *Handler) ForgotUsername(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.login.VerifyUsername(r.Context(), req.Username); err != nil {
		h.fail(w, r, err, "Failed to check username")
		return
	}
	writeJSON(w, http.StatusOK, h.login.State())
}

func (h *Handler) ForgotSend(w http.ResponseWriter, r *http.Request) {
	if err := h.login.SendResetCode(r.Context()); err != nil {
		h.fail(w, r, err, "Failed to send OTP")
		return
	}
	writeJSON(w, http.StatusOK, h.login.State())
}

type otpCodeRequest struct {
	Code string `json:"code"`
}

// ForgotOTP verifies the reset code. A code in the body replaces whatever
// was typed into the boxes.
func (h *Handler) ForgotOTP(w http.ResponseWriter, r *http.Request) {
	var req otpCodeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Code != "" {
		card, err := h.login.ResetOTP()
		if err != nil {
			h.fail(w, r, err, "Invalid OTP")
			return
		}
		if err := card.Paste(req.Code); err != nil {
			h.fail(w, r, err, "Invalid OTP")
			return
		}
	}
	if err := h.login.VerifyResetCode(r.Context()); err != nil {
		h.fail(w, r, err, "Invalid OTP")
		return
	}
	writeJSON(w, http.StatusOK, h.login.State())
}

func (h *Handler) ForgotReset(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !decode(w, r, &req) {
		return
	}
	landing, err := h.login.ResetPassword(r.Context(), req.Password)
	if err != nil {
		h.fail(w, r, err, "Failed to reset password")
		return
	}
	h.signedIn(w, landing)
}

func (h *Handler) RegisterState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registration.State())
}

// registered answers a registration step with the new flow state.
func (h *Handler) registered(w http.ResponseWriter, r *http.Request, err error, generic string) {
	if err != nil {
		h.fail(w, r, err, generic)
		return
	}
	writeJSON(w, http.StatusOK, h.registration.State())
}

func (h *Handler) RegisterRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decode(w, r, &req) {
		return
	}
	h.registered(w, r, h.registration.SelectRole(req.Role), "Registration failed")
}

func (h *Handler) RegisterProfile(w http.ResponseWriter, r *http.Request) {
	var req auth.Profile
	if !decode(w, r, &req) {
		return
	}
	h.registered(w, r, h.registration.UpdateProfile(req), "Registration failed")
}

func (h *Handler) RegisterLocate(w http.ResponseWriter, r *http.Request) {
	_, err := h.registration.LocateAddress(r.Context())
	h.registered(w, r, err, "Failed to locate address")
}

// RegisterDocuments accepts multipart "documents" files for a caregiver.
func (h *Handler) RegisterDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	// The server only cleans up the form of the request it created, not of
	// copies made by routing middleware.
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	headers := r.MultipartForm.File["documents"]
	files := make([]uploads.File, 0, len(headers))
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	for _, fh := range headers {
		if fh.Size > uploads.MaxDocumentSize {
			// No need to open the rest; the batch is rejected.
			files = append(files, uploads.File{Name: fh.Filename, Size: fh.Size})
			continue
		}
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file "+fh.Filename)
			return
		}
		closers = append(closers, f)
		files = append(files, uploads.File{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}
	_, err := h.registration.AttachDocuments(r.Context(), files)
	h.registered(w, r, err, "Upload failed")
}

func (h *Handler) RegisterIdentity(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if !decode(w, r, &req) {
		return
	}
	landing, err := h.registration.RegisterWithIdentity(r.Context(), req.Credential)
	if err != nil {
		h.fail(w, r, err, "Login failed")
		return
	}
	h.signedIn(w, landing)
}

func (h *Handler) RegisterContinue(w http.ResponseWriter, r *http.Request) {
	h.registered(w, r, h.registration.Continue(), "Registration failed")
}

func (h *Handler) RegisterCredentials(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !decode(w, r, &req) {
		return
	}
	h.registered(w, r, h.registration.SetCredentials(req.Username, req.Password), "Registration failed")
}

func (h *Handler) RegisterUsername(w http.ResponseWriter, r *http.Request) {
	available, err := h.registration.CheckUsername(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to check username")
		return
	}
	msg := "Username is available"
	if !available {
		msg = "Username already exists, please choose another"
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": available, "message": msg})
}

func (h *Handler) RegisterFamily(w http.ResponseWriter, r *http.Request) {
	if page := queryInt(r, "page"); page > 0 {
		if err := h.registration.Page(page); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, h.registration.State())
}

type searchRequest struct {
	Query string `json:"query"`
}

func (h *Handler) RegisterFamilySearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}
	h.registered(w, r, h.registration.SearchFamily(r.Context(), req.Query), "Search failed")
}

type selectRequest struct {
	ID string `json:"id"`
}

func (h *Handler) RegisterFamilySelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	h.registered(w, r, h.registration.SelectCandidate(req.ID), "Registration failed")
}

func (h *Handler) RegisterFamilyClear(w http.ResponseWriter, r *http.Request) {
	h.registered(w, r, h.registration.ClearCandidate(), "Registration failed")
}

type relationshipRequest struct {
	Relationship string `json:"relationship"`
}

func (h *Handler) RegisterRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if !decode(w, r, &req) {
		return
	}
	h.registered(w, r, h.registration.SetRelationship(req.Relationship), "Registration failed")
}

func (h *Handler) RegisterOTPSend(w http.ResponseWriter, r *http.Request) {
	h.registered(w, r, h.registration.SendOTP(r.Context()), "Failed to send OTP")
}

func (h *Handler) RegisterOTPVerify(w http.ResponseWriter, r *http.Request) {
	h.registered(w, r, h.registration.VerifyOTP(r.Context()), "Invalid OTP")
}

func (h *Handler) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	landing, err := h.registration.Register(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to register patient")
		return
	}
	h.signedIn(w, landing)
}

func (h *Handler) RegisterReset(w http.ResponseWriter, r *http.Request) {
	h.registration.Reset()
	writeJSON(w, http.StatusOK, h.registration.State())
}

// cardSource returns the OTP card an endpoint acts on.
type cardSource func() (*auth.OTPCard, error)

type otpBoxRequest struct {
	Index int    `json:"index"`
	Value string `json:"value"`
	Text  string `json:"text"`
}

func (h *Handler) withCard(src cardSource, act func(*auth.OTPCard, otpBoxRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpBoxRequest
		if !decode(w, r, &req) {
			return
		}
		card, err := src()
		if err == nil {
			err = act(card, req)
		}
		if err != nil {
			h.fail(w, r, err, "Invalid OTP")
			return
		}
		writeJSON(w, http.StatusOK, card.State())
	}
}

func (h *Handler) otpInput(src cardSource) http.HandlerFunc {
	return h.withCard(src, func(c *auth.OTPCard, req otpBoxRequest) error {
		return c.Input(req.Index, req.Value)
	})
}

func (h *Handler) otpPaste(src cardSource) http.HandlerFunc {
	return h.withCard(src, func(c *auth.OTPCard, req otpBoxRequest) error {
		return c.Paste(req.Text)
	})
}

func (h *Handler) otpBackspace(src cardSource) http.HandlerFunc {
	return h.withCard(src, func(c *auth.OTPCard, req otpBoxRequest) error {
		return c.Backspace(req.Index)
	})
}

// otpResend re-sends once the countdown has run out; before that the card
// state comes back unchanged with resent=false.
func (h *Handler) otpResend(src cardSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := src()
		if err != nil {
			h.fail(w, r, err, "Failed to resend OTP")
			return
		}
		resent, err := card.Resend(r.Context())
		if err != nil {
			h.fail(w, r, err, "Failed to resend OTP")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"resent": resent, "otp": card.State()})
	}
}
