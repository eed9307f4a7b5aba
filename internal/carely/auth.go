package carely

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AuthAPI covers login, registration and one-time codes.
type AuthAPI struct {
	c *Client
}

// GoogleLogin exchanges a Google credential for a session. Used by every
// role except patient.
func (a *AuthAPI) GoogleLogin(ctx context.Context, credential, role string) (*AuthResult, error) {
	var res AuthResult
	body := map[string]string{"token": credential, "role": role}
	if err := a.c.doJSON(ctx, "auth", http.MethodPost, "/api/auth/google", body, &res); err != nil {
		return nil, fmt.Errorf("google login: %w", err)
	}
	return &res, nil
}

// PatientLogin signs a patient in with username and password.
func (a *AuthAPI) PatientLogin(ctx context.Context, username, password string) (*AuthResult, error) {
	var res AuthResult
	body := map[string]string{"username": username, "password": password}
	if err := a.c.doJSON(ctx, "auth", http.MethodPost, "/api/auth/patient-login", body, &res); err != nil {
		return nil, fmt.Errorf("patient login: %w", err)
	}
	return &res, nil
}

// ForgotPassword sets a new patient password after OTP verification.
func (a *AuthAPI) ForgotPassword(ctx context.Context, username, password string) (*AuthResult, error) {
	var res AuthResult
	body := map[string]string{"username": username, "password": password}
	if err := a.c.doJSON(ctx, "auth", http.MethodPost, "/api/auth/forgot-password", body, &res); err != nil {
		return nil, fmt.Errorf("forgot password: %w", err)
	}
	return &res, nil
}

func (a *AuthAPI) CheckUsername(ctx context.Context, username string) (*UsernameCheck, error) {
	var res UsernameCheck
	path := "/api/auth/check-username/" + url.PathEscape(username)
	if err := a.c.doJSON(ctx, "auth", http.MethodGet, path, nil, &res); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	return &res, nil
}

// Register creates a user, family or caregiver account.
func (a *AuthAPI) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var res AuthResult
	if err := a.c.doJSON(ctx, "auth", http.MethodPost, "/api/auth/register", req, &res); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &res, nil
}

func (a *AuthAPI) RegisterPatient(ctx context.Context, req PatientRegisterRequest) (*AuthResult, error) {
	var res AuthResult
	if err := a.c.doJSON(ctx, "auth", http.MethodPost, "/api/auth/register/patient", req, &res); err != nil {
		return nil, fmt.Errorf("register patient: %w", err)
	}
	return &res, nil
}

// DeleteDocuments removes uploaded verification documents by public id.
func (a *AuthAPI) DeleteDocuments(ctx context.Context, publicIDs []string) error {
	body := map[string][]string{"publicIds": publicIDs}
	if _, err := action(ctx, a.c, "auth", http.MethodPost, "/api/auth/delete-documents", body); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

func (a *AuthAPI) SendOTP(ctx context.Context, req OTPRequest) error {
	if _, err := action(ctx, a.c, "auth", http.MethodPost, "/api/auth/send/otp", req); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

// VerifyOTP checks code against the one sent to account id.
func (a *AuthAPI) VerifyOTP(ctx context.Context, id, code string) error {
	path := "/api/auth/check/otp/" + url.PathEscape(id)
	if _, err := action(ctx, a.c, "auth", http.MethodPost, path, map[string]string{"otp": code}); err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	return nil
}

// SearchUsers finds accounts that can be a patient's responsible contact.
func (a *AuthAPI) SearchUsers(ctx context.Context, query string) ([]FamilyCandidate, error) {
	path := "/api/auth/search/" + url.PathEscape(query)
	out, err := call[[]FamilyCandidate](ctx, a.c, "auth", http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return out, nil
}

func (a *AuthAPI) Logout(ctx context.Context) error {
	if _, err := action(ctx, a.c, "auth", http.MethodPost, "/api/auth/logout", nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
