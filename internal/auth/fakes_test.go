package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/wolfman30/carely-portal/internal/carely"
	"github.com/wolfman30/carely-portal/internal/geocode"
	"github.com/wolfman30/carely-portal/internal/identity"
	"github.com/wolfman30/carely-portal/internal/session"
	"github.com/wolfman30/carely-portal/internal/uploads"
)

var errBackend = errors.New("backend unavailable")

type fakeAuthAPI struct {
	mu sync.Mutex

	googleRole   string
	registered   []carely.RegisterRequest
	patients     []carely.PatientRegisterRequest
	deleted      [][]string
	deleteErr    error
	otpRequests  []carely.OTPRequest
	verifiedIDs  []string
	resetTo      string
	registerErr  error
	usernames    map[string]string
	candidates   []carely.FamilyCandidate
	validCode    string
	patientLogin map[string]string

	// afterSendOTP and afterVerifyOTP run once the call has been served,
	// standing in for work that lands while the request is in flight.
	afterSendOTP   func()
	afterVerifyOTP func()
}

func newFakeAuthAPI() *fakeAuthAPI {
	return &fakeAuthAPI{
		usernames:    map[string]string{"asha": "pat-1"},
		validCode:    "123456",
		patientLogin: map[string]string{"asha": "secret"},
	}
}

func result(id string, role session.Role) *carely.AuthResult {
	return &carely.AuthResult{Token: "tok-" + id, User: session.User{ID: id, Role: role}}
}

func (f *fakeAuthAPI) GoogleLogin(ctx context.Context, credential, role string) (*carely.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.googleRole = role
	return result("g-1", session.Role(role)), nil
}

func (f *fakeAuthAPI) PatientLogin(ctx context.Context, username, password string) (*carely.AuthResult, error) {
	if f.patientLogin[username] != password {
		return nil, &carely.APIError{StatusCode: 400, Message: "invalid credentials"}
	}
	return result("pat-1", session.RolePatient), nil
}

func (f *fakeAuthAPI) ForgotPassword(ctx context.Context, username, password string) (*carely.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetTo = password
	return result("pat-1", session.RolePatient), nil
}

func (f *fakeAuthAPI) CheckUsername(ctx context.Context, username string) (*carely.UsernameCheck, error) {
	id, ok := f.usernames[username]
	return &carely.UsernameCheck{Exists: ok, UserID: id}, nil
}

func (f *fakeAuthAPI) Register(ctx context.Context, req carely.RegisterRequest) (*carely.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, req)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return result("u-1", session.Role(req.Role)), nil
}

func (f *fakeAuthAPI) RegisterPatient(ctx context.Context, req carely.PatientRegisterRequest) (*carely.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patients = append(f.patients, req)
	return result("pat-2", session.RolePatient), nil
}

func (f *fakeAuthAPI) DeleteDocuments(ctx context.Context, publicIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, publicIDs)
	return nil
}

func (f *fakeAuthAPI) SendOTP(ctx context.Context, req carely.OTPRequest) error {
	f.mu.Lock()
	f.otpRequests = append(f.otpRequests, req)
	after := f.afterSendOTP
	f.mu.Unlock()
	if after != nil {
		after()
	}
	return nil
}

func (f *fakeAuthAPI) VerifyOTP(ctx context.Context, id, code string) error {
	f.mu.Lock()
	if code != f.validCode {
		f.mu.Unlock()
		return &carely.APIError{StatusCode: 400, Message: "invalid otp"}
	}
	f.verifiedIDs = append(f.verifiedIDs, id)
	after := f.afterVerifyOTP
	f.mu.Unlock()
	if after != nil {
		after()
	}
	return nil
}

func (f *fakeAuthAPI) SearchUsers(ctx context.Context, query string) ([]carely.FamilyCandidate, error) {
	return f.candidates, nil
}

type fakeSessions struct {
	started []session.Session
}

func (f *fakeSessions) Login(ctx context.Context, s session.Session) error {
	if !s.Valid() {
		return session.ErrInvalidSession
	}
	f.started = append(f.started, s)
	return nil
}

type fakeVerifier struct{ err error }

func (f fakeVerifier) Verify(ctx context.Context, credential string) (*identity.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &identity.Identity{Subject: "sub", Verified: true}, nil
}

type fakeGeocoder struct{}

func (fakeGeocoder) Lookup(ctx context.Context, address string) (*geocode.Location, error) {
	return &geocode.Location{Lat: 12.97, Lng: 77.59, FullAddress: address, City: "Bengaluru", State: "Karnataka", Pincode: "560001"}, nil
}

type fakeUploader struct {
	uploaded []string
	deleted  [][]string
}

func (f *fakeUploader) Upload(ctx context.Context, file uploads.File) (uploads.Document, error) {
	f.uploaded = append(f.uploaded, file.Name)
	return uploads.Document{URL: "https://cdn.test/" + file.Name, PublicID: "carely/documents/" + file.Name}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, publicIDs []string) error {
	f.deleted = append(f.deleted, publicIDs)
	return nil
}
