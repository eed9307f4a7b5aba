package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wolfman30/carely-portal/internal/carely"
	"github.com/wolfman30/carely-portal/internal/session"
)

// ResetStage tracks a patient's forgot-password progress.
type ResetStage string

const (
	ResetIdle         ResetStage = ""
	ResetUserVerified ResetStage = "username_verified"
	ResetCodeSent     ResetStage = "code_sent"
	ResetCodeVerified ResetStage = "code_verified"
)

// LoginState is a snapshot of the login view.
type LoginState struct {
	Role          session.Role   `json:"role,omitempty"`
	Roles         []session.Role `json:"roles"`
	UsesPassword  bool           `json:"usesPassword"`
	Reset         ResetStage     `json:"reset,omitempty"`
	ResetUsername string         `json:"resetUsername,omitempty"`
	OTP           *OTPState      `json:"otp,omitempty"`
}

// Login signs an existing account in. Patients use username and password,
// every other role a Google credential.
type Login struct {
	deps Deps

	mu       sync.Mutex
	role     session.Role
	stage    ResetStage
	username string
	userID   string
	otp      *OTPCard
	stopOTP  context.CancelFunc
}

func NewLogin(deps Deps) *Login {
	return &Login{deps: deps.withDefaults()}
}

// SelectRole may be called at any time; it abandons a password reset.
func (l *Login) SelectRole(raw string) error {
	role, err := pickRole(raw, LoginRoles)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearReset()
	l.role = role
	return nil
}

func (l *Login) currentRole() (session.Role, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.role == "" {
		return "", ErrRoleRequired
	}
	return l.role, nil
}

func (l *Login) start(ctx context.Context, res *carely.AuthResult) (string, error) {
	if err := l.deps.Sessions.Login(ctx, res.Session()); err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	l.deps.Logger.Info("signed in", "role", res.User.Role, "user_id", res.User.ID)
	return LandingFor(res.User.Role), nil
}

// WithIdentity signs a non-patient role in and returns its landing path.
func (l *Login) WithIdentity(ctx context.Context, credential string) (string, error) {
	ctx, span := authTracer.Start(ctx, "auth.login_identity")
	defer span.End()

	role, err := l.currentRole()
	if err != nil {
		return "", err
	}
	if role == session.RolePatient {
		return "", ErrPatientNeedsCredentials
	}
	if err := l.deps.verify(ctx, credential); err != nil {
		span.RecordError(err)
		return "", err
	}
	res, err := l.deps.API.GoogleLogin(ctx, credential, role.String())
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return l.start(ctx, res)
}

// WithPassword signs a patient in.
func (l *Login) WithPassword(ctx context.Context, username, password string) (string, error) {
	ctx, span := authTracer.Start(ctx, "auth.login_password")
	defer span.End()

	role, err := l.currentRole()
	if err != nil {
		return "", err
	}
	if role != session.RolePatient {
		return "", ErrPasswordLoginPatientOnly
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrCredentialsRequired
	}
	res, err := l.deps.API.PatientLogin(ctx, username, password)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return l.start(ctx, res)
}

// VerifyUsername starts a password reset for an existing patient account.
func (l *Login) VerifyUsername(ctx context.Context, username string) error {
	role, err := l.currentRole()
	if err != nil {
		return err
	}
	if role != session.RolePatient {
		return ErrPasswordLoginPatientOnly
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrCredentialsRequired
	}
	res, err := l.deps.API.CheckUsername(ctx, username)
	if err != nil {
		return err
	}
	if !res.Exists || res.UserID == "" {
		return ErrUnknownUsername
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearReset()
	l.stage = ResetUserVerified
	l.username = username
	l.userID = res.UserID
	return nil
}

// SendResetCode sends a forgot-password code and opens an OTP card.
func (l *Login) SendResetCode(ctx context.Context) error {
	l.mu.Lock()
	if l.stage == ResetIdle {
		l.mu.Unlock()
		return ErrUnknownUsername
	}
	req := carely.OTPRequest{ID: l.userID, Name: l.username, Condition: carely.ForgotPasswordCondition}
	l.mu.Unlock()

	if err := l.deps.API.SendOTP(ctx, req); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stage == ResetIdle || l.userID != req.ID {
		return ErrWrongState
	}
	card, stop := l.deps.startOTP(
		func(ctx context.Context, code string) error { return l.deps.API.VerifyOTP(ctx, req.ID, code) },
		func(ctx context.Context) error { return l.deps.API.SendOTP(ctx, req) },
	)
	if l.stopOTP != nil {
		l.stopOTP()
	}
	l.otp = card
	l.stopOTP = stop
	l.stage = ResetCodeSent
	return nil
}

func (l *Login) ResetOTP() (*OTPCard, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.otp == nil {
		return nil, ErrOTPNotSent
	}
	return l.otp, nil
}

func (l *Login) VerifyResetCode(ctx context.Context) error {
	card, err := l.ResetOTP()
	if err != nil {
		return err
	}
	if err := card.Verify(ctx); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	// A reset or a newer code replaced the card while it was verifying.
	if l.otp != card {
		return ErrWrongState
	}
	l.stage = ResetCodeVerified
	return nil
}

// ResetPassword sets a new password once the code is verified and signs the
// patient in with it.
func (l *Login) ResetPassword(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrCredentialsRequired
	}
	l.mu.Lock()
	if l.stage != ResetCodeVerified {
		l.mu.Unlock()
		return "", ErrOTPNotVerified
	}
	username := l.username
	l.mu.Unlock()

	res, err := l.deps.API.ForgotPassword(ctx, username, password)
	if err != nil {
		return "", err
	}
	landing, err := l.start(ctx, res)
	if err != nil {
		return "", err
	}
	l.mu.Lock()
	l.clearReset()
	l.mu.Unlock()
	return landing, nil
}

func (l *Login) clearReset() {
	if l.stopOTP != nil {
		l.stopOTP()
		l.stopOTP = nil
	}
	l.stage = ResetIdle
	l.username = ""
	l.userID = ""
	l.otp = nil
}

func (l *Login) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearReset()
	l.role = ""
}

func (l *Login) State() LoginState {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := LoginState{
		Role:          l.role,
		Roles:         LoginRoles,
		UsesPassword:  l.role == session.RolePatient,
		Reset:         l.stage,
		ResetUsername: l.username,
	}
	if l.otp != nil {
		otp := l.otp.State()
		st.OTP = &otp
	}
	return st
}
