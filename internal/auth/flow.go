// Package auth implements the registration and login flows, the role
// landing paths and the OTP card.
package auth

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/wolfman30/carely-portal/internal/carely"
	"github.com/wolfman30/carely-portal/internal/geocode"
	"github.com/wolfman30/carely-portal/internal/identity"
	"github.com/wolfman30/carely-portal/internal/session"
	"github.com/wolfman30/carely-portal/internal/uploads"
	"github.com/wolfman30/carely-portal/pkg/logging"
)

var authTracer = otel.Tracer("carely.internal.auth")

// API is the slice of the Carely auth endpoints the flows use.
// *carely.AuthAPI satisfies it.
type API interface {
	GoogleLogin(ctx context.Context, credential, role string) (*carely.AuthResult, error)
	PatientLogin(ctx context.Context, username, password string) (*carely.AuthResult, error)
	ForgotPassword(ctx context.Context, username, password string) (*carely.AuthResult, error)
	CheckUsername(ctx context.Context, username string) (*carely.UsernameCheck, error)
	Register(ctx context.Context, req carely.RegisterRequest) (*carely.AuthResult, error)
	RegisterPatient(ctx context.Context, req carely.PatientRegisterRequest) (*carely.AuthResult, error)
	DeleteDocuments(ctx context.Context, publicIDs []string) error
	SendOTP(ctx context.Context, req carely.OTPRequest) error
	VerifyOTP(ctx context.Context, id, code string) error
	SearchUsers(ctx context.Context, query string) ([]carely.FamilyCandidate, error)
}

// SessionStarter persists a new session. *session.Manager satisfies it.
type SessionStarter interface {
	Login(ctx context.Context, s session.Session) error
}

// Verifier pre-checks a Google credential.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*identity.Identity, error)
}

// Geocoder resolves a typed address.
type Geocoder interface {
	Lookup(ctx context.Context, address string) (*geocode.Location, error)
}

// Deps are shared by the registration and login flows. Verifier, Geocoder
// and Uploader are optional.
type Deps struct {
	API      API
	Sessions SessionStarter
	Verifier Verifier
	Geocoder Geocoder
	Uploader uploads.Uploader
	Logger   *logging.Logger

	// ManualCountdown leaves OTP cards for the caller to Tick.
	ManualCountdown bool
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.Default()
	}
	return d
}

func (d Deps) verify(ctx context.Context, credential string) error {
	if strings.TrimSpace(credential) == "" {
		return identity.ErrMissingCredential
	}
	if d.Verifier == nil {
		return nil
	}
	_, err := d.Verifier.Verify(ctx, credential)
	return err
}

// startOTP creates a card and, unless the countdown is manual, its ticker.
func (d Deps) startOTP(verify OTPVerifyFunc, resend OTPResendFunc) (*OTPCard, context.CancelFunc) {
	card := NewOTPCard(DefaultOTPLength, verify, resend)
	if d.ManualCountdown {
		return card, func() {}
	}
	return card, card.Start(context.Background())
}

// splitList turns "a, b,,c" into [a b c].
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// splitDOB turns YYYY-MM-DD into day, month and year parts.
func splitDOB(dob string) (carely.DOB, bool) {
	parts := strings.Split(strings.TrimSpace(dob), "-")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return carely.DOB{}, false
	}
	return carely.DOB{DD: parts[2], MM: parts[1], YYYY: parts[0]}, true
}
