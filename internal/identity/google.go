// Package identity pre-checks Google credentials before they are exchanged
// with the Carely backend for a session.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/wolfman30/carely-portal/pkg/logging"
)

var (
	// ErrMissingCredential is returned for an empty credential
	ErrMissingCredential = errors.New("google credential is required")

	// ErrInvalidCredential is returned when the credential fails validation
	ErrInvalidCredential = errors.New("google credential is invalid")
)

// ValidateFunc validates an ID token for an audience.
type ValidateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Identity is what the portal learns from a credential.
type Identity struct {
	Subject  string
	Email    string
	Verified bool
}

// GoogleVerifier checks ID tokens against the OAuth client id. Without a
// client id it only rejects empty credentials and leaves validation to the
// backend.
type GoogleVerifier struct {
	clientID string
	validate ValidateFunc
	logger   *logging.Logger
}

func NewGoogleVerifier(clientID string, logger *logging.Logger) *GoogleVerifier {
	return NewGoogleVerifierWithValidator(clientID, idtoken.Validate, logger)
}

func NewGoogleVerifierWithValidator(clientID string, validate ValidateFunc, logger *logging.Logger) *GoogleVerifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &GoogleVerifier{clientID: strings.TrimSpace(clientID), validate: validate, logger: logger}
}

// Enabled reports whether tokens are validated locally.
func (v *GoogleVerifier) Enabled() bool {
	return v != nil && v.clientID != "" && v.validate != nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingCredential
	}
	if !v.Enabled() {
		return &Identity{}, nil
	}
	payload, err := v.validate(ctx, credential, v.clientID)
	if err != nil {
		v.logger.Warn("google credential rejected", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	id := &Identity{Subject: payload.Subject, Verified: true}
	if email, ok := payload.Claims["email"].(string); ok {
		id.Email = email
	}
	return id, nil
}
