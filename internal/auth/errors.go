package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRoleRequired is returned when an action needs a selected role
	ErrRoleRequired = errors.New("select role first")

	// ErrRoleNotOffered is returned for roles outside the offered set
	ErrRoleNotOffered = errors.New("role is not offered here")

	// ErrWrongState is returned when an action does not fit the current step
	ErrWrongState = errors.New("action not available at this step")

	// ErrPatientNeedsCredentials is returned when a patient tries a Google flow
	ErrPatientNeedsCredentials = errors.New("patients sign in with username and password")

	// ErrPasswordLoginPatientOnly is returned when a non-patient tries a password flow
	ErrPasswordLoginPatientOnly = errors.New("username and password sign-in is for patients")

	// ErrProfileIncomplete is returned when required profile fields are empty
	ErrProfileIncomplete = errors.New("please fill all required fields")

	// ErrCredentialsRequired is returned when username or password is empty
	ErrCredentialsRequired = errors.New("please enter username and password")

	// ErrEmptySearch is returned for an empty family search
	ErrEmptySearch = errors.New("enter username or email to search")

	// ErrNoCandidates is returned when a search found nobody
	ErrNoCandidates = errors.New("no user found with that username/email")

	// ErrUnknownCandidate is returned when selecting an id not in the results
	ErrUnknownCandidate = errors.New("user is not in the search results")

	// ErrNoCandidate is returned when sending an OTP without a selection or relationship
	ErrNoCandidate = errors.New("select a user and relationship to send OTP")

	// ErrOTPNotVerified is returned when registering before OTP verification
	ErrOTPNotVerified = errors.New("verify the OTP first")

	// ErrDocumentsNotAllowed is returned when a non-caregiver attaches documents
	ErrDocumentsNotAllowed = errors.New("only caregivers upload verification documents")

	// ErrUploadsDisabled is returned when no document store is configured
	ErrUploadsDisabled = errors.New("document uploads are not configured")

	// ErrGeocoderDisabled is returned when no geocoder is configured
	ErrGeocoderDisabled = errors.New("address lookup is not configured")

	// ErrUnknownUsername is returned when a reset is requested for a missing account
	ErrUnknownUsername = errors.New("username not found")

	// ErrInvalidOTPInput is returned for non-digit OTP input
	ErrInvalidOTPInput = errors.New("otp accepts digits only")

	// ErrOTPIncomplete is returned when verifying a partial code
	ErrOTPIncomplete = errors.New("please enter complete OTP")

	// ErrOTPNotSent is returned when there is no code to act on
	ErrOTPNotSent = errors.New("no OTP has been sent")
)

// MissingProfileError lists the empty required profile fields.
type MissingProfileError struct {
	Fields []string
}

func (e *MissingProfileError) Error() string {
	return fmt.Sprintf("%s: %s", ErrProfileIncomplete, strings.Join(e.Fields, ", "))
}

func (e *MissingProfileError) Is(target error) bool {
	return target == ErrProfileIncomplete
}
