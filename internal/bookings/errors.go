package bookings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrDurationMismatch is returned when the time slot does not span the selected duration
	ErrDurationMismatch = errors.New("time slot does not match the selected duration")

	// ErrIncompleteDraft is returned when required booking fields are empty
	ErrIncompleteDraft = errors.New("please fill booking details")

	// ErrNoServiceOpen is returned when an action needs loaded service details
	ErrNoServiceOpen = errors.New("no service is open")

	// ErrUnknownDuration is returned for hours the service does not offer
	ErrUnknownDuration = errors.New("duration is not offered by this service")

	// ErrNoDurationSelected is returned when opening the booking card without a duration
	ErrNoDurationSelected = errors.New("select a duration first")

	// ErrUnknownPatient is returned for a patient not linked to the session user
	ErrUnknownPatient = errors.New("patient is not linked to this account")

	// ErrUnknownField is returned by SetSchedule for fields outside the schedule
	ErrUnknownField = errors.New("unknown schedule field")

	// ErrInvalidPaymentMethod is returned for methods other than upi, card and cash
	ErrInvalidPaymentMethod = errors.New("payment method must be upi, card or cash")

	// ErrSubmitFailed wraps backend failures of a booking submission
	ErrSubmitFailed = errors.New("booking request failed")
)

// DurationError reports the hours a time slot must span.
type DurationError struct {
	Hours float64
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("time slot must be exactly %s hours", strconv.FormatFloat(e.Hours, 'f', -1, 64))
}

func (e *DurationError) Is(target error) bool {
	return target == ErrDurationMismatch
}

// MissingFieldsError lists the empty required fields of a draft.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "please fill booking details: " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrIncompleteDraft
}

// IsValidation reports whether err was raised locally, before any request.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrDurationMismatch, ErrIncompleteDraft, ErrNoServiceOpen, ErrUnknownDuration,
		ErrNoDurationSelected, ErrUnknownPatient, ErrUnknownField, ErrInvalidPaymentMethod,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
