package bookings

import (
	"strings"

	"github.com/wolfman30/carely-portal/internal/carely"
)

// PaymentMethod is how the user intends to pay.
type PaymentMethod string

const (
	PaymentUPI  PaymentMethod = "upi"
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentUPI, PaymentCard, PaymentCash:
		return m, nil
	}
	return "", ErrInvalidPaymentMethod
}

// Schedule field names accepted by SetSchedule.
const (
	FieldStartDate = "startDate"
	FieldEndDate   = "endDate"
	FieldStartTime = "startTime"
	FieldEndTime   = "endTime"
)

// Schedule is the requested window. The time slot label is derived only
// when the draft is submitted.
type Schedule struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Draft is the booking being composed.
type Draft struct {
	CategoryName  string                `json:"categoryName"`
	PatientID     string                `json:"patientId"`
	ServiceID     string                `json:"serviceId"`
	Duration      carely.DurationOption `json:"duration"`
	Schedule      Schedule              `json:"schedule"`
	PaymentMethod PaymentMethod         `json:"paymentMethod"`
}

// NewDraft returns an empty draft paying by UPI.
func NewDraft() Draft {
	return Draft{PaymentMethod: PaymentUPI}
}

// ValidTimeDuration applies IsValidTimeDuration to the draft.
func (d Draft) ValidTimeDuration() bool {
	return IsValidTimeDuration(d.Schedule.StartTime, d.Schedule.EndTime, d.Duration.Hours)
}

// MissingFields lists empty required fields in a stable order.
func (d Draft) MissingFields() []string {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check("categoryName", d.CategoryName)
	check("patientId", d.PatientID)
	if d.Duration.Hours == 0 {
		missing = append(missing, "duration.hours")
	}
	check("schedule.startDate", d.Schedule.StartDate)
	check("schedule.endDate", d.Schedule.EndDate)
	check("schedule.startTime", d.Schedule.StartTime)
	check("schedule.endTime", d.Schedule.EndTime)
	return missing
}

// Validate checks the duration first, then completeness.
func (d Draft) Validate() error {
	if !d.ValidTimeDuration() {
		return &DurationError{Hours: d.Duration.Hours}
	}
	if missing := d.MissingFields(); len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// Request builds the submission payload with the derived time slot.
func (d Draft) Request() carely.BookingRequest {
	return carely.BookingRequest{
		CategoryName: d.CategoryName,
		PatientID:    d.PatientID,
		ServiceID:    d.ServiceID,
		Duration:     d.Duration,
		Schedule: carely.Schedule{
			StartDate: d.Schedule.StartDate,
			EndDate:   d.Schedule.EndDate,
			StartTime: d.Schedule.StartTime,
			EndTime:   d.Schedule.EndTime,
			TimeSlot:  TimeSlot(d.Schedule.StartTime, d.Schedule.EndTime),
		},
		PaymentMethod: string(d.PaymentMethod),
	}
}
