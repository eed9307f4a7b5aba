package bookings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/carely-portal/internal/carely"
	"github.com/wolfman30/carely-portal/internal/observability/metrics"
	"github.com/wolfman30/carely-portal/internal/session"
	"github.com/wolfman30/carely-portal/pkg/logging"
)

var bookingsTracer = otel.Tracer("carely.internal.bookings")

// API is the slice of the Carely client the composer needs.
type API interface {
	Service(ctx context.Context, id string) (*carely.Service, error)
	BookService(ctx context.Context, req carely.BookingRequest) (*carely.Booking, error)
}

type clientAPI struct {
	client *carely.Client
}

// ClientAPI adapts a Carely client to API.
func ClientAPI(client *carely.Client) API {
	return clientAPI{client: client}
}

func (a clientAPI) Service(ctx context.Context, id string) (*carely.Service, error) {
	return a.client.Common.Service(ctx, id)
}

func (a clientAPI) BookService(ctx context.Context, req carely.BookingRequest) (*carely.Booking, error) {
	return a.client.User.BookService(ctx, req)
}

// State is a snapshot of the composer.
type State struct {
	ServiceOpen      bool                    `json:"serviceOpen"`
	ServiceID        string                  `json:"serviceId,omitempty"`
	Loading          bool                    `json:"loading"`
	Details          *carely.Service         `json:"details,omitempty"`
	SelectedDuration *carely.DurationOption  `json:"selectedDuration,omitempty"`
	ShowBookingCard  bool                    `json:"showBookingCard"`
	Draft            Draft                   `json:"draft"`
	Patients         []session.LinkedPatient `json:"patients"`
	Valid            bool                    `json:"valid"`
}

// Composer owns the single booking draft of the portal. Network calls
// run without the lock held; the response that lands last wins.
type Composer struct {
	api     API
	metrics *metrics.BookingMetrics
	logger  *logging.Logger

	mu               sync.Mutex
	serviceOpen      bool
	serviceID        string
	loading          bool
	details          *carely.Service
	selectedDuration *carely.DurationOption
	showBookingCard  bool
	draft            Draft
	patients         []session.LinkedPatient
}

// NewComposer constructs an idle composer.
func NewComposer(api API, m *metrics.BookingMetrics, logger *logging.Logger) *Composer {
	if api == nil {
		panic("bookings: api required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Composer{api: api, metrics: m, logger: logger, draft: NewDraft()}
}

// OpenService shows a service and loads its details. A fresh draft is
// started. On fetch failure the view stays open without details.
func (c *Composer) OpenService(ctx context.Context, id string) error {
	c.mu.Lock()
	c.serviceOpen = true
	c.serviceID = id
	c.loading = true
	c.details = nil
	c.selectedDuration = nil
	c.showBookingCard = false
	c.draft = NewDraft()
	c.mu.Unlock()

	svc, err := c.api.Service(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.logger.Warn("service details unavailable", "service_id", id, "error", err)
		return fmt.Errorf("load service %s: %w", id, err)
	}
	c.details = svc
	return nil
}

// CloseService dismisses the details view.
func (c *Composer) CloseService() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serviceOpen = false
	c.serviceID = ""
	c.details = nil
	c.loading = false
}

// SetPatients replaces the patients the user may book for.
func (c *Composer) SetPatients(patients []session.LinkedPatient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patients = append([]session.LinkedPatient(nil), patients...)
}

// SelectDuration picks one of the open service's duration options.
func (c *Composer) SelectDuration(hours float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.details == nil {
		return ErrNoServiceOpen
	}
	opt, ok := c.details.DurationFor(hours)
	if !ok {
		return ErrUnknownDuration
	}
	c.selectedDuration = &opt
	c.draft.Duration = opt
	return nil
}

// OpenBookingCard starts booking the open service with the chosen duration.
func (c *Composer) OpenBookingCard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.details == nil {
		return ErrNoServiceOpen
	}
	if c.selectedDuration == nil {
		return ErrNoDurationSelected
	}
	c.draft.CategoryName = c.details.CategoryName
	c.draft.ServiceID = c.details.ID
	c.showBookingCard = true
	return nil
}

func (c *Composer) CloseBookingCard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showBookingCard = false
}

// SelectPatient sets the patient the booking is for.
func (c *Composer) SelectPatient(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.linkedLocked(id) {
		return ErrUnknownPatient
	}
	c.draft.PatientID = id
	return nil
}

func (c *Composer) linked(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.linkedLocked(id)
}

func (c *Composer) linkedLocked(id string) bool {
	if id == "" {
		return false
	}
	for _, p := range c.patients {
		if p.Key() == id {
			return true
		}
	}
	return false
}

// SetSchedule updates one schedule field. Validity is recomputed on read.
func (c *Composer) SetSchedule(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch field {
	case FieldStartDate:
		c.draft.Schedule.StartDate = value
	case FieldEndDate:
		c.draft.Schedule.EndDate = value
	case FieldStartTime:
		c.draft.Schedule.StartTime = value
	case FieldEndTime:
		c.draft.Schedule.EndTime = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

func (c *Composer) SetPaymentMethod(method string) error {
	m, err := ParsePaymentMethod(method)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.PaymentMethod = m
	return nil
}

// Valid reports whether the draft's time slot matches its duration.
func (c *Composer) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.ValidTimeDuration()
}

// Submit validates the draft locally and sends it. Validation failures
// never reach the network, including a patient that is no longer linked. On success the composer returns to its idle
// state; on failure the draft is kept for another attempt.
func (c *Composer) Submit(ctx context.Context) (*carely.Booking, error) {
	c.mu.Lock()
	draft := c.draft
	c.mu.Unlock()

	if err := draft.Validate(); err != nil {
		outcome := "rejected_incomplete"
		if errors.Is(err, ErrDurationMismatch) {
			outcome = "rejected_duration"
		}
		c.metrics.ObserveSubmission(outcome)
		return nil, err
	}
	if !c.linked(draft.PatientID) {
		c.metrics.ObserveSubmission("rejected_patient")
		return nil, ErrUnknownPatient
	}

	ctx, span := bookingsTracer.Start(ctx, "bookings.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("carely.service_id", draft.ServiceID),
		attribute.Float64("carely.duration_hours", draft.Duration.Hours),
	)

	booking, err := c.api.BookService(ctx, draft.Request())
	if err != nil {
		span.RecordError(err)
		c.metrics.ObserveSubmission("failed")
		c.logger.Error("booking submission failed", "service_id", draft.ServiceID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	c.metrics.ObserveSubmission("submitted")
	c.logger.Info("booking submitted", "service_id", draft.ServiceID, "patient_id", draft.PatientID)
	return booking, nil
}

// Reset discards the draft, closes every view and forgets the linked
// patients. Used when the session ends.
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.patients = nil
}

func (c *Composer) resetLocked() {
	c.serviceOpen = false
	c.serviceID = ""
	c.loading = false
	c.details = nil
	c.selectedDuration = nil
	c.showBookingCard = false
	c.draft = NewDraft()
}

func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		ServiceOpen:     c.serviceOpen,
		ServiceID:       c.serviceID,
		Loading:         c.loading,
		ShowBookingCard: c.showBookingCard,
		Draft:           c.draft,
		Patients:        append([]session.LinkedPatient(nil), c.patients...),
		Valid:           c.draft.ValidTimeDuration(),
	}
	if c.details != nil {
		d := *c.details
		st.Details = &d
	}
	if c.selectedDuration != nil {
		d := *c.selectedDuration
		st.SelectedDuration = &d
	}
	return st
}
