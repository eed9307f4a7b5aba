package carely

import (
	"encoding/json"
	"time"

	"github.com/wolfman30/carely-portal/internal/session"
)

// Pagination accompanies paged list responses.
type Pagination struct {
	Page       int `json:"page,omitempty"`
	Limit      int `json:"limit,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"totalPages,omitempty"`
}

// Page is a nested paged list ({"data": [...], "pagination": {...}}).
type Page[T any] struct {
	Data       []T         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Result is the reply to actions that return no entity.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// DurationOption is one bookable length of a service.
type DurationOption struct {
	Hours float64 `json:"hours"`
	Price float64 `json:"price"`
}

// Service is a bookable caregiving offering.
type Service struct {
	ID                    string           `json:"_id"`
	Name                  string           `json:"name"`
	Description           string           `json:"description,omitempty"`
	CategoryName          string           `json:"categoryName"`
	BasePrice             float64          `json:"basePrice"`
	PricingType           string           `json:"pricingType,omitempty"`
	RequiredQualification []string         `json:"requiredQualification,omitempty"`
	DurationOptions       []DurationOption `json:"durationOptions,omitempty"`
}

// DurationFor returns the option offering exactly hours.
func (s Service) DurationFor(hours float64) (DurationOption, bool) {
	for _, opt := range s.DurationOptions {
		if opt.Hours == hours {
			return opt, true
		}
	}
	return DurationOption{}, false
}

// ServiceList is one page of the service catalog.
type ServiceList struct {
	Services   []Service `json:"services"`
	TotalPages int       `json:"totalPages"`
}

// ServiceQuery filters the catalog. Zero values are omitted.
type ServiceQuery struct {
	Search       string
	CategoryName string
	Page         int
	Limit        int
}

type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Schedule is the requested care window.
type Schedule struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	TimeSlot  string `json:"timeSlot"`
}

// BookingRequest is the payload of a booking submission.
type BookingRequest struct {
	CategoryName  string         `json:"categoryName"`
	PatientID     string         `json:"patientId"`
	ServiceID     string         `json:"serviceId"`
	Duration      DurationOption `json:"duration"`
	Schedule      Schedule       `json:"schedule"`
	PaymentMethod string         `json:"paymentMethod"`
}

type Booking struct {
	ID            string          `json:"_id"`
	Status        string          `json:"status"`
	ServiceID     json.RawMessage `json:"serviceId,omitempty"`
	PatientID     json.RawMessage `json:"patientId,omitempty"`
	CaregiverID   json.RawMessage `json:"caregiverId,omitempty"`
	CategoryName  string          `json:"categoryName,omitempty"`
	Duration      DurationOption  `json:"duration"`
	Schedule      Schedule        `json:"schedule"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	TotalPrice    float64         `json:"totalPrice,omitempty"`
	CreatedAt     *time.Time      `json:"createdAt,omitempty"`
}

// BookingStatus selects one of the user booking lists.
type BookingStatus string

const (
	BookingsAll        BookingStatus = "all"
	BookingsPending    BookingStatus = "pending"
	BookingsAccepted   BookingStatus = "accepted"
	BookingsInProgress BookingStatus = "in-progress"
	BookingsCompleted  BookingStatus = "completed"
	BookingsCancelled  BookingStatus = "cancelled"
)

// Valid reports whether s names a known list.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingsAll, BookingsPending, BookingsAccepted, BookingsInProgress, BookingsCompleted, BookingsCancelled:
		return true
	}
	return false
}

type Notification struct {
	ID        string          `json:"_id"`
	Title     string          `json:"title,omitempty"`
	Message   string          `json:"message,omitempty"`
	Type      string          `json:"type,omitempty"`
	Read      bool            `json:"isRead"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	CreatedAt *time.Time      `json:"createdAt,omitempty"`
}

type CareNote struct {
	ID         string          `json:"_id,omitempty"`
	BookingID  string          `json:"bookingId"`
	Note       string          `json:"note"`
	SenderRole string          `json:"senderRole,omitempty"`
	Vitals     json.RawMessage `json:"vitals,omitempty"`
	CreatedAt  *time.Time      `json:"createdAt,omitempty"`
}

type Transaction struct {
	ID        string     `json:"_id"`
	BookingID string     `json:"bookingId,omitempty"`
	Amount    float64    `json:"amount"`
	Method    string     `json:"paymentMethod,omitempty"`
	Status    string     `json:"status,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Account is a user, caregiver or patient as listed to admins.
type Account struct {
	ID           string  `json:"_id"`
	FirstName    string  `json:"firstName,omitempty"`
	LastName     string  `json:"lastName,omitempty"`
	Email        string  `json:"email,omitempty"`
	Username     string  `json:"username,omitempty"`
	Role         string  `json:"role,omitempty"`
	MobileNumber string  `json:"mobileNumber,omitempty"`
	IsBlocked    bool    `json:"isBlocked,omitempty"`
	IsVerified   bool    `json:"isVerified,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
}

// Coordinates is a GeoJSON point, [longitude, latitude].
type Coordinates struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type Address struct {
	FullAddress string      `json:"fullAddress"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Pincode     string      `json:"pincode"`
	Coordinates Coordinates `json:"coordinates"`
}

// DOB is a date of birth split into string parts.
type DOB struct {
	DD   string `json:"dd"`
	MM   string `json:"mm"`
	YYYY string `json:"yyyy"`
}

// VerificationDocument references an uploaded caregiver document.
type VerificationDocument struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AuthResult is returned by every login and registration endpoint.
type AuthResult struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// Session converts the result into a persistable session.
func (r AuthResult) Session() session.Session {
	return session.Session{Token: r.Token, User: r.User}
}

// RegisterRequest registers a user, family or caregiver with a Google credential.
type RegisterRequest struct {
	Token        string   `json:"token"`
	Role         string   `json:"role"`
	MobileNumber string   `json:"mobileNumber,omitempty"`
	Gender       string   `json:"gender,omitempty"`
	DOB          *DOB     `json:"dob,omitempty"`
	Address      *Address `json:"address,omitempty"`

	Qualifications          []string               `json:"qualifications,omitempty"`
	AvailabilityAndLocation []string               `json:"availabilityAndLocation,omitempty"`
	ReadyForService         *bool                  `json:"readyForService,omitempty"`
	VerificationDocuments   []VerificationDocument `json:"verificationDocuments,omitempty"`
}

type EmergencyContact struct {
	Name              string `json:"name"`
	PhoneNo           string `json:"phoneNo"`
	ResponsibleUserID string `json:"responsibleUserId"`
	Relationship      string `json:"relationship"`
}

// PatientRegisterRequest registers a patient with credentials.
type PatientRegisterRequest struct {
	FirstName         string           `json:"firstName"`
	LastName          string           `json:"lastName"`
	BloodGroup        string           `json:"bloodGroup,omitempty"`
	Allergies         []string         `json:"allergies,omitempty"`
	ChronicConditions []string         `json:"chronicConditions,omitempty"`
	MedicalNeeds      []string         `json:"medicalNeeds,omitempty"`
	EmergencyContact  EmergencyContact `json:"emergencyContact"`
	MobileNumber      string           `json:"mobileNumber"`
	Gender            string           `json:"gender"`
	DOB               DOB              `json:"dob"`
	Address           Address          `json:"address"`
	Username          string           `json:"username"`
	Password          string           `json:"password"`
}

// UsernameCheck answers whether a patient username is taken.
type UsernameCheck struct {
	Exists bool   `json:"exists"`
	UserID string `json:"userId,omitempty"`
}

// FamilyCandidate is a searchable account that can be a patient's
// responsible contact.
type FamilyCandidate struct {
	ID             string `json:"_id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email,omitempty"`
	Username       string `json:"username,omitempty"`
	MobileNumber   string `json:"mobileNumber,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

func (f FamilyCandidate) FullName() string {
	return f.FirstName + " " + f.LastName
}

// OTPRequest asks the backend to send a one-time code to account ID.
type OTPRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Condition    string `json:"condition,omitempty"`
}

// ForgotPasswordCondition marks an OTP request as a password reset.
const ForgotPasswordCondition = "forgot-password"

// Broadcast is an admin announcement.
type Broadcast struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// Audience selects who receives a broadcast.
type Audience string

const (
	AudienceUsers      Audience = "users"
	AudienceCaregivers Audience = "caregivers"
	AudienceAll        Audience = "all"
)

// TransactionRequest pays for a booking.
type TransactionRequest struct {
	BookingID     string `json:"bookingId"`
	PaymentMethod string `json:"paymentMethod"`
}

// ServiceInput creates or updates a catalog entry.
type ServiceInput struct {
	Name                  string           `json:"name"`
	Description           string           `json:"description,omitempty"`
	CategoryName          string           `json:"categoryName"`
	BasePrice             float64          `json:"basePrice"`
	PricingType           string           `json:"pricingType,omitempty"`
	RequiredQualification []string         `json:"requiredQualification,omitempty"`
	DurationOptions       []DurationOption `json:"durationOptions,omitempty"`
}
