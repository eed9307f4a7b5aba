package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wolfman30/carely-portal/internal/carely"
	"github.com/wolfman30/carely-portal/internal/session"
	"github.com/wolfman30/carely-portal/internal/uploads"
)

// Step is a registration state.
type Step string

const (
	StepRoleUnselected        Step = "role_unselected"
	StepCollectingProfile     Step = "collecting_profile"
	StepCollectingCredentials Step = "collecting_credentials"
	StepSearchingFamily       Step = "searching_family"
	StepAwaitingOTP           Step = "awaiting_otp"
	StepVerified              Step = "verified"
	StepRegistered            Step = "registered"
)

// FamilyPageSize is how many search results are shown per page.
const FamilyPageSize = 5

// Profile holds the fields collected before registering. Lists are comma
// separated as typed.
type Profile struct {
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName"`
	DOB          string         `json:"dob"`
	Gender       string         `json:"gender"`
	MobileNumber string         `json:"mobileNumber"`
	Address      carely.Address `json:"address"`

	BloodGroup        string `json:"bloodGroup,omitempty"`
	Allergies         string `json:"allergies,omitempty"`
	ChronicConditions string `json:"chronicConditions,omitempty"`
	MedicalNeeds      string `json:"medicalNeeds,omitempty"`

	Qualifications          string `json:"qualifications,omitempty"`
	AvailabilityAndLocation string `json:"availabilityAndLocation,omitempty"`
	ReadyForService         bool   `json:"readyForService,omitempty"`
}

// MissingBasics lists the empty fields a patient must fill to continue.
func (p Profile) MissingBasics() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("firstName", p.FirstName)
	check("lastName", p.LastName)
	check("dob", p.DOB)
	check("gender", p.Gender)
	check("mobileNumber", p.MobileNumber)
	check("address", p.Address.FullAddress)
	return missing
}

// RegistrationState is a snapshot of the flow for views.
type RegistrationState struct {
	Step         Step                     `json:"step"`
	Role         session.Role             `json:"role,omitempty"`
	Roles        []session.Role           `json:"roles"`
	Profile      Profile                  `json:"profile"`
	Documents    []uploads.Document       `json:"documents,omitempty"`
	Username     string                   `json:"username,omitempty"`
	HasPassword  bool                     `json:"hasPassword"`
	Query        string                   `json:"query,omitempty"`
	Candidates   []carely.FamilyCandidate `json:"candidates,omitempty"`
	Page         int                      `json:"page"`
	Pages        int                      `json:"pages"`
	Selected     *carely.FamilyCandidate  `json:"selected,omitempty"`
	Relationship string                   `json:"relationship,omitempty"`
	OTP          *OTPState                `json:"otp,omitempty"`
}

// Registration walks one sign-up from role choice to a live session.
type Registration struct {
	deps Deps

	mu           sync.Mutex
	step         Step
	role         session.Role
	profile      Profile
	documents    []uploads.Document
	username     string
	password     string
	query        string
	candidates   []carely.FamilyCandidate
	page         int
	selected     *carely.FamilyCandidate
	relationship string
	otp          *OTPCard
	stopOTP      context.CancelFunc
}

func NewRegistration(deps Deps) *Registration {
	return &Registration{deps: deps.withDefaults(), step: StepRoleUnselected}
}

func (r *Registration) SelectRole(raw string) error {
	role, err := pickRole(raw, RegistrationRoles)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.step != StepRoleUnselected {
		return fmt.Errorf("%w: role already chosen, reset to change it", ErrWrongState)
	}
	r.role = role
	r.step = StepCollectingProfile
	return nil
}

// UpdateProfile replaces the collected profile fields.
func (r *Registration) UpdateProfile(p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.step == StepRoleUnselected {
		return ErrRoleRequired
	}
	if r.step != StepCollectingProfile {
		return ErrWrongState
	}
	r.profile = p
	return nil
}

// LocateAddress fills city, state, pincode and coordinates from the typed
// full address.
func (r *Registration) LocateAddress(ctx context.Context) (carely.Address, error) {
	if r.deps.Geocoder == nil {
		return carely.Address{}, ErrGeocoderDisabled
	}
	r.mu.Lock()
	if r.step != StepCollectingProfile {
		r.mu.Unlock()
		return carely.Address{}, ErrWrongState
	}
	query := strings.TrimSpace(r.profile.Address.FullAddress)
	r.mu.Unlock()
	if query == "" {
		return carely.Address{}, &MissingProfileError{Fields: []string{"address"}}
	}

	loc, err := r.deps.Geocoder.Lookup(ctx, query)
	if err != nil {
		return carely.Address{}, fmt.Errorf("locate address: %w", err)
	}
	addr := carely.Address{
		FullAddress: query,
		City:        loc.City,
		State:       loc.State,
		Pincode:     loc.Pincode,
		Coordinates: carely.Coordinates{Type: "Point", Coordinates: []float64{loc.Lng, loc.Lat}},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.profile.Address = addr
	return addr, nil
}

// AttachDocuments uploads caregiver verification documents. Oversized files
// fail the whole batch before anything is sent.
func (r *Registration) AttachDocuments(ctx context.Context, files []uploads.File) ([]uploads.Document, error) {
	r.mu.Lock()
	role, step := r.role, r.step
	r.mu.Unlock()
	if role != session.RoleCaregiver {
		return nil, ErrDocumentsNotAllowed
	}
	if step != StepCollectingProfile {
		return nil, ErrWrongState
	}
	if err := uploads.CheckSizes(files); err != nil {
		return nil, err
	}
	if r.deps.Uploader == nil {
		return nil, ErrUploadsDisabled
	}

	docs, err := uploads.UploadAll(ctx, r.deps.Uploader, files, r.deps.Logger)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = append(r.documents, docs...)
	return append([]uploads.Document(nil), r.documents...), nil
}

// RegisterWithIdentity registers a non-patient role with a Google credential
// and returns the role's landing path. Uploaded documents are deleted when
// registration fails.
func (r *Registration) RegisterWithIdentity(ctx context.Context, credential string) (string, error) {
	ctx, span := authTracer.Start(ctx, "auth.register_identity")
	defer span.End()

	r.mu.Lock()
	role, step := r.role, r.step
	profile := r.profile
	docs := append([]uploads.Document(nil), r.documents...)
	r.mu.Unlock()

	switch {
	case step == StepRoleUnselected:
		return "", ErrRoleRequired
	case role == session.RolePatient:
		return "", ErrPatientNeedsCredentials
	case step != StepCollectingProfile:
		return "", ErrWrongState
	}
	if err := r.deps.verify(ctx, credential); err != nil {
		span.RecordError(err)
		return "", err
	}

	req := carely.RegisterRequest{
		Token:        credential,
		Role:         role.String(),
		MobileNumber: profile.MobileNumber,
		Gender:       profile.Gender,
	}
	if dob, ok := splitDOB(profile.DOB); ok {
		req.DOB = &dob
	}
	addr := profile.Address
	req.Address = &addr
	if role == session.RoleCaregiver {
		ready := profile.ReadyForService
		req.Qualifications = splitList(profile.Qualifications)
		req.AvailabilityAndLocation = splitList(profile.AvailabilityAndLocation)
		req.ReadyForService = &ready
		for _, d := range docs {
			req.VerificationDocuments = append(req.VerificationDocuments, carely.VerificationDocument{
				Name: d.Name(),
				URL:  d.URL,
			})
		}
	}

	res, err := r.deps.API.Register(ctx, req)
	if err != nil {
		span.RecordError(err)
		r.discardDocuments(ctx, docs)
		return "", err
	}
	if err := r.deps.Sessions.Login(ctx, res.Session()); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("start session: %w", err)
	}

	r.mu.Lock()
	r.step = StepRegistered
	r.documents = nil
	r.mu.Unlock()
	r.deps.Logger.Info("account registered", "role", res.User.Role, "user_id", res.User.ID)
	return LandingFor(res.User.Role), nil
}

func (r *Registration) discardDocuments(ctx context.Context, docs []uploads.Document) {
	if len(docs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	ids := uploads.PublicIDs(docs)
	if err := r.deps.API.DeleteDocuments(ctx, ids); err != nil {
		if r.deps.Uploader == nil {
			r.deps.Logger.Error("failed to delete temporary documents", "count", len(docs), "error", err)
			return
		}
		r.deps.Logger.Warn("backend document cleanup failed; deleting from storage", "count", len(docs), "error", err)
		if derr := r.deps.Uploader.Delete(ctx, ids); derr != nil {
			r.deps.Logger.Error("failed to delete temporary documents", "count", len(docs), "error", derr)
			return
		}
	}
	r.mu.Lock()
	r.documents = nil
	r.mu.Unlock()
}

// Continue moves a patient from the profile to the credentials step once
// every basic field is present.
func (r *Registration) Continue() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.step == StepRoleUnselected:
		return ErrRoleRequired
	case r.role != session.RolePatient:
		return ErrPasswordLoginPatientOnly
	case r.step != StepCollectingProfile:
		return ErrWrongState
	}
	if missing := r.profile.MissingBasics(); len(missing) > 0 {
		return &MissingProfileError{Fields: missing}
	}
	r.step = StepCollectingCredentials
	return nil
}

func (r *Registration) collectingFamily() bool {
	return r.step == StepCollectingCredentials || r.step == StepSearchingFamily
}

func (r *Registration) SetCredentials(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrCredentialsRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.collectingFamily() {
		return ErrWrongState
	}
	r.username = username
	r.password = password
	return nil
}

// CheckUsername reports whether the chosen username is free. It is advisory
// and does not gate any step.
func (r *Registration) CheckUsername(ctx context.Context) (bool, error) {
	r.mu.Lock()
	username := r.username
	r.mu.Unlock()
	if username == "" {
		return false, ErrCredentialsRequired
	}
	res, err := r.deps.API.CheckUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return !res.Exists, nil
}

// SearchFamily looks up the account responsible for the patient and shows
// the first page of results.
func (r *Registration) SearchFamily(ctx context.Context, contact string) error {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return ErrEmptySearch
	}
	r.mu.Lock()
	if !r.collectingFamily() {
		r.mu.Unlock()
		return ErrWrongState
	}
	r.mu.Unlock()

	found, err := r.deps.API.SearchUsers(ctx, contact)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.query = contact
	r.candidates = found
	r.page = 1
	r.selected = nil
	r.step = StepSearchingFamily
	if len(found) == 0 {
		return ErrNoCandidates
	}
	return nil
}

func (r *Registration) pages() int {
	return (len(r.candidates) + FamilyPageSize - 1) / FamilyPageSize
}

// Page switches the visible page of search results, counted from 1.
func (r *Registration) Page(n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.step != StepSearchingFamily {
		return ErrWrongState
	}
	if n < 1 || n > r.pages() {
		return fmt.Errorf("page %d out of range 1-%d", n, r.pages())
	}
	r.page = n
	return nil
}

func (r *Registration) SelectCandidate(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.step != StepSearchingFamily {
		return ErrWrongState
	}
	for i := range r.candidates {
		if r.candidates[i].ID == id {
			c := r.candidates[i]
			r.selected = &c
			return nil
		}
	}
	return ErrUnknownCandidate
}

func (r *Registration) ClearCandidate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.step != StepSearchingFamily {
		return ErrWrongState
	}
	r.selected = nil
	return nil
}

func (r *Registration) SetRelationship(label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.step != StepSearchingFamily {
		return ErrWrongState
	}
	r.relationship = strings.TrimSpace(label)
	return nil
}

// SendOTP asks the backend to send a code to the selected account and opens
// a fresh OTP card.
func (r *Registration) SendOTP(ctx context.Context) error {
	r.mu.Lock()
	if r.step != StepSearchingFamily {
		r.mu.Unlock()
		return ErrWrongState
	}
	if r.selected == nil || r.relationship == "" {
		r.mu.Unlock()
		return ErrNoCandidate
	}
	req := carely.OTPRequest{
		ID:           r.selected.ID,
		Name:         r.selected.FullName(),
		Relationship: r.relationship,
	}
	r.mu.Unlock()

	if err := r.deps.API.SendOTP(ctx, req); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// The flow may have been reset or moved to another account while the
	// code was being sent.
	if r.step != StepSearchingFamily || r.selected == nil || r.selected.ID != req.ID {
		r.deps.Logger.Info("discarding otp send for a stale registration", "account_id", req.ID)
		return ErrWrongState
	}
	card, stop := r.deps.startOTP(
		func(ctx context.Context, code string) error { return r.deps.API.VerifyOTP(ctx, req.ID, code) },
		func(ctx context.Context) error { return r.deps.API.SendOTP(ctx, req) },
	)
	if r.stopOTP != nil {
		r.stopOTP()
	}
	r.otp = card
	r.stopOTP = stop
	r.step = StepAwaitingOTP
	return nil
}

// OTP returns the open card.
func (r *Registration) OTP() (*OTPCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.otp == nil {
		return nil, ErrOTPNotSent
	}
	return r.otp, nil
}

// VerifyOTP submits the card's code and marks the linkage verified.
func (r *Registration) VerifyOTP(ctx context.Context) error {
	card, err := r.OTP()
	if err != nil {
		return err
	}
	if err := card.Verify(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.step == StepAwaitingOTP {
		r.step = StepVerified
	}
	return nil
}

// Register submits a verified patient registration and returns the landing
// path.
func (r *Registration) Register(ctx context.Context) (string, error) {
	ctx, span := authTracer.Start(ctx, "auth.register_patient")
	defer span.End()

	r.mu.Lock()
	if r.step != StepVerified || r.selected == nil {
		r.mu.Unlock()
		return "", ErrOTPNotVerified
	}
	if r.username == "" || r.password == "" {
		r.mu.Unlock()
		return "", ErrCredentialsRequired
	}
	req := r.patientRequest()
	r.mu.Unlock()

	res, err := r.deps.API.RegisterPatient(ctx, req)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if err := r.deps.Sessions.Login(ctx, res.Session()); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("start session: %w", err)
	}

	r.mu.Lock()
	r.step = StepRegistered
	r.stopCountdown()
	r.mu.Unlock()
	r.deps.Logger.Info("patient registered", "user_id", res.User.ID)
	return LandingFor(session.RolePatient), nil
}

func (r *Registration) patientRequest() carely.PatientRegisterRequest {
	p := r.profile
	dob, _ := splitDOB(p.DOB)
	return carely.PatientRegisterRequest{
		FirstName:         p.FirstName,
		LastName:          p.LastName,
		BloodGroup:        p.BloodGroup,
		Allergies:         splitList(p.Allergies),
		ChronicConditions: splitList(p.ChronicConditions),
		MedicalNeeds:      splitList(p.MedicalNeeds),
		EmergencyContact: carely.EmergencyContact{
			Name:              r.selected.FullName(),
			PhoneNo:           r.selected.MobileNumber,
			ResponsibleUserID: r.selected.ID,
			Relationship:      r.relationship,
		},
		MobileNumber: p.MobileNumber,
		Gender:       p.Gender,
		DOB:          dob,
		Address:      p.Address,
		Username:     r.username,
		Password:     r.password,
	}
}

func (r *Registration) stopCountdown() {
	if r.stopOTP != nil {
		r.stopOTP()
		r.stopOTP = nil
	}
}

// Reset discards everything collected and returns to role selection.
// Uploaded documents are forgotten, not deleted.
func (r *Registration) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopCountdown()
	r.step = StepRoleUnselected
	r.role = ""
	r.profile = Profile{}
	r.documents = nil
	r.username, r.password = "", ""
	r.query = ""
	r.candidates = nil
	r.page = 0
	r.selected = nil
	r.relationship = ""
	r.otp = nil
}

func (r *Registration) State() RegistrationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := RegistrationState{
		Step:         r.step,
		Role:         r.role,
		Roles:        RegistrationRoles,
		Profile:      r.profile,
		Documents:    append([]uploads.Document(nil), r.documents...),
		Username:     r.username,
		HasPassword:  r.password != "",
		Query:        r.query,
		Page:         r.page,
		Pages:        r.pages(),
		Relationship: r.relationship,
	}
	if r.page > 0 {
		start := (r.page - 1) * FamilyPageSize
		end := min(start+FamilyPageSize, len(r.candidates))
		if start < end {
			st.Candidates = append([]carely.FamilyCandidate(nil), r.candidates[start:end]...)
		}
	}
	if r.selected != nil {
		c := *r.selected
		st.Selected = &c
	}
	if r.otp != nil {
		otp := r.otp.State()
		st.OTP = &otp
	}
	return st
}

// IsValidation reports whether err is a local flow error rather than an API
// failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrRoleRequired, ErrRoleNotOffered, ErrWrongState, ErrPatientNeedsCredentials,
		ErrPasswordLoginPatientOnly, ErrProfileIncomplete, ErrCredentialsRequired, ErrEmptySearch,
		ErrNoCandidates, ErrUnknownCandidate, ErrNoCandidate, ErrOTPNotVerified, ErrDocumentsNotAllowed,
		ErrUnknownUsername, ErrInvalidOTPInput, ErrOTPIncomplete, ErrOTPNotSent,
		uploads.ErrFileTooLarge, uploads.ErrNoFiles,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
