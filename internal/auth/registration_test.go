package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/carely-portal/internal/carely"
	"github.com/wolfman30/carely-portal/internal/identity"
	"github.com/wolfman30/carely-portal/internal/session"
	"github.com/wolfman30/carely-portal/internal/uploads"
)

func patientProfile() Profile {
	return Profile{
		FirstName:    "Asha",
		LastName:     "Rao",
		DOB:          "1950-04-09",
		Gender:       "female",
		MobileNumber: "9876543210",
		Address:      carely.Address{FullAddress: "12 MG Road, Bengaluru"},
		Allergies:    "penicillin, , dust",
	}
}

func newTestRegistration(t *testing.T) (*Registration, *fakeAuthAPI, *fakeSessions) {
	t.Helper()
	api := newFakeAuthAPI()
	sessions := &fakeSessions{}
	reg := NewRegistration(Deps{API: api, Sessions: sessions, ManualCountdown: true})
	t.Cleanup(reg.Reset)
	return reg, api, sessions
}

func TestRegistration_SelectRole(t *testing.T) {
	reg, _, _ := newTestRegistration(t)

	require.ErrorIs(t, reg.SelectRole(""), ErrRoleRequired)
	require.ErrorIs(t, reg.SelectRole("admin"), ErrRoleNotOffered)
	require.ErrorIs(t, reg.UpdateProfile(patientProfile()), ErrRoleRequired)

	require.NoError(t, reg.SelectRole("Patient"))
	assert.Equal(t, StepCollectingProfile, reg.State().Step)
	assert.Equal(t, session.RolePatient, reg.State().Role)

	require.ErrorIs(t, reg.SelectRole("user"), ErrWrongState, "role changes need a reset")

	reg.Reset()
	require.NoError(t, reg.SelectRole("user"))
}

func TestRegistration_ContinueRequiresEveryBasicField(t *testing.T) {
	blanks := map[string]func(*Profile){
		"firstName":    func(p *Profile) { p.FirstName = "" },
		"lastName":     func(p *Profile) { p.LastName = "" },
		"dob":          func(p *Profile) { p.DOB = "" },
		"gender":       func(p *Profile) { p.Gender = "" },
		"mobileNumber": func(p *Profile) { p.MobileNumber = " " },
		"address":      func(p *Profile) { p.Address.FullAddress = "" },
	}
	for field, blank := range blanks {
		t.Run(field, func(t *testing.T) {
			reg, _, _ := newTestRegistration(t)
			require.NoError(t, reg.SelectRole("patient"))
			p := patientProfile()
			blank(&p)
			require.NoError(t, reg.UpdateProfile(p))

			err := reg.Continue()
			require.ErrorIs(t, err, ErrProfileIncomplete)
			var missing *MissingProfileError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, []string{field}, missing.Fields)
			assert.Equal(t, StepCollectingProfile, reg.State().Step)
		})
	}

	reg, _, _ := newTestRegistration(t)
	require.NoError(t, reg.SelectRole("patient"))
	require.NoError(t, reg.UpdateProfile(patientProfile()))
	require.NoError(t, reg.Continue())
	assert.Equal(t, StepCollectingCredentials, reg.State().Step)
}

func TestRegistration_ContinueIsPatientOnly(t *testing.T) {
	reg, _, _ := newTestRegistration(t)
	require.NoError(t, reg.SelectRole("family"))
	require.NoError(t, reg.UpdateProfile(patientProfile()))
	require.ErrorIs(t, reg.Continue(), ErrPasswordLoginPatientOnly)
}

func candidates(n int) []carely.FamilyCandidate {
	out := make([]carely.FamilyCandidate, n)
	for i := range out {
		out[i] = carely.FamilyCandidate{
			ID:           fmt.Sprintf("fam-%d", i+1),
			FirstName:    "Ravi",
			LastName:     fmt.Sprintf("Rao%d", i+1),
			MobileNumber: "9000000000",
		}
	}
	return out
}

func TestRegistration_PatientFlow(t *testing.T) {
	reg, api, sessions := newTestRegistration(t)
	api.candidates = candidates(7)
	ctx := context.Background()

	require.NoError(t, reg.SelectRole("patient"))
	require.NoError(t, reg.UpdateProfile(patientProfile()))
	require.NoError(t, reg.Continue())

	require.ErrorIs(t, reg.SetCredentials("", "pw"), ErrCredentialsRequired)
	require.NoError(t, reg.SetCredentials("asha.rao", "s3cret"))
	free, err := reg.CheckUsername(ctx)
	require.NoError(t, err)
	assert.True(t, free)

	require.ErrorIs(t, reg.SearchFamily(ctx, " "), ErrEmptySearch)
	require.NoError(t, reg.SearchFamily(ctx, "ravi"))
	st := reg.State()
	assert.Equal(t, StepSearchingFamily, st.Step)
	assert.Len(t, st.Candidates, FamilyPageSize)
	assert.Equal(t, 2, st.Pages)

	require.NoError(t, reg.Page(2))
	assert.Len(t, reg.State().Candidates, 2)
	require.Error(t, reg.Page(3))

	require.ErrorIs(t, reg.SendOTP(ctx), ErrNoCandidate)
	require.ErrorIs(t, reg.SelectCandidate("nobody"), ErrUnknownCandidate)
	require.NoError(t, reg.SelectCandidate("fam-6"))
	require.ErrorIs(t, reg.SendOTP(ctx), ErrNoCandidate, "relationship still missing")
	require.NoError(t, reg.SetRelationship(" son "))

	_, err = reg.Register(ctx)
	require.ErrorIs(t, err, ErrOTPNotVerified)

	require.NoError(t, reg.SendOTP(ctx))
	assert.Equal(t, StepAwaitingOTP, reg.State().Step)
	require.Len(t, api.otpRequests, 1)
	assert.Equal(t, carely.OTPRequest{ID: "fam-6", Name: "Ravi Rao6", Relationship: "son"}, api.otpRequests[0])

	card, err := reg.OTP()
	require.NoError(t, err)
	require.NoError(t, card.Paste("999999"))
	require.Error(t, reg.VerifyOTP(ctx))
	assert.Equal(t, StepAwaitingOTP, reg.State().Step)

	require.NoError(t, card.Paste("123456"))
	require.NoError(t, reg.VerifyOTP(ctx))
	assert.Equal(t, StepVerified, reg.State().Step)
	assert.Equal(t, []string{"fam-6"}, api.verifiedIDs)

	landing, err := reg.Register(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/patient/dashboard", landing)
	assert.Equal(t, StepRegistered, reg.State().Step)

	require.Len(t, api.patients, 1)
	req := api.patients[0]
	assert.Equal(t, carely.DOB{DD: "09", MM: "04", YYYY: "1950"}, req.DOB)
	assert.Equal(t, []string{"penicillin", "dust"}, req.Allergies)
	assert.Equal(t, carely.EmergencyContact{
		Name:              "Ravi Rao6",
		PhoneNo:           "9000000000",
		ResponsibleUserID: "fam-6",
		Relationship:      "son",
	}, req.EmergencyContact)
	assert.Equal(t, "asha.rao", req.Username)
	assert.Equal(t, "s3cret", req.Password)
	require.Len(t, sessions.started, 1)
}

func TestRegistration_SearchWithoutResults(t *testing.T) {
	reg, _, _ := newTestRegistration(t)
	require.NoError(t, reg.SelectRole("patient"))
	require.NoError(t, reg.UpdateProfile(patientProfile()))
	require.NoError(t, reg.Continue())

	require.ErrorIs(t, reg.SearchFamily(context.Background(), "ghost"), ErrNoCandidates)
	st := reg.State()
	assert.Equal(t, 0, st.Pages)
	assert.Empty(t, st.Candidates)
}

func TestRegistration_ResetDuringOTPSendKeepsFlowClosed(t *testing.T) {
	reg, api, _ := newTestRegistration(t)
	api.candidates = candidates(1)
	ctx := context.Background()
	require.NoError(t, reg.SelectRole("patient"))
	require.NoError(t, reg.UpdateProfile(patientProfile()))
	require.NoError(t, reg.Continue())
	require.NoError(t, reg.SetCredentials("asha.rao", "pw"))
	require.NoError(t, reg.SearchFamily(ctx, "ravi"))
	require.NoError(t, reg.SelectCandidate("fam-1"))
	require.NoError(t, reg.SetRelationship("son"))

	api.afterSendOTP = reg.Reset
	require.ErrorIs(t, reg.SendOTP(ctx), ErrWrongState)
	require.Len(t, api.otpRequests, 1)

	st := reg.State()
	assert.Equal(t, StepRoleUnselected, st.Step)
	assert.Nil(t, st.OTP)
	_, err := reg.OTP()
	require.ErrorIs(t, err, ErrOTPNotSent)
}

func TestRegistration_ResetDiscardsState(t *testing.T) {
	reg, api, _ := newTestRegistration(t)
	api.candidates = candidates(1)
	require.NoError(t, reg.SelectRole("patient"))
	require.NoError(t, reg.UpdateProfile(patientProfile()))
	require.NoError(t, reg.Continue())
	require.NoError(t, reg.SetCredentials("asha.rao", "pw"))
	require.NoError(t, reg.SearchFamily(context.Background(), "ravi"))

	reg.Reset()
	st := reg.State()
	assert.Equal(t, StepRoleUnselected, st.Step)
	assert.Empty(t, st.Role)
	assert.Equal(t, Profile{}, st.Profile)
	assert.Empty(t, st.Username)
	assert.Empty(t, st.Candidates)
	assert.Nil(t, st.OTP)
}

func TestRegistration_CaregiverWithIdentity(t *testing.T) {
	api := newFakeAuthAPI()
	sessions := &fakeSessions{}
	up := &fakeUploader{}
	reg := NewRegistration(Deps{API: api, Sessions: sessions, Uploader: up, Geocoder: fakeGeocoder{}, Verifier: fakeVerifier{}})
	ctx := context.Background()

	require.NoError(t, reg.SelectRole("caregiver"))
	p := patientProfile()
	p.Qualifications = "GNM, first aid"
	p.AvailabilityAndLocation = "weekdays,Bengaluru"
	p.ReadyForService = true
	require.NoError(t, reg.UpdateProfile(p))

	addr, err := reg.LocateAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{77.59, 12.97}, addr.Coordinates.Coordinates)
	assert.Equal(t, "Point", addr.Coordinates.Type)

	docs, err := reg.AttachDocuments(ctx, []uploads.File{{Name: "licence.pdf", Size: 1024, Body: strings.NewReader("pdf")}})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	landing, err := reg.RegisterWithIdentity(ctx, "google-cred")
	require.NoError(t, err)
	assert.Equal(t, "/caregiver/dashboard", landing)

	require.Len(t, api.registered, 1)
	req := api.registered[0]
	assert.Equal(t, "caregiver", req.Role)
	assert.Equal(t, []string{"GNM", "first aid"}, req.Qualifications)
	assert.Equal(t, []string{"weekdays", "Bengaluru"}, req.AvailabilityAndLocation)
	require.NotNil(t, req.ReadyForService)
	assert.True(t, *req.ReadyForService)
	assert.Equal(t, []carely.VerificationDocument{{Name: "licence.pdf", URL: "https://cdn.test/licence.pdf"}}, req.VerificationDocuments)
	assert.Equal(t, "Bengaluru", req.Address.City)
	require.Len(t, sessions.started, 1)
}

func TestRegistration_IdentityFailureDeletesDocuments(t *testing.T) {
	api := newFakeAuthAPI()
	api.registerErr = errBackend
	reg := NewRegistration(Deps{API: api, Sessions: &fakeSessions{}, Uploader: &fakeUploader{}})
	ctx := context.Background()

	require.NoError(t, reg.SelectRole("caregiver"))
	_, err := reg.AttachDocuments(ctx, []uploads.File{{Name: "a.pdf", Size: 10}, {Name: "b.pdf", Size: 10}})
	require.NoError(t, err)

	_, err = reg.RegisterWithIdentity(ctx, "google-cred")
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, [][]string{{"carely/documents/a.pdf", "carely/documents/b.pdf"}}, api.deleted)
	assert.Empty(t, reg.State().Documents)
	assert.Equal(t, StepCollectingProfile, reg.State().Step)
}

func TestRegistration_DocumentCleanupFallsBackToStorage(t *testing.T) {
	api := newFakeAuthAPI()
	api.registerErr = errBackend
	api.deleteErr = errBackend
	up := &fakeUploader{}
	reg := NewRegistration(Deps{API: api, Sessions: &fakeSessions{}, Uploader: up})
	ctx := context.Background()

	require.NoError(t, reg.SelectRole("caregiver"))
	_, err := reg.AttachDocuments(ctx, []uploads.File{{Name: "a.pdf", Size: 10}})
	require.NoError(t, err)

	_, err = reg.RegisterWithIdentity(ctx, "google-cred")
	require.ErrorIs(t, err, errBackend)
	assert.Empty(t, api.deleted)
	assert.Equal(t, [][]string{{"carely/documents/a.pdf"}}, up.deleted)
	assert.Empty(t, reg.State().Documents)
}

func TestRegistration_OversizedDocumentNeverUploads(t *testing.T) {
	up := &fakeUploader{}
	reg := NewRegistration(Deps{API: newFakeAuthAPI(), Sessions: &fakeSessions{}, Uploader: up})
	require.NoError(t, reg.SelectRole("caregiver"))

	_, err := reg.AttachDocuments(context.Background(), []uploads.File{
		{Name: "ok.pdf", Size: 100},
		{Name: "huge.pdf", Size: uploads.MaxDocumentSize + 1},
	})
	require.ErrorIs(t, err, uploads.ErrFileTooLarge)
	assert.Empty(t, up.uploaded)
}

func TestRegistration_DocumentsAreCaregiverOnly(t *testing.T) {
	reg := NewRegistration(Deps{API: newFakeAuthAPI(), Sessions: &fakeSessions{}, Uploader: &fakeUploader{}})
	require.NoError(t, reg.SelectRole("user"))
	_, err := reg.AttachDocuments(context.Background(), []uploads.File{{Name: "a.pdf", Size: 1}})
	require.ErrorIs(t, err, ErrDocumentsNotAllowed)
}

func TestRegistration_IdentityGuards(t *testing.T) {
	api := newFakeAuthAPI()
	reg := NewRegistration(Deps{API: api, Sessions: &fakeSessions{}, Verifier: fakeVerifier{err: identity.ErrInvalidCredential}})
	ctx := context.Background()

	_, err := reg.RegisterWithIdentity(ctx, "cred")
	require.ErrorIs(t, err, ErrRoleRequired)

	require.NoError(t, reg.SelectRole("user"))
	_, err = reg.RegisterWithIdentity(ctx, "")
	require.ErrorIs(t, err, identity.ErrMissingCredential)
	_, err = reg.RegisterWithIdentity(ctx, "cred")
	require.ErrorIs(t, err, identity.ErrInvalidCredential)
	assert.Empty(t, api.registered)

	reg.Reset()
	require.NoError(t, reg.SelectRole("patient"))
	_, err = reg.RegisterWithIdentity(ctx, "cred")
	require.ErrorIs(t, err, ErrPatientNeedsCredentials)
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(&MissingProfileError{Fields: []string{"dob"}}))
	assert.True(t, IsValidation(fmt.Errorf("wrap: %w", uploads.ErrFileTooLarge)))
	assert.False(t, IsValidation(errBackend))
}
