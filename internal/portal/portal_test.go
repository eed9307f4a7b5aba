package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/carely-portal/internal/auth"
	"github.com/wolfman30/carely-portal/internal/bookings"
	"github.com/wolfman30/carely-portal/internal/carely"
	"github.com/wolfman30/carely-portal/internal/navigation"
	"github.com/wolfman30/carely-portal/internal/session"
	"github.com/wolfman30/carely-portal/pkg/logging"
)

// backend fakes the Carely API, keyed by "METHOD /path".
type backend struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	seen   []string
	bodies map[string][]byte
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.seen = append(b.seen, key)
	b.bodies[key] = body
	h, ok := b.routes[key]
	b.mu.Unlock()
	if !ok {
		http.Error(w, `{"success":false,"message":"not found"}`, http.StatusNotFound)
		return
	}
	h(w, r)
}

func (b *backend) called(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range b.seen {
		if k == key {
			return true
		}
	}
	return false
}

func (b *backend) body(key string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[key]
}

func reply(status int, payload string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	}
}

type harness struct {
	backend  *backend
	sessions *session.Manager
	composer *bookings.Composer
	router   http.Handler
}

func newHarness(t *testing.T, routes map[string]http.HandlerFunc) *harness {
	t.Helper()
	be := &backend{routes: routes, bodies: map[string][]byte{}}
	srv := httptest.NewServer(be)
	t.Cleanup(srv.Close)

	logger := logging.NewWithOptions(logging.Options{Level: "error", Format: "json", Writer: io.Discard})
	sessions := session.NewManager(context.Background(), session.NewMemoryStore(), logger)
	var h *Handler
	client := carely.NewClient(carely.Config{
		BaseURL: srv.URL,
		Tokens:  sessions,
		OnUnauthorized: func(ctx context.Context) {
			h.Unauthorized(ctx)
		},
		Logger: logger,
	})
	composer := bookings.NewComposer(bookings.ClientAPI(client), nil, logger)
	deps := auth.Deps{API: client.Auth, Sessions: sessions, Logger: logger, ManualCountdown: true}

	h = New(Config{
		Client:       client,
		Sessions:     sessions,
		Composer:     composer,
		Registration: auth.NewRegistration(deps),
		Login:        auth.NewLogin(deps),
		Logger:       logger,
	})
	return &harness{backend: be, sessions: sessions, composer: composer, router: h.Routes()}
}

func (hs *harness) signIn(t *testing.T, role session.Role) {
	t.Helper()
	require.NoError(t, hs.sessions.Login(context.Background(), session.Session{
		Token: "tok-1",
		User: session.User{
			ID:   "u-1",
			Role: role,
			LinkedPatients: []session.LinkedPatient{
				{PatientID: "p-1", PatientName: "Asha", Relationship: "mother"},
			},
		},
	}))
}

func (hs *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	hs.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	hs := newHarness(t, nil)
	rec := hs.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestProtect_RedirectsAnonymousAndWrongRole(t *testing.T) {
	hs := newHarness(t, nil)

	rec := hs.do(t, http.MethodGet, "/user/dashboard", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?from=%2Fuser%2Fdashboard", rec.Header().Get("Location"))

	hs.signIn(t, session.RoleCaregiver)
	rec = hs.do(t, http.MethodGet, "/admin/dashboard", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, navigation.LoginPath, rec.Header().Get("Location"))
	assert.False(t, hs.backend.called("GET /api/admin/analytics/monthly-revenue"))
}

func TestUnauthorizedEndsSession(t *testing.T) {
	hs := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/user/bookings/all": reply(http.StatusUnauthorized, `{"success":false,"message":"jwt expired"}`),
	})
	hs.signIn(t, session.RoleUser)

	rec := hs.do(t, http.MethodGet, "/user/dashboard", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.False(t, hs.sessions.IsAuthenticated(), "a 401 clears the stored session")

	rec = hs.do(t, http.MethodGet, "/user/dashboard", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code, "later protected requests bounce to login")
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), navigation.LoginPath))
}

func TestUnauthorizedDiscardsDraftBeforeNextUser(t *testing.T) {
	hs := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/common/services/svc-1": reply(http.StatusOK, serviceJSON),
		"GET /api/user/bookings/all":     reply(http.StatusUnauthorized, `{"success":false,"message":"jwt expired"}`),
		"POST /api/user/services/book":   reply(http.StatusCreated, `{"success":true,"data":{"_id":"b-9"}}`),
	})
	hs.signIn(t, session.RoleUser)
	composeDraft(t, hs, "13:00")

	rec := hs.do(t, http.MethodGet, "/user/dashboard", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	st := hs.composer.State()
	assert.False(t, st.ServiceOpen)
	assert.False(t, st.ShowBookingCard)
	assert.Equal(t, bookings.NewDraft(), st.Draft)
	assert.Empty(t, st.Patients)

	require.NoError(t, hs.sessions.Login(context.Background(), session.Session{
		Token: "tok-2",
		User:  session.User{ID: "u-2", Role: session.RoleUser},
	}))
	rec = hs.do(t, http.MethodPost, "/user/composer/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, hs.backend.called("POST /api/user/services/book"))
}

func TestSubmitRechecksLinkedPatients(t *testing.T) {
	hs := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/common/services/svc-1": reply(http.StatusOK, serviceJSON),
		"POST /api/user/services/book":   reply(http.StatusCreated, `{"success":true,"data":{"_id":"b-9"}}`),
	})
	hs.signIn(t, session.RoleUser)
	composeDraft(t, hs, "13:00")

	// Same draft, but the session now belongs to someone without p-1.
	require.NoError(t, hs.sessions.Login(context.Background(), session.Session{
		Token: "tok-2",
		User: session.User{ID: "u-2", Role: session.RoleUser, LinkedPatients: []session.LinkedPatient{
			{PatientID: "p-7", PatientName: "Ravi"},
		}},
	}))
	rec := hs.do(t, http.MethodPost, "/user/composer/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, hs.backend.called("POST /api/user/services/book"))
	assert.True(t, hs.composer.State().ShowBookingCard)
}

func TestBackendFailureIsGeneric(t *testing.T) {
	hs := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/user/bookings/all": reply(http.StatusInternalServerError, `{"success":false,"message":"mongo down"}`),
	})
	hs.signIn(t, session.RoleUser)

	rec := hs.do(t, http.MethodGet, "/user/dashboard", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "Failed to load dashboard", resp.Message)
	assert.True(t, hs.sessions.IsAuthenticated())
}

func TestInvalidJSON(t *testing.T) {
	hs := newHarness(t, nil)
	hs.signIn(t, session.RoleUser)

	rec := hs.do(t, http.MethodPost, "/user/composer/open", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid json", decodeBody[errorResponse](t, rec).Message)
}

func TestAdminFilterValidatedLocally(t *testing.T) {
	hs := newHarness(t, nil)
	hs.signIn(t, session.RoleAdmin)

	rec := hs.do(t, http.MethodGet, "/admin/users?filter=verified", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, hs.backend.called("GET /api/admin/users/verified"))
}

func TestNavigate(t *testing.T) {
	hs := newHarness(t, nil)

	rec := hs.do(t, http.MethodGet, "/navigate?path=/user/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decodeBody[navigation.Decision](t, rec)
	assert.Equal(t, navigation.LoginPath, d.Redirect)
	assert.Equal(t, "/user/dashboard", d.From)

	hs.signIn(t, session.RoleUser)
	d = decodeBody[navigation.Decision](t, hs.do(t, http.MethodGet, "/navigate?path=/user/dashboard", ""))
	assert.True(t, d.Allowed())

	d = decodeBody[navigation.Decision](t, hs.do(t, http.MethodGet, "/navigate?path=/nowhere", ""))
	assert.True(t, d.NotFound)

	rec = hs.do(t, http.MethodGet, "/navigate", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFound(t *testing.T) {
	hs := newHarness(t, nil)
	rec := hs.do(t, http.MethodGet, "/definitely/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, decodeBody[navigation.Decision](t, rec).NotFound)
}

const serviceJSON = `{"success":true,"data":{"_id":"svc-1","name":"Elder care","categoryName":"Home care","basePrice":400,
	"durationOptions":[{"hours":4,"price":400},{"hours":8,"price":750}]}}`

func composeDraft(t *testing.T, hs *harness, endTime string) {
	t.Helper()
	steps := []struct{ path, body string }{
		{"/user/composer/open", `{"serviceId":"svc-1"}`},
		{"/user/composer/duration", `{"hours":4}`},
		{"/user/composer/card", ``},
		{"/user/composer/patient", `{"patientId":"p-1"}`},
		{"/user/composer/schedule", `{"field":"startDate","value":"2026-11-02"}`},
		{"/user/composer/schedule", `{"field":"endDate","value":"2026-11-02"}`},
		{"/user/composer/schedule", `{"field":"startTime","value":"09:00"}`},
		{"/user/composer/schedule", `{"field":"endTime","value":"` + endTime + `"}`},
		{"/user/composer/payment", `{"method":"cash"}`},
	}
	for _, s := range steps {
		rec := hs.do(t, http.MethodPost, s.path, s.body)
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", s.path, rec.Body.String())
	}
}

func TestComposerSubmitFlow(t *testing.T) {
	hs := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/common/services/svc-1": reply(http.StatusOK, serviceJSON),
		"POST /api/user/services/book":   reply(http.StatusCreated, `{"success":true,"data":{"_id":"b-1","status":"pending"}}`),
	})
	hs.signIn(t, session.RoleUser)

	composeDraft(t, hs, "13:00")
	state := hs.composer.State()
	assert.True(t, state.ShowBookingCard)

	rec := hs.do(t, http.MethodPost, "/user/composer/submit", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[submitResponse](t, rec)
	require.NotNil(t, resp.Booking)
	assert.Equal(t, "b-1", resp.Booking.ID)
	assert.False(t, resp.State.ServiceOpen, "a successful submit resets the composer")

	var sent carely.BookingRequest
	require.NoError(t, json.Unmarshal(hs.backend.body("POST /api/user/services/book"), &sent))
	assert.Equal(t, "09:00 - 13:00", sent.Schedule.TimeSlot)
	assert.Equal(t, "p-1", sent.PatientID)
	assert.Equal(t, "Home care", sent.CategoryName)
	assert.Equal(t, "cash", sent.PaymentMethod)
	assert.Equal(t, 4.0, sent.Duration.Hours)
}

func TestComposerDurationMismatchStaysLocal(t *testing.T) {
	hs := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/common/services/svc-1": reply(http.StatusOK, serviceJSON),
	})
	hs.signIn(t, session.RoleUser)

	composeDraft(t, hs, "12:00")
	rec := hs.do(t, http.MethodPost, "/user/composer/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, hs.backend.called("POST /api/user/services/book"))
	assert.True(t, hs.composer.State().ShowBookingCard, "the draft survives a rejected submit")
}

func TestComposerUnknownPatient(t *testing.T) {
	hs := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/common/services/svc-1": reply(http.StatusOK, serviceJSON),
	})
	hs.signIn(t, session.RoleUser)

	require.Equal(t, http.StatusOK, hs.do(t, http.MethodPost, "/user/composer/open", `{"serviceId":"svc-1"}`).Code)
	rec := hs.do(t, http.MethodPost, "/user/composer/patient", `{"patientId":"someone-else"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLogoutClearsEverything(t *testing.T) {
	hs := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/common/services/svc-1": reply(http.StatusOK, serviceJSON),
		"POST /api/auth/logout":          reply(http.StatusInternalServerError, `{"success":false}`),
	})
	hs.signIn(t, session.RoleUser)
	require.Equal(t, http.StatusOK, hs.do(t, http.MethodPost, "/user/composer/open", `{"serviceId":"svc-1"}`).Code)

	rec := hs.do(t, http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/", decodeBody[redirectResponse](t, rec).Redirect)
	assert.True(t, hs.backend.called("POST /api/auth/logout"))
	assert.False(t, hs.sessions.IsAuthenticated(), "local logout survives a backend failure")
	assert.False(t, hs.composer.State().ServiceOpen)
}

func TestPatientPasswordLogin(t *testing.T) {
	hs := newHarness(t, map[string]http.HandlerFunc{
		"POST /api/auth/patient-login": reply(http.StatusOK,
			`{"token":"tok-p","user":{"_id":"p-1","role":"patient","firstName":"Asha"}}`),
	})

	rec := hs.do(t, http.MethodPost, "/login/password", `{"username":"asha","password":"pw"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "a role must be chosen first")

	require.Equal(t, http.StatusOK, hs.do(t, http.MethodPost, "/login/role", `{"role":"patient"}`).Code)
	rec = hs.do(t, http.MethodPost, "/login/password", `{"username":"asha","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[redirectResponse](t, rec)
	assert.Equal(t, auth.LandingFor(session.RolePatient), resp.Redirect)
	require.NotNil(t, resp.User)
	assert.Equal(t, "Asha", resp.User.FirstName)
	assert.Equal(t, "tok-p", hs.sessions.Token())

	view := decodeBody[sessionView](t, hs.do(t, http.MethodGet, "/session", ""))
	assert.True(t, view.Authenticated)
	assert.Equal(t, session.RolePatient, view.Role)
}

func TestCaregiverCareNote(t *testing.T) {
	hs := newHarness(t, map[string]http.HandlerFunc{
		"POST /api/caregiver/bookings/b-1/care-notes": reply(http.StatusCreated,
			`{"success":true,"data":{"_id":"n-1","bookingId":"b-1","note":"slept well"}}`),
	})
	hs.signIn(t, session.RoleCaregiver)

	rec := hs.do(t, http.MethodPost, "/caregiver/bookings/b-1/care-notes", `{"note":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = hs.do(t, http.MethodPost, "/caregiver/bookings/b-1/care-notes", `{"note":"slept well"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "n-1", decodeBody[carely.CareNote](t, rec).ID)
}

func TestRegisterDocumentsRemovesSpooledFiles(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	prev := maxUploadMemory
	maxUploadMemory = 1
	t.Cleanup(func() { maxUploadMemory = prev })

	hs := newHarness(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("documents", "licence.pdf")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 4096))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/register/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	hs.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "documents need the caregiver role")

	left, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, left, "spooled upload parts are removed once the request is handled")
}
