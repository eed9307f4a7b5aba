// Package portal serves the Carely views and actions as JSON for a single
// local user. It holds the one booking composer, registration flow and login
// flow, and reaches the backend only through the carely client.
package portal

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/carely-portal/internal/auth"
	"github.com/wolfman30/carely-portal/internal/bookings"
	"github.com/wolfman30/carely-portal/internal/carely"
	httpmiddleware "github.com/wolfman30/carely-portal/internal/http/middleware"
	"github.com/wolfman30/carely-portal/internal/navigation"
	"github.com/wolfman30/carely-portal/internal/session"
	"github.com/wolfman30/carely-portal/pkg/logging"
)

// Config holds portal dependencies. OTPLimiter, MetricsHandler and
// CORSAllowedOrigins are optional.
type Config struct {
	Client       *carely.Client
	Sessions     *session.Manager
	Composer     *bookings.Composer
	Registration *auth.Registration
	Login        *auth.Login
	Table        *navigation.Table
	Logger       *logging.Logger

	OTPLimiter         *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// Handler serves the portal.
type Handler struct {
	client       *carely.Client
	sessions     *session.Manager
	composer     *bookings.Composer
	registration *auth.Registration
	login        *auth.Login
	table        *navigation.Table
	logger       *logging.Logger

	otpLimiter *httpmiddleware.RateLimiter
	metrics    http.Handler
	origins    []string
}

func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	table := cfg.Table
	if table == nil {
		table = navigation.DefaultTable()
	}
	return &Handler{
		client:       cfg.Client,
		sessions:     cfg.Sessions,
		composer:     cfg.Composer,
		registration: cfg.Registration,
		login:        cfg.Login,
		table:        table,
		logger:       logger.Component("portal"),
		otpLimiter:   cfg.OTPLimiter,
		metrics:      cfg.MetricsHandler,
		origins:      cfg.CORSAllowedOrigins,
	}
}

// limitOTP wraps handlers that make the backend send a code.
func (h *Handler) limitOTP(next http.HandlerFunc) http.Handler {
	if h.otpLimiter == nil {
		return next
	}
	return h.otpLimiter.Limit(next)
}

// Routes builds the portal router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(h.origins) > 0 {
		r.Use(httpmiddleware.CORS(h.origins))
	}
	r.Use(httpmiddleware.RequestLogger(h.logger))

	r.Group(func(public chi.Router) {
		public.Get("/health", h.Health)
		if h.metrics != nil {
			public.Handle("/metrics", h.metrics)
		}
		public.Get("/", h.Home)
		public.Get("/session", h.Session)
		public.Get("/navigate", h.Navigate)
		public.Get("/payment-history", h.PaymentHistory)
		public.Post("/logout", h.Logout)
	})

	r.Route("/login", func(r chi.Router) {
		r.Get("/", h.LoginState)
		r.Post("/role", h.LoginRole)
		r.Post("/identity", h.LoginIdentity)
		r.Post("/password", h.LoginPassword)
		r.Post("/forgot/username", h.ForgotUsername)
		r.Method(http.MethodPost, "/forgot/send", h.limitOTP(h.ForgotSend))
		r.Post("/forgot/otp", h.ForgotOTP)
		r.Method(http.MethodPost, "/forgot/resend", h.limitOTP(h.otpResend(h.login.ResetOTP)))
		r.Post("/forgot/reset", h.ForgotReset)
	})

	r.Route("/register", func(r chi.Router) {
		r.Get("/", h.RegisterState)
		r.Post("/role", h.RegisterRole)
		r.Post("/profile", h.RegisterProfile)
		r.Post("/locate", h.RegisterLocate)
		r.Post("/documents", h.RegisterDocuments)
		r.Post("/identity", h.RegisterIdentity)
		r.Post("/continue", h.RegisterContinue)
		r.Post("/credentials", h.RegisterCredentials)
		r.Get("/username", h.RegisterUsername)
		r.Get("/family", h.RegisterFamily)
		r.Post("/family/search", h.RegisterFamilySearch)
		r.Post("/family/select", h.RegisterFamilySelect)
		r.Delete("/family/select", h.RegisterFamilyClear)
		r.Post("/relationship", h.RegisterRelationship)
		r.Method(http.MethodPost, "/otp/send", h.limitOTP(h.RegisterOTPSend))
		r.Post("/otp/input", h.otpInput(h.registration.OTP))
		r.Post("/otp/paste", h.otpPaste(h.registration.OTP))
		r.Post("/otp/backspace", h.otpBackspace(h.registration.OTP))
		r.Post("/otp/verify", h.RegisterOTPVerify)
		r.Method(http.MethodPost, "/otp/resend", h.limitOTP(h.otpResend(h.registration.OTP)))
		r.Post("/submit", h.RegisterSubmit)
		r.Post("/reset", h.RegisterReset)
	})

	r.Route(navigation.UserSubtree.Prefix, func(r chi.Router) {
		r.Use(navigation.Protect(navigation.UserSubtree, h.sessions))
		h.userRoutes(r)
		h.commonRoutes(r)
	})
	r.Route(navigation.CaregiverSubtree.Prefix, func(r chi.Router) {
		r.Use(navigation.Protect(navigation.CaregiverSubtree, h.sessions))
		h.caregiverRoutes(r)
		h.commonRoutes(r)
	})
	r.Route(navigation.AdminSubtree.Prefix, func(r chi.Router) {
		r.Use(navigation.Protect(navigation.AdminSubtree, h.sessions))
		h.adminRoutes(r)
		h.notificationRoutes(r)
	})
	r.Route(navigation.PatientSubtree.Prefix, func(r chi.Router) {
		r.Use(navigation.Protect(navigation.PatientSubtree, h.sessions))
		r.Get("/dashboard", h.PatientDashboard)
		r.Get("/bookings/{id}", h.Booking)
		r.Post("/bookings/{id}/care-notes", h.AddCareNote)
		h.commonRoutes(r)
	})

	r.NotFound(h.NotFound)
	return r
}
