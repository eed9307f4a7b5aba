package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "BACKEND_URL", "API_TIMEOUT", "SESSION_STORE", "UPLOAD_PROVIDER", "CORS_ALLOWED_ORIGINS", "OTP_RATE_PER_SECOND", "OTP_BURST"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BackendURL != "http://localhost:5000" {
		t.Fatalf("expected default backend url, got %s", cfg.BackendURL)
	}
	if cfg.APITimeout != 0 {
		t.Fatalf("expected no api timeout by default, got %s", cfg.APITimeout)
	}
	if cfg.SessionStore != "file" {
		t.Fatalf("expected file session store, got %s", cfg.SessionStore)
	}
	if cfg.UploadProvider != "cloudinary" {
		t.Fatalf("expected cloudinary uploads, got %s", cfg.UploadProvider)
	}
	if cfg.GeocoderRPS != 1 {
		t.Fatalf("expected 1 rps geocoder default, got %d", cfg.GeocoderRPS)
	}
	if cfg.OTPRatePerSecond != 0.1 || cfg.OTPBurst != 3 {
		t.Fatalf("expected otp throttle defaults, got %v/%d", cfg.OTPRatePerSecond, cfg.OTPBurst)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no cors origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("BACKEND_URL", "https://api.carely.test/")
	t.Setenv("API_TIMEOUT", "15s")
	t.Setenv("SESSION_STORE", " Redis ")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("UPLOAD_PROVIDER", "S3")
	t.Setenv("CLOUDINARY_UPLOAD_PRESET", "carely_docs")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://carely.test ,")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.BackendURL != "https://api.carely.test" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.BackendURL)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("expected api timeout override, got %s", cfg.APITimeout)
	}
	if cfg.SessionStore != "redis" {
		t.Fatalf("expected redis session store, got %s", cfg.SessionStore)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if cfg.UploadProvider != "s3" {
		t.Fatalf("expected s3 uploads, got %s", cfg.UploadProvider)
	}
	if cfg.CloudinaryUploadPreset != "carely_docs" {
		t.Fatalf("expected upload preset override, got %s", cfg.CloudinaryUploadPreset)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://carely.test" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowedOrigins)
	}
}
