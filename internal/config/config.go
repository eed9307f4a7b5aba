package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds portal configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Carely REST backend
	BackendURL string
	APITimeout time.Duration

	// Google identity
	GoogleClientID string

	// Verification document uploads
	UploadProvider         string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadPreset string
	UploadFolder           string
	UploadBucket           string
	UploadPublicBaseURL    string
	AWSRegion              string
	AWSAccessKeyID         string
	AWSSecretAccessKey     string
	AWSEndpointOverride    string

	// Session persistence
	SessionStore     string
	SessionFile      string
	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	SessionKeyPrefix string

	// Address lookup
	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderRPS       int

	// OTP send/resend throttling per client IP
	OTPRatePerSecond float64
	OTPBurst         int

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		BackendURL: strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5000"), "/"),
		APITimeout: getEnvAsDuration("API_TIMEOUT", 0),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		UploadProvider:         strings.ToLower(strings.TrimSpace(getEnv("UPLOAD_PROVIDER", "cloudinary"))),
		CloudinaryCloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryUploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", ""),
		UploadFolder:           getEnv("UPLOAD_FOLDER", "carely/documents"),
		UploadBucket:           getEnv("UPLOAD_BUCKET", ""),
		UploadPublicBaseURL:    getEnv("UPLOAD_PUBLIC_BASE_URL", ""),
		AWSRegion:              getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:         getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:    getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		SessionStore:     strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "file"))),
		SessionFile:      getEnv("SESSION_FILE", ".carely/session.json"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		SessionKeyPrefix: getEnv("SESSION_KEY_PREFIX", "carely"),

		GeocoderURL:       strings.TrimRight(getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"), "/"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "carely-portal/1.0"),
		GeocoderRPS:       getEnvAsInt("GEOCODER_RPS", 1),

		OTPRatePerSecond: getEnvAsFloat("OTP_RATE_PER_SECOND", 0.1),
		OTPBurst:         getEnvAsInt("OTP_BURST", 3),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
