package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/carely-portal/internal/config"
	"github.com/wolfman30/carely-portal/internal/geocode"
	"github.com/wolfman30/carely-portal/internal/identity"
	"github.com/wolfman30/carely-portal/internal/session"
	"github.com/wolfman30/carely-portal/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks where the session persists: "file" (default),
// "redis" or "memory". An unreachable Redis falls back to the file store.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (session.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.SessionStore {
	case "", "file":
		return session.NewFileStore(cfg.SessionFile), nil
	case "memory":
		logger.Warn("session store is in-memory; sessions end when the portal stops")
		return session.NewMemoryStore(), nil
	case "redis":
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			logger.Warn("redis session store unavailable; using file store", "path", cfg.SessionFile)
			return session.NewFileStore(cfg.SessionFile), nil
		}
		logger.Info("redis session store enabled", "addr", cfg.RedisAddr, "prefix", cfg.SessionKeyPrefix)
		return session.NewRedisStore(client, cfg.SessionKeyPrefix), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown session store %q", cfg.SessionStore)
	}
}

// BuildGeocoder returns the address lookup client.
func BuildGeocoder(cfg *appconfig.Config, logger *logging.Logger) *geocode.Client {
	if cfg == nil {
		return nil
	}
	return geocode.NewClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderRPS, logger)
}

// BuildVerifier returns the Google credential pre-check. Without a client
// id it only rejects empty credentials.
func BuildVerifier(cfg *appconfig.Config, logger *logging.Logger) *identity.GoogleVerifier {
	if logger == nil {
		logger = logging.Default()
	}
	clientID := ""
	if cfg != nil {
		clientID = cfg.GoogleClientID
	}
	if strings.TrimSpace(clientID) == "" {
		logger.Warn("GOOGLE_CLIENT_ID not set; google credentials are checked by the backend only")
	}
	return identity.NewGoogleVerifier(clientID, logger)
}
