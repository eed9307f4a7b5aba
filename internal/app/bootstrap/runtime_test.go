package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"

	appconfig "github.com/wolfman30/carely-portal/internal/config"
	"github.com/wolfman30/carely-portal/internal/session"
	"github.com/wolfman30/carely-portal/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, logging.New("error"), true); client != nil {
		t.Fatalf("expected nil client without an address")
	}
}

func TestBuildSessionStoreDefaultsToFile(t *testing.T) {
	cfg := &appconfig.Config{SessionFile: filepath.Join(t.TempDir(), "session.json")}
	store, err := BuildSessionStore(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*session.FileStore); !ok {
		t.Fatalf("expected file store, got %T", store)
	}
}

func TestBuildSessionStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{SessionStore: "redis", RedisAddr: mr.Addr(), SessionKeyPrefix: "test"}
	store, err := BuildSessionStore(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*session.RedisStore); !ok {
		t.Fatalf("expected redis store, got %T", store)
	}
}

func TestBuildSessionStoreRedisUnavailableFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &appconfig.Config{SessionStore: "redis", RedisAddr: addr, SessionFile: filepath.Join(t.TempDir(), "s.json")}
	store, err := BuildSessionStore(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*session.FileStore); !ok {
		t.Fatalf("expected file store fallback, got %T", store)
	}
}

func TestBuildSessionStoreUnknown(t *testing.T) {
	if _, err := BuildSessionStore(context.Background(), &appconfig.Config{SessionStore: "etcd"}, nil); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestBuildUploaderDisabled(t *testing.T) {
	for _, cfg := range []*appconfig.Config{
		{UploadProvider: "none"},
		{UploadProvider: "cloudinary"},
		{UploadProvider: "s3"},
	} {
		up, err := BuildUploader(context.Background(), cfg, nil, logging.New("error"))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", cfg.UploadProvider, err)
		}
		if up != nil {
			t.Fatalf("%s: expected uploads disabled", cfg.UploadProvider)
		}
	}
}

func TestBuildUploaderS3LoaderError(t *testing.T) {
	cfg := &appconfig.Config{UploadProvider: "s3", UploadBucket: "docs"}
	loader := func(context.Context, *appconfig.Config) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}
	if _, err := BuildUploader(context.Background(), cfg, loader, logging.New("error")); err == nil {
		t.Fatalf("expected loader error to surface")
	}
}

func TestBuildUploaderS3(t *testing.T) {
	cfg := &appconfig.Config{UploadProvider: "s3", UploadBucket: "docs", AWSRegion: "us-east-1"}
	loader := func(context.Context, *appconfig.Config) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}
	up, err := BuildUploader(context.Background(), cfg, loader, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up == nil {
		t.Fatalf("expected s3 uploader")
	}
}

func TestBuildUploaderUnknown(t *testing.T) {
	if _, err := BuildUploader(context.Background(), &appconfig.Config{UploadProvider: "ftp"}, nil, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestBuildVerifierWithoutClientID(t *testing.T) {
	v := BuildVerifier(&appconfig.Config{}, logging.New("error"))
	if v.Enabled() {
		t.Fatalf("expected local validation disabled without a client id")
	}
}
