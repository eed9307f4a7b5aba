package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/wolfman30/carely-portal/internal/config"
	"github.com/wolfman30/carely-portal/internal/uploads"
	"github.com/wolfman30/carely-portal/pkg/logging"
)

// AWSConfigLoader loads SDK configuration for the S3 provider.
type AWSConfigLoader func(ctx context.Context, cfg *appconfig.Config) (aws.Config, error)

// BuildUploader wires the verification document store. It returns nil, nil
// when uploads are disabled or the provider is not configured, leaving
// caregiver registration without documents.
func BuildUploader(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (uploads.Uploader, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch cfg.UploadProvider {
	case "", "none", "disabled":
		logger.Info("document uploads disabled")
		return nil, nil
	case "cloudinary":
		if strings.TrimSpace(cfg.CloudinaryCloudName) == "" {
			logger.Warn("cloudinary uploads selected but CLOUDINARY_CLOUD_NAME is empty; disabling")
			return nil, nil
		}
		up, err := uploads.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret,
			cfg.CloudinaryUploadPreset, cfg.UploadFolder)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		logger.Info("cloudinary uploads enabled", "folder", cfg.UploadFolder)
		return up, nil
	case "s3":
		if strings.TrimSpace(cfg.UploadBucket) == "" {
			logger.Warn("s3 uploads selected but UPLOAD_BUCKET is empty; disabling")
			return nil, nil
		}
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: aws config loader is required for s3 uploads")
		}
		awsCfg, err := loadAWS(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		})
		up, err := uploads.NewS3Uploader(client, cfg.UploadBucket, cfg.UploadFolder, cfg.UploadPublicBaseURL, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		logger.Info("s3 uploads enabled", "bucket", cfg.UploadBucket)
		return up, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown upload provider %q", cfg.UploadProvider)
	}
}
