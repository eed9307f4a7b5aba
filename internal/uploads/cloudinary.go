package uploads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryAPI is the subset of the Cloudinary upload API used here.
type CloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryUploader stores documents through an upload preset.
type CloudinaryUploader struct {
	api    CloudinaryAPI
	preset string
	folder string
}

// NewCloudinary builds a Cloudinary client from credentials.
func NewCloudinary(cloudName, apiKey, apiSecret, preset, folder string) (*CloudinaryUploader, error) {
	if strings.TrimSpace(cloudName) == "" {
		return nil, errors.New("uploads: cloudinary cloud name required")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("uploads: init cloudinary: %w", err)
	}
	return NewCloudinaryUploader(&cld.Upload, preset, folder), nil
}

func NewCloudinaryUploader(api CloudinaryAPI, preset, folder string) *CloudinaryUploader {
	return &CloudinaryUploader{api: api, preset: preset, folder: folder}
}

func (c *CloudinaryUploader) Upload(ctx context.Context, f File) (Document, error) {
	res, err := c.api.Upload(ctx, f.Body, uploader.UploadParams{
		Folder:       c.folder,
		UploadPreset: c.preset,
	})
	if err != nil {
		return Document{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return Document{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.PublicID == "" {
		return Document{}, errors.New("cloudinary upload: no public id returned")
	}
	return Document{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (c *CloudinaryUploader) Delete(ctx context.Context, publicIDs []string) error {
	var errs []error
	for _, id := range publicIDs {
		if _, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: id}); err != nil {
			errs = append(errs, fmt.Errorf("cloudinary destroy %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
