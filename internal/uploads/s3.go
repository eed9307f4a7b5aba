package uploads

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3API is the subset of the S3 client used by S3Uploader.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Uploader stores documents in a bucket under folder/<uuid>-<name>.
type S3Uploader struct {
	client        S3API
	bucket        string
	folder        string
	publicBaseURL string
}

func NewS3Uploader(client S3API, bucket, folder, publicBaseURL, region string) (*S3Uploader, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("uploads: s3 bucket required")
	}
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Uploader{
		client:        client,
		bucket:        bucket,
		folder:        strings.Trim(folder, "/"),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *S3Uploader) Upload(ctx context.Context, f File) (Document, error) {
	key := path.Join(s.folder, uuid.NewString()+"-"+sanitizeName(f.Name))
	contentType := f.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(f.Name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f.Body,
		ContentLength: aws.Int64(f.Size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return Document{}, fmt.Errorf("uploads: s3 put %s: %w", key, err)
	}
	return Document{URL: s.publicBaseURL + "/" + key, PublicID: key}, nil
}

func (s *S3Uploader) Delete(ctx context.Context, publicIDs []string) error {
	if len(publicIDs) == 0 {
		return nil
	}
	objects := make([]s3types.ObjectIdentifier, 0, len(publicIDs))
	for _, id := range publicIDs {
		objects = append(objects, s3types.ObjectIdentifier{Key: aws.String(id)})
	}
	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("uploads: s3 delete: %w", err)
	}
	return nil
}
