package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

type MinioStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStorage connects to endpoint and makes sure bucket exists with
// anonymous read access, since image URLs are embedded in public pages.
func NewMinioStorage(ctx context.Context, endpoint, publicURL, accessKey, secretKey, bucket string, useSSL bool, logger *logrus.Logger) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: "us-east-1", // MinIO requires a region
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}

		if err = client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
			logger.WithError(err).WithField("bucket", bucket).Warn("Failed to set bucket policy")
		}
	}

	return &MinioStorage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Effect": "Allow",
				"Principal": {"AWS": ["*"]},
				"Action": ["s3:GetObject"],
				"Resource": ["arn:aws:s3:::%s/*"]
			}
		]
	}`, bucket)
}

func (s *MinioStorage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return s.ObjectURL(objectName), nil
}

func (s *MinioStorage) Delete(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// ObjectURL is the anonymous URL of objectName behind the public endpoint.
func (s *MinioStorage) ObjectURL(objectName string) string {
	return s.publicURL + "/" + s.bucket + "/" + objectName
}
