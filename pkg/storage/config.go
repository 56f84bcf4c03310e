package storage

import (
	"context"

	"adoptm3/pkg/config"
)

// FromConfig builds the store selected by STORAGE_BACKEND.
func FromConfig(ctx context.Context, c config.Storage) (Store, error) {
	if c.Backend == "s3" {
		return NewS3Store(ctx, S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			Endpoint:     c.S3Endpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			UsePathStyle: c.S3UsePathStyle,
		})
	}
	return NewLocalStore(c.UploadBase)
}

// RulesFromConfig returns the upload limits configured for images.
func RulesFromConfig(c config.Storage) ImageRules {
	return ImageRules{MaxBytes: c.MaxUploadBytes, MaxDimension: c.MaxImageDimension, MaxPixels: c.MaxImagePixels}
}
