package model

import (
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/meterforecast/backend/internal/domain"
	"github.com/meterforecast/backend/pkg/client/s3"
)

// S3Repository loads artifacts from an S3-compatible bucket at <prefix><meter>.json
type S3Repository struct {
	storage *s3.StorageS3
	prefix  string
}

// NewS3Repository creates a repository over an initialised storage client
func NewS3Repository(storage *s3.StorageS3, prefix string) *S3Repository {
	return &S3Repository{storage: storage, prefix: prefix}
}

// Key returns the object key of a meter's artifact
func (r *S3Repository) Key(meterID string) string {
	return path.Join(r.prefix, meterID+".json")
}

// Resolve downloads and decodes the artifact of a meter
func (r *S3Repository) Resolve(ctx context.Context, meterID string) (domain.Forecaster, error) {
	if r.storage == nil || r.storage.Client == nil {
		return nil, domain.ConfigurationError("s3 client not initialized")
	}
	if !validMeterID(meterID) {
		return nil, domain.NotFoundError("no model for meter %q", meterID)
	}

	key := r.Key(meterID)
	obj, err := r.storage.Client.GetObject(ctx, r.storage.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get object %s: %w", key, err)
	}
	defer obj.Close()

	if _, err := obj.Stat(); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, domain.NotFoundError("no model for meter %s", meterID)
		}
		return nil, fmt.Errorf("s3 stat object %s: %w", key, err)
	}

	n, err := DecodeDenseNetwork(obj)
	if err != nil {
		return nil, fmt.Errorf("s3 object %s: %w", key, err)
	}
	return n, nil
}
