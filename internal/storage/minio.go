// Package storage fetches full-field rasters from the host's object store
// and archives run outputs beside them.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"canopycover-extractor/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore initializes the object-store client and ensures the raster
// bucket exists.
func NewMinioStore(ctx context.Context, cfg config.MinioConfig) (*MinioStore, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		slog.Warn("invalid MinIO secure flag, defaulting to false", "error", err)
		isSecure = false
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	store := &MinioStore{client: client, bucket: cfg.MinioBucket}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO server: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioLocation}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		slog.Info("created raster bucket", "bucket", cfg.MinioBucket)
	}

	return store, nil
}

// FetchRaster downloads the raster object and its sidecar world file next
// to destPath. A missing world file is left to the raster reader to report
// as a non-georeferenced input.
func (s *MinioStore) FetchRaster(ctx context.Context, objectName, destPath string) error {
	if err := s.client.FGetObject(ctx, s.bucket, objectName, destPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("failed to fetch raster %s: %w", objectName, err)
	}

	worldObject := strings.TrimSuffix(objectName, filepath.Ext(objectName)) + ".tfw"
	worldDest := strings.TrimSuffix(destPath, filepath.Ext(destPath)) + ".tfw"
	if err := s.client.FGetObject(ctx, s.bucket, worldObject, worldDest, minio.GetObjectOptions{}); err != nil {
		slog.Warn("no world file fetched for raster", "object", worldObject, "error", err)
	}

	return nil
}

// ArchiveTraits uploads the traits CSV beside the source raster.
func (s *MinioStore) ArchiveTraits(ctx context.Context, objectName, csvPath string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, objectName, csvPath,
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return fmt.Errorf("failed to archive traits CSV %s: %w", objectName, err)
	}
	return nil
}
