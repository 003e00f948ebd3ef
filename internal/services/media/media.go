package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/princekumarofficial/songs-service/internal/audio"
	"github.com/princekumarofficial/songs-service/internal/catalog"
	"github.com/princekumarofficial/songs-service/internal/config"
)

// Service is the blob store for uploaded songs, backed by MinIO
type Service struct {
	client     *minio.Client
	bucketName string
	useSSL     bool
	publicURL  string
}

// UploadResult identifies a stored blob
type UploadResult struct {
	ExternalID      string `json:"external_id"`
	URL             string `json:"url"`
	DurationSeconds int    `json:"duration_seconds"`
	// Artist is read from the file's tags, empty when untagged
	Artist string `json:"-"`
}

// Object is a stored blob as seen when listing
type Object struct {
	ExternalID   string
	LastModified time.Time
}

// NewService creates a new media service instance
func NewService(cfg *config.Config) (*Service, error) {
	// Initialize MinIO client
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	service := &Service{
		client:     client,
		bucketName: cfg.MinIO.BucketName,
		useSSL:     cfg.MinIO.UseSSL,
		publicURL:  strings.TrimSuffix(cfg.MinIO.PublicURL, "/"),
	}

	// Ensure bucket exists
	if err := service.ensureBucket(); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return service, nil
}

// ensureBucket creates the bucket if it doesn't exist
func (s *Service) ensureBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Prefix is the key prefix under which blobs of a folder are stored
func Prefix(folder, resourceType string) string {
	return fmt.Sprintf("%s/%s/", resourceType, folder)
}

// ObjectKey creates a unique object key for a new song file
func ObjectKey(folder, resourceType string) string {
	return Prefix(folder, resourceType) + uuid.New().String() + ".mp3"
}

// Upload probes data as MP3 and stores it under a fresh key
func (s *Service) Upload(ctx context.Context, data []byte, folder, resourceType string) (UploadResult, error) {
	info, err := audio.Probe(data)
	if err != nil {
		return UploadResult{}, &catalog.UpstreamError{Op: "upload", Err: err}
	}

	objectKey := ObjectKey(folder, resourceType)
	_, err = s.client.PutObject(ctx, s.bucketName, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "audio/mpeg"},
	)
	if err != nil {
		return UploadResult{}, &catalog.UpstreamError{Op: "upload", Err: err}
	}

	return UploadResult{
		ExternalID:      objectKey,
		URL:             s.GetMediaURL(objectKey),
		DurationSeconds: info.DurationSeconds(),
		Artist:          info.Artist,
	}, nil
}

// Delete removes a blob. Keys outside the resource type are refused.
func (s *Service) Delete(ctx context.Context, externalID, resourceType string) error {
	if !strings.HasPrefix(externalID, resourceType+"/") {
		return &catalog.UpstreamError{
			Op:  "delete",
			Err: fmt.Errorf("object %q is not a %s resource", externalID, resourceType),
		}
	}

	err := s.client.RemoveObject(ctx, s.bucketName, externalID, minio.RemoveObjectOptions{})
	if err != nil {
		return &catalog.UpstreamError{Op: "delete", Err: err}
	}
	return nil
}

// GetMediaURL returns the public URL for accessing media (if bucket is public)
func (s *Service) GetMediaURL(objectKey string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucketName, objectKey)
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}

	endpoint := strings.TrimPrefix(s.client.EndpointURL().String(), scheme+"://")
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, s.bucketName, objectKey)
}

// List returns every blob stored under the folder
func (s *Service) List(ctx context.Context, folder, resourceType string) ([]Object, error) {
	// Cancelling stops the listing goroutine when we return early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objectsCh := s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    Prefix(folder, resourceType),
		Recursive: true,
	})

	var objects []Object
	for object := range objectsCh {
		if object.Err != nil {
			return nil, &catalog.UpstreamError{Op: "list", Err: object.Err}
		}
		objects = append(objects, Object{ExternalID: object.Key, LastModified: object.LastModified})
	}

	return objects, nil
}
