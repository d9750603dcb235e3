package store

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// S3Config holds the credentials and placement settings for an
// S3-compatible object store.
type S3Config struct {
	Region        string
	Bucket        string
	Prefix        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PresignExpiry time.Duration
}

// S3Store stores media and subtitle objects in an S3-compatible bucket.
// Implements ObjectStore.
type S3Store struct {
	client        *s3.Client
	uploader      *manager.Uploader
	presignClient *s3.PresignClient
	fetchClient   *http.Client
	bucket        string
	prefix        string
	presignExpiry time.Duration
	log           zerolog.Logger
}

// NewS3Store creates an S3 object store from config.
func NewS3Store(cfg S3Config, log zerolog.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	return &S3Store{
		client:        client,
		uploader:      manager.NewUploader(client),
		presignClient: s3.NewPresignClient(client),
		fetchClient:   &http.Client{},
		bucket:        cfg.Bucket,
		prefix:        cfg.Prefix,
		presignExpiry: expiry,
		log:           log.With().Str("component", "s3-store").Logger(),
	}, nil
}

// HealthCheck verifies the bucket exists and credentials are valid.
// Called once at startup so bad credentials fail before any job runs.
func (s *S3Store) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: &s.bucket,
	})
	return err
}

// UploadLocalFile stores a file from disk.
func (s *S3Store) UploadLocalFile(ctx context.Context, filePath string, opts UploadOptions) (Asset, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return Asset{}, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	contentType := opts.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filePath))
	}

	key := s.objectKey(opts.Folder, filepath.Ext(filePath))
	return s.put(ctx, key, f, contentType)
}

// FetchRemoteURL pulls the URL into the bucket without staging it on disk.
func (s *S3Store) FetchRemoteURL(ctx context.Context, url string, opts UploadOptions) (Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Asset{}, fmt.Errorf("create fetch request: %w", err)
	}

	resp, err := s.fetchClient.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Asset{}, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = resp.Header.Get("Content-Type")
	}

	key := s.objectKey(opts.Folder, extFromURL(url))
	asset, err := s.put(ctx, key, resp.Body, contentType)
	if err != nil {
		return Asset{}, err
	}
	s.log.Debug().Str("url", url).Str("key", key).Msg("remote fetch stored")
	return asset, nil
}

// UploadStream stores an object of unknown length.
func (s *S3Store) UploadStream(ctx context.Context, r io.Reader, opts UploadOptions) (Asset, error) {
	key := s.objectKey(opts.Folder, "")
	return s.put(ctx, key, r, opts.ContentType)
}

// Delete removes an object. publicID is the key returned by an upload.
func (s *S3Store) Delete(ctx context.Context, publicID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &publicID,
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", publicID, err)
	}
	return nil
}

func (s *S3Store) put(ctx context.Context, key string, body io.Reader, contentType string) (Asset, error) {
	input := &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = &contentType
	}

	// manager.Uploader handles multipart upload for bodies of unknown size.
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return Asset{}, fmt.Errorf("s3 upload %s: %w", key, err)
	}

	url, err := s.presignGet(ctx, key)
	if err != nil {
		return Asset{}, err
	}
	return Asset{SecureURL: url, PublicID: key}, nil
}

func (s *S3Store) presignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// objectKey builds a unique key under the configured prefix and folder.
func (s *S3Store) objectKey(folder, ext string) string {
	name := uuid.NewString() + ext
	parts := make([]string, 0, 3)
	if s.prefix != "" {
		parts = append(parts, s.prefix)
	}
	if folder != "" {
		parts = append(parts, folder)
	}
	parts = append(parts, name)
	return path.Join(parts...)
}

// extFromURL extracts a plausible file extension from a URL path.
func extFromURL(url string) string {
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	ext := path.Ext(trimmed)
	if len(ext) > 5 {
		return ""
	}
	return ext
}
