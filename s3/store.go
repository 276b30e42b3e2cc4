// Package s3 stores upload objects in AWS S3 or an S3-compatible service.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	fileloader "github.com/abdoelhafi/file-loader-app"
)

// Config options for the S3 store.
type Config struct {
	Region          string // AWS region (default: us-east-1)
	Bucket          string // Bucket name, required
	AccessKeyID     string // Static credentials; empty uses the default credential chain
	SecretAccessKey string
	Endpoint        string // Custom endpoint for S3-compatible services
	UsePathStyle    bool   // Path-style addressing, usually needed with Endpoint
	PublicURL       string // Overrides the URL prefix reported for stored objects

	CreateBucketIfNotExist bool
}

// API is the subset of *s3.Client the store uses.
type API interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Store is a long-lived S3 object store, safe for concurrent use.
type Store struct {
	api      API
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

// New builds an S3 client from cfg and returns a Store using it.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("new s3 store: bucket name is required")
	}

	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new s3 store: load aws config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	store := NewWithClient(s3.NewFromConfig(awsCfg, s3Options...), cfg)

	if cfg.CreateBucketIfNotExist {
		if err := store.createBucketIfNotExists(ctx, cfg.Region); err != nil {
			return nil, fmt.Errorf("new s3 store: %w", err)
		}
	}

	return store, nil
}

// NewWithClient returns a Store over an existing client.
func NewWithClient(api API, cfg Config) *Store {
	return &Store{
		api:      api,
		uploader: manager.NewUploader(api),
		bucket:   cfg.Bucket,
		baseURL:  baseURL(cfg),
	}
}

func baseURL(cfg Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "" && cfg.UsePathStyle:
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/")
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
	}
}

func (s *Store) createBucketIfNotExists(ctx context.Context, region string) error {
	_, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) && apiErrorCode(err) != "NoSuchBucket" {
		return fmt.Errorf("check bucket: %w", err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}

	if _, err := s.api.CreateBucket(ctx, input); err != nil {
		switch apiErrorCode(err) {
		case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
			return nil
		}
		return fmt.Errorf("create bucket: %w", err)
	}

	slog.Info("created bucket", "bucket", s.bucket)
	return nil
}

// Put uploads content as a private object and reads back its metadata.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, mediaType string, metadata map[string]string) (fileloader.PutResult, error) {
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(mediaType),
		ACL:         types.ObjectCannedACLPrivate,
		Metadata:    metadata,
	})
	if err != nil {
		return fileloader.PutResult{}, fmt.Errorf("put %s: %w", key, err)
	}

	meta := fileloader.StoreMetadata{
		ETag:      trimETag(out.ETag),
		VersionID: out.VersionID,
		User:      metadata,
	}

	head, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Warn("head after put failed, using upload response", "key", key, "err", err)
	} else {
		if head.ETag != nil {
			meta.ETag = trimETag(head.ETag)
		}
		if head.VersionId != nil {
			meta.VersionID = head.VersionId
		}
		meta.LastModified = head.LastModified
		if len(head.Metadata) > 0 {
			meta.User = head.Metadata
		}
	}

	return fileloader.PutResult{URL: s.objectURL(key), Metadata: meta}, nil
}

// Get opens the object body. The caller closes it.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fileloader.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return out.Body, nil
}

func (s *Store) Head(ctx context.Context, key string) (fileloader.ObjectInfo, error) {
	out, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return fileloader.ObjectInfo{}, fileloader.ErrNotFound
		}
		return fileloader.ObjectInfo{}, fmt.Errorf("head %s: %w", key, err)
	}

	info := fileloader.ObjectInfo{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ETag:        aws.ToString(trimETag(out.ETag)),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	return info, nil
}

// Delete removes the object. S3 reports success for missing keys; a NotFound
// from a compatible service is treated the same way.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// List pages through every object in the bucket.
func (s *Store) List(ctx context.Context) ([]fileloader.ObjectInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})

	objects := []fileloader.ObjectInfo{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range page.Contents {
			info := fileloader.ObjectInfo{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
				ETag: aws.ToString(trimETag(obj.ETag)),
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			objects = append(objects, info)
		}
	}

	return objects, nil
}

func (s *Store) objectURL(key string) string {
	return s.baseURL + "/" + key
}

func trimETag(etag *string) *string {
	if etag == nil {
		return nil
	}
	return aws.String(strings.Trim(*etag, `"`))
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}

	switch apiErrorCode(err) {
	case "NotFound", "NoSuchKey":
		return true
	}
	return false
}
