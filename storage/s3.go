package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage implements Storage interface for AWS S3.
// Object keys follow the local naming scheme, so the code is a key prefix.
type S3Storage struct {
	client *s3.Client
	bucket string
}

// NewS3Storage creates a new S3 storage instance
func NewS3Storage(cfg StorageConfig) (*S3Storage, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("S3 bucket is required for S3 storage")
	}

	ctx := context.Background()

	var awsCfg aws.Config
	var err error

	// Load AWS config
	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		// Use explicit credentials
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.S3Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AWSAccessKey,
				cfg.AWSSecretKey,
				"",
			)),
		)
	} else {
		// Use default credentials (from environment, IAM role, etc.)
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.S3Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client: client,
		bucket: cfg.S3Bucket,
	}, nil
}

// Put stores a blob in S3. A single PutObject is atomic for readers.
// Seekable bodies are passed through as is so the SDK can sign them over plain HTTP.
func (s *S3Storage) Put(ctx context.Context, code, name string, data io.Reader) (int64, error) {
	if !ValidCode(code) {
		return 0, &WriteError{Code: code, Err: ErrInvalidCode}
	}

	var body io.Reader = data
	var counter *countingReader
	size, seekable := remaining(data)
	if !seekable {
		counter = &countingReader{r: data}
		body = counter
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(BlobName(code, name)),
		Body:        body,
		ContentType: aws.String(ContentType(name)),
	})
	if err != nil {
		return 0, &WriteError{Code: code, Err: err}
	}

	if counter != nil {
		size = counter.n
	}
	return size, nil
}

// DeleteByCode removes every object whose key starts with {code}-
func (s *S3Storage) DeleteByCode(ctx context.Context, code string) error {
	if !ValidCode(code) {
		return ErrInvalidCode
	}

	keys, err := s.listKeys(ctx, blobPrefix(code))
	if err != nil {
		return &DeleteError{Code: code, Err: err}
	}
	if len(keys) == 0 {
		return fmt.Errorf("code %s: %w", code, ErrNotFound)
	}

	var errs []error
	for _, key := range keys {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return &DeleteError{Code: code, Err: errors.Join(errs...)}
	}

	return nil
}

// Open retrieves the first object stored under code
func (s *S3Storage) Open(ctx context.Context, code string) (*Blob, error) {
	if !ValidCode(code) {
		return nil, ErrInvalidCode
	}

	keys, err := s.listKeys(ctx, blobPrefix(code))
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("code %s: %w", code, ErrNotFound)
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(keys[0]),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}

	name := originalName(code, keys[0])
	return &Blob{
		Name:        name,
		Size:        aws.ToInt64(result.ContentLength),
		ContentType: ContentType(name),
		Body:        result.Body,
	}, nil
}

func (s *S3Storage) listKeys(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// remaining reports how many bytes a seekable reader has left, restoring its offset
func remaining(r io.Reader) (int64, bool) {
	seeker, ok := r.(io.Seeker)
	if !ok {
		return 0, false
	}
	cur, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false
	}
	end, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, false
	}
	if _, err := seeker.Seek(cur, io.SeekStart); err != nil {
		return 0, false
	}
	return end - cur, true
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
