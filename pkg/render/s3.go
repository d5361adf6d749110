package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of *s3.Client used by S3Source.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source loads template sources from an S3 bucket.
//
// Example usage:
//
//	client := s3.New(s3.Options{Region: "eu-west-1", Credentials: creds})
//	src := render.NewS3Source(client, "my-bucket", "templates/")
//	if err := src.LoadInto(ctx, reg); err != nil {
//	    return err
//	}
type S3Source struct {
	client  S3API
	bucket  string
	prefix  string
	maxSize int64
}

// NewS3Source creates a source reading objects under prefix in bucket.
func NewS3Source(client S3API, bucket, prefix string) *S3Source {
	return &S3Source{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		maxSize: 1 << 20,
	}
}

// WithMaxSize limits the size of a single template object.
func (s *S3Source) WithMaxSize(n int64) *S3Source {
	s.maxSize = n
	return s
}

// ParseS3URL splits "s3://bucket/prefix" into bucket and prefix.
func ParseS3URL(u string) (bucket, prefix string, ok bool) {
	rest, found := strings.CutPrefix(u, "s3://")
	if !found {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", false
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return bucket, prefix, true
}

// Sources lists and downloads every template object under the prefix.
func (s *S3Source) Sources(ctx context.Context) ([]Source, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var sources []Source
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name, ok := TemplateName(key, s.prefix)
			if !ok {
				continue
			}
			text, err := s.get(ctx, key)
			if err != nil {
				return nil, err
			}
			sources = append(sources, Source{Name: name, Text: text})
		}
	}
	return sources, nil
}

// LoadInto replaces the templates of h with the bucket contents.
func (s *S3Source) LoadInto(ctx context.Context, h *HTML) error {
	sources, err := s.Sources(ctx)
	if err != nil {
		return err
	}
	return h.Load(sources)
}

func (s *S3Source) get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	r := io.Reader(out.Body)
	if s.maxSize > 0 {
		r = io.LimitReader(out.Body, s.maxSize+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	if s.maxSize > 0 && int64(len(b)) > s.maxSize {
		return "", fmt.Errorf("s3://%s/%s: template larger than %d bytes", s.bucket, key, s.maxSize)
	}
	return string(b), nil
}
