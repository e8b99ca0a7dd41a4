package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Options struct {
	Bucket          string
	Prefix          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Mirror uploads to AWS S3 or any S3-compatible endpoint using path-style
// addressing.
type S3Mirror struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Mirror(opts S3Options) (*S3Mirror, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	s3Opts := s3.Options{
		Region:       opts.Region,
		UsePathStyle: true,
	}
	if opts.Endpoint != "" {
		s3Opts.BaseEndpoint = aws.String(opts.Endpoint)
	}
	if opts.AccessKeyID != "" {
		s3Opts.Credentials = credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")
	}

	return &S3Mirror{
		client: s3.New(s3Opts),
		bucket: opts.Bucket,
		prefix: opts.Prefix,
	}, nil
}

func (m *S3Mirror) Name() string { return "s3" }

func (m *S3Mirror) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	name := path.Join(m.prefix, key)
	uri := fmt.Sprintf("s3://%s/%s", m.bucket, name)

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		return "", &WriteError{Op: "upload", Path: uri, Err: err}
	}

	return uri, nil
}

func (m *S3Mirror) Close() error { return nil }

var _ Mirror = (*S3Mirror)(nil)
