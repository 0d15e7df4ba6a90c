//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package s3 provides an S3-backed object store for board documents and
// run artifacts. It works against AWS S3 and S3-compatible services like
// MinIO, DigitalOcean Spaces and Cloudflare R2.
package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/flowgraph/flowgraph/storage"
)

// ErrEmptyBucket is returned when NewObjectStore is called without a bucket.
var ErrEmptyBucket = errors.New("s3: bucket name is required")

// s3API is the subset of the AWS S3 API the store uses. It exists so unit
// tests can substitute the SDK client.
type s3API interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

// presignAPI is the subset of the presign client the store uses.
type presignAPI interface {
	PresignGetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ObjectStore implements storage.ObjectStore on top of S3.
type ObjectStore struct {
	api     s3API
	presign presignAPI
	bucket  string
}

var _ storage.ObjectStore = (*ObjectStore)(nil)

// NewObjectStore creates an S3-backed object store for the given bucket.
func NewObjectStore(ctx context.Context, bucket string, opts ...Option) (*ObjectStore, error) {
	if bucket == "" {
		return nil, ErrEmptyBucket
	}
	opt := options{maxRetries: defaultMaxRetries}
	for _, o := range opts {
		o(&opt)
	}

	var awsOpts []func(*config.LoadOptions) error
	if opt.region != "" {
		awsOpts = append(awsOpts, config.WithRegion(opt.region))
	} else if opt.endpoint != "" {
		// Custom endpoints still need a region for signing.
		awsOpts = append(awsOpts, config.WithRegion(defaultRegion))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, err
	}

	var s3Opts []func(*awss3.Options)
	if opt.endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(opt.endpoint)
		})
	}
	if opt.usePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}
	if opt.accessKeyID != "" && opt.secretAccessKey != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.Credentials = credentials.NewStaticCredentialsProvider(
				opt.accessKeyID,
				opt.secretAccessKey,
				opt.sessionToken,
			)
		})
	}
	if opt.maxRetries > 0 {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.RetryMaxAttempts = opt.maxRetries
		})
	}

	client := awss3.NewFromConfig(awsCfg, s3Opts...)
	return &ObjectStore{
		api:     client,
		presign: awss3.NewPresignClient(client),
		bucket:  bucket,
	}, nil
}

// Get reads an object from the bucket.
func (s *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.api.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Put writes an object to the bucket.
func (s *ObjectStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.api.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

// Delete removes an object. S3 deletes are idempotent, so removing a
// missing key succeeds.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// Sign returns a pre-signed GET URL valid for ttl.
func (s *ObjectStore) Sign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
