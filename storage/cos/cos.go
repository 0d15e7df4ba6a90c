//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package cos provides a Tencent Cloud Object Storage (COS) implementation
// of the object store.
//
// Authentication:
// The store requires COS credentials which can be provided via:
// - Environment variables: COS_SECRETID and COS_SECRETKEY (recommended)
// - Option functions: WithSecretID() and WithSecretKey()
//
// Example:
//
//	// Set environment variables
//	export COS_SECRETID="your-secret-id"
//	export COS_SECRETKEY="your-secret-key"
//
//	// Create store
//	store := cos.NewObjectStore("https://bucket.cos.region.myqcloud.com")
package cos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	cossdk "github.com/tencentyun/cos-go-sdk-v5"

	"github.com/flowgraph/flowgraph/storage"
)

const defaultTimeout = 60 * time.Second

// ObjectStore is a Tencent Cloud Object Storage implementation of the
// object store.
type ObjectStore struct {
	cosClient *cossdk.Client
	secretID  string
	secretKey string
}

var _ storage.ObjectStore = (*ObjectStore)(nil)

// NewObjectStore creates a COS-backed object store.
//
// Authentication credentials can be provided in multiple ways:
// 1. Set environment variables COS_SECRETID and COS_SECRETKEY (recommended)
// 2. Use WithSecretID() and WithSecretKey() options
// 3. Use WithClient() to provide a pre-configured COS client directly
func NewObjectStore(bucketURL string, opts ...Option) *ObjectStore {
	options := &options{
		timeout:   defaultTimeout,
		secretID:  os.Getenv("COS_SECRETID"),
		secretKey: os.Getenv("COS_SECRETKEY"),
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.cosClient != nil {
		return &ObjectStore{
			cosClient: options.cosClient,
			secretID:  options.secretID,
			secretKey: options.secretKey,
		}
	}

	u, _ := url.Parse(bucketURL)
	b := &cossdk.BaseURL{BucketURL: u}

	var httpClient *http.Client
	if options.httpClient != nil {
		httpClient = options.httpClient
		if httpClient.Timeout == 0 && options.timeout > 0 {
			httpClient = &http.Client{
				Timeout:   options.timeout,
				Transport: httpClient.Transport,
			}
		}
	} else {
		httpClient = &http.Client{
			Timeout: options.timeout,
			Transport: &cossdk.AuthorizationTransport{
				SecretID:  options.secretID,
				SecretKey: options.secretKey,
			},
		}
	}

	return &ObjectStore{
		cosClient: cossdk.NewClient(b, httpClient),
		secretID:  options.secretID,
		secretKey: options.secretKey,
	}
}

// Get reads an object.
func (s *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.cosClient.Object.Get(ctx, key, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("object %q: %w", key, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object %q: %w", key, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}
	return data, nil
}

// Put writes an object.
func (s *ObjectStore) Put(ctx context.Context, key string, data []byte) error {
	if _, err := s.cosClient.Object.Put(ctx, key, bytes.NewReader(data), nil); err != nil {
		return fmt.Errorf("failed to put object %q: %w", key, err)
	}
	return nil
}

// Delete removes an object.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	if _, err := s.cosClient.Object.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}

// Sign returns a pre-signed GET URL valid for ttl.
func (s *ObjectStore) Sign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.cosClient.Object.GetPresignedURL(
		ctx, http.MethodGet, key, s.secretID, s.secretKey, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to sign object %q: %w", key, err)
	}
	return u.String(), nil
}
