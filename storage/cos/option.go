//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package cos

import (
	"net/http"
	"time"

	cossdk "github.com/tencentyun/cos-go-sdk-v5"
)

// Option defines a function type for configuring the COS object store.
type Option func(*options)

// options holds the configuration options for the COS object store.
type options struct {
	cosClient  *cossdk.Client
	httpClient *http.Client
	timeout    time.Duration
	secretID   string
	secretKey  string
}

// WithClient sets a pre-configured COS client directly.
func WithClient(client *cossdk.Client) Option {
	return func(o *options) {
		o.cosClient = client
	}
}

// WithHTTPClient sets the HTTP client to use for COS requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithTimeout sets the timeout duration for HTTP requests.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithSecretID sets the COS secret ID for authentication.
// If not provided, the store uses the COS_SECRETID environment variable.
func WithSecretID(secretID string) Option {
	return func(o *options) {
		o.secretID = secretID
	}
}

// WithSecretKey sets the COS secret key for authentication.
// If not provided, the store uses the COS_SECRETKEY environment variable.
func WithSecretKey(secretKey string) Option {
	return func(o *options) {
		o.secretKey = secretKey
	}
}
