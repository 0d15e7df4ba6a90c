//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package s3

const (
	defaultRegion     = "us-east-1"
	defaultMaxRetries = 3
)

// Option is a functional option for configuring the S3 object store.
type Option func(*options)

// options holds the configuration for creating an S3 object store.
type options struct {
	endpoint string
	region   string

	accessKeyID     string
	secretAccessKey string
	sessionToken    string

	usePathStyle bool
	maxRetries   int
}

// WithEndpoint sets a custom endpoint URL. Use this for S3-compatible
// services such as MinIO, DigitalOcean Spaces or Cloudflare R2.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		if endpoint != "" {
			o.endpoint = endpoint
		}
	}
}

// WithRegion sets the AWS region. Default is "us-east-1" if not set.
func WithRegion(region string) Option {
	return func(o *options) {
		if region != "" {
			o.region = region
		}
	}
}

// WithCredentials sets the access key ID and secret access key. If not
// provided, credentials are resolved through the default AWS credential
// chain. Both values must be non-empty to take effect.
func WithCredentials(accessKeyID, secretAccessKey string) Option {
	return func(o *options) {
		if accessKeyID != "" && secretAccessKey != "" {
			o.accessKeyID = accessKeyID
			o.secretAccessKey = secretAccessKey
		}
	}
}

// WithSessionToken sets the session token for temporary STS credentials.
func WithSessionToken(token string) Option {
	return func(o *options) {
		o.sessionToken = token
	}
}

// WithPathStyle enables path-style addressing instead of
// virtual-hosted-style. Required for MinIO and some compatible services.
func WithPathStyle(enabled bool) Option {
	return func(o *options) {
		o.usePathStyle = enabled
	}
}

// WithRetries sets the maximum number of retries for failed requests.
// Default is 3.
func WithRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}
