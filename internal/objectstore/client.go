// Package objectstore wraps the two MinIO surfaces used during provisioning:
// the S3 API for buckets and the admin API for policies and users.
package objectstore

import (
	"context"
)

// CreateOutcome tells a fresh user apart from one that was already there
type CreateOutcome int

const (
	Created CreateOutcome = iota + 1
	AlreadyExists
)

func (o CreateOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyExists:
		return "already exists"
	}
	return "unknown"
}

// Client is the set of object-store operations the reconciler needs.
// Every method is safe to repeat: running it twice leaves the server in
// the same state as running it once.
type Client interface {
	BucketExists(ctx context.Context, name string) (bool, error)
	MakeBucket(ctx context.Context, name string) error
	UploadPolicy(ctx context.Context, name string, body []byte) error
	CreateUser(ctx context.Context, username, password string) (CreateOutcome, error)
	AttachPolicy(ctx context.Context, username, policy string) error
}
