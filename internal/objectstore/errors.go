package objectstore

import (
	"errors"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
)

// Error codes returned by the MinIO server
const (
	CodeNoSuchUser            = "XMinioAdminNoSuchUser"
	CodePolicyAlreadyApplied  = "XMinioAdminPolicyChangeAlreadyApplied"
	CodeBucketAlreadyOwned    = "BucketAlreadyOwnedByYou"
	CodeBucketAlreadyExists   = "BucketAlreadyExists"
	CodeMalformedPolicy       = "XMinioMalformedJSON"
	CodeAccessDenied          = "AccessDenied"
	CodeInvalidAccessKeyID    = "InvalidAccessKeyId"
	CodeSignatureDoesNotMatch = "SignatureDoesNotMatch"
)

var (
	ErrNoBucketCredentials = errors.New("bucket creator credentials are not configured")
	ErrNoAdminCredentials  = errors.New("MinIO admin credentials are not configured")
)

// AdminCode returns the admin API error code carried by err, if any
func AdminCode(err error) string {
	var resp madmin.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code
	}
	return ""
}

// S3Code returns the S3 API error code carried by err, if any
func S3Code(err error) string {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code
	}
	return ""
}

// IsNoSuchUser reports whether the admin API said the user does not exist
func IsNoSuchUser(err error) bool {
	return err != nil && AdminCode(err) == CodeNoSuchUser
}

// IsPolicyAlreadyApplied reports whether an attach call was a no-op
func IsPolicyAlreadyApplied(err error) bool {
	return err != nil && AdminCode(err) == CodePolicyAlreadyApplied
}

// IsBucketAlreadyOwned reports whether a create call hit our own bucket.
// BucketAlreadyExists (someone else's bucket) is deliberately not included.
func IsBucketAlreadyOwned(err error) bool {
	return err != nil && S3Code(err) == CodeBucketAlreadyOwned
}

// IsAccessDenied reports whether either API rejected the credentials
func IsAccessDenied(err error) bool {
	if err == nil {
		return false
	}
	for _, code := range []string{AdminCode(err), S3Code(err)} {
		switch code {
		case CodeAccessDenied, CodeInvalidAccessKeyID, CodeSignatureDoesNotMatch:
			return true
		}
	}
	return false
}
