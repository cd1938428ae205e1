// Package signer issues time-boxed presigned PUT URLs for the destination
// bucket. Long-lived credentials stay here; the transfer primitive only ever
// sees a short-lived URL.
package signer

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"git.home.luguber.info/inful/beetmover/internal/config"
)

// S3Signer presigns PUT requests against one bucket. Safe for concurrent use.
type S3Signer struct {
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

// New builds a signer from the storage configuration. expiry bounds how long
// each issued URL stays valid; callers must request a fresh URL per attempt
// rather than reuse one across a longer retry window.
func New(cfg config.S3Config, expiry time.Duration) *S3Signer {
	client := s3.New(s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.Credentials.ID, cfg.Credentials.Key, ""),
	})
	return &S3Signer{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  expiry,
	}
}

// SignedPutURL returns a fresh presigned PUT URL for key plus the headers the
// upload must send for the signature to verify.
func (s *S3Signer) SignedPutURL(ctx context.Context, key, contentType string) (string, http.Header, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := s.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", nil, err
	}
	return req.URL, req.SignedHeader, nil
}
