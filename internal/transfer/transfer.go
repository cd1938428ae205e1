// Package transfer implements the retryable download and upload primitives.
// Downloads land on local scratch disk; uploads PUT the full file body to a
// presigned, time-boxed write URL. Both classify failures as transient
// (retried with backoff) or permanent (abort immediately).
package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/beetmover/internal/errors"
	"git.home.luguber.info/inful/beetmover/internal/metrics"
	"git.home.luguber.info/inful/beetmover/internal/retry"
)

// PutURLSigner hands out fresh presigned PUT URLs. Implementations must not
// cache beyond the URL's TTL; Upload requests a new URL for every attempt
// because the TTL (~30s) is shorter than a retry series can run.
type PutURLSigner interface {
	SignedPutURL(ctx context.Context, key, contentType string) (string, http.Header, error)
}

// UploadTarget names one destination object.
type UploadTarget struct {
	Key         string
	ContentType string
}

// Client performs transfers over a shared connection pool. Safe for
// concurrent use; all per-transfer state is local.
type Client struct {
	httpClient *http.Client
	policy     retry.Policy
	recorder   metrics.Recorder
}

// NewClient builds a transfer client around a shared *http.Client.
func NewClient(httpClient *http.Client, policy retry.Policy, recorder metrics.Recorder) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Client{httpClient: httpClient, policy: policy, recorder: recorder}
}

// Download fetches url to destPath, retrying transient failures under the
// client's policy. Exactly one file is written on success; a failed attempt
// leaves at most scratch content that the next run may delete.
func (c *Client) Download(ctx context.Context, url, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return errors.WorkspaceError("create download directory", err)
	}
	attempts := 0
	return retry.Do(ctx, c.policy, "download", func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			c.recorder.IncRetry("download")
		}
		return c.downloadOnce(ctx, url, destPath)
	})
}

func (c *Client) downloadOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.DownloadPermanent(url, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// connection-level failures (reset, timeout, DNS) are worth retrying
		return errors.DownloadTransient(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyDownloadStatus(url, resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return errors.WorkspaceError("create download file", err)
	}
	written, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return errors.DownloadTransient(url, copyErr)
	}
	if closeErr != nil {
		return errors.WorkspaceError("close download file", closeErr)
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return errors.DownloadTransient(url, fmt.Errorf("size mismatch: got %d want %d", written, resp.ContentLength))
	}
	return nil
}

// Upload PUTs localPath to the target, requesting a fresh signed URL from the
// signer before every attempt.
func (c *Client) Upload(ctx context.Context, signer PutURLSigner, target UploadTarget, localPath string) error {
	attempts := 0
	return retry.Do(ctx, c.policy, "upload", func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			c.recorder.IncRetry("upload")
		}
		return c.uploadOnce(ctx, signer, target, localPath)
	})
}

func (c *Client) uploadOnce(ctx context.Context, signer PutURLSigner, target UploadTarget, localPath string) error {
	signedURL, headers, err := signer.SignedPutURL(ctx, target.Key, target.ContentType)
	if err != nil {
		return errors.Wrap(err, errors.CategoryUpload, errors.SeverityError, "failed to sign upload URL").
			WithContext("key", target.Key)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return errors.WorkspaceError("open upload file", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return errors.WorkspaceError("stat upload file", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, f)
	if err != nil {
		return errors.UploadPermanent(target.Key, err)
	}
	req.ContentLength = info.Size()
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if target.ContentType != "" {
		req.Header.Set("Content-Type", target.ContentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.UploadTransient(target.Key, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return classifyUploadStatus(target.Key, resp.StatusCode)
}

// classifyDownloadStatus maps HTTP status codes to transient/permanent download errors.
func classifyDownloadStatus(url string, status int) error {
	err := fmt.Errorf("unexpected status %d", status)
	if transientStatus(status) {
		return errors.DownloadTransient(url, err)
	}
	return errors.DownloadPermanent(url, err)
}

// classifyUploadStatus maps HTTP status codes to transient/permanent upload
// errors. 403 is transient here: an expired presigned URL answers 403 and the
// next attempt signs a fresh one.
func classifyUploadStatus(key string, status int) error {
	err := fmt.Errorf("unexpected status %d", status)
	if transientStatus(status) || status == http.StatusForbidden {
		return errors.UploadTransient(key, err)
	}
	return errors.UploadPermanent(key, err)
}

func transientStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout
}
