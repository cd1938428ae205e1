package mover

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/beetmover/internal/artifact"
	"git.home.luguber.info/inful/beetmover/internal/errors"
	"git.home.luguber.info/inful/beetmover/internal/manifest"
	"git.home.luguber.info/inful/beetmover/internal/task"
	"git.home.luguber.info/inful/beetmover/internal/transfer"
	"git.home.luguber.info/inful/beetmover/internal/workspace"
)

// spyTransfer records calls and simulates outcomes without touching the network.
type spyTransfer struct {
	mu          sync.Mutex
	downloads   []string
	uploads     []string
	downloadErr error
	uploadErrs  map[string]error // destination key -> error
	content     []byte
}

func (s *spyTransfer) Download(_ context.Context, url, destPath string) error {
	s.mu.Lock()
	s.downloads = append(s.downloads, url)
	s.mu.Unlock()
	if s.downloadErr != nil {
		return s.downloadErr
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return err
	}
	content := s.content
	if content == nil {
		content = []byte("artifact-bytes")
	}
	return os.WriteFile(destPath, content, 0o600)
}

func (s *spyTransfer) Upload(_ context.Context, _ transfer.PutURLSigner, target transfer.UploadTarget, _ string) error {
	s.mu.Lock()
	s.uploads = append(s.uploads, target.Key)
	s.mu.Unlock()
	if err, ok := s.uploadErrs[target.Key]; ok {
		return err
	}
	return nil
}

func (s *spyTransfer) downloadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.downloads)
}

func (s *spyTransfer) uploadedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploads...)
}

type fakeSigner struct{}

func (fakeSigner) SignedPutURL(context.Context, string, string) (string, http.Header, error) {
	return "https://signed.invalid/put", nil, nil
}

func referenceManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(`{
		"artifact_base_url": "https://x/artifacts/task123",
		"s3_prefix_dated": "dated/2024",
		"s3_prefix_latest": "latest",
		"mapping": {
			"en-US": {"installer": {"artifact": "build/app.exe", "s3_key": "app.exe"}}
		}
	}`))
	require.NoError(t, err)
	return m
}

func newTestOrchestrator(t *testing.T, spy *spyTransfer, deps []string, opts ...func(*Options)) *Orchestrator {
	t.Helper()
	ws := workspace.NewPersistentManager(t.TempDir())
	require.NoError(t, ws.Create())
	o := Options{
		Transfer:    spy,
		Signer:      fakeSigner{},
		Validator:   artifact.NewValidator("https://x/artifacts", deps),
		Workspace:   ws,
		Concurrency: 2,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return New(o)
}

func TestRunEndToEndScenario(t *testing.T) {
	spy := &spyTransfer{}
	o := newTestOrchestrator(t, spy, []string{"task123"})

	report := o.Run(context.Background(), referenceManifest(t))
	require.True(t, report.OK())
	require.NoError(t, report.Err())
	require.Len(t, report.Results, 1)
	require.Len(t, report.Results[0].Destinations, 2)

	require.Equal(t, []string{"https://x/artifacts/task123/build/app.exe"}, spy.downloads)
	require.ElementsMatch(t, []string{"dated/2024/app.exe", "latest/app.exe"}, spy.uploadedKeys())
}

func TestUntrustedSourceNeverDownloads(t *testing.T) {
	spy := &spyTransfer{}
	// task123 is not a dependency of this run
	o := newTestOrchestrator(t, spy, []string{"task999"})

	report := o.Run(context.Background(), referenceManifest(t))
	require.False(t, report.OK())
	require.Equal(t, KindUntrustedSource, report.Results[0].Kind)
	require.Zero(t, spy.downloadCount())
	require.Empty(t, spy.uploadedKeys())
}

func TestFailedDownloadSkipsAllUploads(t *testing.T) {
	spy := &spyTransfer{
		downloadErr: errors.DownloadPermanent("https://x/artifacts/task123/build/app.exe", fmt.Errorf("404")),
	}
	o := newTestOrchestrator(t, spy, []string{"task123"})

	report := o.Run(context.Background(), referenceManifest(t))
	require.False(t, report.OK())
	require.Equal(t, KindDownload, report.Results[0].Kind)
	require.Equal(t, 1, spy.downloadCount())
	require.Empty(t, spy.uploadedKeys())
}

func TestDestinationFailureIsIndependent(t *testing.T) {
	spy := &spyTransfer{
		uploadErrs: map[string]error{
			"dated/2024/app.exe": errors.UploadPermanent("dated/2024/app.exe", fmt.Errorf("403")),
		},
	}
	o := newTestOrchestrator(t, spy, []string{"task123"})

	report := o.Run(context.Background(), referenceManifest(t))
	require.False(t, report.OK())
	require.Equal(t, KindUpload, report.Results[0].Kind)

	// the latest destination was still attempted and succeeded
	require.ElementsMatch(t, []string{"dated/2024/app.exe", "latest/app.exe"}, spy.uploadedKeys())
	for _, d := range report.Results[0].Destinations {
		if d.Key == "latest/app.exe" {
			require.NoError(t, d.Err)
		} else {
			require.Error(t, d.Err)
		}
	}
}

func tenLocaleManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	mapping := ""
	for i := range 10 {
		if i > 0 {
			mapping += ","
		}
		mapping += fmt.Sprintf(`"loc%d": {"bin": {"artifact": "build/f%d", "s3_key": "f%d"}}`, i, i, i)
	}
	m, err := manifest.Parse([]byte(fmt.Sprintf(`{
		"artifact_base_url": "https://x/artifacts/task123",
		"s3_prefix_dated": "dated/2024",
		"s3_prefix_latest": "latest",
		"mapping": {%s}
	}`, mapping)))
	require.NoError(t, err)
	return m
}

func TestOneFailureAmongTenStillAttemptsAll(t *testing.T) {
	spy := &spyTransfer{
		uploadErrs: map[string]error{
			"latest/f7": errors.UploadPermanent("latest/f7", fmt.Errorf("500 after retries")),
		},
	}
	o := newTestOrchestrator(t, spy, []string{"task123"}, func(o *Options) { o.Concurrency = 4 })

	report := o.Run(context.Background(), tenLocaleManifest(t))
	require.Len(t, report.Results, 10)
	require.Len(t, report.Failed(), 1)
	require.Equal(t, "loc7/bin", report.Failed()[0].JobID)
	require.Equal(t, 10, spy.downloadCount())
	require.Len(t, spy.uploadedKeys(), 20) // every destination of every job attempted
}

func TestJobsAndDestinationCounts(t *testing.T) {
	spy := &spyTransfer{}
	o := newTestOrchestrator(t, spy, []string{"task123"})

	report := o.Run(context.Background(), tenLocaleManifest(t))
	require.True(t, report.OK())
	require.Len(t, report.Results, 10)
	for _, res := range report.Results {
		require.Len(t, res.Destinations, 2)
	}
}

func TestChecksumMismatchFailsJobBeforeUploads(t *testing.T) {
	spy := &spyTransfer{content: []byte("tampered")}
	o := newTestOrchestrator(t, spy, []string{"task123"}, func(o *Options) {
		o.Checksums = map[string]task.Digest{
			// digest of different content
			"build/app.exe": {Algorithm: "sha256", Value: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		}
	})

	report := o.Run(context.Background(), referenceManifest(t))
	require.False(t, report.OK())
	require.Equal(t, KindDownload, report.Results[0].Kind)
	require.Empty(t, spy.uploadedKeys())
}

func TestChecksumMatchAllowsUploads(t *testing.T) {
	spy := &spyTransfer{content: []byte("abc")}
	o := newTestOrchestrator(t, spy, []string{"task123"}, func(o *Options) {
		o.Checksums = map[string]task.Digest{
			"build/app.exe": {Algorithm: "sha256", Value: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		}
	})

	report := o.Run(context.Background(), referenceManifest(t))
	require.True(t, report.OK())
	require.Len(t, spy.uploadedKeys(), 2)
}

func TestCanceledRunMarksJobsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	spy := &spyTransfer{}
	o := newTestOrchestrator(t, spy, []string{"task123"})

	report := o.Run(ctx, tenLocaleManifest(t))
	require.False(t, report.OK())
	require.Len(t, report.Results, 10)
	for _, res := range report.Results {
		require.Equal(t, KindCanceled, res.Kind)
	}
	require.Zero(t, spy.downloadCount())
}

func TestEmptyManifestIsSuccess(t *testing.T) {
	m, err := manifest.Parse([]byte(`{
		"artifact_base_url": "u", "s3_prefix_dated": "d", "s3_prefix_latest": "l", "mapping": {}
	}`))
	require.NoError(t, err)

	spy := &spyTransfer{}
	o := newTestOrchestrator(t, spy, []string{"task123"})
	report := o.Run(context.Background(), m)
	require.True(t, report.OK())
	require.Empty(t, report.Results)
}

func TestReportErrSummarizesFailures(t *testing.T) {
	spy := &spyTransfer{
		downloadErr: errors.DownloadPermanent("u", fmt.Errorf("404")),
	}
	o := newTestOrchestrator(t, spy, []string{"task123"})
	report := o.Run(context.Background(), referenceManifest(t))

	err := report.Err()
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryUpload))
}
