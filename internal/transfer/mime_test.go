package transfer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentTypeTableOverridesSniffing(t *testing.T) {
	// .asc content sniffs as plain data; the table entry must win anyway
	path := filepath.Join(t.TempDir(), "app.exe.asc")
	require.NoError(t, os.WriteFile(path, []byte("-----BEGIN PGP SIGNATURE-----"), 0o600))
	require.Equal(t, "text/plain", ContentTypeFor(path))
}

func TestContentTypeTableEntries(t *testing.T) {
	cases := map[string]string{
		"a.checksums": "text/plain",
		"a.mar":       "application/octet-stream",
		"a.apk":       "application/vnd.android.package-archive",
		"a.json":      "application/json",
		"a.xpi":       "application/x-xpinstall",
		"a.ASC":       "text/plain", // extension match is case-insensitive
	}
	for name, want := range cases {
		require.Equal(t, want, ContentTypeFor(name), name)
	}
}

func TestContentTypeSniffsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.weird")
	require.NoError(t, os.WriteFile(path, []byte("plain text content here"), 0o600))
	ct := ContentTypeFor(path)
	require.True(t, strings.HasPrefix(ct, "text/plain"), ct)
}

func TestContentTypeMissingFileFallsBack(t *testing.T) {
	require.Equal(t, DefaultContentType, ContentTypeFor(filepath.Join(t.TempDir(), "absent.weird")))
}
