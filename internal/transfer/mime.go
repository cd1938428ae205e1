package transfer

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultContentType is used when no table entry exists and sniffing fails.
const DefaultContentType = "application/octet-stream"

// mimeMap overrides the platform defaults for extensions common in release
// artifacts. Table entries win over content sniffing so e.g. an .asc
// signature is served as text even though it sniffs as generic data.
var mimeMap = map[string]string{
	".asc":       "text/plain",
	".beet":      "text/plain",
	".checksums": "text/plain",
	".json":      "application/json",
	".mar":       "application/octet-stream",
	".bundle":    "application/octet-stream",
	".bz2":       "application/octet-stream",
	".apk":       "application/vnd.android.package-archive",
	".dmg":       "application/x-iso9660-image",
	".xpi":       "application/x-xpinstall",
}

// ContentTypeFor derives the Content-Type for a local file: static table by
// extension first, then content sniffing, then the generic default.
func ContentTypeFor(path string) string {
	if ct, ok := mimeMap[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	if mtype, err := mimetype.DetectFile(path); err == nil {
		return mtype.String()
	}
	return DefaultContentType
}
