package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyLocale      = "locale"
	KeyDeliverable = "deliverable"
	KeyKey         = "s3_key"
	KeyURL         = "url"
	KeyPath        = "path"
	KeyAttempt     = "attempt"
	KeyDestination = "destination"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyContentType = "content_type"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Locale(l string) slog.Attr        { return slog.String(KeyLocale, l) }
func Deliverable(d string) slog.Attr   { return slog.String(KeyDeliverable, d) }
func Key(k string) slog.Attr           { return slog.String(KeyKey, k) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func Destination(d string) slog.Attr   { return slog.String(KeyDestination, d) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func ContentType(ct string) slog.Attr  { return slog.String(KeyContentType, ct) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
