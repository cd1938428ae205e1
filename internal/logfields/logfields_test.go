package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    interface{}
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Locale", KeyLocale, "en-US", Locale("en-US")},
		{"Deliverable", KeyDeliverable, "installer", Deliverable("installer")},
		{"Key", KeyKey, "latest/app.exe", Key("latest/app.exe")},
		{"URL", KeyURL, "http://example", URL("http://example")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Destination", KeyDestination, "dated/2024/app.exe", Destination("dated/2024/app.exe")},
		{"Stage", KeyStage, "download", Stage("download")},
		{"ContentType", KeyContentType, "application/pgp-signature", ContentType("application/pgp-signature")},
	}

	for _, tc := range cases {
		a := tc.attr.(slog.Attr)
		if a.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, a.Key)
		}
		if a.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, a.Value.String())
		}
	}
}

func TestAttemptAndDuration(t *testing.T) {
	if a := Attempt(3); a.Key != KeyAttempt || a.Value.Int64() != 3 {
		t.Fatalf("unexpected attempt attr: %v", a)
	}
	if a := DurationMS(12.5); a.Key != KeyDurationMS || a.Value.Float64() != 12.5 {
		t.Fatalf("unexpected duration attr: %v", a)
	}
}

func TestErrorAttr(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should produce empty value, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("expected boom, got %q", a.Value.String())
	}
}
