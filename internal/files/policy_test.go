package files

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mnhs-dev/registrar-backend/pkg/enums"
)

func TestValidateCollectsAllErrors(t *testing.T) {
	upload := Upload{
		OriginalName: "scan.zip",
		MimeType:     "application/zip",
		Size:         20 * 1024 * 1024,
	}

	errs := Validate(upload, enums.FileTypeTranscriptOfRecords)
	if len(errs) != 2 {
		t.Fatalf("expected both size and mime errors, got %v", errs)
	}
	if !strings.Contains(errs[0], "15MB") {
		t.Fatalf("size error should name the limit, got %q", errs[0])
	}
	if !strings.Contains(errs[1], "application/pdf") {
		t.Fatalf("mime error should list allowed types, got %q", errs[1])
	}
}

func TestValidateUnknownType(t *testing.T) {
	errs := Validate(Upload{MimeType: "application/pdf", Size: 10}, enums.FileType("diploma_scan"))
	if len(errs) != 1 {
		t.Fatalf("expected a single unknown-type error, got %v", errs)
	}
	if !strings.Contains(errs[0], "unknown file type") {
		t.Fatalf("unexpected error %q", errs[0])
	}
}

func TestValidateAcceptsPolicyConformingUpload(t *testing.T) {
	upload := Upload{
		OriginalName: "transcript.pdf",
		MimeType:     "application/pdf",
		Size:         1024,
	}
	if errs := Validate(upload, enums.FileTypeTranscriptOfRecords); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateBoundaries(t *testing.T) {
	exactly5MB := Upload{OriginalName: "sig.png", MimeType: "image/png", Size: 5 * 1024 * 1024}
	if errs := Validate(exactly5MB, enums.FileTypeSignature); len(errs) != 0 {
		t.Fatalf("size at the limit should pass, got %v", errs)
	}

	oneOver := exactly5MB
	oneOver.Size++
	if errs := Validate(oneOver, enums.FileTypeSignature); len(errs) != 1 {
		t.Fatalf("size one byte over should fail, got %v", errs)
	}
}

func TestPolicyTableShape(t *testing.T) {
	sig, ok := PolicyFor(enums.FileTypeSignature)
	if !ok {
		t.Fatal("signature policy missing")
	}
	if sig.Folder != "signatures" || sig.MaxSize != 5*1024*1024 {
		t.Fatalf("unexpected signature policy %+v", sig)
	}

	other, ok := PolicyFor(enums.FileTypeOther)
	if !ok {
		t.Fatal("other policy missing")
	}
	found := false
	for _, m := range other.MimeTypes {
		if m == "application/msword" {
			found = true
		}
	}
	if !found {
		t.Fatalf("other should allow doc uploads, got %v", other.MimeTypes)
	}

	if len(Policies()) != len(enums.FileTypes()) {
		t.Fatalf("policy table should cover every file type")
	}
}

func TestBuildStorageKeyShape(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	upload := Upload{OriginalName: "Transcript Copy.PDF", MimeType: "application/pdf", Size: 1024}

	key, err := BuildStorageKey(upload, enums.FileTypeTranscriptOfRecords, "DOC-2025-ABCD1234", "Juan Dela Cruz", now)
	if err != nil {
		t.Fatalf("BuildStorageKey: %v", err)
	}

	pattern := regexp.MustCompile(`^supporting_documents/DOC-2025-ABCD1234_Juan_Dela_Cruz_transcript_of_records_2025-03-14_09-26-53_[A-Za-z0-9]{8}\.pdf$`)
	if !pattern.MatchString(key) {
		t.Fatalf("key %q does not match expected shape", key)
	}
}

func TestBuildStorageKeyDistinctUnderSameInputs(t *testing.T) {
	now := time.Now()
	upload := Upload{OriginalName: "id.png", MimeType: "image/png", Size: 1}

	a, err := BuildStorageKey(upload, enums.FileTypeValidID, "DOC-2025-AAAA1111", "Maria", now)
	if err != nil {
		t.Fatalf("BuildStorageKey: %v", err)
	}
	b, err := BuildStorageKey(upload, enums.FileTypeValidID, "DOC-2025-AAAA1111", "Maria", now)
	if err != nil {
		t.Fatalf("BuildStorageKey: %v", err)
	}
	if a == b {
		t.Fatalf("identical inputs must still produce distinct keys: %q", a)
	}
}

func TestBuildStorageKeyUnknownType(t *testing.T) {
	if _, err := BuildStorageKey(Upload{}, enums.FileType("nope"), "DOC-2025-AAAA1111", "x", time.Now()); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Juan Dela Cruz", "Juan_Dela_Cruz"},
		{"strips punctuation", "O'Brien, José Jr.!", "OBrien_Jos_Jr"},
		{"collapses whitespace runs", "a   b\t\tc", "a_b_c"},
		{"empty falls back", "???", "unknown"},
		{"truncates", strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sanitizeName(tc.in); got != tc.want {
				t.Fatalf("sanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	if got := formatBytes(15 * 1024 * 1024); got != "15MB" {
		t.Fatalf("unexpected %q", got)
	}
	if got := formatBytes(512 * 1024); got != "512KB" {
		t.Fatalf("unexpected %q", got)
	}
	if got := formatBytes(100); got != "100B" {
		t.Fatalf("unexpected %q", got)
	}
}
