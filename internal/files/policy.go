package files

import (
	"crypto/rand"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/mnhs-dev/registrar-backend/pkg/enums"
)

var storageKeyCharset = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

const (
	folderSignatures = "signatures"
	folderSupporting = "supporting_documents"

	storageKeyRandomLen = 8
	sanitizedNameMaxLen = 50
)

// Policy is the per-file-type upload rule set: size ceiling, MIME allowlist
// and destination folder in the bucket.
type Policy struct {
	MaxSize    int64    `json:"max_size"`
	MimeTypes  []string `json:"mime_types"`
	Extensions []string `json:"extensions"`
	Folder     string   `json:"folder"`
}

var policyTable = map[enums.FileType]Policy{
	enums.FileTypeSignature: {
		MaxSize:    5 * 1024 * 1024,
		MimeTypes:  []string{"image/jpeg", "image/png", "image/gif", "application/pdf"},
		Extensions: []string{"jpg", "jpeg", "png", "gif", "pdf"},
		Folder:     folderSignatures,
	},
	enums.FileTypeAffidavitOfLoss: {
		MaxSize:    10 * 1024 * 1024,
		MimeTypes:  []string{"application/pdf", "image/jpeg", "image/png"},
		Extensions: []string{"pdf", "jpg", "jpeg", "png"},
		Folder:     folderSupporting,
	},
	enums.FileTypeBirthCertificate: {
		MaxSize:    10 * 1024 * 1024,
		MimeTypes:  []string{"application/pdf", "image/jpeg", "image/png"},
		Extensions: []string{"pdf", "jpg", "jpeg", "png"},
		Folder:     folderSupporting,
	},
	enums.FileTypeValidID: {
		MaxSize:    10 * 1024 * 1024,
		MimeTypes:  []string{"application/pdf", "image/jpeg", "image/png"},
		Extensions: []string{"pdf", "jpg", "jpeg", "png"},
		Folder:     folderSupporting,
	},
	enums.FileTypeTranscriptOfRecords: {
		MaxSize:    15 * 1024 * 1024,
		MimeTypes:  []string{"application/pdf", "image/jpeg", "image/png"},
		Extensions: []string{"pdf", "jpg", "jpeg", "png"},
		Folder:     folderSupporting,
	},
	enums.FileTypeOther: {
		MaxSize: 10 * 1024 * 1024,
		MimeTypes: []string{
			"application/pdf", "image/jpeg", "image/png",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
		Extensions: []string{"pdf", "jpg", "jpeg", "png", "doc", "docx"},
		Folder:     folderSupporting,
	},
}

// Upload describes one inbound file before any blob write happens.
type Upload struct {
	OriginalName string
	MimeType     string
	Size         int64
}

// PolicyFor returns the policy for a file type, reporting whether it exists.
func PolicyFor(fileType enums.FileType) (Policy, bool) {
	p, ok := policyTable[fileType]
	return p, ok
}

// Policies returns the full policy table keyed by file type string, for the
// file-types listing endpoint.
func Policies() map[string]Policy {
	out := make(map[string]Policy, len(policyTable))
	for ft, p := range policyTable {
		out[ft.String()] = p
	}
	return out
}

// Validate checks the upload against the policy for its declared type and
// returns every applicable failure, not just the first.
func Validate(upload Upload, fileType enums.FileType) []string {
	policy, ok := policyTable[fileType]
	if !ok {
		return []string{fmt.Sprintf("unknown file type %q; allowed types: %s", fileType, strings.Join(fileTypeNames(), ", "))}
	}

	var errs []string
	if upload.Size > policy.MaxSize {
		errs = append(errs, fmt.Sprintf("file size exceeds the %s limit for %s", formatBytes(policy.MaxSize), fileType))
	}
	if !mimeAllowed(policy, upload.MimeType) {
		errs = append(errs, fmt.Sprintf("mime type %q is not allowed for %s; allowed: %s", upload.MimeType, fileType, strings.Join(policy.MimeTypes, ", ")))
	}
	return errs
}

// BuildStorageKey derives the deterministic, collision-resistant blob key:
//
//	{folder}/{requestID}_{sanitizedName}_{fileType}_{yyyy-MM-dd_HH-mm-ss}_{random}.{ext}
//
// The deterministic prefix keeps files human-traceable from the key alone;
// the timestamp plus random suffix avoids collisions under concurrent
// uploads to the same request.
func BuildStorageKey(upload Upload, fileType enums.FileType, requestID, requestorName string, now time.Time) (string, error) {
	policy, ok := policyTable[fileType]
	if !ok {
		return "", fmt.Errorf("unknown file type %q", fileType)
	}

	suffix, err := randomString(storageKeyCharset, storageKeyRandomLen)
	if err != nil {
		return "", fmt.Errorf("generate key suffix: %w", err)
	}

	key := fmt.Sprintf("%s/%s_%s_%s_%s_%s",
		policy.Folder,
		requestID,
		sanitizeName(requestorName),
		fileType,
		now.Format("2006-01-02_15-04-05"),
		suffix,
	)

	if ext := extension(upload.OriginalName); ext != "" {
		key += "." + ext
	}
	return key, nil
}

// sanitizeName keeps ASCII letters, digits and whitespace, collapses
// whitespace runs to single underscores and truncates to 50 characters.
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	inSpace := false
	for _, r := range name {
		switch {
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if inSpace && b.Len() > 0 {
				b.WriteByte('_')
			}
			inSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			inSpace = true
		}
	}

	clean := b.String()
	if len(clean) > sanitizedNameMaxLen {
		clean = clean[:sanitizedNameMaxLen]
	}
	if clean == "" {
		return "unknown"
	}
	return clean
}

func extension(name string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	return strings.ToLower(ext)
}

func mimeAllowed(policy Policy, mimeType string) bool {
	for _, candidate := range policy.MimeTypes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func fileTypeNames() []string {
	types := enums.FileTypes()
	out := make([]string, 0, len(types))
	for _, ft := range types {
		out = append(out, ft.String())
	}
	return out
}

func randomString(charset []rune, length int) (string, error) {
	result := make([]rune, length)
	buff := make([]byte, length)
	if _, err := rand.Read(buff); err != nil {
		return "", err
	}
	for i := range result {
		result[i] = charset[int(buff[i])%len(charset)]
	}
	return string(result), nil
}

func formatBytes(size int64) string {
	const mb = 1024 * 1024
	if size >= mb && size%mb == 0 {
		return fmt.Sprintf("%dMB", size/mb)
	}
	if size >= 1024 && size%1024 == 0 {
		return fmt.Sprintf("%dKB", size/1024)
	}
	return fmt.Sprintf("%dB", size)
}
