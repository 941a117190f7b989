package enums

import "fmt"

// FileType is the caller-declared category of an uploaded file. Each type
// selects a validation policy (size limit, MIME allowlist, storage folder).
type FileType string

const (
	FileTypeSignature           FileType = "signature"
	FileTypeAffidavitOfLoss     FileType = "affidavit_of_loss"
	FileTypeBirthCertificate    FileType = "birth_certificate"
	FileTypeValidID             FileType = "valid_id"
	FileTypeTranscriptOfRecords FileType = "transcript_of_records"
	FileTypeOther               FileType = "other"
)

var validFileTypes = []FileType{
	FileTypeSignature,
	FileTypeAffidavitOfLoss,
	FileTypeBirthCertificate,
	FileTypeValidID,
	FileTypeTranscriptOfRecords,
	FileTypeOther,
}

// String returns the literal string for the file type.
func (f FileType) String() string {
	return string(f)
}

// IsValid reports whether the file type is known.
func (f FileType) IsValid() bool {
	for _, candidate := range validFileTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFileType converts raw input into a FileType.
func ParseFileType(value string) (FileType, error) {
	for _, candidate := range validFileTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid file type %q", value)
}

// FileTypes returns every known file type in declaration order.
func FileTypes() []FileType {
	out := make([]FileType, len(validFileTypes))
	copy(out, validFileTypes)
	return out
}
