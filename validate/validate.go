// Package validate decides whether an upload event is in scope for the
// conversion pipeline and derives the identifiers and destination path the
// rest of the pipeline operates on. Everything here is pure string work
// with no side effects, so replayed events always classify identically.
package validate

import (
	"strings"

	"github.com/google/uuid"

	"convertstudio/models"
)

const (
	// PermanentRoot prefixes account-attached storage backed by a record.
	PermanentRoot = "files/"
	// EphemeralRoot prefixes anonymous temporary storage.
	EphemeralRoot = "temp/"
	// scopeMarker identifies blobs belonging to the conversion input area.
	scopeMarker = "/conversions/"
	// convertedMarker tags artifacts produced by the legacy path scheme.
	convertedMarker = "-converted"

	// permanentSegments is the segment count of a well-formed permanent
	// path: files/<userId>/conversions/<year>/<month>/<type>/<file>.
	permanentSegments = 7
	// uuidLen is the length of a canonical UUID string.
	uuidLen = 36
)

// expectedExtensions maps an accepted MIME type to the file extensions it
// may legitimately carry. MIME alone is not trusted; both checks must pass.
var expectedExtensions = map[string][]string{
	"application/pdf": {"pdf"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {"docx"},
	"application/msword": {"doc"},
}

// RejectReason says why an event was not accepted for conversion.
type RejectReason int

const (
	RejectNone RejectReason = iota
	// RejectOutOfScope covers paths outside the conversion area and
	// permanent paths whose shape cannot be parsed (fail closed).
	RejectOutOfScope
	// RejectAlreadyConverted covers paths carrying the converted marker.
	RejectAlreadyConverted
	// RejectUnsupportedType covers MIME/extension mismatches.
	RejectUnsupportedType
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "accepted"
	case RejectOutOfScope:
		return "out of scope"
	case RejectAlreadyConverted:
		return "already converted"
	case RejectUnsupportedType:
		return "unsupported file type"
	default:
		return "unknown"
	}
}

// Classify inspects an upload path and content type and decides whether the
// event enters the pipeline. For permanent-storage paths the (userId,
// recordId) pair is extracted; a malformed permanent path classifies as out
// of scope rather than erroring. When the type check fails the returned
// classification still carries any extracted identifiers so the caller can
// record the failure.
func Classify(path, contentType string, allowed []string) (models.Classification, RejectReason) {
	var cls models.Classification

	if !strings.Contains(path, scopeMarker) ||
		(!strings.HasPrefix(path, PermanentRoot) && !strings.HasPrefix(path, EphemeralRoot)) {
		return cls, RejectOutOfScope
	}

	if strings.Contains(path, convertedMarker) {
		cls.AlreadyConverted = true
		return cls, RejectAlreadyConverted
	}

	cls.IsPermanentStorage = strings.HasPrefix(path, PermanentRoot)

	if cls.IsPermanentStorage {
		userID, recordID, ok := recordKey(path)
		if !ok {
			// Unexpected path shape; fail closed instead of guessing.
			return cls, RejectOutOfScope
		}
		cls.UserID = userID
		cls.RecordID = recordID
	}

	if !typeAllowed(path, contentType, allowed) {
		return cls, RejectUnsupportedType
	}

	cls.InScope = true
	return cls, RejectNone
}

// recordKey extracts the (userId, recordId) pair from a permanent-storage
// path of the form
// files/<userId>/conversions/<year>/<month>/<type>/<uuid>-<ts>-<name>.
func recordKey(path string) (userID, recordID string, ok bool) {
	parts := strings.Split(path, "/")
	if len(parts) < permanentSegments {
		return "", "", false
	}

	fileName := parts[len(parts)-1]
	if len(fileName) <= uuidLen || fileName[uuidLen] != '-' {
		return "", "", false
	}

	recordID = fileName[:uuidLen]
	if _, err := uuid.Parse(recordID); err != nil {
		return "", "", false
	}

	return parts[1], recordID, true
}

// typeAllowed requires the MIME type to be in the allow list and the file
// extension to be one the MIME type is expected to carry.
func typeAllowed(path, contentType string, allowed []string) bool {
	ok := false
	for _, t := range allowed {
		if t == contentType {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}

	ext := Extension(path)
	if ext == "" {
		return false
	}
	for _, e := range expectedExtensions[contentType] {
		if e == ext {
			return true
		}
	}
	return false
}

// Extension returns the lower-cased file extension of the path's final
// segment, without the dot, or "" if there is none.
func Extension(path string) string {
	segment := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		segment = path[i+1:]
	}
	i := strings.LastIndex(segment, ".")
	if i < 0 || i == len(segment)-1 {
		return ""
	}
	return strings.ToLower(segment[i+1:])
}

// ConvertedPath derives the destination path for a conversion output. It is
// a pure function of the source path so duplicate deliveries always write
// to the same destination and overwrite deterministically.
//
// Permanent storage keeps the full path and swaps the extension; ephemeral
// storage replaces the final segment with a fixed converted file name.
// Paths from the legacy layout (no conversions segment) get a "-converted"
// suffix instead.
func ConvertedPath(originalPath, newExtension string) string {
	if strings.Contains(originalPath, scopeMarker) {
		if strings.HasPrefix(originalPath, PermanentRoot) {
			return trimExtension(originalPath) + "." + newExtension
		}
		parts := strings.Split(originalPath, "/")
		parts[len(parts)-1] = "converted." + newExtension
		return strings.Join(parts, "/")
	}
	return trimExtension(originalPath) + convertedMarker + "." + newExtension
}

// trimExtension drops the extension of the final path segment, if any.
func trimExtension(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 || strings.Contains(path[i:], "/") {
		return path
	}
	return path[:i]
}
