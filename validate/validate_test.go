package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUUID      = "a1b2c3d4-e5f6-4890-abcd-ef1234567890"
	permanentPath = "files/u1/conversions/2025/01/pdf-to-docx/" + testUUID + "-170000-report.pdf"
	ephemeralPath = "temp/conversions/2025-01-15/pdf-to-docx/" + testUUID + "/original.pdf"
)

var allowedPDF = []string{"application/pdf"}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		contentType string
		wantReason  RejectReason
		wantPerm    bool
		wantUserID  string
		wantRecord  string
	}{
		{
			name:        "permanent storage path accepted",
			path:        permanentPath,
			contentType: "application/pdf",
			wantReason:  RejectNone,
			wantPerm:    true,
			wantUserID:  "u1",
			wantRecord:  testUUID,
		},
		{
			name:        "ephemeral storage path accepted without record key",
			path:        ephemeralPath,
			contentType: "application/pdf",
			wantReason:  RejectNone,
		},
		{
			name:        "missing conversion scope marker",
			path:        "files/u1/avatars/" + testUUID + "-170000-photo.pdf",
			contentType: "application/pdf",
			wantReason:  RejectOutOfScope,
		},
		{
			name:        "unrecognized root prefix",
			path:        "uploads/u1/conversions/2025/01/pdf-to-docx/" + testUUID + "-170000-report.pdf",
			contentType: "application/pdf",
			wantReason:  RejectOutOfScope,
		},
		{
			name:        "already converted artifact",
			path:        "files/u1/conversions/old/report-converted.pdf",
			contentType: "application/pdf",
			wantReason:  RejectAlreadyConverted,
		},
		{
			name:        "permanent path with too few segments fails closed",
			path:        "files/u1/conversions/" + testUUID + "-170000-report.pdf",
			contentType: "application/pdf",
			wantReason:  RejectOutOfScope,
			wantPerm:    true,
		},
		{
			name:        "file name without uuid prefix fails closed",
			path:        "files/u1/conversions/2025/01/pdf-to-docx/report.pdf",
			contentType: "application/pdf",
			wantReason:  RejectOutOfScope,
			wantPerm:    true,
		},
		{
			name:        "malformed uuid fails closed",
			path:        "files/u1/conversions/2025/01/pdf-to-docx/not-a-uuid-but-36-characters-long-xx-170000-report.pdf",
			contentType: "application/pdf",
			wantReason:  RejectOutOfScope,
			wantPerm:    true,
		},
		{
			name:        "mime type not in allow list",
			path:        permanentPath,
			contentType: "image/png",
			wantReason:  RejectUnsupportedType,
			wantPerm:    true,
			wantUserID:  "u1",
			wantRecord:  testUUID,
		},
		{
			name:        "mime allowed but extension disagrees",
			path:        "files/u1/conversions/2025/01/pdf-to-docx/" + testUUID + "-170000-report.docx",
			contentType: "application/pdf",
			wantReason:  RejectUnsupportedType,
			wantPerm:    true,
			wantUserID:  "u1",
			wantRecord:  testUUID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls, reason := Classify(tt.path, tt.contentType, allowedPDF)

			assert.Equal(t, tt.wantReason, reason)
			assert.Equal(t, tt.wantReason == RejectNone, cls.InScope)
			assert.Equal(t, tt.wantPerm, cls.IsPermanentStorage)
			assert.Equal(t, tt.wantUserID, cls.UserID)
			assert.Equal(t, tt.wantRecord, cls.RecordID)
		})
	}
}

func TestClassifyRecordIDIsUUIDPrefix(t *testing.T) {
	cls, reason := Classify(permanentPath, "application/pdf", allowedPDF)

	require.Equal(t, RejectNone, reason)
	require.Len(t, cls.RecordID, 36)
	assert.Equal(t, testUUID, cls.RecordID)
	assert.True(t, cls.HasRecord())
}

func TestConvertedPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "permanent storage replaces extension in place",
			path: permanentPath,
			want: "files/u1/conversions/2025/01/pdf-to-docx/" + testUUID + "-170000-report.docx",
		},
		{
			name: "ephemeral storage replaces final segment",
			path: ephemeralPath,
			want: "temp/conversions/2025-01-15/pdf-to-docx/" + testUUID + "/converted.docx",
		},
		{
			name: "legacy layout gets converted suffix",
			path: "files/u1/report.pdf",
			want: "files/u1/report-converted.docx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertedPath(tt.path, "docx")
			assert.Equal(t, tt.want, got)
			// Pure function: replays must derive the identical destination.
			assert.Equal(t, got, ConvertedPath(tt.path, "docx"))
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "pdf", Extension("files/u1/report.PDF"))
	assert.Equal(t, "docx", Extension("converted.docx"))
	assert.Equal(t, "", Extension("files/u1/noextension"))
	assert.Equal(t, "", Extension("files/u1/trailingdot."))
}
