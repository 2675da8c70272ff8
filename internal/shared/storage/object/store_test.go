package object

import (
	"errors"
	"strings"
	"testing"
)

func TestUploadKey(t *testing.T) {
	key, err := UploadKey("guest:abc", "my resume.pdf", "deadbeef")
	if err != nil {
		t.Fatalf("UploadKey: %v", err)
	}
	if !strings.HasSuffix(key, "/deadbeef_my resume.pdf") {
		t.Fatalf("unexpected key %q", key)
	}
	if strings.Contains(key, "guest:abc") {
		t.Fatalf("owner id should be hashed, got %q", key)
	}

	if _, err := UploadKey("guest:abc", "../etc/passwd", "x"); err == nil {
		t.Fatalf("expected traversal name to be rejected")
	}
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "plain", key: "exports/s1/enhanced_resume.txt", want: "exports/s1/enhanced_resume.txt"},
		{name: "dot segments", key: "exports/./s1//a.txt", want: "exports/s1/a.txt"},
		{name: "backslashes", key: `exports\s1\a.txt`, want: "exports/s1/a.txt"},
		{name: "absolute", key: "/etc/passwd", wantErr: true},
		{name: "parent", key: "../secret", wantErr: true},
		{name: "nested parent", key: "a/../../secret", wantErr: true},
		{name: "empty", key: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanKey(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKey) {
					t.Fatalf("expected ErrInvalidKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CleanKey: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestExportAndExtractedKeys(t *testing.T) {
	if got := ExportKey("s1", "enhanced_resume.pdf"); got != "exports/s1/enhanced_resume.pdf" {
		t.Fatalf("ExportKey = %q", got)
	}
	if got := ExtractedKey("s1"); got != "extracted/s1/resume.txt" {
		t.Fatalf("ExtractedKey = %q", got)
	}
}

func TestOwnerDir(t *testing.T) {
	got := OwnerDir("google:12345")
	if got != OwnerDir("google:12345") {
		t.Fatalf("expected stable hash")
	}
	if len(got) != 64 || strings.Trim(got, "0123456789abcdef") != "" {
		t.Fatalf("expected 64 lowercase hex characters, got %q", got)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "resume.pdf", want: "resume.pdf"},
		{name: "trims", in: "  resume.docx ", want: "resume.docx"},
		{name: "slashes", in: `dir/sub\cv.txt`, want: "dir_sub_cv.txt"},
		{name: "traversal", in: "../cv.txt", wantErr: true},
		{name: "blank", in: "   ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeName(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidName) {
					t.Fatalf("expected ErrInvalidName for %q, got %v", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("SafeName(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}
