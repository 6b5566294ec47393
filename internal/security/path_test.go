package security

import (
	"errors"
	"testing"
)

func TestValidateSavePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"simple filename", "image.png", nil},
		{"relative subdirectory", "out/image.png", nil},
		{"absolute path", "/etc/passwd", ErrAbsolutePath},
		{"parent traversal", "../image.png", ErrPathTraversal},
		{"embedded traversal", "out/../../image.png", ErrPathTraversal},
		{"windows reserved", "con.png", ErrReservedName},
		{"leading hyphen", "-rf.png", ErrLeadingHyphen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSavePath(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSavePath(%q) error = %v, want %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a red bicycle", "a red bicycle"},
		{"a/b\\c:d", "a-b-c-d"},
		{"what?.png", "what.png"},
		{"..hidden", "hidden"},
		{"trailing. ", "trailing"},
		{"nul", "nul_"},
		{"", "image"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
