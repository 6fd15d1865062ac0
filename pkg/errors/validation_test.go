package errors

import "testing"

func TestValidateAssetID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "shoe", false},
		{"with dash", "office-chair", false},
		{"with underscore", "red_mug", false},
		{"empty", "", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"traversal", "..", true},
		{"control", "sh\x01oe", true},
		{"too long", string(make([]byte, 200)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAssetID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAssetID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeCatalog) {
				t.Errorf("error code = %s, want %s", GetCode(err), ErrCodeCatalog)
			}
		})
	}
}

func TestValidateFilenamePrefix(t *testing.T) {
	tests := []struct {
		prefix  string
		wantErr bool
	}{
		{"spatial", false},
		{"run-01", false},
		{"", true},
		{"a/b", true},
		{".hidden", true},
		{"..", true},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			if err := ValidateFilenamePrefix(tt.prefix); (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilenamePrefix(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidConfig,
		ErrCodeUnknownAsset,
		ErrCodeCatalog,
		ErrCodeOverlap,
		ErrCodeRenderEngine,
		ErrCodeIO,
		ErrCodeInternal,
	}

	seen := make(map[Code]bool)
	for _, c := range codes {
		if seen[c] {
			t.Errorf("duplicate error code: %s", c)
		}
		seen[c] = true
	}
}
