package errors

import (
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "controller", false},
		{"valid with dash", "page-list", false},
		{"valid with dot and colon", "board.v2:main", false},
		{"valid unicode", "übersicht", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"leading space", " foo", true},
		{"trailing space", "foo ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey("widget", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidKey) {
				t.Errorf("ValidateKey(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidKey)
			}
		})
	}
}

func TestValidateGridSize(t *testing.T) {
	tests := []struct {
		name    string
		x, y    int
		wantErr bool
	}{
		{"square", 10, 10, false},
		{"single cell", 1, 1, false},
		{"zero width", 0, 10, true},
		{"negative height", 10, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGridSize(tt.x, tt.y)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGridSize(%d, %d) error = %v, wantErr %v", tt.x, tt.y, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSceneKeys(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		initial string
		wantErr bool
	}{
		{"single", []string{"main"}, "main", false},
		{"several", []string{"main", "kiosk"}, "kiosk", false},
		{"none", nil, "main", true},
		{"duplicate", []string{"main", "main"}, "main", true},
		{"unknown initial", []string{"main"}, "kiosk", true},
		{"invalid key", []string{"main", ""}, "main", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSceneKeys(tt.keys, tt.initial)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSceneKeys(%v, %q) error = %v, wantErr %v", tt.keys, tt.initial, err, tt.wantErr)
			}
		})
	}
}
