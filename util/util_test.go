package util

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 7, false},
		{"25MB", 25 << 20, false},
		{"512kb", 512 << 10, false},
		{"2GB", 2 << 30, false},
		{"100B", 100, false},
		{"4096", 4096, false},
		{" 1 MB ", 1 << 20, false},
		{"lots", 0, true},
		{"-1MB", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in, 7)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	if got := FormatSize(25 << 20); got != "25MB" {
		t.Errorf("expected 25MB, got %s", got)
	}
	if got := FormatSize(1500); got != "1500B" {
		t.Errorf("expected 1500B, got %s", got)
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("sk-abcdef", 3); got != "sk-***" {
		t.Errorf("unexpected mask %q", got)
	}
	if got := MaskSecret("ab", 3); got != "***" {
		t.Errorf("short secrets must be fully masked, got %q", got)
	}
}

func TestLastWords(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"one two  three four", 2, "three four"},
		{"one two", 5, "one two"},
		{"one two", 0, ""},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := LastWords(tt.in, tt.n); got != tt.want {
			t.Errorf("LastWords(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "", "en"); got != "en" {
		t.Errorf("expected en, got %q", got)
	}
	if got := Coalesce(0, 0); got != 0 {
		t.Errorf("expected zero, got %d", got)
	}
}
