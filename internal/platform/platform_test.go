package platform

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name       string
		wantWidth  int
		wantHeight int
		wantMax    int
	}{
		{"instagram", 1080, 1080, 2200},
		{"Twitter", 1200, 675, 280},
		{" LINKEDIN ", 1200, 627, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Lookup(tt.name)
			if err != nil {
				t.Fatalf("Lookup(%q) error: %v", tt.name, err)
			}
			if spec.Width != tt.wantWidth || spec.Height != tt.wantHeight {
				t.Errorf("size = %dx%d, want %dx%d", spec.Width, spec.Height, tt.wantWidth, tt.wantHeight)
			}
			if spec.MaxTextLength != tt.wantMax {
				t.Errorf("MaxTextLength = %d, want %d", spec.MaxTextLength, tt.wantMax)
			}
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("tiktok")

	var unknown *UnknownPlatformError
	if !errors.As(err, &unknown) {
		t.Fatalf("Lookup(tiktok) error = %v, want *UnknownPlatformError", err)
	}
	if unknown.Name != "tiktok" {
		t.Errorf("Name = %q, want tiktok", unknown.Name)
	}
	if !strings.Contains(err.Error(), "instagram") {
		t.Errorf("error should list supported platforms: %v", err)
	}
}

func TestNames(t *testing.T) {
	got := strings.Join(Names(), ",")
	if got != "instagram,twitter,linkedin" {
		t.Errorf("Names() = %q", got)
	}
}

func TestAspectRatio(t *testing.T) {
	tests := map[string]string{
		"instagram": "1:1",
		"twitter":   "16:9",
		"linkedin":  "1.91:1",
	}
	for name, want := range tests {
		spec, _ := Lookup(name)
		if got := spec.AspectRatio(); got != want {
			t.Errorf("%s AspectRatio() = %q, want %q", name, got, want)
		}
	}
}

func TestFitText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"withinLimit", "short post", 280, "short post"},
		{"exactLimit", "abcde", 5, "abcde"},
		{"wordBoundary", "the quick brown fox jumps", 15, "the quick…"},
		{"singleLongWord", "abcdefghij", 5, "abcd…"},
		{"noLimit", "anything", 0, "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitText(tt.text, tt.limit)
			if got != tt.want {
				t.Errorf("FitText(%q, %d) = %q, want %q", tt.text, tt.limit, got, tt.want)
			}
			if tt.limit > 0 && utf8.RuneCountInString(got) > tt.limit {
				t.Errorf("FitText result has %d runes, limit %d", utf8.RuneCountInString(got), tt.limit)
			}
		})
	}
}

func TestFitTextMultibyte(t *testing.T) {
	text := strings.Repeat("🎉 ", 200)
	got := FitText(text, 280)
	if !utf8.ValidString(got) {
		t.Fatal("FitText produced invalid UTF-8")
	}
	if utf8.RuneCountInString(got) > 280 {
		t.Errorf("FitText result has %d runes", utf8.RuneCountInString(got))
	}
}
