package lightbox

import (
	"regexp"
	"strings"
	"testing"
)

func TestDownloadFilename(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{
			name:   "mixed punctuation and digits",
			prompt: "A cat! @2024",
			want:   "a_cat___2024.jpeg",
		},
		{
			name:   "all symbols falls back",
			prompt: "!!!",
			want:   "gemini-generated.jpeg",
		},
		{
			name:   "empty prompt falls back",
			prompt: "",
			want:   "gemini-generated.jpeg",
		},
		{
			name:   "whitespace only falls back",
			prompt: "   ",
			want:   "gemini-generated.jpeg",
		},
		{
			name:   "uppercase is lowered",
			prompt: "SUNSET",
			want:   "sunset.jpeg",
		},
		{
			name:   "long prompt truncates to 30 characters",
			prompt: strings.Repeat("a", 40),
			want:   strings.Repeat("a", 30) + ".jpeg",
		},
		{
			name:   "spaces become underscores",
			prompt: "sunset over mountains",
			want:   "sunset_over_mountains.jpeg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DownloadFilename(tt.prompt); got != tt.want {
				t.Errorf("DownloadFilename(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
		})
	}
}

func TestDownloadFilenameShape(t *testing.T) {
	// Whatever the prompt, the result is lowercase alphanumerics and
	// underscores ending in .jpeg (or the fixed fallback).
	pattern := regexp.MustCompile(`^[a-z0-9_-]+\.jpeg$`)

	prompts := []string{"A cat! @2024", "ünïcödé prompt", "  lots   of   spaces  ", "<img src=x>"}
	for _, p := range prompts {
		got := DownloadFilename(p)
		if !pattern.MatchString(got) {
			t.Errorf("DownloadFilename(%q) = %q, does not match %s", p, got, pattern)
		}
	}
}

func TestStateOpenClose(t *testing.T) {
	s := NewState()

	if snap := s.Snapshot(); snap.Visible {
		t.Fatal("new lightbox should be closed")
	}

	s.Open("data:image/jpeg;base64,abc", "a cat")

	snap := s.Snapshot()
	if !snap.Visible {
		t.Error("Visible = false after Open")
	}
	if snap.CurrentSrc != "data:image/jpeg;base64,abc" {
		t.Errorf("CurrentSrc = %q", snap.CurrentSrc)
	}
	if snap.CurrentAlt != "a cat" {
		t.Errorf("CurrentAlt = %q", snap.CurrentAlt)
	}
	if snap.DownloadName != "a_cat.jpeg" {
		t.Errorf("DownloadName = %q, want %q", snap.DownloadName, "a_cat.jpeg")
	}

	s.Close()

	snap = s.Snapshot()
	if snap.Visible {
		t.Error("Visible = true after Close")
	}
	if snap.CurrentSrc != "" || snap.CurrentAlt != "" || snap.DownloadName != "" {
		t.Errorf("state not reset on close: %+v", snap)
	}
}

func TestStateCloseIsIdempotent(t *testing.T) {
	s := NewState()

	s.Close()
	s.Close()

	if snap := s.Snapshot(); snap.Visible {
		t.Error("Visible = true after closing a closed lightbox")
	}
}

func TestStateOpenWhileOpenReplacesContent(t *testing.T) {
	s := NewState()

	s.Open("src-one", "first prompt")
	s.Open("src-two", "second prompt")

	snap := s.Snapshot()
	if !snap.Visible {
		t.Error("Visible = false after second Open")
	}
	if snap.CurrentSrc != "src-two" {
		t.Errorf("CurrentSrc = %q, want %q", snap.CurrentSrc, "src-two")
	}
	if snap.CurrentAlt != "second prompt" {
		t.Errorf("CurrentAlt = %q, want %q", snap.CurrentAlt, "second prompt")
	}
	if snap.DownloadName != "second_prompt.jpeg" {
		t.Errorf("DownloadName = %q, residual state from first image?", snap.DownloadName)
	}
}
