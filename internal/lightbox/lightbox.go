// Package lightbox holds the overlay state for full-size image viewing
// and derives the filesystem-safe download filename from a prompt.
//
// There is one lightbox per session and at most one image shown at a
// time. Opening while open replaces the displayed image; closing while
// closed is a no-op.
package lightbox

import (
	"strings"
	"sync"
)

const (
	// DefaultDownloadName is used when the prompt sanitizes to nothing.
	DefaultDownloadName = "gemini-generated"

	// downloadExt is the extension for downloaded images; generation
	// always requests JPEG output.
	downloadExt = ".jpeg"

	// maxNameLength is how many characters of the prompt feed the
	// download filename.
	maxNameLength = 30
)

// DownloadFilename derives a filesystem-safe filename from a prompt:
// the first 30 characters with every character outside [a-zA-Z0-9]
// replaced by an underscore, lowercased. A prompt without any
// alphanumeric characters falls back to DefaultDownloadName.
func DownloadFilename(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > maxNameLength {
		runes = runes[:maxNameLength]
	}

	var b strings.Builder
	hasAlnum := false
	for _, r := range runes {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hasAlnum = true
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			hasAlnum = true
		default:
			b.WriteRune('_')
		}
	}

	if !hasAlnum {
		return DefaultDownloadName + downloadExt
	}
	return b.String() + downloadExt
}

// Snapshot is a point-in-time copy of the lightbox state.
type Snapshot struct {
	Visible      bool   `json:"visible"`
	CurrentSrc   string `json:"current_src"`
	CurrentAlt   string `json:"current_alt"`
	DownloadName string `json:"download_name"`
}

// State is the lightbox state machine: Closed -> Open -> Closed.
// It is safe for concurrent use.
type State struct {
	mu           sync.Mutex
	visible      bool
	currentSrc   string
	currentAlt   string
	downloadName string
}

// NewState creates a closed lightbox.
func NewState() *State {
	return &State{}
}

// Open shows the overlay with the given image. The download name is
// derived from the alt text, which carries the original prompt.
// Opening while already open replaces the displayed image.
func (s *State) Open(src, alt string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.visible = true
	s.currentSrc = src
	s.currentAlt = alt
	s.downloadName = DownloadFilename(alt)
}

// Close hides the overlay and resets the displayed image.
// Closing an already-closed lightbox is a no-op.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.visible = false
	s.currentSrc = ""
	s.currentAlt = ""
	s.downloadName = ""
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Visible:      s.visible,
		CurrentSrc:   s.currentSrc,
		CurrentAlt:   s.currentAlt,
		DownloadName: s.downloadName,
	}
}
