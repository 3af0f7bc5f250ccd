// Package conversation provides the per-session conversation state:
// the ordered transcript of user and AI messages and the submission
// state machine Idle -> Submitting -> (Resolved | Failed).
//
// Messages are transient UI entities. They live in memory for the
// lifetime of the session and are never persisted; a page reload
// starts a fresh transcript.
//
// A single busy flag guards submissions: while one generation is in
// flight, further submissions are rejected with ErrBusy and never
// queued. The flag is cleared unconditionally when the placeholder is
// filled, whatever the outcome.
package conversation

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/imagechat/imagechat/internal/imagen"
)

var (
	// ErrEmptyPrompt is returned when the prompt is empty after trimming.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrBusy is returned when a submission is already in progress.
	ErrBusy = errors.New("submission already in progress")
	// ErrUnknownPlaceholder is returned when a fill targets a message
	// that does not exist.
	ErrUnknownPlaceholder = errors.New("unknown placeholder")
	// ErrAlreadyResolved is returned when a placeholder is filled twice.
	ErrAlreadyResolved = errors.New("placeholder already resolved")
)

// Message roles.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// AIState is the state of an AI message.
type AIState int

const (
	// StateLoading means the placeholder has not been filled yet.
	StateLoading AIState = iota
	// StateImages means the placeholder was filled with images.
	StateImages
	// StateError means the placeholder was filled with an error or
	// empty-result line.
	StateError
)

// Message is a single transcript entry. User messages carry the prompt
// in Text; AI messages start in StateLoading and are filled exactly
// once with images or an error line.
type Message struct {
	ID     string
	Role   string
	State  AIState
	Text   string
	Images []imagen.Result
}

// Transcript holds the conversation for one session.
// It is safe for concurrent use.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	busy     bool
}

// NewTranscript creates an empty transcript in the idle state.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Begin starts a submission. The prompt is trimmed; an empty result
// rejects with ErrEmptyPrompt and a submission while one is in flight
// rejects with ErrBusy. Neither no-op appends anything.
//
// On success the user message and a loading placeholder are appended
// and the busy flag is set. The returned user message carries the
// trimmed prompt.
func (t *Transcript) Begin(prompt string) (Message, Message, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return Message{}, Message{}, ErrEmptyPrompt
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.busy {
		return Message{}, Message{}, ErrBusy
	}
	t.busy = true

	user := Message{
		ID:   uuid.New().String(),
		Role: RoleUser,
		Text: trimmed,
	}
	placeholder := Message{
		ID:    uuid.New().String(),
		Role:  RoleAI,
		State: StateLoading,
	}

	t.messages = append(t.messages, user, placeholder)

	return user, placeholder, nil
}

// Resolve fills the placeholder with the generation outcome and clears
// the busy flag. The flag is cleared even when the fill itself fails,
// so an inconsistent fill can never wedge the session.
//
// A placeholder can be resolved exactly once; a second fill returns
// ErrAlreadyResolved. Returns the filled message.
func (t *Transcript) Resolve(placeholderID string, outcome imagen.Outcome) (Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.busy = false

	for i := range t.messages {
		msg := &t.messages[i]
		if msg.ID != placeholderID || msg.Role != RoleAI {
			continue
		}
		if msg.State != StateLoading {
			return Message{}, ErrAlreadyResolved
		}

		switch outcome.Kind {
		case imagen.OutcomeImages:
			msg.State = StateImages
			msg.Images = outcome.Images
		default:
			msg.State = StateError
			msg.Text = outcome.UserMessage
		}

		return *msg, nil
	}

	return Message{}, ErrUnknownPlaceholder
}

// Busy reports whether a submission is in flight.
func (t *Transcript) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.messages...)
}
