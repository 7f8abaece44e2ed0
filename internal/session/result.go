package session

import (
	"time"

	"github.com/rbright/tccc/internal/card"
	"github.com/rbright/tccc/internal/fsm"
)

// Outcome classifies how an attempt ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeNoSpeech  Outcome = "no_speech"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Result is the complete output of one attempt.
type Result struct {
	AttemptID string
	State     fsm.State
	Outcome   Outcome
	Status    string
	Err       error

	Transcript string
	Extracted  []string
	Merged     []string
	Discarded  []string
	Card       card.Card

	AudioDevice   string
	BytesCaptured int64
	Truncated     bool

	StartedAt         time.Time
	FinishedAt        time.Time
	TranscribeLatency time.Duration
	ExtractLatency    time.Duration
}

// Update is one status change pushed to the indicator.
type Update struct {
	State   fsm.State
	Text    string
	Outcome Outcome
}

// Terminal reports whether the update ends an attempt.
func (u Update) Terminal() bool {
	return u.Outcome != ""
}
