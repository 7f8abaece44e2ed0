package session

import (
	"context"
	"errors"

	"github.com/rbright/tccc/internal/audio"
	"github.com/rbright/tccc/internal/card"
)

var (
	// ErrSessionBusy rejects a start while an attempt is already in flight.
	ErrSessionBusy = errors.New("session busy: an attempt is already in progress")
	// ErrNoAudioCaptured indicates stop produced an empty clip.
	ErrNoAudioCaptured = errors.New("no audio data recorded")
)

// Recording is what a recorder yields on stop.
type Recording struct {
	Clip          audio.Clip
	AudioDevice   string
	BytesCaptured int64
	Truncated     bool
}

// Recorder owns the input device for one recording at a time.
type Recorder interface {
	Start(context.Context) error
	Stop(context.Context) (Recording, error)
	Cancel(context.Context) error
}

// Transcriber converts a clip to text. An empty transcript means no speech.
type Transcriber interface {
	Transcribe(ctx context.Context, clip audio.Clip, credential string) (string, error)
}

// Extractor returns the raw language-model response for a transcript.
type Extractor interface {
	Extract(ctx context.Context, transcript string, credential string) (string, error)
}

// Form is the merge target shared with manual edits.
type Form interface {
	Apply(card.PartialRecord) (card.Card, card.MergeReport)
}

// idleRecorder refuses to start; used when no device pipeline is wired.
type idleRecorder struct{}

func (idleRecorder) Start(context.Context) error {
	return errors.New("no recorder configured")
}

func (idleRecorder) Stop(context.Context) (Recording, error) {
	return Recording{}, nil
}

func (idleRecorder) Cancel(context.Context) error {
	return nil
}
