package remote

import (
	"bytes"
	"context"
	"errors"

	"github.com/rbright/tccc/internal/audio"
	openai "github.com/sashabaranov/go-openai"
)

// Transcriber turns recorded clips into text.
type Transcriber struct {
	cfg Config
}

// NewTranscriber constructs a speech-to-text client.
func NewTranscriber(cfg Config) *Transcriber {
	return &Transcriber{cfg: cfg}
}

// Transcribe uploads clip and returns the transcript verbatim. An empty
// string means no speech was detected and is not an error.
func (t *Transcriber) Transcribe(ctx context.Context, clip audio.Clip, credential string) (string, error) {
	if err := ValidateCredential(credential, t.cfg.CredentialPrefix); err != nil {
		return "", err
	}
	if clip.Empty() {
		return "", errors.New("transcribe: audio clip is empty")
	}

	resp, err := t.cfg.newClient(credential).CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.cfg.TranscriptionModel,
		FilePath: clip.Filename(),
		Reader:   bytes.NewReader(clip.Data),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", serviceError(ServiceTranscription, err)
	}
	return resp.Text, nil
}
