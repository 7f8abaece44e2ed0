package session

import (
	"errors"
	"fmt"

	"github.com/rbright/tccc/internal/audio"
	"github.com/rbright/tccc/internal/card"
	"github.com/rbright/tccc/internal/remote"
)

const (
	StatusReady        = "Ready"
	StatusRequesting   = "Requesting microphone access..."
	StatusRecording    = "Recording... Speak clearly"
	StatusTranscribing = "Processing audio..."
	StatusExtracting   = "Extracting casualty details..."
	StatusParsing      = "Reading extracted fields..."
	StatusMerging      = "Updating card..."
	StatusSuccess      = "Transcription complete. Fields updated."
	StatusNoSpeech     = "No speech detected in recording. Please try again."
	StatusCancelled    = "Recording cancelled."
)

// failureStatus renders err as the status line shown to the user.
func failureStatus(err error) string {
	if serviceErr, ok := remote.IsServiceError(err); ok {
		label := "Service"
		switch serviceErr.Service {
		case remote.ServiceTranscription:
			label = "Transcription"
		case remote.ServiceExtraction:
			label = "Extraction"
		}
		if serviceErr.Status != 0 {
			return fmt.Sprintf("%s failed (%d): %s. Please try again.", label, serviceErr.Status, serviceErr.Message)
		}
		return fmt.Sprintf("%s failed: %s. Please try again.", label, serviceErr.Message)
	}

	switch {
	case errors.Is(err, audio.ErrDeviceAccessDenied):
		return "Microphone access denied. Please allow microphone access and try again."
	case errors.Is(err, ErrNoAudioCaptured):
		return "No audio data recorded. Please try again."
	case errors.Is(err, remote.ErrInvalidCredential):
		return "Missing or invalid API key. Set a valid key and try again."
	case errors.Is(err, card.ErrMalformedExtraction):
		return "Could not read the extracted fields. Please try again."
	case errors.Is(err, ErrSessionBusy):
		return "A recording is already in progress."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
