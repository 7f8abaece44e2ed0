// Package pipeline wires device selection and PCM capture into clips the
// session controller can submit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rbright/tccc/internal/audio"
	"github.com/rbright/tccc/internal/config"
	"github.com/rbright/tccc/internal/session"
)

// ErrNotRecording is returned by Stop when no capture is running.
var ErrNotRecording = errors.New("recorder is not capturing")

type captureHandle interface {
	Stop() error
	RawPCM() []byte
	BytesCaptured() int64
	Truncated() bool
}

// Recorder owns one capture at a time and turns it into a WAV clip on stop.
type Recorder struct {
	cfg    config.Config
	logger *slog.Logger

	selectDevice func(context.Context, string, string) (audio.Selection, error)
	startCapture func(context.Context, audio.Device, audio.CaptureOptions) (captureHandle, error)

	mu        sync.Mutex
	selection audio.Selection
	capture   captureHandle
}

// NewRecorder constructs a recorder from runtime config.
func NewRecorder(cfg config.Config, logger *slog.Logger) *Recorder {
	return &Recorder{
		cfg:          cfg,
		logger:       logger,
		selectDevice: audio.SelectDevice,
		startCapture: func(ctx context.Context, device audio.Device, opts audio.CaptureOptions) (captureHandle, error) {
			return audio.StartCapture(ctx, device, opts)
		},
	}
}

var _ session.Recorder = (*Recorder)(nil)

// Start resolves the input device and begins buffering PCM.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capture != nil {
		return fmt.Errorf("recorder already started")
	}

	selection, err := r.selectDevice(ctx, r.cfg.Audio.Input, r.cfg.Audio.Fallback)
	if err != nil {
		return err
	}
	if selection.Warning != "" {
		r.logWarn(selection.Warning)
	}

	capture, err := r.startCapture(ctx, selection.Device, audio.CaptureOptions{
		MaxBytes: int64(r.cfg.Audio.MaxSeconds) * audio.BytesPerSecond,
	})
	if err != nil {
		return err
	}

	r.selection = selection
	r.capture = capture
	return nil
}

// Stop releases the device and encodes the buffered PCM. Fewer than one
// sample yields an empty clip.
func (r *Recorder) Stop(_ context.Context) (session.Recording, error) {
	capture, selection := r.release()
	if capture == nil {
		return session.Recording{}, ErrNotRecording
	}

	_ = capture.Stop()

	recording := session.Recording{
		AudioDevice:   selection.Device.String(),
		BytesCaptured: capture.BytesCaptured(),
		Truncated:     capture.Truncated(),
	}
	if recording.Truncated {
		r.logWarn(fmt.Sprintf("recording reached audio.max_seconds=%d; later audio was dropped", r.cfg.Audio.MaxSeconds))
	}

	rawPCM := capture.RawPCM()
	if len(rawPCM) < 2 {
		return recording, nil
	}

	clip, err := audio.EncodeWAV(rawPCM, audio.SampleRate, audio.Channels)
	if err != nil {
		return recording, fmt.Errorf("encode recording: %w", err)
	}
	recording.Clip = clip
	r.writeDebugAudio(clip)
	return recording, nil
}

// Cancel releases the device and drops buffered audio.
func (r *Recorder) Cancel(_ context.Context) error {
	capture, _ := r.release()
	if capture == nil {
		return nil
	}
	return capture.Stop()
}

func (r *Recorder) release() (captureHandle, audio.Selection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	capture, selection := r.capture, r.selection
	r.capture = nil
	r.selection = audio.Selection{}
	return capture, selection
}

// logWarn emits warning-level logs when logger is configured.
func (r *Recorder) logWarn(message string) {
	if r.logger == nil {
		return
	}
	r.logger.Warn(message)
}

// createDebugFile creates timestamped debug artifacts under state/tccc/debug.
func createDebugFile(prefix string, extension string) (*os.File, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return nil, err
	}
	debugDir := filepath.Join(stateDir, "tccc", "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, nil
}

// resolveStateDir returns XDG_STATE_HOME fallback path for debug artifacts.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}

// writeDebugAudio writes the encoded clip when debug.audio_dump is enabled.
func (r *Recorder) writeDebugAudio(clip audio.Clip) {
	if !r.cfg.Debug.EnableAudioDump || clip.Empty() {
		return
	}

	file, err := createDebugFile("audio", "wav")
	if err != nil {
		r.logWarn(fmt.Sprintf("unable to create debug audio dump: %v", err))
		return
	}
	defer file.Close()

	if _, err := file.Write(clip.Data); err != nil {
		r.logWarn(fmt.Sprintf("unable to write debug audio dump: %v", err))
	}
}
