// Package session runs one dictation attempt at a time: record, transcribe,
// extract, parse, and merge into the casualty card.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/tccc/internal/audio"
	"github.com/rbright/tccc/internal/card"
	"github.com/rbright/tccc/internal/fsm"
	"github.com/rbright/tccc/internal/ipc"
	"github.com/rbright/tccc/internal/transcript"
)

type action int

const (
	actionStop action = iota + 1
	actionCancel
)

// Indicator receives every status change.
type Indicator interface {
	Show(context.Context, Update)
	Hide(context.Context)
}

type noopIndicator struct{}

func (noopIndicator) Show(context.Context, Update) {}
func (noopIndicator) Hide(context.Context)         {}

// Dependencies wires the collaborators of a Controller. Recorder, Committer,
// and Indicator may be nil.
type Dependencies struct {
	Logger      *slog.Logger
	Recorder    Recorder
	Transcriber Transcriber
	Extractor   Extractor
	Form        Form
	Committer   Committer
	Indicator   Indicator
}

// Controller is the single-flight recording session.
type Controller struct {
	logger      *slog.Logger
	recorder    Recorder
	transcriber Transcriber
	extractor   Extractor
	form        Form
	commit      Committer
	indicator   Indicator

	mu         sync.RWMutex
	state      fsm.State
	status     string
	credential string

	actions chan action
}

// NewController constructs a controller in the idle state.
func NewController(deps Dependencies) *Controller {
	if deps.Recorder == nil {
		deps.Recorder = idleRecorder{}
	}
	if deps.Committer == nil {
		deps.Committer = CommitFunc(func(context.Context, card.Card) error { return nil })
	}
	if deps.Indicator == nil {
		deps.Indicator = noopIndicator{}
	}

	return &Controller{
		logger:      deps.Logger,
		recorder:    deps.Recorder,
		transcriber: deps.Transcriber,
		extractor:   deps.Extractor,
		form:        deps.Form,
		commit:      deps.Committer,
		indicator:   deps.Indicator,
		state:       fsm.StateIdle,
		status:      StatusReady,
		actions:     make(chan action, 1),
	}
}

// SetCredential replaces the credential held for the remote calls.
func (c *Controller) SetCredential(credential string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = credential
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Status returns the current human-readable status line.
func (c *Controller) Status() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// begin claims the idle session for a new attempt.
func (c *Controller) begin(event fsm.Event, status string) error {
	c.mu.Lock()
	if c.state != fsm.StateIdle {
		c.mu.Unlock()
		return ErrSessionBusy
	}
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.status = status
	c.mu.Unlock()

	// drop actions left over from a previous attempt
	select {
	case <-c.actions:
	default:
	}
	return nil
}

// advance applies event and publishes status. Terminal updates carry outcome.
func (c *Controller) advance(ctx context.Context, event fsm.Event, status string, outcome Outcome) error {
	c.mu.Lock()
	from := c.state
	next, err := fsm.Transition(from, event)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.status = status
	c.mu.Unlock()

	c.debug("session transition", "from", string(from), "event", string(event), "to", string(next))
	c.indicator.Show(ctx, Update{State: next, Text: status, Outcome: outcome})
	return nil
}

// Run records until stop or cancel, then processes the clip.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{AttemptID: uuid.NewString(), StartedAt: time.Now()}

	if err := c.begin(fsm.EventStart, StatusRequesting); err != nil {
		return c.reject(result, err)
	}
	c.indicator.Show(ctx, Update{State: fsm.StateRequesting, Text: StatusRequesting})

	defer func() {
		hideCtx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
		defer cancel()
		c.indicator.Hide(hideCtx)
	}()

	if err := c.recorder.Start(ctx); err != nil {
		if !errors.Is(err, audio.ErrDeviceAccessDenied) {
			err = fmt.Errorf("%w: %w", audio.ErrDeviceAccessDenied, err)
		}
		return c.fail(ctx, result, err)
	}
	if err := c.advance(ctx, fsm.EventGranted, StatusRecording, ""); err != nil {
		_ = c.recorder.Cancel(context.Background())
		return c.fail(ctx, result, err)
	}

	select {
	case <-ctx.Done():
		return c.cancelRecording(context.Background(), result, ctx.Err())
	case a := <-c.actions:
		switch a {
		case actionCancel:
			return c.cancelRecording(ctx, result, nil)
		case actionStop:
		default:
			_ = c.recorder.Cancel(context.Background())
			return c.fail(ctx, result, fmt.Errorf("unknown action %d", a))
		}
	}

	if err := c.advance(ctx, fsm.EventStop, StatusTranscribing, ""); err != nil {
		_ = c.recorder.Cancel(context.Background())
		return c.fail(ctx, result, err)
	}

	recording, err := c.recorder.Stop(ctx)
	result.AudioDevice = recording.AudioDevice
	result.BytesCaptured = recording.BytesCaptured
	result.Truncated = recording.Truncated
	if err != nil {
		return c.fail(ctx, result, fmt.Errorf("stop recording: %w", err))
	}
	if recording.Clip.Empty() {
		return c.fail(ctx, result, ErrNoAudioCaptured)
	}

	return c.process(ctx, result, recording.Clip)
}

// Process runs an existing clip through transcription, extraction, and
// merge without touching the input device.
func (c *Controller) Process(ctx context.Context, clip audio.Clip) Result {
	result := Result{AttemptID: uuid.NewString(), StartedAt: time.Now()}

	if err := c.begin(fsm.EventSubmit, StatusTranscribing); err != nil {
		return c.reject(result, err)
	}
	c.indicator.Show(ctx, Update{State: fsm.StateTranscribing, Text: StatusTranscribing})

	defer func() {
		hideCtx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
		defer cancel()
		c.indicator.Hide(hideCtx)
	}()

	result.BytesCaptured = int64(len(clip.Data))
	if clip.Empty() {
		return c.fail(ctx, result, ErrNoAudioCaptured)
	}
	return c.process(ctx, result, clip)
}

// process continues from the transcribing state to a terminal outcome. The
// card is only touched in the merging state.
func (c *Controller) process(ctx context.Context, result Result, clip audio.Clip) Result {
	if c.transcriber == nil || c.extractor == nil || c.form == nil {
		return c.fail(ctx, result, errors.New("session pipeline is not fully configured"))
	}

	c.mu.RLock()
	credential := c.credential
	c.mu.RUnlock()

	started := time.Now()
	text, err := c.transcriber.Transcribe(ctx, clip, credential)
	result.TranscribeLatency = time.Since(started)
	if err != nil {
		return c.fail(ctx, result, err)
	}
	result.Transcript = text

	if transcript.Normalize(text) == "" {
		if err := c.advance(ctx, fsm.EventNoSpeech, StatusNoSpeech, OutcomeNoSpeech); err != nil {
			return c.fail(ctx, result, err)
		}
		return c.finish(result, OutcomeNoSpeech, nil)
	}

	if err := c.advance(ctx, fsm.EventTranscribed, StatusExtracting, ""); err != nil {
		return c.fail(ctx, result, err)
	}

	started = time.Now()
	raw, err := c.extractor.Extract(ctx, text, credential)
	result.ExtractLatency = time.Since(started)
	if err != nil {
		return c.fail(ctx, result, err)
	}

	if err := c.advance(ctx, fsm.EventExtracted, StatusParsing, ""); err != nil {
		return c.fail(ctx, result, err)
	}
	record, err := card.Parse(raw)
	if err != nil {
		return c.fail(ctx, result, err)
	}
	result.Extracted = record.Keys()
	if record.Empty() {
		c.debug("extraction carried no recognized fields", "attempt_id", result.AttemptID)
	}

	if err := c.advance(ctx, fsm.EventParsed, StatusMerging, ""); err != nil {
		return c.fail(ctx, result, err)
	}
	merged, report := c.form.Apply(record)
	result.Card = merged
	result.Merged = report.Changed
	result.Discarded = report.Discarded

	if err := c.commit.Commit(ctx, merged); err != nil {
		return c.fail(ctx, result, fmt.Errorf("save card: %w", err))
	}

	if err := c.advance(ctx, fsm.EventMerged, StatusSuccess, OutcomeSuccess); err != nil {
		return c.fail(ctx, result, err)
	}
	return c.finish(result, OutcomeSuccess, nil)
}

// cancelRecording discards the recording and returns to idle.
func (c *Controller) cancelRecording(ctx context.Context, result Result, cause error) Result {
	_ = c.recorder.Cancel(context.Background())
	if err := c.advance(ctx, fsm.EventCancel, StatusCancelled, OutcomeCancelled); err != nil {
		return c.fail(ctx, result, err)
	}
	return c.finish(result, OutcomeCancelled, cause)
}

// fail moves through the error state back to idle, keeping the failure
// status visible.
func (c *Controller) fail(ctx context.Context, result Result, err error) Result {
	status := failureStatus(err)

	c.mu.Lock()
	c.state = fsm.StateError
	if next, terr := fsm.Transition(c.state, fsm.EventReset); terr == nil {
		c.state = next
	}
	c.status = status
	c.mu.Unlock()

	c.indicator.Show(ctx, Update{State: fsm.StateError, Text: status, Outcome: OutcomeFailed})
	return c.finish(result, OutcomeFailed, err)
}

// reject reports a start refused without disturbing the running attempt.
func (c *Controller) reject(result Result, err error) Result {
	result.State = c.State()
	result.Outcome = OutcomeFailed
	result.Status = failureStatus(err)
	result.Err = err
	result.FinishedAt = time.Now()
	return result
}

func (c *Controller) finish(result Result, outcome Outcome, err error) Result {
	c.mu.RLock()
	result.State = c.state
	result.Status = c.status
	c.mu.RUnlock()

	result.Outcome = outcome
	result.Err = err
	result.FinishedAt = time.Now()
	return result
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return c.response(true, "status", "")
	case ipc.CommandToggle:
		return c.requestStop(ipc.CommandToggle)
	case ipc.CommandStop:
		return c.requestStop(ipc.CommandStop)
	case ipc.CommandCancel:
		return c.requestCancel()
	default:
		return c.response(false, "", fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (c *Controller) response(ok bool, message string, errText string) ipc.Response {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ipc.Response{OK: ok, State: string(c.state), Status: c.status, Message: message, Error: errText}
}

// requestStop enqueues a stop action when state permits it.
func (c *Controller) requestStop(source string) ipc.Response {
	switch state := c.State(); state {
	case fsm.StateRecording:
	case fsm.StateRequesting:
		return c.response(false, "", "still acquiring the microphone")
	case fsm.StateIdle:
		return c.response(false, "", fmt.Sprintf("cannot %s from state %s", source, state))
	default:
		return c.response(false, "", "already processing")
	}

	select {
	case c.actions <- actionStop:
		return c.response(true, "stop requested", "")
	default:
		return c.response(true, "stop already requested", "")
	}
}

// requestCancel enqueues a cancel action; only recordings can be aborted.
func (c *Controller) requestCancel() ipc.Response {
	switch state := c.State(); state {
	case fsm.StateRecording:
	case fsm.StateIdle, fsm.StateRequesting:
		return c.response(false, "", fmt.Sprintf("cannot cancel from state %s", state))
	default:
		return c.response(false, "", "cannot cancel while processing")
	}

	select {
	case c.actions <- actionCancel:
		return c.response(true, "cancel requested", "")
	default:
		return c.response(true, "cancel already requested", "")
	}
}

func (c *Controller) debug(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(message, args...)
}
