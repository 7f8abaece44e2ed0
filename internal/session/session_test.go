package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbright/tccc/internal/audio"
	"github.com/rbright/tccc/internal/card"
	"github.com/rbright/tccc/internal/fsm"
	"github.com/rbright/tccc/internal/ipc"
	"github.com/rbright/tccc/internal/remote"
	"github.com/stretchr/testify/require"
)

const testCredential = "sk-test-credential"

type fakeRecorder struct {
	startErr  error
	recording Recording
	stopErr   error

	starts  atomic.Int32
	stops   atomic.Int32
	cancels atomic.Int32
}

func (f *fakeRecorder) Start(context.Context) error {
	f.starts.Add(1)
	return f.startErr
}

func (f *fakeRecorder) Stop(context.Context) (Recording, error) {
	f.stops.Add(1)
	return f.recording, f.stopErr
}

func (f *fakeRecorder) Cancel(context.Context) error {
	f.cancels.Add(1)
	return nil
}

type fakeTranscriber struct {
	text  string
	err   error
	calls atomic.Int32

	lastCredential atomic.Value
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ audio.Clip, credential string) (string, error) {
	f.calls.Add(1)
	f.lastCredential.Store(credential)
	return f.text, f.err
}

type fakeExtractor struct {
	raw   string
	err   error
	calls atomic.Int32
}

func (f *fakeExtractor) Extract(context.Context, string, string) (string, error) {
	f.calls.Add(1)
	return f.raw, f.err
}

type fakeIndicator struct {
	mu      sync.Mutex
	updates []Update
	hides   atomic.Int32
}

func (f *fakeIndicator) Show(_ context.Context, update Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
}

func (f *fakeIndicator) Hide(context.Context) { f.hides.Add(1) }

func (f *fakeIndicator) states() []fsm.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fsm.State, 0, len(f.updates))
	for _, update := range f.updates {
		out = append(out, update.State)
	}
	return out
}

func (f *fakeIndicator) last() Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates[len(f.updates)-1]
}

type harness struct {
	recorder    *fakeRecorder
	transcriber *fakeTranscriber
	extractor   *fakeExtractor
	indicator   *fakeIndicator
	form        *card.Form
	committed   atomic.Int32
	ctrl        *Controller
}

func seedCard() card.Card {
	return card.Card{
		Name:              "Doe, John",
		Allergies:         "NKDA",
		MechanismOfInjury: []string{"Blunt"},
		VitalSigns:        card.VitalSigns{Pulse: "110"},
		Notes:             "typed by medic",
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clip, err := audio.EncodeWAV(make([]byte, 3200), audio.SampleRate, audio.Channels)
	require.NoError(t, err)

	h := &harness{
		recorder: &fakeRecorder{recording: Recording{
			Clip:          clip,
			AudioDevice:   "test mic",
			BytesCaptured: 3200,
		}},
		transcriber: &fakeTranscriber{text: "pulse eighty eight, shrapnel from an IED"},
		extractor:   &fakeExtractor{raw: "```json\n{\"pulse\":\"88 bpm\",\"injury\":[\"Shrapnel/IED fragment\"]}\n```"},
		indicator:   &fakeIndicator{},
		form:        card.NewForm(seedCard(), card.NewMerger(nil, nil)),
	}
	h.ctrl = NewController(Dependencies{
		Recorder:    h.recorder,
		Transcriber: h.transcriber,
		Extractor:   h.extractor,
		Form:        h.form,
		Committer: CommitFunc(func(context.Context, card.Card) error {
			h.committed.Add(1)
			return nil
		}),
		Indicator: h.indicator,
	})
	h.ctrl.SetCredential(testCredential)
	return h
}

// runAndStop starts a recording, waits for it to be live, and sends command.
func (h *harness) runAndStop(t *testing.T, command string) Result {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resultCh := make(chan Result, 1)
	go func() {
		resultCh <- h.ctrl.Run(ctx)
	}()

	waitForState(t, h.ctrl, fsm.StateRecording)
	resp := h.ctrl.Handle(ctx, ipc.Request{Command: command})
	require.True(t, resp.OK, "%+v", resp)

	select {
	case result := <-resultCh:
		return result
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session result")
		return Result{}
	}
}

func TestControllerHappyPathMergesFields(t *testing.T) {
	h := newHarness(t)

	result := h.runAndStop(t, ipc.CommandStop)
	require.NoError(t, result.Err)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.Equal(t, fsm.StateIdle, result.State)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, StatusSuccess, h.ctrl.Status())
	require.NotEmpty(t, result.AttemptID)
	require.Equal(t, "test mic", result.AudioDevice)
	require.Equal(t, int64(3200), result.BytesCaptured)
	require.Equal(t, []string{card.KeyInjury, card.KeyPulse}, result.Extracted)
	require.ElementsMatch(t, []string{card.FieldPulse, card.FieldMechanismOfInjury}, result.Merged)
	require.False(t, result.FinishedAt.Before(result.StartedAt))

	snapshot := h.form.Snapshot()
	require.Equal(t, "88 bpm", snapshot.VitalSigns.Pulse)
	require.Equal(t, []string{"Blunt", "IED"}, snapshot.MechanismOfInjury)
	require.Equal(t, "Doe, John", snapshot.Name)
	require.Equal(t, "typed by medic", snapshot.Notes)
	require.Equal(t, snapshot, result.Card)

	require.Equal(t, int32(1), h.committed.Load())
	require.Equal(t, testCredential, h.transcriber.lastCredential.Load())
	require.Equal(t, []fsm.State{
		fsm.StateRequesting,
		fsm.StateRecording,
		fsm.StateTranscribing,
		fsm.StateExtracting,
		fsm.StateParsing,
		fsm.StateMerging,
		fsm.StateIdle,
	}, h.indicator.states())
	require.Equal(t, OutcomeSuccess, h.indicator.last().Outcome)
	require.Equal(t, int32(1), h.indicator.hides.Load())
}

func TestControllerToggleStopsRecording(t *testing.T) {
	h := newHarness(t)

	result := h.runAndStop(t, ipc.CommandToggle)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.Equal(t, int32(1), h.recorder.stops.Load())
}

func TestControllerEmptyTranscriptSkipsExtraction(t *testing.T) {
	h := newHarness(t)
	h.transcriber.text = "  \n "

	result := h.runAndStop(t, ipc.CommandStop)
	require.NoError(t, result.Err)
	require.Equal(t, OutcomeNoSpeech, result.Outcome)
	require.Equal(t, StatusNoSpeech, result.Status)
	require.Equal(t, fsm.StateIdle, h.ctrl.State())
	require.Equal(t, int32(0), h.extractor.calls.Load())
	require.Equal(t, int32(0), h.committed.Load())
	require.Equal(t, seedCard(), h.form.Snapshot())
}

func TestControllerServiceErrorLeavesCardUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*harness)
	}{
		{
			name: "transcription",
			setup: func(h *harness) {
				h.transcriber.err = &remote.ServiceError{Service: remote.ServiceTranscription, Status: http.StatusInternalServerError, Message: "upstream down"}
			},
		},
		{
			name: "extraction",
			setup: func(h *harness) {
				h.extractor.err = &remote.ServiceError{Service: remote.ServiceExtraction, Status: http.StatusTooManyRequests, Message: "rate limited"}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			tc.setup(h)

			result := h.runAndStop(t, ipc.CommandStop)
			serviceErr, ok := remote.IsServiceError(result.Err)
			require.True(t, ok)
			require.NotZero(t, serviceErr.Status)
			require.Equal(t, OutcomeFailed, result.Outcome)
			require.Equal(t, fsm.StateIdle, result.State)
			require.Contains(t, result.Status, serviceErr.Message)
			require.Equal(t, seedCard(), h.form.Snapshot())
			require.Equal(t, int32(0), h.committed.Load())
			require.Equal(t, OutcomeFailed, h.indicator.last().Outcome)
		})
	}
}

func TestControllerMalformedExtraction(t *testing.T) {
	h := newHarness(t)
	h.extractor.raw = "Sorry, I could not find any details."

	result := h.runAndStop(t, ipc.CommandStop)
	require.ErrorIs(t, result.Err, card.ErrMalformedExtraction)
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.Equal(t, fsm.StateIdle, h.ctrl.State())
	require.Equal(t, seedCard(), h.form.Snapshot())
}

func TestControllerNoAudioSkipsTranscription(t *testing.T) {
	h := newHarness(t)
	h.recorder.recording = Recording{AudioDevice: "test mic"}

	result := h.runAndStop(t, ipc.CommandStop)
	require.ErrorIs(t, result.Err, ErrNoAudioCaptured)
	require.Equal(t, "No audio data recorded. Please try again.", result.Status)
	require.Equal(t, int32(0), h.transcriber.calls.Load())
	require.Equal(t, fsm.StateIdle, h.ctrl.State())
}

func TestControllerInvalidCredentialFromTranscriber(t *testing.T) {
	h := newHarness(t)
	h.transcriber.err = remote.ErrInvalidCredential
	h.ctrl.SetCredential("")

	result := h.runAndStop(t, ipc.CommandStop)
	require.ErrorIs(t, result.Err, remote.ErrInvalidCredential)
	require.Equal(t, int32(0), h.extractor.calls.Load())
	require.Equal(t, "", h.transcriber.lastCredential.Load())
}

func TestControllerDeviceAccessDenied(t *testing.T) {
	h := newHarness(t)
	h.recorder.startErr = errors.New("connect pulse server: no such file")

	result := h.ctrl.Run(context.Background())
	require.ErrorIs(t, result.Err, audio.ErrDeviceAccessDenied)
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.Contains(t, result.Status, "Microphone access denied")
	require.Equal(t, fsm.StateIdle, result.State)
	require.Equal(t, int32(0), h.recorder.stops.Load())
	require.Equal(t, int32(0), h.transcriber.calls.Load())
}

func TestControllerCancelDiscardsRecording(t *testing.T) {
	h := newHarness(t)

	result := h.runAndStop(t, ipc.CommandCancel)
	require.NoError(t, result.Err)
	require.Equal(t, OutcomeCancelled, result.Outcome)
	require.Equal(t, StatusCancelled, result.Status)
	require.Equal(t, int32(1), h.recorder.cancels.Load())
	require.Equal(t, int32(0), h.recorder.stops.Load())
	require.Equal(t, int32(0), h.transcriber.calls.Load())
	require.Equal(t, fsm.StateIdle, h.ctrl.State())
}

func TestControllerContextCancelDuringRecording(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	resultCh := make(chan Result, 1)
	go func() {
		resultCh <- h.ctrl.Run(ctx)
	}()
	waitForState(t, h.ctrl, fsm.StateRecording)
	cancel()

	result := <-resultCh
	require.ErrorIs(t, result.Err, context.Canceled)
	require.Equal(t, OutcomeCancelled, result.Outcome)
	require.Equal(t, int32(1), h.recorder.cancels.Load())
	require.Equal(t, fsm.StateIdle, h.ctrl.State())
}

func TestControllerRejectsSecondStart(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resultCh := make(chan Result, 1)
	go func() {
		resultCh <- h.ctrl.Run(ctx)
	}()
	waitForState(t, h.ctrl, fsm.StateRecording)

	second := h.ctrl.Run(ctx)
	require.ErrorIs(t, second.Err, ErrSessionBusy)
	require.Equal(t, fsm.StateRecording, second.State)
	require.Equal(t, fsm.StateRecording, h.ctrl.State())
	require.Equal(t, int32(1), h.recorder.starts.Load())

	busyFile := h.ctrl.Process(ctx, audio.Clip{Data: []byte{1}, MediaType: audio.MediaTypeWAV})
	require.ErrorIs(t, busyFile.Err, ErrSessionBusy)

	resp := h.ctrl.Handle(ctx, ipc.Request{Command: ipc.CommandStop})
	require.True(t, resp.OK)
	require.Equal(t, OutcomeSuccess, (<-resultCh).Outcome)
}

func TestControllerProcessClip(t *testing.T) {
	h := newHarness(t)

	result := h.ctrl.Process(context.Background(), h.recorder.recording.Clip)
	require.NoError(t, result.Err)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.Equal(t, int32(0), h.recorder.starts.Load())
	require.Equal(t, "88 bpm", h.form.Snapshot().VitalSigns.Pulse)
	require.Equal(t, fsm.StateTranscribing, h.indicator.states()[0])

	empty := h.ctrl.Process(context.Background(), audio.Clip{})
	require.ErrorIs(t, empty.Err, ErrNoAudioCaptured)
	require.Equal(t, fsm.StateIdle, h.ctrl.State())
}

func TestControllerCommitFailure(t *testing.T) {
	h := newHarness(t)
	h.ctrl.commit = CommitFunc(func(context.Context, card.Card) error {
		return errors.New("disk full")
	})

	result := h.ctrl.Process(context.Background(), h.recorder.recording.Clip)
	require.ErrorContains(t, result.Err, "save card")
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.Equal(t, fsm.StateIdle, h.ctrl.State())
}

func TestControllerIsReusableAfterFailure(t *testing.T) {
	h := newHarness(t)
	h.extractor.err = &remote.ServiceError{Service: remote.ServiceExtraction, Status: http.StatusBadGateway, Message: "bad gateway"}

	first := h.ctrl.Process(context.Background(), h.recorder.recording.Clip)
	require.Equal(t, OutcomeFailed, first.Outcome)

	h.extractor.err = nil
	second := h.ctrl.Process(context.Background(), h.recorder.recording.Clip)
	require.Equal(t, OutcomeSuccess, second.Outcome)
	require.NotEqual(t, first.AttemptID, second.AttemptID)
}

func TestHandleStatusAndUnknownCommand(t *testing.T) {
	h := newHarness(t)

	status := h.ctrl.Handle(context.Background(), ipc.Request{Command: ipc.CommandStatus})
	require.True(t, status.OK)
	require.Equal(t, string(fsm.StateIdle), status.State)
	require.Equal(t, StatusReady, status.Status)

	unknown := h.ctrl.Handle(context.Background(), ipc.Request{Command: "definitely-unknown"})
	require.False(t, unknown.OK)
	require.Contains(t, unknown.Error, "unknown command")
}

func TestRequestStopAndCancelStateGuards(t *testing.T) {
	h := newHarness(t)
	ctrl := h.ctrl

	stopFromIdle := ctrl.Handle(context.Background(), ipc.Request{Command: ipc.CommandStop})
	require.False(t, stopFromIdle.OK)
	require.Contains(t, stopFromIdle.Error, "cannot stop from state idle")

	cancelFromIdle := ctrl.Handle(context.Background(), ipc.Request{Command: ipc.CommandCancel})
	require.False(t, cancelFromIdle.OK)
	require.Contains(t, cancelFromIdle.Error, "cannot cancel from state idle")

	ctrl.mu.Lock()
	ctrl.state = fsm.StateExtracting
	ctrl.mu.Unlock()

	stopWhileProcessing := ctrl.Handle(context.Background(), ipc.Request{Command: ipc.CommandStop})
	require.False(t, stopWhileProcessing.OK)
	require.Contains(t, stopWhileProcessing.Error, "already processing")

	cancelWhileProcessing := ctrl.Handle(context.Background(), ipc.Request{Command: ipc.CommandCancel})
	require.False(t, cancelWhileProcessing.OK)
	require.Contains(t, cancelWhileProcessing.Error, "cannot cancel while processing")
}

func TestRequestStopAndCancelAlreadyRequested(t *testing.T) {
	h := newHarness(t)
	ctrl := h.ctrl

	ctrl.mu.Lock()
	ctrl.state = fsm.StateRecording
	ctrl.mu.Unlock()

	ctrl.actions <- actionStop
	stop := ctrl.requestStop(ipc.CommandStop)
	require.True(t, stop.OK)
	require.Equal(t, "stop already requested", stop.Message)

	<-ctrl.actions
	ctrl.actions <- actionCancel
	cancel := ctrl.requestCancel()
	require.True(t, cancel.OK)
	require.Equal(t, "cancel already requested", cancel.Message)
}

func TestFailureStatusMessages(t *testing.T) {
	require.Contains(t, failureStatus(remote.ErrInvalidCredential), "API key")
	require.Contains(t, failureStatus(card.ErrMalformedExtraction), "extracted fields")
	require.Equal(t, "Transcription failed (401): bad key. Please try again.",
		failureStatus(&remote.ServiceError{Service: remote.ServiceTranscription, Status: 401, Message: "bad key"}))
	require.Equal(t, "Extraction failed: connection refused. Please try again.",
		failureStatus(&remote.ServiceError{Service: remote.ServiceExtraction, Message: "connection refused"}))
	require.Contains(t, failureStatus(errors.New("boom")), "boom")
}

func waitForState(t *testing.T, ctrl *Controller, desired fsm.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ctrl.State() == desired {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s (current=%s)", desired, ctrl.State())
}
