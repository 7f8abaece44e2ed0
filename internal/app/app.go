// Package app dispatches tccc commands and hosts the owner recording session.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/tccc/internal/audio"
	"github.com/rbright/tccc/internal/card"
	"github.com/rbright/tccc/internal/cli"
	"github.com/rbright/tccc/internal/config"
	"github.com/rbright/tccc/internal/doctor"
	"github.com/rbright/tccc/internal/fsm"
	"github.com/rbright/tccc/internal/indicator"
	"github.com/rbright/tccc/internal/ipc"
	"github.com/rbright/tccc/internal/logging"
	"github.com/rbright/tccc/internal/pipeline"
	"github.com/rbright/tccc/internal/remote"
	"github.com/rbright/tccc/internal/session"
	"github.com/rbright/tccc/internal/transcript"
	"github.com/rbright/tccc/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	// Recorder overrides the Pulse-backed recorder for the owner session.
	Recorder session.Recorder
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("tccc"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("tccc"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath, parsed.CardPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"card", cfgLoaded.CardPath,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.CommandStop)
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, ipc.CommandCancel)
	case cli.CommandShow:
		return r.commandShow(cfgLoaded)
	case cli.CommandTranscribe:
		return r.commandTranscribe(ctx, cfgLoaded, parsed.AudioPath, logger)
	case cli.CommandToggle:
		return r.commandToggle(ctx, cfgLoaded, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, fsm.StateIdle)
		return 0
	}

	resp, err := ipc.Forward(ctx, socketPath, ipc.CommandStatus)
	switch {
	case errors.Is(err, ipc.ErrNoOwner):
		fmt.Fprintln(r.Stdout, fsm.StateIdle)
		return 0
	case err != nil:
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	state := resp.State
	if state == "" {
		state = string(fsm.StateIdle)
	}
	if resp.Status != "" {
		fmt.Fprintf(r.Stdout, "%s: %s\n", state, resp.Status)
	} else {
		fmt.Fprintln(r.Stdout, state)
	}
	return 0
}

// forward relays command to the owner and prints its reply.
func (r Runner) forward(ctx context.Context, socketPath string, command string) int {
	resp, err := ipc.Forward(ctx, socketPath, command)
	return r.printReply(resp, err)
}

func (r Runner) printReply(resp ipc.Response, err error) int {
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return r.forward(ctx, socketPath, command)
}

func (r Runner) commandShow(cfg config.Loaded) int {
	current, _, err := card.FileStore{Path: cfg.CardPath}.Load()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: encode card: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, string(data))
	return 0
}

func (r Runner) commandTranscribe(ctx context.Context, cfg config.Loaded, audioPath string, logger *slog.Logger) int {
	clip, err := audio.LoadClip(audioPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	controller, err := r.newController(cfg, nil, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	result := controller.Process(ctx, clip)
	logSessionResult(logger, result)
	return r.reportResult(result)
}

func (r Runner) commandToggle(ctx context.Context, cfg config.Loaded, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if resp, err := ipc.Forward(ctx, socketPath, ipc.CommandToggle); !errors.Is(err, ipc.ErrNoOwner) {
		return r.printReply(resp, err)
	}

	listener, err := ipc.Acquire(ctx, socketPath)
	if errors.Is(err, ipc.ErrAlreadyRunning) {
		return r.forward(ctx, socketPath, ipc.CommandToggle)
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	recorder := r.Recorder
	if recorder == nil {
		recorder = pipeline.NewRecorder(cfg.Config, logger)
	}
	controller, err := r.newController(cfg, recorder, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	group, groupCtx := errgroup.WithContext(ctx)
	serverCtx, serverCancel := context.WithCancel(groupCtx)
	defer serverCancel()

	var result session.Result
	group.Go(func() error {
		if err := ipc.Serve(serverCtx, listener, controller); err != nil {
			return fmt.Errorf("ipc server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		defer serverCancel()
		result = controller.Run(groupCtx)
		return nil
	})
	if err := group.Wait(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logSessionResult(logger, result)
	return r.reportResult(result)
}

// newController wires the remote clients, the persisted card, and the
// indicator around one session controller.
func (r Runner) newController(loaded config.Loaded, recorder session.Recorder, logger *slog.Logger) (*session.Controller, error) {
	cfg := loaded.Config
	store := card.FileStore{Path: loaded.CardPath}
	current, _, err := store.Load()
	if err != nil {
		return nil, err
	}

	vocabulary := cfg.MechanismVocabulary()
	if unknown := vocabulary.Unknown(current.MechanismOfInjury); len(unknown) > 0 {
		logger.Warn("card keeps mechanism tags outside the configured vocabulary", "tags", unknown)
	}

	remoteCfg := cfg.Remote()
	form := card.NewForm(current, card.NewMerger(cfg.FieldMap(), vocabulary))
	controller := session.NewController(session.Dependencies{
		Logger:      logger,
		Recorder:    recorder,
		Transcriber: remote.NewTranscriber(remoteCfg),
		Extractor:   remote.NewExtractor(remoteCfg),
		Form:        form,
		Committer: session.CommitFunc(func(_ context.Context, c card.Card) error {
			return store.Save(c)
		}),
		Indicator: indicator.NewNotifier(cfg.Indicator, logger),
	})
	controller.SetCredential(cfg.CredentialFromEnv())
	return controller, nil
}

// reportResult prints the outcome and maps it to an exit code.
func (r Runner) reportResult(result session.Result) int {
	switch result.Outcome {
	case session.OutcomeSuccess:
		fmt.Fprintln(r.Stdout, result.Status)
		if len(result.Merged) > 0 {
			fmt.Fprintf(r.Stdout, "updated: %s\n", strings.Join(result.Merged, ", "))
		}
		if len(result.Discarded) > 0 {
			fmt.Fprintf(r.Stderr, "warning: unmatched injury mechanisms: %s\n", strings.Join(result.Discarded, "; "))
		}
		return 0
	case session.OutcomeNoSpeech, session.OutcomeCancelled:
		fmt.Fprintln(r.Stdout, result.Status)
		return 0
	default:
		fmt.Fprintf(r.Stderr, "error: %s\n", result.Status)
		return 1
	}
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"attempt_id", result.AttemptID,
		"state", result.State,
		"outcome", result.Outcome,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"audio_device", result.AudioDevice,
		"bytes_captured", result.BytesCaptured,
		"truncated", result.Truncated,
		"transcript_length", len(result.Transcript),
		"transcript_words", transcript.WordCount(result.Transcript),
		"extracted_keys", result.Extracted,
		"merged_fields", result.Merged,
		"discarded_count", len(result.Discarded),
		"transcribe_latency_ms", result.TranscribeLatency.Milliseconds(),
		"extract_latency_ms", result.ExtractLatency.Milliseconds(),
	}

	if result.Outcome == session.OutcomeFailed && result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}
