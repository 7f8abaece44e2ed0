// Package indicator surfaces session status as desktop notifications and
// audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/tccc/internal/config"
	"github.com/rbright/tccc/internal/fsm"
	"github.com/rbright/tccc/internal/session"
)

const (
	stickyTimeoutMS       = 300000
	defaultErrorTimeoutMS = 1200
)

// Notifier is the session indicator used by runtime sessions. In-flight
// states replace one sticky notification; terminal states expire on their own.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	desktopNotificationID uint32
	sticky                bool
	soundMu               sync.Mutex
}

var _ session.Indicator = (*Notifier)(nil)

// NewNotifier creates an indicator from config.
func NewNotifier(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: defaultMessages,
	}
}

// Show plays the cue for u and replaces the current notification.
func (n *Notifier) Show(ctx context.Context, u session.Update) {
	if kind, ok := cueFor(u); ok {
		n.playCue(kind)
	}
	if !n.cfg.Enable {
		return
	}

	text := strings.TrimSpace(u.Text)
	title := n.messages.title
	timeout := stickyTimeoutMS
	if u.Terminal() {
		timeout = n.cfg.ErrorTimeoutMS
		if timeout <= 0 {
			timeout = defaultErrorTimeoutMS
		}
		if u.Outcome == session.OutcomeFailed {
			title = n.messages.errorTitle
			if text == "" {
				text = n.messages.errorText
			}
		}
	}

	n.mu.Lock()
	n.sticky = !u.Terminal()
	n.mu.Unlock()

	critical := u.Outcome == session.OutcomeFailed
	n.run(ctx, func(ctx context.Context) error {
		return n.notifyDesktop(ctx, notification{summary: title, body: text, timeoutMS: timeout, critical: critical})
	})
}

// Hide dismisses a sticky in-flight notification. Terminal notifications
// are left to expire.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}

	n.mu.Lock()
	sticky := n.sticky
	n.sticky = false
	n.mu.Unlock()
	if !sticky {
		return
	}
	n.run(ctx, n.dismissDesktop)
}

func cueFor(u session.Update) (cueKind, bool) {
	switch u.Outcome {
	case session.OutcomeSuccess:
		return cueComplete, true
	case session.OutcomeCancelled:
		return cueCancel, true
	case session.OutcomeFailed, session.OutcomeNoSpeech:
		return cueError, true
	}

	switch u.State {
	case fsm.StateRecording:
		return cueStart, true
	case fsm.StateTranscribing:
		return cueStop, true
	default:
		return 0, false
	}
}

// notifyDesktop replaces the current desktop notification with note and
// stores the new ID.
func (n *Notifier) notifyDesktop(ctx context.Context, note notification) error {
	n.mu.Lock()
	note.replaceID = n.desktopNotificationID
	n.mu.Unlock()

	note.appName = strings.TrimSpace(n.cfg.DesktopAppName)
	if note.appName == "" {
		note.appName = "tccc"
	}

	id, err := desktopNotify(ctx, note)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (n *Notifier) dismissDesktop(ctx context.Context) error {
	n.mu.Lock()
	id := n.desktopNotificationID
	n.desktopNotificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := emitCue(kind); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
