package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

const (
	socketName    = "tccc.sock"
	probeTimeout  = 180 * time.Millisecond
	acquireTries  = 8
	acquireStepMS = 25
)

// ErrAlreadyRunning means a responsive owner already holds the socket.
var ErrAlreadyRunning = errors.New("tccc recording session already running")

// RuntimeSocketPath returns the owner socket under XDG_RUNTIME_DIR.
func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, socketName), nil
}

// Acquire makes the caller the owner by listening on path. A socket left by
// a dead owner is removed and the listen retried; a live owner yields
// ErrAlreadyRunning. An inconclusive probe leaves the socket in place.
func Acquire(ctx context.Context, path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for try := 1; ; try++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}
		if try > acquireTries {
			return nil, fmt.Errorf("acquire socket %s: still in use after %d attempts", path, try)
		}

		alive, err := Probe(ctx, path, probeTimeout)
		if err != nil {
			return nil, fmt.Errorf("probe existing socket %s: %w", path, err)
		}
		if alive {
			return nil, ErrAlreadyRunning
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(acquireStepMS*try) * time.Millisecond):
		}
	}
}
