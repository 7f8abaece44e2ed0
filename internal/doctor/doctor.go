// Package doctor runs runtime readiness diagnostics for config, credential,
// card storage, audio, and the remote services.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/tccc/internal/audio"
	"github.com/rbright/tccc/internal/card"
	"github.com/rbright/tccc/internal/config"
	"github.com/rbright/tccc/internal/remote"
)

const probeTimeout = 5 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	message := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		message = fmt.Sprintf("using defaults (%q not found)", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: message})

	credential := checkCredential(cfg.Config)
	checks = append(checks, credential)
	checks = append(checks, checkCardPath(cfg.CardPath))

	if cfg.Config.Indicator.Enable {
		checks = append(checks, checkBinary("busctl", "desktop notifications use busctl"))
	}

	checks = append(checks, checkAudioSelection(ctx, cfg.Config))
	if credential.Pass {
		checks = append(checks, checkRemote(ctx, cfg.Config.Remote(), cfg.Config.CredentialFromEnv()))
	} else {
		checks = append(checks, Check{Name: "openai", Pass: false, Message: "skipped: no valid credential"})
	}

	return Report{Checks: checks}
}

// checkCredential validates the configured env var without echoing its value.
func checkCredential(cfg config.Config) Check {
	name := "credential"
	env := cfg.Credential.Env
	value := cfg.CredentialFromEnv()
	if value == "" {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s is not set", env)}
	}
	if err := remote.ValidateCredential(value, cfg.Credential.Prefix); err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s: %v", env, err)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s is set", env)}
}

// checkCardPath confirms the card file's directory is writable and any
// existing card decodes.
func checkCardPath(path string) Check {
	name := "card"
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("create %q: %v", dir, err)}
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%q is not writable: %v", dir, err)}
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	_, exists, err := card.FileStore{Path: path}.Load()
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	if !exists {
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("%q will be created on first save", path)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("loaded %q", path)}
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkRemote lists models at the configured base URL. Any HTTP answer other
// than an auth rejection counts as reachable.
func checkRemote(ctx context.Context, cfg remote.Config, credential string) Check {
	name := "openai"
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := remote.Probe(probeCtx, cfg, credential)
	if err == nil {
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("reachable at %s", cfg.BaseURL)}
	}
	if errors.Is(err, remote.ErrInvalidCredential) {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}

	serviceErr, ok := remote.IsServiceError(err)
	if !ok || serviceErr.Status == 0 {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	switch serviceErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("credential rejected (HTTP %d)", serviceErr.Status)}
	default:
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("HTTP %d from %s", serviceErr.Status, cfg.BaseURL)}
	}
}
