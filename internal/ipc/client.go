package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// ForwardTimeout bounds one forwarded command, dial included.
const ForwardTimeout = 220 * time.Millisecond

// ErrNoOwner means nothing is listening on the owner socket.
var ErrNoOwner = errors.New("no active tccc session")

// CommandError is a command the owner received and refused.
type CommandError struct {
	Command  string
	Response Response
}

func (e *CommandError) Error() string {
	if e.Response.Error == "" {
		return fmt.Sprintf("%s refused", e.Command)
	}
	return e.Response.Error
}

// Send performs one request/response exchange within timeout. A missing
// socket or a socket without a listener is reported as ErrNoOwner.
func Send(ctx context.Context, path string, req Request, timeout time.Duration) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		if noListener(err) {
			return Response{}, fmt.Errorf("%w: %w", ErrNoOwner, err)
		}
		return Response{}, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Forward hands command to the running owner. A refusal returns the owner's
// response together with a *CommandError.
func Forward(ctx context.Context, path string, command string) (Response, error) {
	resp, err := Send(ctx, path, Request{Command: command}, ForwardTimeout)
	if err != nil {
		if errors.Is(err, ErrNoOwner) {
			return Response{}, err
		}
		return Response{}, fmt.Errorf("forward command %q: %w", command, err)
	}
	if !resp.OK {
		return resp, &CommandError{Command: command, Response: resp}
	}
	return resp, nil
}

// Probe reports whether a responsive owner is listening on path.
func Probe(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	_, err := Send(ctx, path, Request{Command: CommandStatus}, timeout)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNoOwner):
		return false, nil
	default:
		return false, fmt.Errorf("probe socket: %w", err)
	}
}

func noListener(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED)
}
