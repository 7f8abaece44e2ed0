package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	notifyDestination = "org.freedesktop.Notifications"
	notifyObjectPath  = "/org/freedesktop/Notifications"
)

// notification is one org.freedesktop.Notifications.Notify call.
type notification struct {
	appName   string
	replaceID uint32
	summary   string
	body      string
	timeoutMS int
	critical  bool
}

// args renders the Notify parameters in busctl's signature form.
func (n notification) args() []string {
	args := []string{
		"susssasa{sv}i",
		n.appName,
		strconv.FormatUint(uint64(n.replaceID), 10),
		"", // icon
		n.summary,
		n.body,
		"0", // no actions
	}
	if n.critical {
		args = append(args, "1", "urgency", "y", "2")
	} else {
		args = append(args, "0")
	}
	return append(args, strconv.Itoa(n.timeoutMS))
}

// desktopNotify sends n and returns the ID the notification server assigned.
func desktopNotify(ctx context.Context, n notification) (uint32, error) {
	out, err := busctl(ctx, "Notify", n.args()...)
	if err != nil {
		return 0, fmt.Errorf("desktop notify failed: %w", err)
	}

	reply := strings.Fields(out)
	if len(reply) != 2 || reply[0] != "u" {
		return 0, fmt.Errorf("desktop notify invalid response: %q", out)
	}
	id, err := strconv.ParseUint(reply[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("desktop notify parse id %q: %w", reply[1], err)
	}
	return uint32(id), nil
}

// desktopDismiss closes the notification with id.
func desktopDismiss(ctx context.Context, id uint32) error {
	if _, err := busctl(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10)); err != nil {
		return fmt.Errorf("desktop dismiss failed: %w", err)
	}
	return nil
}

// busctl calls method on the user session notification service.
func busctl(ctx context.Context, method string, params ...string) (string, error) {
	args := append([]string{"--user", "call", notifyDestination, notifyObjectPath, notifyDestination, method}, params...)
	out, err := exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed != "" {
			return "", fmt.Errorf("%w (%s)", err, trimmed)
		}
		return "", err
	}
	return trimmed, nil
}
