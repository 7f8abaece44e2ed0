// Package ipc carries owner-session commands over a unix socket as JSON lines.
package ipc

// Commands understood by a recording owner.
const (
	CommandStatus = "status"
	CommandToggle = "toggle"
	CommandStop   = "stop"
	CommandCancel = "cancel"
)

type Request struct {
	Command string `json:"command"`
}

// Response reports the owner's FSM state and its current status line.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
