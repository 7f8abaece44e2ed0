// Package cli parses the tccc command line.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandToggle     Command = "toggle"
	CommandStop       Command = "stop"
	CommandCancel     Command = "cancel"
	CommandStatus     Command = "status"
	CommandTranscribe Command = "transcribe"
	CommandShow       Command = "show"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandToggle:     {},
	CommandStop:       {},
	CommandCancel:     {},
	CommandStatus:     {},
	CommandTranscribe: {},
	CommandShow:       {},
	CommandDevices:    {},
	CommandDoctor:     {},
	CommandVersion:    {},
	CommandHelp:       {},
}

// Parsed is the resolved invocation.
type Parsed struct {
	Command    Command
	ConfigPath string
	CardPath   string
	// AudioPath is the clip for the transcribe command.
	AudioPath string
	ShowHelp  bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--card":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--card requires a path")
			}
			parsed.CardPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			rest := args[i+1:]

			if cmd == CommandTranscribe {
				if len(rest) == 0 || strings.TrimSpace(rest[0]) == "" {
					return Parsed{}, errors.New("transcribe requires an audio file path")
				}
				parsed.AudioPath = rest[0]
				rest = rest[1:]
			}
			if len(rest) != 0 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--card PATH] <command>

Commands:
  toggle           Start recording, or stop and fill the card when already recording
  stop             Stop active recording and fill the card
  cancel           Cancel active recording and discard audio
  status           Print current state
  transcribe FILE  Fill the card from an existing audio file
  show             Print the current card as JSON
  devices          List available input devices
  doctor           Run configuration and environment checks
  version          Print version information
  help             Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/tccc/config.jsonc)
  --card PATH     Card file path (default: $XDG_STATE_HOME/tccc/card.json)
  -h, --help      Show help
  --version       Show version

Environment:
  OPENAI_API_KEY  API key for the speech and extraction services (see credential.env)
`, binaryName)
}
