// Package fsm holds the recording session state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateRequesting   State = "requesting"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateExtracting   State = "extracting"
	StateParsing      State = "parsing"
	StateMerging      State = "merging"
	StateError        State = "error"
)

const (
	EventStart       Event = "start"
	EventGranted     Event = "granted"
	EventStop        Event = "stop"
	EventCancel      Event = "cancel"
	EventSubmit      Event = "submit"
	EventNoSpeech    Event = "no_speech"
	EventTranscribed Event = "transcribed"
	EventExtracted   Event = "extracted"
	EventParsed      Event = "parsed"
	EventMerged      Event = "merged"
	EventFail        Event = "fail"
	EventReset       Event = "reset"
)

type edge struct {
	from  State
	event Event
}

var transitions = map[edge]State{
	{StateIdle, EventStart}:               StateRequesting,
	{StateIdle, EventSubmit}:              StateTranscribing,
	{StateRequesting, EventGranted}:       StateRecording,
	{StateRecording, EventStop}:           StateTranscribing,
	{StateRecording, EventCancel}:         StateIdle,
	{StateTranscribing, EventNoSpeech}:    StateIdle,
	{StateTranscribing, EventTranscribed}: StateExtracting,
	{StateExtracting, EventExtracted}:     StateParsing,
	{StateParsing, EventParsed}:           StateMerging,
	{StateMerging, EventMerged}:           StateIdle,
	{StateError, EventReset}:              StateIdle,
}

var known = map[State]bool{
	StateIdle:         true,
	StateRequesting:   true,
	StateRecording:    true,
	StateTranscribing: true,
	StateExtracting:   true,
	StateParsing:      true,
	StateMerging:      true,
	StateError:        true,
}

// Transition returns the state reached from current on event.
// EventFail is accepted from every state.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}
	if !known[current] {
		return current, fmt.Errorf("unknown state %q", current)
	}
	next, ok := transitions[edge{current, event}]
	if !ok {
		return current, invalidTransition(current, event)
	}
	return next, nil
}

// Busy reports whether a session in state is mid-attempt.
func Busy(state State) bool {
	return state != StateIdle
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
