// Package reader runs page-by-page reading sessions: translation, speech and
// summary read-back, driven by an explicit state machine.
package reader

import (
	"errors"
	"fmt"
)

// Status is the coarse state of a reading session.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusReading     Status = "reading"
	StatusPaused      Status = "paused"
	StatusTranslating Status = "translating"
	StatusSummarizing Status = "summarizing"
)

// State is a session state. Page is the page being read or remembered and is
// only meaningful while Reading, Paused or Translating.
type State struct {
	Status Status `json:"status"`
	Page   int    `json:"page,omitempty"`
}

// EventType names a state machine input.
type EventType string

const (
	EventStart     EventType = "start"
	EventPause     EventType = "pause"
	EventResume    EventType = "resume"
	EventStop      EventType = "stop"
	EventPageDone  EventType = "page_done"
	EventError     EventType = "error"
	EventTranslate EventType = "translate"
	EventSummarize EventType = "summarize"
	EventDone      EventType = "done"
)

// Event is a state machine input. For start and translate, Page is the page
// to work on; for pageDone it is the next page, or 0 at the end of the document.
type Event struct {
	Type EventType `json:"type"`
	Page int       `json:"page,omitempty"`
}

// ErrInvalidTransition is returned for events the current state does not accept.
var ErrInvalidTransition = errors.New("invalid transition")

// Idle is the initial state.
var Idle = State{Status: StatusIdle}

// Transition returns the state reached from s on e.
func Transition(s State, e Event) (State, error) {
	switch e.Type {
	case EventStop, EventError:
		return Idle, nil

	case EventStart:
		if e.Page < 1 {
			return s, invalid(s, e)
		}
		return State{Status: StatusReading, Page: e.Page}, nil

	case EventPause:
		if s.Status == StatusReading {
			return State{Status: StatusPaused, Page: s.Page}, nil
		}

	case EventResume:
		if s.Status == StatusPaused {
			return State{Status: StatusReading, Page: s.Page}, nil
		}

	case EventPageDone:
		if s.Status == StatusReading {
			if e.Page == 0 {
				return Idle, nil
			}
			return State{Status: StatusReading, Page: e.Page}, nil
		}

	case EventTranslate:
		if interruptible(s) && e.Page >= 1 {
			return State{Status: StatusTranslating, Page: e.Page}, nil
		}

	case EventSummarize:
		if interruptible(s) {
			return State{Status: StatusSummarizing}, nil
		}

	case EventDone:
		if s.Status == StatusTranslating || s.Status == StatusSummarizing {
			return Idle, nil
		}
	}

	return s, invalid(s, e)
}

// interruptible reports whether a one-shot task may start from s.
func interruptible(s State) bool {
	switch s.Status {
	case StatusIdle, StatusReading, StatusPaused:
		return true
	}
	return false
}

func invalid(s State, e Event) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, e.Type, s.Status)
}
