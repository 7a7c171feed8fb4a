package command

import (
	"errors"
	"fmt"

	"github.com/localrivet/readaloud/internal/translator"
)

// Op is the operation a reading session performs for an Action.
type Op string

const (
	OpOpenDocument   Op = "open_document"
	OpReadInLanguage Op = "read_in_language"
	OpStartReading   Op = "start_reading"
	OpPause          Op = "pause"
	OpResume         Op = "resume"
	OpStop           Op = "stop"
	OpReadPage       Op = "read_page"
	OpGoToPage       Op = "go_to_page"
	OpSummarize      Op = "summarize"
)

// View is the part of the reader state a command is validated against.
type View struct {
	HasDocument bool `json:"hasDocument"`
	CurrentPage int  `json:"currentPage"`
	NumPages    int  `json:"numPages"`
}

// Action is a validated instruction for the reading session.
type Action struct {
	Op       Op     `json:"op"`
	Page     int    `json:"page,omitempty"`
	Query    string `json:"query,omitempty"`
	Language string `json:"language,omitempty"`
}

// ErrRejected is wrapped by every Rejection.
var ErrRejected = errors.New("command rejected")

// Rejection explains why a command cannot run. Message is shown to the user.
type Rejection struct {
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func (r *Rejection) Unwrap() error { return ErrRejected }

func reject(format string, args ...any) error {
	return &Rejection{Message: fmt.Sprintf(format, args...)}
}

// Dispatch validates cmd against view and returns the resulting Action.
func Dispatch(view View, cmd Command) (Action, error) {
	switch c := cmd.(type) {
	case OpenDocument:
		if c.Name == "" {
			return Action{}, reject("Please say the name of the PDF to open")
		}
		return Action{Op: OpOpenDocument, Query: c.Name}, nil

	case Pause:
		return Action{Op: OpPause}, nil

	case Resume:
		return Action{Op: OpResume}, nil

	case StopReading:
		return Action{Op: OpStop}, nil

	case Unrecognized:
		return Action{}, reject("Unrecognized command: %q", c.Raw)
	}

	if !view.HasDocument {
		return Action{}, reject("Please select a PDF first")
	}

	switch c := cmd.(type) {
	case StartReading:
		return Action{Op: OpStartReading, Page: max(view.CurrentPage, 1)}, nil

	case ReadPage:
		if err := checkPage(view, c.Page); err != nil {
			return Action{}, err
		}
		return Action{Op: OpReadPage, Page: c.Page}, nil

	case GoToPage:
		if err := checkPage(view, c.Page); err != nil {
			return Action{}, err
		}
		return Action{Op: OpGoToPage, Page: c.Page}, nil

	case NextPage:
		if view.CurrentPage >= view.NumPages {
			return Action{}, reject("This is the last page")
		}
		return Action{Op: OpGoToPage, Page: view.CurrentPage + 1}, nil

	case PreviousPage:
		if view.CurrentPage <= 1 {
			return Action{}, reject("This is the first page")
		}
		return Action{Op: OpGoToPage, Page: view.CurrentPage - 1}, nil

	case ReadInLanguage:
		lang, err := translator.ResolveLanguage(c.Language)
		if err != nil {
			return Action{}, reject("Unsupported language: %s", c.Language)
		}
		return Action{Op: OpReadInLanguage, Page: max(view.CurrentPage, 1), Language: lang.Code}, nil

	case Summarize:
		return Action{Op: OpSummarize, Page: max(view.CurrentPage, 1)}, nil
	}

	return Action{}, reject("Unrecognized command")
}

func checkPage(view View, page int) error {
	if page < 1 || page > view.NumPages {
		return reject("Invalid page number. Please specify a number between 1 and %d", view.NumPages)
	}
	return nil
}
