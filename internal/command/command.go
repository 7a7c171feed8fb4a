// Package command turns voice transcripts into reader commands.
//
// Parse normalises a transcript and classifies it; Dispatch validates the
// command against what the reader is showing and yields the Action the
// reading session should perform. Both are pure.
package command

import (
	"strconv"
	"strings"
	"unicode"
)

// Kind names a command variant.
type Kind string

const (
	KindOpenDocument   Kind = "open_document"
	KindReadInLanguage Kind = "read_in_language"
	KindStartReading   Kind = "start_reading"
	KindPause          Kind = "pause"
	KindResume         Kind = "resume"
	KindStopReading    Kind = "stop_reading"
	KindReadPage       Kind = "read_page"
	KindGoToPage       Kind = "go_to_page"
	KindNextPage       Kind = "next_page"
	KindPreviousPage   Kind = "previous_page"
	KindSummarize      Kind = "summarize"
	KindUnrecognized   Kind = "unrecognized"
)

// Command is one parsed voice command. The concrete types below are the only
// implementations.
type Command interface {
	Kind() Kind
	isCommand()
}

type (
	// OpenDocument searches for a document by name and opens the first match.
	OpenDocument struct{ Name string }

	// ReadInLanguage translates the current page and reads it aloud.
	ReadInLanguage struct{ Language string }

	// StartReading reads continuously from the current page.
	StartReading struct{}

	// Pause stops the current utterance and remembers the page.
	Pause struct{}

	// Resume restarts the remembered page.
	Resume struct{}

	// StopReading stops reading and returns to page 1.
	StopReading struct{}

	// ReadPage reads one page. Page is 0 when no number was understood.
	ReadPage struct{ Page int }

	// GoToPage moves to a page without reading it.
	GoToPage struct{ Page int }

	// NextPage moves forward one page.
	NextPage struct{}

	// PreviousPage moves back one page.
	PreviousPage struct{}

	// Summarize summarises the current page and reads the summary.
	Summarize struct{}

	// Unrecognized carries a transcript that matched no command.
	Unrecognized struct{ Raw string }
)

func (OpenDocument) Kind() Kind   { return KindOpenDocument }
func (ReadInLanguage) Kind() Kind { return KindReadInLanguage }
func (StartReading) Kind() Kind   { return KindStartReading }
func (Pause) Kind() Kind          { return KindPause }
func (Resume) Kind() Kind         { return KindResume }
func (StopReading) Kind() Kind    { return KindStopReading }
func (ReadPage) Kind() Kind       { return KindReadPage }
func (GoToPage) Kind() Kind       { return KindGoToPage }
func (NextPage) Kind() Kind       { return KindNextPage }
func (PreviousPage) Kind() Kind   { return KindPreviousPage }
func (Summarize) Kind() Kind      { return KindSummarize }
func (Unrecognized) Kind() Kind   { return KindUnrecognized }

func (OpenDocument) isCommand()   {}
func (ReadInLanguage) isCommand() {}
func (StartReading) isCommand()   {}
func (Pause) isCommand()          {}
func (Resume) isCommand()         {}
func (StopReading) isCommand()    {}
func (ReadPage) isCommand()       {}
func (GoToPage) isCommand()       {}
func (NextPage) isCommand()       {}
func (PreviousPage) isCommand()   {}
func (Summarize) isCommand()      {}
func (Unrecognized) isCommand()   {}

// exact maps fixed phrases to their commands.
var exact = map[string]Command{
	"start reading":  StartReading{},
	"pause":          Pause{},
	"resume":         Resume{},
	"stop reading":   StopReading{},
	"next page":      NextPage{},
	"previous page":  PreviousPage{},
	"back page":      PreviousPage{},
	"summarize":      Summarize{},
	"summarize this": Summarize{},
	"summarize page": Summarize{},
	"summa":          Summarize{},
	"summarise":      Summarize{},
}

// Normalize trims a transcript, drops one trailing '.', lower-cases it and
// collapses inner whitespace.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".")
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Parse classifies a raw transcript.
func Parse(raw string) Command {
	s := Normalize(raw)

	if cmd, ok := exact[s]; ok {
		return cmd
	}

	if rest, ok := cutWord(s, "open"); ok {
		return OpenDocument{Name: rest}
	}
	if rest, ok := cutWord(s, "read page"); ok {
		return ReadPage{Page: parsePage(rest)}
	}
	if rest, ok := cutWord(s, "go to page"); ok {
		return GoToPage{Page: parsePage(rest)}
	}
	if rest, ok := cutWord(s, "read in"); ok {
		words := strings.Fields(rest)
		language := ""
		if len(words) > 0 {
			language = words[len(words)-1]
		}
		return ReadInLanguage{Language: language}
	}

	return Unrecognized{Raw: s}
}

// cutWord strips prefix from s when prefix is a whole-word prefix.
func cutWord(s, prefix string) (string, bool) {
	if s == prefix {
		return "", true
	}
	if rest, ok := strings.CutPrefix(s, prefix+" "); ok {
		return strings.TrimSpace(rest), true
	}
	return "", false
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
}

// parsePage reads a page number from the first word of s: either leading
// digits or a spoken number. It returns 0 when nothing matches.
func parsePage(s string) int {
	words := strings.Fields(s)
	if len(words) == 0 {
		return 0
	}
	word := words[0]

	if n, ok := numberWords[word]; ok {
		return n
	}

	end := strings.IndexFunc(word, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(word)
	}
	n, err := strconv.Atoi(word[:end])
	if err != nil {
		return 0
	}
	return n
}
