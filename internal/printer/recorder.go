package printer

import (
	"strings"
	"sync"
)

// Recorded operations
const (
	OpText = "text"
	OpFeed = "feed"
	OpCut  = "cut"
)

// Call is a single recorded printer call
type Call struct {
	Op    string `json:"op"`
	Text  string `json:"text,omitempty"`
	Lines int    `json:"lines,omitempty"`
}

// Recorder is a printer that only supports text, feed and cut, and remembers
// every call. Everything richer reaches it as a text marker, which makes it
// the reference transcript of an interpretation.
type Recorder struct {
	calls []Call
	mu    sync.Mutex
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// AddText records a text call
func (r *Recorder) AddText(text string) {
	r.record(Call{Op: OpText, Text: text})
}

// AddFeedLine records a feed call
func (r *Recorder) AddFeedLine(lines int) {
	r.record(Call{Op: OpFeed, Lines: lines})
}

// CutPaper records a cut
func (r *Recorder) CutPaper() {
	r.record(Call{Op: OpCut})
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, c)
}

// Calls returns a copy of the recorded calls
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]Call, len(r.calls))
	copy(calls, r.calls)
	return calls
}

// Reset forgets all recorded calls
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = nil
}

// Lines lays the recorded calls out as paper lines. Text accumulates on the
// current line until a newline, feed or cut; a feed adds blank lines and a
// cut adds a row of '='.
func (r *Recorder) Lines() []string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
	}

	for _, c := range r.Calls() {
		switch c.Op {
		case OpText:
			parts := strings.Split(c.Text, "\n")
			for i, part := range parts {
				current.WriteString(part)
				if i < len(parts)-1 {
					lines = append(lines, current.String())
					current.Reset()
				}
			}
		case OpFeed:
			flush()
			for i := 0; i < c.Lines; i++ {
				lines = append(lines, "")
			}
		case OpCut:
			flush()
			lines = append(lines, strings.Repeat("=", 48))
		}
	}
	flush()

	return lines
}
