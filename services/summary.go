package services

import (
	"fmt"
	"io"
	"strings"

	"naver-trends/models"
	"naver-trends/notify"
)

// Client outcomes, also used as metric labels.
const (
	OutcomeDone     = "done"
	OutcomeNoChange = "no_change"
	OutcomeFailed   = "failed"
)

// ClientResult is the end state of one client's sync.
type ClientResult struct {
	Client  string
	Mode    models.SyncMode
	Outcome string
	Rows    int
	Err     error
}

// Summary collects the status lines sent in the run's notification.
type Summary struct {
	lines   []string
	results []ClientResult
	failed  bool
}

// NewSummary returns an empty, succeeded Summary.
func NewSummary() *Summary {
	return &Summary{}
}

// Add appends a status line.
func (s *Summary) Add(format string, args ...any) {
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
}

// Record stores a client result and its closing status line.
func (s *Summary) Record(r ClientResult) {
	s.results = append(s.results, r)
	switch r.Outcome {
	case OutcomeDone:
		s.Add("%s Done", r.Client)
	case OutcomeNoChange:
		s.Add("%q No change in data", r.Client)
	default:
		s.failed = true
		s.Add("%s Failed", r.Client)
	}
}

// Fail appends line and marks the run failed.
func (s *Summary) Fail(line string) {
	s.failed = true
	s.lines = append(s.lines, line)
}

// Status is failed once any client failed, succeeded otherwise.
func (s *Summary) Status() string {
	if s.failed {
		return notify.StatusFailed
	}
	return notify.StatusSucceeded
}

// Lines returns the status lines in the order they were added.
func (s *Summary) Lines() []string {
	return append([]string(nil), s.lines...)
}

// Results returns every recorded client result.
func (s *Summary) Results() []ClientResult {
	return append([]ClientResult(nil), s.results...)
}

// Text joins the status lines into the notification body.
func (s *Summary) Text() string {
	return strings.Join(s.lines, "\n")
}

// Message builds the notification for this run.
func (s *Summary) Message() notify.Message {
	return notify.Compose(s.Text(), s.Status())
}

// Print writes a per-client table of the run to w.
func (s *Summary) Print(w io.Writer) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  NAVER KEYWORD SYNC SUMMARY\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	if len(s.results) == 0 {
		fmt.Fprintf(w, "  No clients processed\n\n")
		return
	}

	var total int
	fmt.Fprintf(w, "  %-24s %-12s %-10s %8s\n", "Client", "Mode", "Outcome", "Rows")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, r := range s.results {
		color := "32"
		if r.Outcome == OutcomeFailed {
			color = "31"
		} else if r.Outcome == OutcomeNoChange {
			color = "33"
		}
		fmt.Fprintf(w, "  %-24s %-12s \033[1;%sm%-10s\033[0m %8d\n",
			truncate(r.Client, 24), r.Mode, color, r.Outcome, r.Rows)
		total += r.Rows
	}
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Rows inserted : \033[1m%d\033[0m | Status : \033[1m%s\033[0m\n\n", total, s.Status())
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
