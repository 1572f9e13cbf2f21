package services

import (
	"bytes"
	"strings"
	"testing"

	"naver-trends/models"
	"naver-trends/notify"
)

func TestSummaryStatusLines(t *testing.T) {
	s := NewSummary()
	s.Add("Analyzing keywords for client : %s", "Acme")
	s.Record(ClientResult{Client: "Acme", Outcome: OutcomeDone, Rows: 10})
	s.Record(ClientResult{Client: "Beta", Outcome: OutcomeNoChange})

	want := "Analyzing keywords for client : Acme\nAcme Done\n\"Beta\" No change in data"
	if got := s.Text(); got != want {
		t.Errorf("Text() = %q; want %q", got, want)
	}
	if s.Status() != notify.StatusSucceeded {
		t.Errorf("status = %s; want succeeded", s.Status())
	}

	s.Record(ClientResult{Client: "Gamma", Outcome: OutcomeFailed})
	if s.Status() != notify.StatusFailed {
		t.Errorf("status = %s; want failed", s.Status())
	}

	msg := s.Message()
	if msg.Status != notify.StatusFailed || !strings.HasSuffix(msg.Body, "Gamma Failed") {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestSummaryPrint(t *testing.T) {
	s := NewSummary()
	s.Record(ClientResult{Client: "Acme", Mode: models.ModeBackfill, Outcome: OutcomeDone, Rows: 20})
	s.Record(ClientResult{Client: "Beta", Mode: models.ModeIncremental, Outcome: OutcomeFailed})

	var buf bytes.Buffer
	s.Print(&buf)
	out := buf.String()

	for _, want := range []string{"Acme", "backfill", "Beta", "Rows inserted", "20"} {
		if !strings.Contains(out, want) {
			t.Errorf("Print output missing %q", want)
		}
	}

	buf.Reset()
	NewSummary().Print(&buf)
	if !strings.Contains(buf.String(), "No clients processed") {
		t.Errorf("empty summary output = %q", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate kept = %q", got)
	}
	if got := truncate("가나다라마바", 4); got != "가나다…" {
		t.Errorf("truncate(runes) = %q", got)
	}
}
