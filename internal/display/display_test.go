package display

import (
	"strings"
	"testing"

	"github.com/microvote/microvote/internal/models"
	"github.com/microvote/microvote/internal/quorum"
	"github.com/microvote/microvote/internal/service"
)

func TestBar(t *testing.T) {
	tests := []struct {
		width    int
		fraction float64
		want     string
	}{
		{5, 0, "     "},
		{5, 1, "▉▉▉▉▉"},
		{5, 0.5, "▉▉▌  "},
		{5, 0.75, "▉▉▉▊ "},
		{4, 2, "▉▉▉▉"},  // clamped
		{4, -1, "    "}, // clamped
	}
	for _, tt := range tests {
		got := Bar(tt.width, tt.fraction)
		if got != tt.want {
			t.Errorf("Bar(%d, %v) = %q, want %q", tt.width, tt.fraction, got, tt.want)
		}
	}
}

func TestPollText(t *testing.T) {
	poll := &models.Poll{
		ID:      621,
		Name:    "Snacks & drinks",
		Desc:    "Pick <wisely>",
		Options: []string{"tea", "coffee"},
		Width:   5,
	}

	head := PollText(poll, Show{}, nil)
	if head != "<code>[a1]</code> <b>Snacks &amp; drinks</b>" {
		t.Errorf("header = %q", head)
	}

	full := PollText(poll, Show{Options: true, Desc: true}, nil)
	if !strings.Contains(full, "Pick &lt;wisely&gt;") {
		t.Errorf("description not escaped: %q", full)
	}
	if !strings.Contains(full, "1. tea") || !strings.Contains(full, "2. coffee") {
		t.Errorf("options missing or unnumbered: %q", full)
	}

	// With amounts, the higher-scored option sorts first but keeps its
	// ballot number.
	ranked := PollText(poll, Show{Options: true, Amounts: true}, []float64{1.5, 4.5})
	coffee := strings.Index(ranked, "2. coffee")
	tea := strings.Index(ranked, "1. tea")
	if coffee == -1 || tea == -1 || coffee > tea {
		t.Errorf("amount ordering wrong: %q", ranked)
	}
}

func TestResultText(t *testing.T) {
	poll := &models.Poll{
		ID:      100,
		Name:    "P",
		Options: []string{"a", "b"},
		Width:   5,
		ChatPop: 10,
		Quorum:  quorum.FloorSqrt,
		Votes: map[int64]models.Vote{
			1: {Scores: []int{5, 0}},
			2: {Scores: []int{1, 2}},
		},
	}
	text := ResultText(service.Tally(poll))
	if !strings.Contains(text, "2 votes, 20.00% turnout") {
		t.Errorf("turnout line missing: %q", text)
	}
	if !strings.Contains(text, "Did not reach</b> its quorum of 3 with 10 potential voters") {
		t.Errorf("quorum line wrong: %q", text)
	}
}

func TestLawResultText(t *testing.T) {
	law := &models.Law{ID: 621, Name: "Law", Body: "Body"}
	decided := LawResultText(service.LawResult{
		Status: service.LawAccepted, Law: law, Percent: 60,
	})
	if !strings.Contains(decided, "<b>Accepted</b> at 60.00% approval.") {
		t.Errorf("decided head wrong: %q", decided)
	}
	pending := LawResultText(service.LawResult{Status: service.LawNeverPolled, Law: law})
	if strings.Contains(pending, "approval") {
		t.Errorf("undecided law should not show a percentage: %q", pending)
	}
	if !strings.Contains(pending, "(a1)") {
		t.Errorf("law id missing: %q", pending)
	}
}

func TestPlural(t *testing.T) {
	if got := Plural(1, "vote"); got != "1 vote" {
		t.Errorf("Plural(1) = %q", got)
	}
	if got := Plural(2, "vote"); got != "2 votes" {
		t.Errorf("Plural(2) = %q", got)
	}
	if got := Plural(0, "vote"); got != "0 votes" {
		t.Errorf("Plural(0) = %q", got)
	}
}
