package render

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/primeminister/internal/domain"
)

func TestVoteSummaryOrdersByCount(t *testing.T) {
	rec := &domain.Record{
		Mode:        domain.ModeCouncil,
		FinalResult: "Go with the plan.",
		Votes: map[string][]string{
			"Skeptic":    {"Analyst"},
			"Strategist": {"Pragmatist", "Empath"},
		},
		Metadata: domain.Metadata{TotalVotesCast: 3, VotingMembers: 5, MalformedVotes: 1},
	}

	out := VoteSummary(rec)
	first := strings.Index(out, "Strategist: 2 votes (Pragmatist, Empath)")
	second := strings.Index(out, "Skeptic: 1 vote (Analyst)")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("unexpected order:\n%s", out)
	}
	if !strings.Contains(out, "Votes cast: 3 of 5, malformed: 1") {
		t.Errorf("missing counts:\n%s", out)
	}
}

func TestSummaryByMode(t *testing.T) {
	council := &domain.Record{Mode: domain.ModeCouncil, FinalResult: "x", Metadata: domain.Metadata{TieBrokenByPM: true}}
	out := Summary(council)
	if !strings.Contains(out, "VOTING RESULTS") || !strings.Contains(out, "Tie broken") {
		t.Errorf("council summary:\n%s", out)
	}

	opinions := []domain.OpinionRecord{{}, {}}
	refined := []domain.RefinedRecord{{}}
	advisor := &domain.Record{
		Mode:                 domain.ModeAdvisor,
		FinalResult:          "y",
		CouncilResponses:     []domain.ResponseRecord{{}, {HasError: true}},
		FirstRoundOpinions:   &opinions,
		SecondRoundResponses: &refined,
	}
	out = Summary(advisor)
	for _, want := range []string{"SYNTHESIS", "Round 1: 1 response", "Round 2: 2 opinions", "Round 3: 1 refined response"} {
		if !strings.Contains(out, want) {
			t.Errorf("advisor summary missing %q:\n%s", want, out)
		}
	}
}

func TestCouncilFlags(t *testing.T) {
	c := &domain.Council{
		Mode:  domain.ModeCouncil,
		Model: "gpt-4",
		Members: []domain.Member{
			{Name: "A", Model: "m1", Voter: true},
			{Name: "B", Model: "m2", Voter: true, Silent: true},
			{Name: "C", Model: "m3"},
		},
	}
	out := Council(c)
	for _, want := range []string{"3 total, 2 voters, 1 silent", "- A [voter] m1", "- B [voter, silent] m2", "- C [non-voter] m3"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryLine(t *testing.T) {
	rec := &domain.Record{
		Prompt:      "Should I\nchange   jobs? " + strings.Repeat("really ", 20),
		SessionUUID: uuid.MustParse("0b8e3a52-1111-4222-8333-444455556666"),
		Mode:        domain.ModeAdvisor,
		Metadata:    domain.Metadata{Timestamp: time.Now(), FailedSession: true},
	}
	line := HistoryLine(rec)
	if strings.Contains(line, "\n") {
		t.Fatal("history line spans lines")
	}
	for _, want := range []string{"advisor", "failed", "0b8e3a52", "Should I change jobs?", "..."} {
		if !strings.Contains(line, want) {
			t.Errorf("history line missing %q: %s", want, line)
		}
	}
}
