package council

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/set-night/primeminister/internal/domain"
)

func TestCouncilTieBrokenByPrimeMinister(t *testing.T) {
	c := testCouncil("A", "B", "C", "D", "E")
	p := &fakeProvider{reply: votes(map[string]string{
		"A": "1 - strong",
		"B": "1 - clear",
		"C": "2 - practical",
		"D": "2 - balanced",
		"E": "3 - careful",
	}, func(req domain.CompletionRequest) (string, error) {
		if req.Stage == domain.StageTieBreak {
			return "2 - more actionable", nil
		}
		return defaultReply(req)
	})}

	res, err := newTestOrchestrator(c, p).Run(context.Background(), "What now?", domain.ModeCouncil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	s := res.Session

	if got := len(p.stageCalls(domain.StageTieBreak)); got != 1 {
		t.Fatalf("tie-break calls = %d, want 1", got)
	}
	if !s.TieBrokenByPM() || !s.Final.TieBrokenByPM || !res.Record.Metadata.TieBrokenByPM {
		t.Fatalf("tie-broken flag not set on session, final result and record")
	}
	if s.TieBreak.Fallback {
		t.Errorf("tie-break fell back: %s", s.TieBreak.FallbackReason)
	}
	if len(s.TieBreak.Candidates) != 2 {
		t.Fatalf("tie candidates = %d, want 2", len(s.TieBreak.Candidates))
	}
	winner, _ := s.Response(*s.Winner)
	if winner.Author != "B" {
		t.Errorf("winner = %s, want B", winner.Author)
	}
	if got := res.Record.Metadata.TotalVotesCast; got != 5 {
		t.Errorf("total_votes_cast = %d, want 5", got)
	}
	if got := res.Record.Votes["A"]; len(got) != 2 {
		t.Errorf("votes for A = %v, want 2 voters", got)
	}

	// The tie-break prompt only shows the tied responses.
	prompt := p.stageCalls(domain.StageTieBreak)[0].UserContent
	if !strings.Contains(prompt, "answer from A") || !strings.Contains(prompt, "answer from B") {
		t.Errorf("tie-break prompt misses a tied response")
	}
	if strings.Contains(prompt, "answer from C") || strings.Contains(prompt, "Option 3") {
		t.Errorf("tie-break prompt includes a non-tied response")
	}
}

func TestCouncilUniqueWinnerSkipsTieBreak(t *testing.T) {
	c := testCouncil("A", "B", "C")
	p := &fakeProvider{reply: votes(map[string]string{
		"A": "2 - yes", "B": "2 - yes", "C": "1 - mine",
	}, nil)}

	res, err := newTestOrchestrator(c, p).Run(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Session.TieBrokenByPM() {
		t.Fatal("unique maximum must not be tie-broken")
	}
	if len(p.stageCalls(domain.StageTieBreak)) != 0 {
		t.Fatal("tie-break call issued for a unique maximum")
	}
	w, _ := res.Session.Response(*res.Session.Winner)
	if w.Author != "B" {
		t.Errorf("winner = %s, want B", w.Author)
	}
	if res.Record.Metadata.WinnerResponseUUID == nil || *res.Record.Metadata.WinnerResponseUUID != w.ID {
		t.Errorf("winner_response_uuid not recorded")
	}
}

func TestCouncilTieBreakFallback(t *testing.T) {
	tests := []struct {
		name  string
		reply func(domain.CompletionRequest) (string, error)
	}{
		{
			name: "provider error",
			reply: func(req domain.CompletionRequest) (string, error) {
				if req.Stage == domain.StageTieBreak {
					return "", errBoom
				}
				return defaultReply(req)
			},
		},
		{
			name: "malformed pick",
			reply: func(req domain.CompletionRequest) (string, error) {
				if req.Stage == domain.StageTieBreak {
					return "9 - out of range", nil
				}
				return defaultReply(req)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCouncil("A", "B")
			p := &fakeProvider{reply: votes(map[string]string{"A": "2 - B", "B": "1 - A"}, tt.reply)}

			res, err := newTestOrchestrator(c, p).Run(context.Background(), "q", domain.ModeCouncil)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			s := res.Session
			if !s.TieBrokenByPM() {
				t.Fatal("shared maximum must set tie_broken_by_pm")
			}
			if !s.TieBreak.Fallback || !res.Record.Metadata.TieBreakFallback {
				t.Fatal("fallback not observable")
			}
			if res.Record.Metadata.TieBreakFallbackReason == "" {
				t.Error("fallback reason is empty")
			}
			if *s.Winner != s.Ballot[0] {
				t.Errorf("winner is not the first tied response in ballot order")
			}
		})
	}
}

func TestCouncilFailedResponderExcludedFromBallot(t *testing.T) {
	c := testCouncil("A", "B", "C", "D", "E")
	p := &fakeProvider{reply: func(req domain.CompletionRequest) (string, error) {
		if req.Stage == domain.StageRespond && req.Caller == "E" {
			return "", errBoom
		}
		return defaultReply(req)
	}}

	res, err := newTestOrchestrator(c, p).Run(context.Background(), "q", domain.ModeCouncil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := len(res.Session.Ballot); got != 4 {
		t.Fatalf("ballot size = %d, want 4", got)
	}
	for _, call := range p.stageCalls(domain.StageVote) {
		if !strings.Contains(call.UserContent, "Option 4:") || strings.Contains(call.UserContent, "Option 5:") {
			t.Fatalf("vote prompt for %s does not show exactly 4 options", call.Caller)
		}
	}

	rec := res.Record
	if len(rec.CouncilResponses) != 5 {
		t.Fatalf("council_responses = %d, want 5", len(rec.CouncilResponses))
	}
	var failed *domain.ResponseRecord
	for i := range rec.CouncilResponses {
		if rec.CouncilResponses[i].CouncilMember == "E" {
			failed = &rec.CouncilResponses[i]
		}
	}
	if failed == nil || !failed.HasError || failed.Error == "" {
		t.Fatalf("E response not flagged: %+v", failed)
	}
	if _, ok := rec.Votes["E"]; ok {
		t.Error("failed response received votes")
	}
	for _, v := range rec.DetailedVotes {
		if v.ChosenResponseUUID == failed.UUID {
			t.Error("vote references the failed response")
		}
	}
}

func TestCouncilMalformedVotesDropped(t *testing.T) {
	c := testCouncil("A", "B", "C")
	p := &fakeProvider{reply: votes(map[string]string{
		"A": "7 - there is no seventh option",
		"B": "I liked the second one",
		"C": "Option 2: solid",
	}, nil)}

	res, err := newTestOrchestrator(c, p).Run(context.Background(), "q", domain.ModeCouncil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	s := res.Session
	if s.MalformedVotes != 2 || res.Record.Metadata.MalformedVotes != 2 {
		t.Fatalf("malformed votes = %d, want 2", s.MalformedVotes)
	}
	if len(s.Votes) != 1 {
		t.Fatalf("valid votes = %d, want 1", len(s.Votes))
	}
	total := 0
	for _, n := range s.Tally {
		total += n
	}
	if total != 1 {
		t.Errorf("tally sum = %d, want 1", total)
	}
	if w, _ := s.Response(*s.Winner); w.Author != "B" {
		t.Errorf("winner = %s, want B", w.Author)
	}
}

func TestCouncilFailedVotesCounted(t *testing.T) {
	c := testCouncil("A", "B", "C")
	p := &fakeProvider{reply: func(req domain.CompletionRequest) (string, error) {
		if req.Stage == domain.StageVote {
			return "", errBoom
		}
		return defaultReply(req)
	}}

	res, err := newTestOrchestrator(c, p).Run(context.Background(), "q", domain.ModeCouncil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Record.Metadata.FailedVotes != 3 || res.Record.Metadata.TotalVotesCast != 0 {
		t.Fatalf("failed/cast = %d/%d, want 3/0", res.Record.Metadata.FailedVotes, res.Record.Metadata.TotalVotesCast)
	}
	if res.Session.Winner != nil || res.Session.TieBrokenByPM() {
		t.Error("no votes must mean no winner and no tie-break")
	}
	if res.Session.Final == nil {
		t.Error("synthesis must still run without votes")
	}
}

func TestCouncilVotesNeverExceedVoters(t *testing.T) {
	c := testCouncil("A", "B", "C", "D")
	c.Members[3].Voter = false
	res, err := newTestOrchestrator(c, &fakeProvider{}).Run(context.Background(), "q", domain.ModeCouncil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	md := res.Record.Metadata
	if md.TotalVotesCast > md.VotingMembers {
		t.Fatalf("votes cast %d > voting members %d", md.TotalVotesCast, md.VotingMembers)
	}
	if md.VotingMembers != 3 {
		t.Errorf("voting_members = %d, want 3", md.VotingMembers)
	}
	seen := map[string]bool{}
	for _, v := range res.Session.Votes {
		if seen[v.Voter] {
			t.Fatalf("%s voted twice", v.Voter)
		}
		seen[v.Voter] = true
	}
}

func TestCouncilVoterOnlyMember(t *testing.T) {
	c := testCouncil("A", "B", "Judge")
	c.Members[2].Silent = true
	p := &fakeProvider{}

	res, err := newTestOrchestrator(c, p).Run(context.Background(), "q", domain.ModeCouncil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, call := range p.stageCalls(domain.StageRespond) {
		if call.Caller == "Judge" {
			t.Fatal("silent member was asked to respond")
		}
	}
	if got := len(p.stageCalls(domain.StageVote)); got != 3 {
		t.Errorf("vote calls = %d, want 3", got)
	}
	if got := len(res.Record.CouncilResponses); got != 2 {
		t.Errorf("council_responses = %d, want 2", got)
	}
}

func TestAnonymizeKeepsLength(t *testing.T) {
	responses := []domain.Response{
		{ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New(), HasError: true}, {ID: uuid.New()},
	}
	first := Anonymize(responses, rand.Shuffle)
	for range 20 {
		again := Anonymize(responses, rand.Shuffle)
		if again.Len() != first.Len() {
			t.Fatalf("ballot length changed: %d != %d", again.Len(), first.Len())
		}
	}
	if first.Len() != 3 {
		t.Fatalf("ballot length = %d, want 3", first.Len())
	}
	if first.Position(responses[2].ID) != 0 {
		t.Error("failed response is on the ballot")
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		reply     string
		option    int
		reasoning string
		wantErr   bool
	}{
		{reply: "3 - I choose this because", option: 3, reasoning: "I choose this because"},
		{reply: "Option 2: concise", option: 2, reasoning: "concise"},
		{reply: "**1**. Clear structure", option: 1, reasoning: "Clear structure"},
		{reply: "  4", option: 4, reasoning: "No reasoning provided"},
		{reply: "2 — em dash reasoning", option: 2, reasoning: "em dash reasoning"},
		{reply: "(1) first", option: 1, reasoning: "first"},
		{reply: "I pick number two", wantErr: true},
		{reply: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			option, reasoning, err := ParseChoice(tt.reply)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrMalformedVote) {
					t.Fatalf("ParseChoice(%q) error = %v, want ErrMalformedVote", tt.reply, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseChoice(%q) error = %v", tt.reply, err)
			}
			if option != tt.option || reasoning != tt.reasoning {
				t.Errorf("ParseChoice(%q) = %d, %q; want %d, %q", tt.reply, option, reasoning, tt.option, tt.reasoning)
			}
		})
	}
}

func TestBallotResolve(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	b := NewBallot(ids)
	ids[0] = uuid.Nil // the ballot owns its copy

	if got, err := b.Resolve(1); err != nil || got == uuid.Nil {
		t.Fatalf("Resolve(1) = %v, %v", got, err)
	}
	for _, option := range []int{0, 3, -1} {
		if _, err := b.Resolve(option); !errors.Is(err, domain.ErrMalformedVote) {
			t.Errorf("Resolve(%d) error = %v, want ErrMalformedVote", option, err)
		}
	}
}
