// Package render formats council records and rosters as plain text for the
// CLI and the bot.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/set-night/primeminister/internal/domain"
)

const rule = "────────────────────────────────────────"

// Decision renders the Prime Minister's final result.
func Decision(rec *domain.Record) string {
	var b strings.Builder
	title := "PRIME MINISTER'S DECISION"
	if rec.Mode == domain.ModeAdvisor {
		title = "PRIME MINISTER'S SYNTHESIS"
	}
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(rec.FinalResult))
	b.WriteString("\n")
	if rec.Metadata.TieBrokenByPM {
		b.WriteString("\n(Tie broken by the Prime Minister)\n")
	}
	return b.String()
}

type tallyRow struct {
	member string
	voters []string
}

// VoteSummary lists the responses that received votes, most votes first.
func VoteSummary(rec *domain.Record) string {
	rows := make([]tallyRow, 0, len(rec.Votes))
	for member, voters := range rec.Votes {
		rows = append(rows, tallyRow{member: member, voters: voters})
	}
	sort.Slice(rows, func(i, j int) bool {
		if len(rows[i].voters) != len(rows[j].voters) {
			return len(rows[i].voters) > len(rows[j].voters)
		}
		return rows[i].member < rows[j].member
	})

	var b strings.Builder
	b.WriteString("VOTING RESULTS\n")
	b.WriteString(rule)
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString("No valid votes were cast.\n")
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%s: %s (%s)\n", r.member, plural(len(r.voters), "vote"), strings.Join(r.voters, ", "))
	}

	md := rec.Metadata
	fmt.Fprintf(&b, "\nVotes cast: %d of %d", md.TotalVotesCast, md.VotingMembers)
	if md.MalformedVotes > 0 {
		fmt.Fprintf(&b, ", malformed: %d", md.MalformedVotes)
	}
	if md.FailedVotes > 0 {
		fmt.Fprintf(&b, ", failed: %d", md.FailedVotes)
	}
	b.WriteString("\n")
	if md.TieBreakFallback {
		fmt.Fprintf(&b, "Tie-break fell back to the first tied response: %s\n", md.TieBreakFallbackReason)
	}
	return b.String()
}

// AdvisorSummary reports the size of each advisory round.
func AdvisorSummary(rec *domain.Record) string {
	var b strings.Builder
	b.WriteString("ADVISORY ROUNDS\n")
	b.WriteString(rule)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Round 1: %s\n", plural(responded(rec), "response"))
	fmt.Fprintf(&b, "Round 2: %s\n", plural(len(rec.Opinions()), "opinion"))
	fmt.Fprintf(&b, "Round 3: %s\n", plural(len(rec.Refinements()), "refined response"))
	return b.String()
}

// Summary is the decision followed by the mode's round summary.
func Summary(rec *domain.Record) string {
	if rec.Mode == domain.ModeAdvisor {
		return Decision(rec) + "\n" + AdvisorSummary(rec)
	}
	return Decision(rec) + "\n" + VoteSummary(rec)
}

// Council describes the roster: counts, per-member flags and models.
func Council(c *domain.Council) string {
	var b strings.Builder
	b.WriteString("COUNCIL\n")
	b.WriteString(rule)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Mode: %s\n", c.Mode)
	fmt.Fprintf(&b, "Prime Minister model: %s\n", c.Model)
	fmt.Fprintf(&b, "Members: %d total, %d voters, %d silent\n\n", len(c.Members), len(c.Voters()), c.SilentCount())
	for _, m := range c.Members {
		var flags []string
		if m.Voter {
			flags = append(flags, "voter")
		}
		if m.Silent {
			flags = append(flags, "silent")
		}
		if len(flags) == 0 {
			flags = append(flags, "non-voter")
		}
		fmt.Fprintf(&b, "- %s [%s] %s\n", m.Name, strings.Join(flags, ", "), m.Model)
	}
	return b.String()
}

// HistoryLine is a one-line digest of a logged session.
func HistoryLine(rec *domain.Record) string {
	status := "ok"
	switch {
	case rec.Failed():
		status = "failed"
	case rec.Metadata.TieBrokenByPM:
		status = "tie"
	}
	return fmt.Sprintf("%s  %-7s  %-6s  %s  %s",
		rec.Metadata.Timestamp.Local().Format("2006-01-02 15:04"),
		rec.Mode,
		status,
		rec.SessionUUID.String()[:8],
		oneLine(rec.Prompt, 60),
	)
}

func responded(rec *domain.Record) int {
	n := 0
	for _, r := range rec.CouncilResponses {
		if !r.HasError {
			n++
		}
	}
	return n
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
