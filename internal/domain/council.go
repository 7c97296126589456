package domain

import (
	"fmt"
	"strings"
)

type Mode string

const (
	ModeCouncil Mode = "council"
	ModeAdvisor Mode = "advisor"
)

// ParseMode accepts the configured spelling of a mode, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCouncil:
		return ModeCouncil, nil
	case ModeAdvisor:
		return ModeAdvisor, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Member is one configured personality. Silent members never author
// responses; a silent voter is a voter-only member.
type Member struct {
	Name        string
	Model       string
	Personality string
	Voter       bool
	Silent      bool
}

func (m Member) Responds() bool { return !m.Silent }

type UserContext struct {
	Attributes []string
	Goal       string
}

// Council is the immutable roster and prompt set for every session started
// from it. It is loaded once and shared read-only between sessions.
type Council struct {
	Members         []Member
	Mode            Mode
	Model           string
	Temperature     float64
	UniversalPrompt string
	DecisionPrompt  string
	AdvisorPrompt   string
	User            UserContext
}

func (c *Council) Responders() []Member {
	var out []Member
	for _, m := range c.Members {
		if m.Responds() {
			out = append(out, m)
		}
	}
	return out
}

func (c *Council) Voters() []Member {
	var out []Member
	for _, m := range c.Members {
		if m.Voter {
			out = append(out, m)
		}
	}
	return out
}

func (c *Council) SilentCount() int {
	n := 0
	for _, m := range c.Members {
		if m.Silent {
			n++
		}
	}
	return n
}

// Member returns the configured member with the given name.
func (c *Council) Member(name string) (Member, bool) {
	for _, m := range c.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}
