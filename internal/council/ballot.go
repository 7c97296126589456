package council

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/set-night/primeminister/internal/domain"
)

// Ballot maps the ordinals shown to voters (Option 1..K) back to response
// ids. It is built once per round and never mutated afterwards.
type Ballot struct {
	ids []uuid.UUID
}

// Shuffler has the signature of rand.Shuffle.
type Shuffler func(n int, swap func(i, j int))

// NoShuffle keeps the input order.
func NoShuffle(int, func(i, j int)) {}

// NewBallot builds a ballot over ids in the given order.
func NewBallot(ids []uuid.UUID) Ballot {
	return Ballot{ids: append([]uuid.UUID(nil), ids...)}
}

// Anonymize builds a ballot over the successful responses, permuted by
// shuffle. Failed responses are never eligible.
func Anonymize(responses []domain.Response, shuffle Shuffler) Ballot {
	var ids []uuid.UUID
	for _, r := range responses {
		if !r.HasError {
			ids = append(ids, r.ID)
		}
	}
	shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return Ballot{ids: ids}
}

func (b Ballot) Len() int { return len(b.ids) }

func (b Ballot) IDs() []uuid.UUID {
	return append([]uuid.UUID(nil), b.ids...)
}

// Resolve maps a 1-based option back to its response id.
func (b Ballot) Resolve(option int) (uuid.UUID, error) {
	if option < 1 || option > len(b.ids) {
		return uuid.Nil, fmt.Errorf("%w: option %d not on a ballot of %d", domain.ErrMalformedVote, option, len(b.ids))
	}
	return b.ids[option-1], nil
}

// Position returns the 1-based option of id, or 0.
func (b Ballot) Position(id uuid.UUID) int {
	for i, v := range b.ids {
		if v == id {
			return i + 1
		}
	}
	return 0
}

var choicePattern = regexp.MustCompile(`(?is)^[\s*#_\[(]*(?:option\s*)?(\d+)[\s*_\])]*(?:[-–—:.,)]+\s*)?(.*)$`)

// ParseChoice reads the leading option number of a vote reply such as
// "3 - because...", "Option 2: ..." or "**1**. ...".
func ParseChoice(reply string) (int, string, error) {
	m := choicePattern.FindStringSubmatch(strings.TrimSpace(reply))
	if m == nil {
		return 0, "", fmt.Errorf("%w: no option number in %q", domain.ErrMalformedVote, truncate(reply, 80))
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", fmt.Errorf("%w: %w", domain.ErrMalformedVote, err)
	}
	reasoning := strings.TrimSpace(m[2])
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}
	return n, reasoning, nil
}

// Choose parses a reply and resolves it against the ballot.
func (b Ballot) Choose(reply string) (uuid.UUID, string, error) {
	n, reasoning, err := ParseChoice(reply)
	if err != nil {
		return uuid.Nil, "", err
	}
	id, err := b.Resolve(n)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, reasoning, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
