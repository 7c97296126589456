package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/set-night/primeminister/internal/domain"
	"gopkg.in/yaml.v3"
)

// Roster is the parsed council file: the immutable council plus the
// provider settings the file may carry.
type Roster struct {
	Council *domain.Council
	APIURL  string
	APIKey  string
	Path    string
}

type councilFile struct {
	Mode                       string       `yaml:"mode" json:"mode"`
	Model                      string       `yaml:"model" json:"model"`
	Temperature                *float64     `yaml:"temperature" json:"temperature"`
	APIURL                     string       `yaml:"api_url" json:"api_url"`
	OpenAIKey                  string       `yaml:"openai_key" json:"openai_key"`
	UniversalCouncilPrompt     string       `yaml:"universal_council_prompt" json:"universal_council_prompt"`
	PrimeMinisterPrompt        string       `yaml:"primeminister_prompt" json:"primeminister_prompt"`
	PrimeMinisterAdvisorPrompt string       `yaml:"primeminister_advisor_prompt" json:"primeminister_advisor_prompt"`
	User                       userFile     `yaml:"user" json:"user"`
	Council                    []memberFile `yaml:"council" json:"council"`
}

type userFile struct {
	Attributes []string `yaml:"attributes" json:"attributes"`
	Goal       string   `yaml:"goal" json:"goal"`
}

type memberFile struct {
	Name        string `yaml:"name" json:"name"`
	Model       string `yaml:"model" json:"model"`
	Personality string `yaml:"personality" json:"personality"`
	Voter       *bool  `yaml:"voter" json:"voter"`
	Silent      bool   `yaml:"silent" json:"silent"`
}

// LoadCouncil reads and validates the council file at path. Files ending in
// .json are decoded strictly as JSON, anything else as YAML.
func LoadCouncil(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read council file: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	roster, err := ParseCouncil(data, format)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	roster.Path = path
	return roster, nil
}

// ParseCouncil decodes a council document. Unknown keys are rejected.
func ParseCouncil(data []byte, format string) (*Roster, error) {
	var f councilFile
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: decode json: %w", domain.ErrConfiguration, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: council file is empty", domain.ErrConfiguration)
			}
			return nil, fmt.Errorf("%w: decode yaml: %w", domain.ErrConfiguration, err)
		}
	}
	return f.build()
}

func (f *councilFile) build() (*Roster, error) {
	mode := domain.ModeCouncil
	if strings.TrimSpace(f.Mode) != "" {
		m, err := domain.ParseMode(f.Mode)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		mode = m
	}

	model := strings.TrimSpace(f.Model)
	if model == "" {
		model = DefaultModel
	}

	temperature := DefaultTemperature
	if f.Temperature != nil {
		temperature = *f.Temperature
		if temperature < 0 || temperature > 2 {
			return nil, fmt.Errorf("%w: temperature %.2f out of range [0, 2]", domain.ErrConfiguration, temperature)
		}
	}

	if len(f.Council) == 0 {
		return nil, fmt.Errorf("%w: council has no members", domain.ErrConfiguration)
	}

	members := make([]domain.Member, 0, len(f.Council))
	seen := make(map[string]int, len(f.Council))
	for i, mf := range f.Council {
		personality := strings.TrimSpace(mf.Personality)
		if personality == "" {
			return nil, fmt.Errorf("%w: council[%d]: personality is required", domain.ErrConfiguration, i)
		}
		name := strings.TrimSpace(mf.Name)
		if name == "" {
			name = DeriveMemberName(personality)
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: council[%d]: name %q already used by council[%d]", domain.ErrConfiguration, i, name, prev)
		}
		seen[name] = i

		memberModel := strings.TrimSpace(mf.Model)
		if memberModel == "" {
			memberModel = model
		}
		voter := true
		if mf.Voter != nil {
			voter = *mf.Voter
		}
		members = append(members, domain.Member{
			Name:        name,
			Model:       memberModel,
			Personality: personality,
			Voter:       voter,
			Silent:      mf.Silent,
		})
	}

	attrs := make([]string, 0, len(f.User.Attributes))
	for _, a := range f.User.Attributes {
		if a = strings.TrimSpace(a); a != "" {
			attrs = append(attrs, a)
		}
	}

	return &Roster{
		Council: &domain.Council{
			Members:         members,
			Mode:            mode,
			Model:           model,
			Temperature:     temperature,
			UniversalPrompt: strings.TrimSpace(f.UniversalCouncilPrompt),
			DecisionPrompt:  strings.TrimSpace(f.PrimeMinisterPrompt),
			AdvisorPrompt:   strings.TrimSpace(f.PrimeMinisterAdvisorPrompt),
			User: domain.UserContext{
				Attributes: attrs,
				Goal:       strings.TrimSpace(f.User.Goal),
			},
		},
		APIURL: strings.TrimSpace(f.APIURL),
		APIKey: strings.TrimSpace(f.OpenAIKey),
	}, nil
}

// DeriveMemberName takes the title before " - " in a personality, or its
// first 20 runes.
func DeriveMemberName(personality string) string {
	if head, _, ok := strings.Cut(personality, " - "); ok && strings.TrimSpace(head) != "" {
		return strings.TrimSpace(head)
	}
	if utf8.RuneCountInString(personality) <= 20 {
		return personality
	}
	return strings.TrimSpace(string([]rune(personality)[:20]))
}
