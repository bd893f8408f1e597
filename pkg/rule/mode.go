package rule

import (
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// Mode is the activation mode of a rule.
type Mode string

const (
	// ModeAlways rules apply to every path.
	ModeAlways Mode = "always"
	// ModeGlob rules apply to paths matching their patterns.
	ModeGlob Mode = "glob"
	// ModeAgentRequested rules are offered to the assistant, which decides
	// whether to use them based on their description.
	ModeAgentRequested Mode = "agent-requested"
	// ModeManual rules only apply when explicitly requested.
	ModeManual Mode = "manual"
)

// AllModes lists every valid [Mode], in activation order.
var AllModes = []string{
	string(ModeAlways),
	string(ModeGlob),
	string(ModeAgentRequested),
	string(ModeManual),
}

var modeAliases = map[string]Mode{
	"always":          ModeAlways,
	"glob":            ModeGlob,
	"auto-attached":   ModeGlob,
	"agent-requested": ModeAgentRequested,
	"agent":           ModeAgentRequested,
	"manual":          ModeManual,
}

// ParseMode parses a mode name. Matching is case-insensitive and accepts the
// aliases "auto-attached" and "agent".
func ParseMode(s string) (Mode, error) {
	m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("invalid mode %q, must be one of: %s", s, strings.Join(AllModes, ", "))
	}

	return m, nil
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeAlways, ModeGlob, ModeAgentRequested, ModeManual:
		return true
	}

	return false
}

// Rank orders modes for activation results. Lower ranks come first.
func (m Mode) Rank() int {
	switch m {
	case ModeAlways:
		return 0
	case ModeGlob:
		return 1
	case ModeAgentRequested:
		return 2
	case ModeManual:
		return 3
	}

	return 4
}

// AutoActivated reports whether rules in this mode are applied without an
// explicit request.
func (m Mode) AutoActivated() bool {
	return m == ModeAlways || m == ModeGlob
}

func (m Mode) String() string {
	return string(m)
}

func (Mode) JSONSchema() *jsonschema.Schema {
	enum := make([]any, 0, len(AllModes))
	for _, m := range AllModes {
		enum = append(enum, m)
	}

	return &jsonschema.Schema{
		Type:  "string",
		Title: "Activation Mode",
		Enum:  enum,
	}
}
