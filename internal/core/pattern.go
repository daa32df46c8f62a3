package core

import (
	"fmt"
	"regexp"
	"strings"
)

var eventPatternRegex = regexp.MustCompile(`^(([^+#]*|\+)(/([^+#]*|\+))*(/#)?|#)$`)

// EventPattern matches client event names split on "/". "+" matches exactly
// one level and a trailing "#" matches any number of remaining levels.
type EventPattern struct {
	value string
}

func NewEventPattern(value string) (*EventPattern, error) {
	if value == "" {
		return nil, fmt.Errorf("event pattern: cannot be empty")
	}

	if len(value) > 65535 {
		return nil, fmt.Errorf("event pattern: %.32s... cannot have more than 65535 bytes", value)
	}

	if !eventPatternRegex.MatchString(value) {
		return nil, fmt.Errorf("event pattern: %s format is invalid", value)
	}

	return &EventPattern{value}, nil
}

func ParseEventPatterns(values []string) ([]*EventPattern, error) {
	patterns := make([]*EventPattern, 0, len(values))

	for _, value := range values {
		pattern, err := NewEventPattern(value)
		if err != nil {
			return nil, err
		}

		patterns = append(patterns, pattern)
	}

	return patterns, nil
}

func (p *EventPattern) String() string {
	return p.value
}

func (p *EventPattern) Match(name string) bool {
	if name == "" {
		return false
	}

	levels := strings.Split(name, "/")
	parts := strings.Split(p.value, "/")

	// names starting with $ are only matched literally
	if strings.HasPrefix(levels[0], "$") && levels[0] != parts[0] {
		return false
	}

	for i, part := range parts {
		if part == "#" {
			return true
		}

		if i >= len(levels) {
			return false
		}

		if part != "+" && part != levels[i] {
			return false
		}
	}

	return len(levels) == len(parts)
}
