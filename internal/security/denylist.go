package security

import (
	"fmt"
	"strings"
)

// Substring matching only: whitespace or quoting variations slip through. This is a
// last-resort guard against catastrophic model output, not a sandbox.
var defaultDenyPatterns = []string{
	"rm -rf /",
	"rm -rf /*",
	"> /dev/sda",
	"of=/dev/sda",
}

type DenyList struct {
	patterns []string
}

func DefaultDenyList() *DenyList {
	return NewDenyList()
}

// NewDenyList returns the default patterns extended with extra ones. Blank
// entries and duplicates are ignored.
func NewDenyList(extra ...string) *DenyList {
	patterns := make([]string, 0, len(defaultDenyPatterns)+len(extra))
	seen := map[string]bool{}
	for _, pattern := range append(append([]string{}, defaultDenyPatterns...), extra...) {
		if strings.TrimSpace(pattern) == "" || seen[pattern] {
			continue
		}
		seen[pattern] = true
		patterns = append(patterns, pattern)
	}
	return &DenyList{patterns: patterns}
}

func (denyList *DenyList) Patterns() []string {
	if denyList == nil {
		return append([]string{}, defaultDenyPatterns...)
	}
	return append([]string{}, denyList.patterns...)
}

func (denyList *DenyList) Match(command string) (string, bool) {
	for _, pattern := range denyList.Patterns() {
		if strings.Contains(command, pattern) {
			return pattern, true
		}
	}
	return "", false
}

func (denyList *DenyList) Check(command string) error {
	if pattern, matched := denyList.Match(command); matched {
		return fmt.Errorf("blocked: command matches deny pattern %q", pattern)
	}
	return nil
}
