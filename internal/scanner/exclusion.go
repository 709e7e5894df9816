package scanner

import (
	"bucketscan/pkg/domain"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Exclusions is the read-only set of domains that must never be probed.
//
// In the default loose mode a domain is excluded when it occurs anywhere in
// the raw exclusion text, so "a.example.com" is excluded by a file holding
// "xa.example.com.au" and a domain spanning two lines can match too. Strict
// mode matches whole trimmed lines only. Both modes are safe for concurrent
// reads.
type Exclusions struct {
	raw    string
	lines  map[string]struct{}
	strict bool
}

// NewExclusions builds an exclusion set from the raw file text.
func NewExclusions(text string, strict bool) *Exclusions {
	lines := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines[line] = struct{}{}
		}
	}

	return &Exclusions{raw: text, lines: lines, strict: strict}
}

// LoadExclusions reads the exclusion file at path. A missing file yields an
// empty set.
func LoadExclusions(path string, strict bool) (*Exclusions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewExclusions("", strict), nil
		}

		return nil, fmt.Errorf("could not read exclusions: %w", err)
	}

	return NewExclusions(string(b), strict), nil
}

// Contains reports whether d is excluded. A nil set and the empty domain
// exclude nothing.
func (e *Exclusions) Contains(d domain.Domain) bool {
	if e == nil || d == "" {
		return false
	}
	if e.strict {
		_, ok := e.lines[string(d)]

		return ok
	}

	return strings.Contains(e.raw, string(d))
}

// Len returns the number of non-blank lines in the exclusion text.
func (e *Exclusions) Len() int {
	if e == nil {
		return 0
	}

	return len(e.lines)
}

// Strict reports whether exact line matching is used.
func (e *Exclusions) Strict() bool { return e != nil && e.strict }
