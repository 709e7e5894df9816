package scanner

import (
	"bucketscan/pkg/domain"
	"bucketscan/pkg/serrors"
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// maxLineBytes bounds a single line of the domain list.
const maxLineBytes = 64 * 1024

// NormalizeDomain trims surrounding whitespace. Case and trailing dots are
// kept as is.
func NormalizeDomain(raw string) domain.Domain {
	return domain.Domain(strings.TrimSpace(raw))
}

// ParseDomains reads newline separated domains from r, skipping blank lines.
// Duplicates are kept and probed once per occurrence.
func ParseDomains(r io.Reader) ([]domain.Domain, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)

	var domains []domain.Domain
	for sc.Scan() {
		if d := NormalizeDomain(sc.Text()); d != "" {
			domains = append(domains, d)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("could not read domains: %w", err)
	}

	return domains, nil
}

// ReadDomains reads the domain list at path. A missing file is reported as
// serrors.ErrNotFound since nothing can be probed without it.
func ReadDomains(path string) ([]domain.Domain, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, serrors.Wrap(serrors.ErrNotFound, err, "domain list %s does not exist", path)
		}

		return nil, fmt.Errorf("could not open domain list: %w", err)
	}
	defer f.Close() //nolint: errcheck

	return ParseDomains(f)
}
