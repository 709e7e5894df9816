package scanner_test

import (
	"bucketscan/internal/scanner"
	"bucketscan/pkg/domain"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExclusions_Loose(t *testing.T) {
	ex := scanner.NewExclusions("example.com\n  skip.example.org  \nfoo.bar\n", false)

	cases := []struct {
		domain   domain.Domain
		excluded bool
	}{
		{domain: "example.com", excluded: true},
		{domain: "skip.example.org", excluded: true},
		{domain: "ample.com", excluded: true},
		// matches across a line break in the raw text
		{domain: "com\n  skip", excluded: true},
		{domain: "foo.example.com", excluded: false},
		{domain: "other.net", excluded: false},
		{domain: "", excluded: false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.excluded, ex.Contains(tc.domain), "domain %q", tc.domain)
	}
	require.Equal(t, 3, ex.Len())
	require.False(t, ex.Strict())
}

func TestExclusions_Strict(t *testing.T) {
	ex := scanner.NewExclusions("example.com\n  skip.example.org  \n\n", true)

	require.True(t, ex.Contains("example.com"))
	require.True(t, ex.Contains("skip.example.org"))
	require.False(t, ex.Contains("ample.com"))
	require.False(t, ex.Contains("a.example.com"))
	require.True(t, ex.Strict())
}

func TestExclusions_Nil(t *testing.T) {
	var ex *scanner.Exclusions
	require.False(t, ex.Contains("example.com"))
	require.Zero(t, ex.Len())
}

func TestLoadExclusions(t *testing.T) {
	dir := t.TempDir()

	ex, err := scanner.LoadExclusions(filepath.Join(dir, "missing.txt"), false)
	require.NoError(t, err)
	require.Zero(t, ex.Len())
	require.False(t, ex.Contains("example.com"))

	path := filepath.Join(dir, "excluded.txt")
	require.NoError(t, os.WriteFile(path, []byte("example.com\n"), 0o600))
	ex, err = scanner.LoadExclusions(path, false)
	require.NoError(t, err)
	require.True(t, ex.Contains("example.com"))

	_, err = scanner.LoadExclusions(dir, false)
	require.Error(t, err)
}
