package domain

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestTrackingIDFormat(t *testing.T) {
	gen := NewTrackingIDGenerator("llc")
	pattern := regexp.MustCompile(`^LLC-[0-9A-HJKMNP-TV-Z]{5}-[0-9A-HJKMNP-TV-Z]{5}$`)

	for i := 0; i < 100; i++ {
		id, err := gen.Generate()
		require.NoError(t, err)
		require.Regexp(t, pattern, id)
	}
}

func TestTrackingIDsAreDistinct(t *testing.T) {
	gen := NewTrackingIDGenerator("LLC")
	const n = 5000

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id, err := gen.Generate()
		require.NoError(t, err)
		seen[id] = struct{}{}
	}
	require.Len(t, seen, n)
}

func TestTrackingIDReaderFailure(t *testing.T) {
	gen := NewTrackingIDGenerator("LLC")
	gen.rand = failingReader{}

	_, err := gen.Generate()
	require.Error(t, err)
}

func TestNormalizeTrackingID(t *testing.T) {
	require.Equal(t, "LLC-7K2QX-M9D4R", NormalizeTrackingID("  llc-7k2qx-m9d4r "))
}
