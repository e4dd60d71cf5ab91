package dwarf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewResolver_noDebugSections(t *testing.T) {
	r, err := NewResolver(Sections{})
	require.NoError(t, err)
	require.False(t, r.HasDebugInfo())

	loc, ok := r.Resolve(42)
	require.False(t, ok)
	require.Equal(t, SourceLocation{}, loc)
	require.Nil(t, r.ResolveAll(42))
}

func TestNewResolver_malformedSections(t *testing.T) {
	_, err := NewResolver(Sections{Info: []byte{0xff, 0xff}, Abbrev: []byte{0xff}})
	require.Error(t, err)
}
