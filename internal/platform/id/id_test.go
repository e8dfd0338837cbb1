package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDFormat(t *testing.T) {
	id, err := NewID()
	require.NoError(t, err)

	assert.Len(t, id, 26)
	assert.NotContains(t, id, "=")
	for _, r := range id {
		if (r < 'a' || r > 'z') && (r < '2' || r > '7') {
			t.Fatalf("unexpected character %q in id", r)
		}
	}
}

func TestNewIDRoundTripsUUIDVersion(t *testing.T) {
	id, err := NewID()
	require.NoError(t, err)

	u, err := Decode(id)
	require.NoError(t, err)
	assert.EqualValues(t, 4, u.Version())
	assert.Equal(t, "RFC4122", u.Variant().String())
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id, err := NewID()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not-an-id!")
	assert.Error(t, err)

	_, err = Decode(strings.Repeat("a", 10))
	assert.Error(t, err)
}
