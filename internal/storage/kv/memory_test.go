package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()

	_, ok, err := m.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set("k", []byte("value")))

	v, ok, err := m.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), v)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set("k", []byte("value")))
	require.NoError(t, m.Delete("k"))

	_, ok, err := m.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is not an error.
	require.NoError(t, m.Delete("k"))
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()

	in := []byte("original")
	require.NoError(t, m.Set("k", in))
	in[0] = 'X'

	out, ok, err := m.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("original"), out)

	// Mutating a returned value must not affect the stored copy.
	out[0] = 'Y'
	again, _, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}
