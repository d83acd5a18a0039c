package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinesAddedFile(t *testing.T) {
	r := Lines(nil, []byte("a\nb\n"))
	assert.Equal(t, 2, r.Insertions)
	assert.Equal(t, 0, r.Removals)
}

func TestLinesDeletedFile(t *testing.T) {
	r := Lines([]byte("a\nb\n"), nil)
	assert.Equal(t, 0, r.Insertions)
	assert.Equal(t, 2, r.Removals)
}

func TestLinesModified(t *testing.T) {
	r := Lines([]byte("a\nb\nc\n"), []byte("a\nx\nc\n"))
	assert.Equal(t, 1, r.Insertions)
	assert.Equal(t, 1, r.Removals)
}

func TestLinesIdentical(t *testing.T) {
	r := Lines([]byte("a\nb\n"), []byte("a\nb\n"))
	assert.Equal(t, 0, r.Insertions)
	assert.Equal(t, 0, r.Removals)
}

func TestLinesBinaryShortCircuits(t *testing.T) {
	r := Lines([]byte("a\x00b"), []byte("a\x00c"))
	assert.Equal(t, Result{}, r)
}
