package delta

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Testable property #5: delta correctness — Apply(base, Encode(base,
// target)) == target for a range of shapes.
func TestEncodeApplyRoundTrip(t *testing.T) {
	cases := []struct {
		name, base, target string
	}{
		{"identical", "hello world\n", "hello world\n"},
		{"append", "hello world\n", "hello world\nand more\n"},
		{"prepend", "world\n", "hello world\n"},
		{"middle-edit", "the quick brown fox\n", "the slow brown fox\n"},
		{"empty-base", "", "new content entirely\n"},
		{"empty-target", "old content entirely\n", ""},
		{"both-empty", "", ""},
		{"no-similarity", "aaaaaaaaaaaaaaaaaaaa", "zzzzzzzzzzzzzzzzzzzz"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			base, target := []byte(c.base), []byte(c.target)
			d := Encode(base, target)
			got, err := Apply(base, d)
			require.NoError(t, err)
			assert.Equal(t, target, got)
		})
	}
}

func TestEncodeProducesCopyInstructionsForLargeRepeats(t *testing.T) {
	base := []byte(strings.Repeat("0123456789", 200))
	target := append([]byte("prefix-"), base...)
	target = append(target, []byte("-suffix")...)

	d := Encode(base, target)
	got, err := Apply(base, d)
	require.NoError(t, err)
	assert.Equal(t, target, got)

	// A real copy instruction should make the delta much smaller than
	// re-storing the whole repeated region as literals.
	assert.Less(t, len(d), len(target)/2)
}

func TestEncodeHandlesMatchLongerThanMaxCopyLength(t *testing.T) {
	base := bytes.Repeat([]byte("x"), maxCopyLength+500)
	target := bytes.Repeat([]byte("x"), maxCopyLength+500)

	d := Encode(base, target)
	got, err := Apply(base, d)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestApplyRejectsBaseSizeMismatch(t *testing.T) {
	base := []byte("hello")
	d := Encode(base, []byte("hello world"))
	_, err := Apply([]byte("different base"), d)
	assert.ErrorIs(t, err, ErrBaseSizeMismatch)
}

func TestApplyRejectsTruncatedDelta(t *testing.T) {
	base := []byte("hello world")
	d := Encode(base, []byte("hello there world"))
	_, err := Apply(base, d[:len(d)-1])
	assert.Error(t, err)
}

func TestApplyRejectsCopyOutOfRange(t *testing.T) {
	base := []byte("short")
	// Hand-built delta: base size 5, target size 10, one COPY instruction
	// with offset 0 and a length that overruns base.
	d := encodeSize(5)
	d = append(d, encodeSize(10)...)
	d = appendCopy(d, 0, 10)
	_, err := Apply(base, d)
	assert.ErrorIs(t, err, ErrCopyOutOfRange)
}

func TestVarintRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40} {
		enc := encodeSize(n)
		got, consumed, err := decodeSize(enc)
		require.NoError(t, err)
		assert.Equal(t, n, got)
		assert.Equal(t, len(enc), consumed)
	}
}
