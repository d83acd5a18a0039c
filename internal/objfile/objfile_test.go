package objfile

import (
	"bytes"
	"io"
	"testing"

	"github.com/Niko256/vox/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	h, err := WriteAll(&buf, object.BlobObject, []byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, "ce013625030ba8dba906f756967f9e9ca394464a", h.String())

	typ, payload, readHash, err := ReadAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, object.BlobObject, typ)
	assert.Equal(t, []byte("hello\n"), payload)
	assert.Equal(t, h, readHash)
}

func TestReaderRejectsGarbage(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("not zlib at all")))
	require.Error(t, err)
	assert.True(t, IsCorrupt(err))
}

func TestReaderRejectsLengthMismatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader(object.BlobObject, 3))
	_, err := w.Write([]byte("ab")) // short of declared length 3
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	_, _, err = r.Header()
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	require.Error(t, err)
	assert.True(t, IsCorrupt(err))
}
