// Package objfile implements the on-disk object codec: the
// "<type> <len>\0<payload>" header framing, zlib compression, and the
// SHA-1 addressing that ties the two together. It knows nothing about
// sharded paths or atomic rename; that lives in package storage.
package objfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/plumbing/object"
	"github.com/klauspost/compress/zlib"
)

// ErrCorrupt is returned when a stored object cannot be parsed: the
// zlib stream is broken, the header has no NUL, the header doesn't match
// "<type> <decimal-length>", or the decompressed payload's length
// disagrees with the declared length.
var ErrCorrupt = fmt.Errorf("corrupt object: %w", errCorruptBase)

var errCorruptBase = errors.New("corrupt object")

// IsCorrupt reports whether err is (or wraps) a corrupt-object error.
func IsCorrupt(err error) bool {
	return errors.Is(err, errCorruptBase)
}

// Reader decompresses an object and exposes its header and payload
// stream, accumulating the content hash as bytes are read.
type Reader struct {
	zr     io.ReadCloser
	hasher hash.Hasher
	typ    object.Type
	size   int64
	read   int64
}

// NewReader wraps the zlib-compressed object stream in src.
func NewReader(src io.Reader) (*Reader, error) {
	zr, err := zlib.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptBase, err)
	}
	return &Reader{zr: zr, hasher: hash.New()}, nil
}

// Header reads and parses the "<type> <len>\0" prefix. It must be
// called before Read.
func (r *Reader) Header() (object.Type, int64, error) {
	br := bufio.NewReader(r.zr)

	token, err := br.ReadString(0)
	if err != nil {
		return object.InvalidObject, 0, fmt.Errorf("%w: %v", errCorruptBase, err)
	}
	token = token[:len(token)-1] // drop the NUL

	sp := bytes.IndexByte([]byte(token), ' ')
	if sp < 0 {
		return object.InvalidObject, 0, fmt.Errorf("%w: missing header separator", errCorruptBase)
	}

	typ, err := object.ParseType(token[:sp])
	if err != nil {
		return object.InvalidObject, 0, fmt.Errorf("%w: %v", errCorruptBase, err)
	}

	size, err := strconv.ParseInt(token[sp+1:], 10, 64)
	if err != nil || size < 0 {
		return object.InvalidObject, 0, fmt.Errorf("%w: bad length", errCorruptBase)
	}

	r.typ = typ
	r.size = size
	// br already forwards to the zlib reader and has buffered some
	// payload bytes read ahead of the NUL; read subsequent payload
	// through br itself, only delegating Close to the zlib reader.
	r.zr = struct {
		io.Reader
		io.Closer
	}{br, r.zr}

	r.hasher.Write([]byte(token))
	r.hasher.Write([]byte{0})

	return typ, size, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.zr.Read(p)
	if n > 0 {
		r.hasher.Write(p[:n])
		r.read += int64(n)
	}
	if err == io.EOF && r.read != r.size {
		return n, fmt.Errorf("%w: declared length %d, got %d", errCorruptBase, r.size, r.read)
	}
	return n, err
}

// Hash returns the content address computed so far; call after fully
// draining Read for the final, correct value.
func (r *Reader) Hash() hash.Hash {
	return r.hasher.Sum()
}

func (r *Reader) Close() error {
	return r.zr.Close()
}

// ReadAll drains src entirely, returning the parsed type, payload, and
// content hash in one call.
func ReadAll(src io.Reader) (object.Type, []byte, hash.Hash, error) {
	r, err := NewReader(src)
	if err != nil {
		return object.InvalidObject, nil, hash.ZeroHash, err
	}
	defer r.Close()

	typ, size, err := r.Header()
	if err != nil {
		return object.InvalidObject, nil, hash.ZeroHash, err
	}

	payload := make([]byte, 0, size)
	buf := bytes.NewBuffer(payload)
	if _, err := io.Copy(buf, r); err != nil {
		return object.InvalidObject, nil, hash.ZeroHash, err
	}

	return typ, buf.Bytes(), r.Hash(), nil
}

// Writer frames a payload as "<type> <len>\0<payload>" and zlib-compresses
// it onto dst, accumulating the content hash as bytes are written.
type Writer struct {
	dst       io.Writer
	zw        *zlib.Writer
	hasher    hash.Hasher
	remaining int64
	closed    bool
}

// NewWriter wraps dst; call WriteHeader before Write.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{dst: dst, hasher: hash.New()}
}

// WriteHeader writes the "<type> <len>\0" prefix.
func (w *Writer) WriteHeader(t object.Type, size int64) error {
	w.zw = zlib.NewWriter(w.dst)
	w.remaining = size

	header := fmt.Sprintf("%s %d\x00", t, size)
	w.hasher.Write([]byte(header))

	_, err := w.zw.Write([]byte(header))
	return err
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.zw == nil {
		return 0, fmt.Errorf("objfile: WriteHeader not called")
	}
	if int64(len(p)) > w.remaining {
		return 0, fmt.Errorf("objfile: write exceeds declared length")
	}
	n, err := w.zw.Write(p)
	if n > 0 {
		w.hasher.Write(p[:n])
		w.remaining -= int64(n)
	}
	return n, err
}

// Hash returns the content address of everything written so far.
func (w *Writer) Hash() hash.Hash {
	return w.hasher.Sum()
}

func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.zw == nil {
		return nil
	}
	return w.zw.Close()
}

// WriteAll frames and compresses a full object in one call, returning
// its content hash.
func WriteAll(dst io.Writer, t object.Type, payload []byte) (hash.Hash, error) {
	w := NewWriter(dst)
	if err := w.WriteHeader(t, int64(len(payload))); err != nil {
		return hash.ZeroHash, err
	}
	if _, err := w.Write(payload); err != nil {
		return hash.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return hash.ZeroHash, err
	}
	return w.Hash(), nil
}
