package object

import "github.com/Niko256/vox/plumbing/hash"

// Blob is an opaque byte sequence; its payload is the raw content.
type Blob struct {
	Content []byte
}

// NewBlob wraps raw bytes as a Blob.
func NewBlob(content []byte) *Blob {
	return &Blob{Content: content}
}

func (b *Blob) Type() Type { return BlobObject }

func (b *Blob) Serialize() ([]byte, error) {
	return b.Content, nil
}

func (b *Blob) Hash() (hash.Hash, error) {
	return HashOf(BlobObject, b.Content), nil
}

// Size returns the payload length.
func (b *Blob) Size() int64 {
	return int64(len(b.Content))
}
