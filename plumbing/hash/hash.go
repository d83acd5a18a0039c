// Package hash computes and represents the content addresses used to
// identify objects in the store. Addresses are SHA-1 digests of the
// object header plus payload, exactly as described in the data model.
package hash

import (
	"encoding/hex"
	"errors"
	"sort"

	"github.com/pjbgf/sha1cd"
)

// Size is the length in bytes of a Hash.
const Size = 20

// HexSize is the length of a Hash's hexadecimal representation.
const HexSize = Size * 2

// ErrInvalidHex is returned when a string cannot be parsed as a Hash.
var ErrInvalidHex = errors.New("invalid hex hash")

// Hash is a fixed-width content address.
type Hash [Size]byte

// ZeroHash is the hash with all bytes set to zero. It never addresses a
// real object and is used as a sentinel for "no parent"/"no value".
var ZeroHash Hash

// FromHex parses a 40-character lowercase hex string into a Hash.
func FromHex(s string) (Hash, error) {
	var h Hash
	if len(s) != HexSize {
		return h, ErrInvalidHex
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, ErrInvalidHex
	}
	copy(h[:], b)
	return h, nil
}

// MustFromHex is like FromHex but panics on error; intended for tests and
// compile-time constants.
func MustFromHex(s string) Hash {
	h, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return h
}

// String returns the lowercase hex representation of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Bytes returns a copy of the raw 20 bytes of h.
func (h Hash) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, h[:])
	return b
}

// Compare orders two hashes byte-wise, returning a negative, zero, or
// positive number as h is less than, equal to, or greater than other.
func (h Hash) Compare(other Hash) int {
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// IsValidHex reports whether s looks like a well-formed hex hash.
func IsValidHex(s string) bool {
	if len(s) != HexSize {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Sort sorts a slice of Hash in increasing order.
func Sort(hs []Hash) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Compare(hs[j]) < 0 })
}

// Hasher incrementally computes a Hash over "<type> <len>\0" followed by
// the payload, using a collision-detecting SHA-1 implementation.
type Hasher struct {
	h interface {
		Write(p []byte) (int, error)
		Sum(b []byte) []byte
	}
}

// New returns a Hasher with no header written yet; callers write the
// "<type> <len>\0" header themselves before the payload.
func New() Hasher {
	return Hasher{h: sha1cd.New()}
}

// Write feeds more payload bytes into the hasher.
func (w Hasher) Write(p []byte) (int, error) {
	return w.h.Write(p)
}

// Sum returns the resulting Hash.
func (w Hasher) Sum() Hash {
	var out Hash
	copy(out[:], w.h.Sum(nil))
	return out
}
