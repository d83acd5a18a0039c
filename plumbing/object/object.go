// Package object implements the object model: the Blob, Tree, Commit, Tag
// and ChangeSet variants, their serialization rules, and hashing/storage
// dispatch. Parsing rules are reproduced exactly per the data model.
package object

import (
	"errors"
	"fmt"

	"github.com/Niko256/vox/plumbing/hash"
)

// Type is the closed set of object kinds the store ever addresses.
type Type byte

const (
	InvalidObject Type = iota
	BlobObject
	TreeObject
	CommitObject
	TagObject
	ChangeSetObject
)

var typeNames = [...]string{
	InvalidObject:   "invalid",
	BlobObject:      "blob",
	TreeObject:      "tree",
	CommitObject:    "commit",
	TagObject:       "tag",
	ChangeSetObject: "change",
}

// String returns the header token used on the wire and on disk.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// ParseType maps a header token back to a Type.
func ParseType(s string) (Type, error) {
	for i, n := range typeNames {
		if Type(i) != InvalidObject && n == s {
			return Type(i), nil
		}
	}
	return InvalidObject, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Errors raised by the object model. Each is a distinct sentinel so
// callers can use errors.Is instead of string matching.
var (
	ErrUnknownType    = errors.New("unknown object type")
	ErrCorruptTree    = errors.New("corrupt tree object")
	ErrCorruptCommit  = errors.New("corrupt commit object")
	ErrCorruptTag     = errors.New("corrupt tag object")
	ErrCorruptChange  = errors.New("corrupt change object")
	ErrMissingTree    = errors.New("commit is missing tree header")
	ErrTooManyParents = errors.New("commit has more than one parent")
)

// Store is the minimal storage capability the object model depends on.
// Concrete implementations live in package storage.
type Store interface {
	WriteObject(t Type, payload []byte) (hash.Hash, error)
	ReadObject(h hash.Hash) (Type, []byte, error)
}

// Object is implemented by every variant in this package.
type Object interface {
	// Type identifies which variant this is.
	Type() Type
	// Serialize renders the payload bytes per the variant's encoding.
	Serialize() ([]byte, error)
	// Hash computes this object's content address without writing it.
	Hash() (hash.Hash, error)
}

// Save serializes and writes o to s, returning its content address.
func Save(s Store, o Object) (hash.Hash, error) {
	payload, err := o.Serialize()
	if err != nil {
		return hash.ZeroHash, err
	}
	return s.WriteObject(o.Type(), payload)
}

// Load reads h from s and parses it into the matching variant.
func Load(s Store, h hash.Hash) (Object, error) {
	t, payload, err := s.ReadObject(h)
	if err != nil {
		return nil, err
	}
	return decode(t, payload)
}

// decode is the parse-by-type-tag dispatch table called out in the
// design notes: a flat switch, not an inheritance hierarchy.
func decode(t Type, payload []byte) (Object, error) {
	switch t {
	case BlobObject:
		return &Blob{Content: payload}, nil
	case TreeObject:
		return DecodeTree(payload)
	case CommitObject:
		return DecodeCommit(payload)
	case TagObject:
		return DecodeTag(payload)
	case ChangeSetObject:
		return DecodeChangeSet(payload)
	default:
		return nil, fmt.Errorf("%w: type code %d", ErrUnknownType, t)
	}
}

// HashOf computes the content address of a (type, payload) pair the
// same way the object codec does, without going through a Store. It is
// exported so other packages that need to re-derive an address from
// recovered bytes (packfile reconstruction's content-sniff step) don't
// have to re-implement the header framing.
func HashOf(t Type, payload []byte) hash.Hash {
	h := hash.New()
	header := fmt.Sprintf("%s %d\x00", t, len(payload))
	h.Write([]byte(header))
	h.Write(payload)
	return h.Sum()
}
