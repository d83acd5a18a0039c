package object

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/Niko256/vox/plumbing/hash"
)

// Tag is a named pointer with metadata to any other object.
type Tag struct {
	ObjectHash hash.Hash
	ObjectType Type
	Name       string
	Tagger     Signature
	Message    string
}

func (t *Tag) Type() Type { return TagObject }

func (t *Tag) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", t.ObjectHash)
	fmt.Fprintf(&buf, "type %s\n", t.ObjectType)
	fmt.Fprintf(&buf, "tag %s\n", t.Name)
	fmt.Fprintf(&buf, "tagger %s\n", t.Tagger.String())
	buf.WriteByte('\n')
	buf.WriteString(t.Message)
	return buf.Bytes(), nil
}

func (t *Tag) Hash() (hash.Hash, error) {
	payload, err := t.Serialize()
	if err != nil {
		return hash.ZeroHash, err
	}
	return HashOf(TagObject, payload), nil
}

// DecodeTag parses a tag payload the same way DecodeCommit parses a
// commit: headers until the first blank line, then the message.
func DecodeTag(payload []byte) (*Tag, error) {
	t := &Tag{}
	haveObject, haveType, haveTag, haveTagger := false, false, false, false

	sc := bufio.NewScanner(bytes.NewReader(payload))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var headerEnd int
	offset := 0
	for sc.Scan() {
		line := sc.Text()
		offset += len(line) + 1
		if line == "" {
			headerEnd = offset
			break
		}

		switch {
		case strings.HasPrefix(line, "object "):
			h, err := hash.FromHex(strings.TrimPrefix(line, "object "))
			if err != nil {
				return nil, fmt.Errorf("%w: bad object hash", ErrCorruptTag)
			}
			t.ObjectHash = h
			haveObject = true

		case strings.HasPrefix(line, "type "):
			ty, err := ParseType(strings.TrimPrefix(line, "type "))
			if err != nil {
				return nil, fmt.Errorf("%w: bad type", ErrCorruptTag)
			}
			t.ObjectType = ty
			haveType = true

		case strings.HasPrefix(line, "tag "):
			t.Name = strings.TrimPrefix(line, "tag ")
			haveTag = true

		case strings.HasPrefix(line, "tagger "):
			sig, err := parseSignature(strings.TrimPrefix(line, "tagger "))
			if err != nil {
				return nil, fmt.Errorf("%w: bad tagger", ErrCorruptTag)
			}
			t.Tagger = sig
			haveTagger = true

		default:
			return nil, fmt.Errorf("%w: unexpected header %q", ErrCorruptTag, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptTag, err)
	}
	if !haveObject || !haveType || !haveTag || !haveTagger {
		return nil, fmt.Errorf("%w: missing required header", ErrCorruptTag)
	}

	if headerEnd <= len(payload) {
		t.Message = string(payload[headerEnd:])
	}
	return t, nil
}
