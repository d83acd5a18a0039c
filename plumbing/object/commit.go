package object

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Niko256/vox/plumbing/hash"
)

// Signature names an author/committer and the instant they acted.
//
// Open question resolution (see DESIGN.md): the source format string
// that produces this line drops the timezone; this implementation
// follows suit and always serializes the timestamp as bare Unix
// seconds, never appending a zone offset. Round-tripping a Signature
// therefore preserves the instant but not any original UTC offset.
type Signature struct {
	Name string
	When time.Time
}

func (s Signature) String() string {
	return fmt.Sprintf("%s %d", s.Name, s.When.Unix())
}

// Commit is {tree, optional parent, author, timestamp, message}. This
// system only ever has at most one parent: linear history.
type Commit struct {
	TreeHash   hash.Hash
	ParentHash *hash.Hash // nil for the initial commit
	Author     Signature
	Message    string
}

func (c *Commit) Type() Type { return CommitObject }

func (c *Commit) Serialize() ([]byte, error) {
	if c.TreeHash.IsZero() {
		return nil, ErrMissingTree
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	if c.ParentHash != nil {
		fmt.Fprintf(&buf, "parent %s\n", c.ParentHash)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author.String())
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes(), nil
}

func (c *Commit) Hash() (hash.Hash, error) {
	payload, err := c.Serialize()
	if err != nil {
		return hash.ZeroHash, err
	}
	return HashOf(CommitObject, payload), nil
}

// DecodeCommit parses headers until the first empty line; tree is
// required, parent optional and at most once, author's timestamp is the
// last space-separated token of its line.
func DecodeCommit(payload []byte) (*Commit, error) {
	c := &Commit{}
	haveTree, haveParent, haveAuthor := false, false, false

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
		case strings.HasPrefix(line, "tree "):
			if haveTree {
				return nil, fmt.Errorf("%w: duplicate tree header", ErrCorruptCommit)
			}
			h, err := hash.FromHex(strings.TrimPrefix(line, "tree "))
			if err != nil {
				return nil, fmt.Errorf("%w: bad tree hash", ErrCorruptCommit)
			}
			c.TreeHash = h
			haveTree = true

		case strings.HasPrefix(line, "parent "):
			if haveParent {
				return nil, ErrTooManyParents
			}
			h, err := hash.FromHex(strings.TrimPrefix(line, "parent "))
			if err != nil {
				return nil, fmt.Errorf("%w: bad parent hash", ErrCorruptCommit)
			}
			c.ParentHash = &h
			haveParent = true

		case strings.HasPrefix(line, "author "):
			sig, err := parseSignature(strings.TrimPrefix(line, "author "))
			if err != nil {
				return nil, err
			}
			c.Author = sig
			haveAuthor = true

		default:
			return nil, fmt.Errorf("%w: unexpected header %q", ErrCorruptCommit, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCommit, err)
	}
	if !haveTree {
		return nil, ErrMissingTree
	}
	if !haveAuthor {
		return nil, fmt.Errorf("%w: missing author header", ErrCorruptCommit)
	}

	if headerEnd <= len(payload) {
		c.Message = string(payload[headerEnd:])
	}
	return c, nil
}

func parseSignature(line string) (Signature, error) {
	idx := strings.LastIndex(line, " ")
	if idx < 0 {
		return Signature{}, fmt.Errorf("%w: malformed author line", ErrCorruptCommit)
	}
	name := line[:idx]
	tsStr := line[idx+1:]
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: bad author timestamp", ErrCorruptCommit)
	}
	return Signature{Name: name, When: time.Unix(ts, 0).UTC()}, nil
}
