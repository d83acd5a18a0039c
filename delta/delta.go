// Package delta implements the copy/insert delta encoding used to store
// one blob as a patch against another inside a packfile.
package delta

import "errors"

// Errors raised while applying a delta, matching the data model's named
// failure modes.
var (
	ErrBaseSizeMismatch   = errors.New("delta: base size mismatch")
	ErrCopyOutOfRange     = errors.New("delta: copy instruction out of range")
	ErrTruncatedDelta     = errors.New("delta: truncated delta stream")
	ErrResultSizeMismatch = errors.New("delta: result size mismatch")
)

// maxCopyLength is the largest length a single COPY instruction can
// express: when the length field is entirely absent, a decoder must
// treat that as this value rather than zero.
const maxCopyLength = 0x10000

const minMatch = 4

// encodeSize writes n as a little-endian base-128 varint (7 payload
// bits per byte, high bit set on every byte but the last).
func encodeSize(n uint64) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if n == 0 {
			break
		}
	}
	return out
}

// decodeSize reads a varint written by encodeSize, returning the value
// and the number of bytes consumed.
func decodeSize(data []byte) (uint64, int, error) {
	var n uint64
	var shift uint
	i := 0
	for {
		if i >= len(data) {
			return 0, 0, ErrTruncatedDelta
		}
		b := data[i]
		n |= uint64(b&0x7f) << shift
		i++
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return n, i, nil
}

// Encode produces a delta that, applied to base via Apply, reconstructs
// target exactly.
func Encode(base, target []byte) []byte {
	out := encodeSize(uint64(len(base)))
	out = append(out, encodeSize(uint64(len(target)))...)

	index := buildIndex(base)

	var literal []byte
	flush := func() {
		for len(literal) > 0 {
			n := len(literal)
			if n > 127 {
				n = 127
			}
			out = append(out, byte(n))
			out = append(out, literal[:n]...)
			literal = literal[n:]
		}
	}

	pos := 0
	for pos < len(target) {
		if pos+minMatch <= len(target) {
			key := chunkKey(target[pos : pos+minMatch])
			if candidates, ok := index[key]; ok {
				bestLen, bestOff := 0, 0
				for _, c := range candidates {
					l := extendMatch(base, c, target, pos)
					if l > bestLen {
						bestLen, bestOff = l, c
					}
				}
				if bestLen >= minMatch {
					flush()
					matchLen, off, remaining := bestLen, bestOff, bestLen
					for remaining > 0 {
						chunk := remaining
						if chunk > maxCopyLength {
							chunk = maxCopyLength
						}
						out = appendCopy(out, off, chunk)
						off += chunk
						remaining -= chunk
					}
					pos += matchLen
					continue
				}
			}
		}
		literal = append(literal, target[pos])
		pos++
	}
	flush()
	return out
}

type index4 map[uint32][]int

func chunkKey(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func buildIndex(base []byte) index4 {
	idx := make(index4)
	if len(base) < minMatch {
		return idx
	}
	for i := 0; i+minMatch <= len(base); i++ {
		key := chunkKey(base[i : i+minMatch])
		bucket := idx[key]
		if len(bucket) >= 32 {
			continue // cap fan-out; still correct, just fewer candidates
		}
		idx[key] = append(bucket, i)
	}
	return idx
}

func extendMatch(base []byte, bpos int, target []byte, tpos int) int {
	max := len(base) - bpos
	if tm := len(target) - tpos; tm < max {
		max = tm
	}
	if max > maxCopyLength {
		max = maxCopyLength
	}
	n := 0
	for n < max && base[bpos+n] == target[tpos+n] {
		n++
	}
	return n
}

func appendCopy(out []byte, offset, length int) []byte {
	var offBytes [4]byte
	offBytes[0] = byte(offset)
	offBytes[1] = byte(offset >> 8)
	offBytes[2] = byte(offset >> 16)
	offBytes[3] = byte(offset >> 24)

	storeLength := length
	if storeLength == maxCopyLength {
		storeLength = 0 // the zero-length special case: decoder restores 0x10000
	}
	var lenBytes [3]byte
	lenBytes[0] = byte(storeLength)
	lenBytes[1] = byte(storeLength >> 8)
	lenBytes[2] = byte(storeLength >> 16)

	flags := byte(0x80)
	var payload []byte
	for i := 0; i < 4; i++ {
		if offBytes[i] != 0 {
			flags |= 1 << uint(i)
			payload = append(payload, offBytes[i])
		}
	}
	for i := 0; i < 3; i++ {
		if lenBytes[i] != 0 {
			flags |= 1 << uint(4+i)
			payload = append(payload, lenBytes[i])
		}
	}
	out = append(out, flags)
	out = append(out, payload...)
	return out
}

// Apply reconstructs the target bytes a delta produced by Encode
// describes, validating base size, instruction bounds, and the
// resulting length against the sizes recorded in the delta header.
func Apply(base, delta []byte) ([]byte, error) {
	pos := 0
	baseSize, n, err := decodeSize(delta)
	if err != nil {
		return nil, err
	}
	pos += n
	if uint64(len(base)) != baseSize {
		return nil, ErrBaseSizeMismatch
	}

	targetSize, n, err := decodeSize(delta[pos:])
	if err != nil {
		return nil, err
	}
	pos += n

	out := make([]byte, 0, targetSize)
	for pos < len(delta) {
		cmd := delta[pos]
		pos++

		if cmd&0x80 != 0 {
			offset, length := 0, 0
			for i := 0; i < 4; i++ {
				if cmd&(1<<uint(i)) != 0 {
					if pos >= len(delta) {
						return nil, ErrTruncatedDelta
					}
					offset |= int(delta[pos]) << uint(8*i)
					pos++
				}
			}
			for i := 0; i < 3; i++ {
				if cmd&(1<<uint(4+i)) != 0 {
					if pos >= len(delta) {
						return nil, ErrTruncatedDelta
					}
					length |= int(delta[pos]) << uint(8*i)
					pos++
				}
			}
			if length == 0 {
				length = maxCopyLength
			}
			if offset < 0 || length < 0 || offset+length > len(base) {
				return nil, ErrCopyOutOfRange
			}
			out = append(out, base[offset:offset+length]...)
			continue
		}

		length := int(cmd)
		if length == 0 {
			return nil, ErrTruncatedDelta
		}
		if pos+length > len(delta) {
			return nil, ErrTruncatedDelta
		}
		out = append(out, delta[pos:pos+length]...)
		pos += length
	}

	if uint64(len(out)) != targetSize {
		return nil, ErrResultSizeMismatch
	}
	return out, nil
}
