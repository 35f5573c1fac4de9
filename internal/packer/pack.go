package packer

import (
	"fmt"

	"github.com/cryfa/cryfa/internal/stream"
)

// AppendPacked packs one source line with the table's category and appends
// the packed bytes to dst. Complete k-symbol groups become table codes;
// trailing symbols that do not fill a group are emitted as penalty literals
// (255 followed by the raw byte), as are out-of-window characters in the
// large variant.
func (t *Table) AppendPacked(dst, line []byte) []byte {
	if t.cat == Cat3to2Large {
		return t.appendLarge(dst, line)
	}
	k := t.keyLen
	full := len(line) / k * k
	for i := 0; i < full; i += k {
		code := t.forward[string(line[i:i+k])]
		if t.cat.CodeSize() == 2 {
			dst = append(dst, byte(code>>8), byte(code))
		} else {
			dst = append(dst, byte(code))
		}
	}
	for _, c := range line[full:] {
		dst = append(dst, stream.MarkLiteral, c)
	}
	return dst
}

// appendLarge packs with the truncated-alphabet variant: characters outside
// the kept 39-symbol window take the extension symbol's slot in the tuple
// and trail the 2-byte code as literal bytes, in tuple order.
func (t *Table) appendLarge(dst, line []byte) []byte {
	var key [3]byte
	var lits [3]byte
	full := len(line) / 3 * 3
	for i := 0; i < full; i += 3 {
		nl := 0
		for j := 0; j < 3; j++ {
			c := line[i+j]
			if t.contains(c) {
				key[j] = c
			} else {
				key[j] = t.ext
				lits[nl] = c
				nl++
			}
		}
		code := t.forward[string(key[:])]
		dst = append(dst, byte(code>>8), byte(code))
		dst = append(dst, lits[:nl]...)
	}
	for _, c := range line[full:] {
		dst = append(dst, stream.MarkLiteral, c)
	}
	return dst
}

// AppendUnpacked decodes one line from cur, appending the decoded symbols
// to dst until a line terminator is consumed. Both 254 and 252 terminate a
// line; the one seen is returned so FASTA callers can tell them apart.
func (t *Table) AppendUnpacked(dst []byte, cur *Cursor) ([]byte, byte, error) {
	for {
		b, err := cur.Next()
		if err != nil {
			return dst, 0, fmt.Errorf("unpacking %s line: %w", t.cat, err)
		}
		switch {
		case b == stream.MarkEnd || b == stream.MarkEmpty:
			return dst, b, nil
		case b == stream.MarkLiteral:
			lit, err := cur.Next()
			if err != nil {
				return dst, 0, fmt.Errorf("unpacking penalty literal: %w", err)
			}
			dst = append(dst, lit)
		default:
			code := int(b)
			if t.cat.CodeSize() == 2 {
				lo, err := cur.Next()
				if err != nil {
					return dst, 0, fmt.Errorf("unpacking %s code: %w", t.cat, err)
				}
				code = code<<8 | int(lo)
			}
			if code >= len(t.inverse) {
				return dst, 0, fmt.Errorf("%s code %d out of range for alphabet of %d", t.cat, code, len(t.alpha))
			}
			key := t.inverse[code]
			if t.cat == Cat3to2Large {
				for j := 0; j < len(key); j++ {
					if key[j] == t.ext {
						lit, err := cur.Next()
						if err != nil {
							return dst, 0, fmt.Errorf("unpacking extension literal: %w", err)
						}
						dst = append(dst, lit)
					} else {
						dst = append(dst, key[j])
					}
				}
			} else {
				dst = append(dst, key...)
			}
		}
	}
}
