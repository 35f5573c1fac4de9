package packer

import (
	"fmt"

	"github.com/cryfa/cryfa/internal/stream"
)

// The nucleotide codec works over a fixed subset of five bases. Groups of
// three compress to one byte by positional base-6 encoding; the sixth value
// is the escape slot for characters outside the subset, whose raw bytes
// trail the tuple code. Trailing bases of a short final group are penalty
// literals, like the variable packers.

const (
	dnaSyms   = "ACGNT" // sorted by ASCII
	dnaEscape = 'X'     // escape mark inside a decoded tuple, never a real symbol there
	dnaCodes  = 216     // 6^3
)

var (
	dnaVal   [256]int8
	dnaTuple [dnaCodes][3]byte
)

func init() {
	for i := range dnaVal {
		dnaVal[i] = -1
	}
	for i := 0; i < len(dnaSyms); i++ {
		dnaVal[dnaSyms[i]] = int8(i)
	}
	sym := func(v int) byte {
		if v == 5 {
			return dnaEscape
		}
		return dnaSyms[v]
	}
	for v0 := 0; v0 < 6; v0++ {
		for v1 := 0; v1 < 6; v1++ {
			for v2 := 0; v2 < 6; v2++ {
				code := v0*36 + v1*6 + v2
				dnaTuple[code] = [3]byte{sym(v0), sym(v1), sym(v2)}
			}
		}
	}
}

// AppendPackedSeq packs one sequence line and appends the bytes to dst.
func AppendPackedSeq(dst, line []byte) []byte {
	var lits [3]byte
	full := len(line) / 3 * 3
	for i := 0; i < full; i += 3 {
		code := 0
		nl := 0
		for j := 0; j < 3; j++ {
			c := line[i+j]
			v := dnaVal[c]
			if v < 0 {
				v = 5
				lits[nl] = c
				nl++
			}
			code = code*6 + int(v)
		}
		dst = append(dst, byte(code))
		dst = append(dst, lits[:nl]...)
	}
	for _, c := range line[full:] {
		dst = append(dst, stream.MarkLiteral, c)
	}
	return dst
}

// AppendUnpackedSeq decodes one sequence line from cur, stopping at either
// line terminator (254, or the 252 some writers used for sequence breaks).
func AppendUnpackedSeq(dst []byte, cur *Cursor) ([]byte, byte, error) {
	for {
		b, err := cur.Next()
		if err != nil {
			return dst, 0, fmt.Errorf("unpacking sequence: %w", err)
		}
		switch {
		case b == stream.MarkEnd || b == stream.MarkEmpty:
			return dst, b, nil
		case b == stream.MarkLiteral:
			lit, err := cur.Next()
			if err != nil {
				return dst, 0, fmt.Errorf("unpacking sequence literal: %w", err)
			}
			dst = append(dst, lit)
		case int(b) < dnaCodes:
			tpl := dnaTuple[b]
			for j := 0; j < 3; j++ {
				if tpl[j] == dnaEscape {
					lit, err := cur.Next()
					if err != nil {
						return dst, 0, fmt.Errorf("unpacking sequence escape: %w", err)
					}
					dst = append(dst, lit)
				} else {
					dst = append(dst, tpl[j])
				}
			}
		default:
			return dst, 0, fmt.Errorf("invalid sequence code byte %d", b)
		}
	}
}
