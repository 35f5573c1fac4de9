package compact

import (
	"errors"
	"fmt"

	"github.com/cryfa/cryfa/internal/packer"
	"github.com/cryfa/cryfa/internal/stream"
)

// chunkCodec turns a block of source lines into one chunk payload and back.
// Tables are immutable and shared by all workers.
type chunkCodec struct {
	fasta    bool
	justPlus bool
	hdr      *packer.Table
	qs       *packer.Table
}

// encode packs one block of lines.
//
// FASTQ, per 4-line record: packed header, 254, packed sequence, 254,
// packed quality scores, 254. The '+' line is dropped; decode rebuilds it
// from the bare-plus flag.
//
// FASTA, per line: 253 + packed header + 254 for headers, a single 252 for
// an empty line, packed sequence + 254 otherwise.
func (c *chunkCodec) encode(lines [][]byte) ([]byte, error) {
	if c.fasta {
		return c.encodeFasta(lines)
	}
	return c.encodeFastq(lines)
}

func (c *chunkCodec) encodeFastq(lines [][]byte) ([]byte, error) {
	if len(lines)%4 != 0 {
		return nil, errors.New("torn FASTQ record in chunk")
	}
	payload := make([]byte, 0, len(lines)*16)
	for i := 0; i < len(lines); i += 4 {
		hdrLine, seqLine, qsLine := lines[i], lines[i+1], lines[i+3]
		if len(hdrLine) == 0 || hdrLine[0] != '@' {
			return nil, errors.New("invalid FASTQ: header line must start with @")
		}
		payload = c.hdr.AppendPacked(payload, hdrLine[1:])
		payload = append(payload, stream.MarkEnd)
		payload = packer.AppendPackedSeq(payload, seqLine)
		payload = append(payload, stream.MarkEnd)
		payload = c.qs.AppendPacked(payload, qsLine)
		payload = append(payload, stream.MarkEnd)
	}
	return payload, nil
}

func (c *chunkCodec) encodeFasta(lines [][]byte) ([]byte, error) {
	payload := make([]byte, 0, len(lines)*16)
	for _, line := range lines {
		switch {
		case len(line) == 0:
			payload = append(payload, stream.MarkEmpty)
		case line[0] == '>':
			payload = append(payload, stream.MarkHeader)
			payload = c.hdr.AppendPacked(payload, line[1:])
			payload = append(payload, stream.MarkEnd)
		default:
			payload = packer.AppendPackedSeq(payload, line)
			payload = append(payload, stream.MarkEnd)
		}
	}
	return payload, nil
}

// decode expands one chunk payload back to source text.
func (c *chunkCodec) decode(payload []byte) ([]byte, error) {
	if c.fasta {
		return c.decodeFasta(payload)
	}
	return c.decodeFastq(payload)
}

func (c *chunkCodec) decodeFastq(payload []byte) ([]byte, error) {
	cur := packer.NewCursor(payload)
	out := make([]byte, 0, len(payload)*3)
	var err error
	for cur.More() {
		out = append(out, '@')
		hdrStart := len(out)
		out, _, err = c.hdr.AppendUnpacked(out, cur)
		if err != nil {
			return nil, err
		}
		hdrEnd := len(out)
		out = append(out, '\n')

		out, _, err = packer.AppendUnpackedSeq(out, cur)
		if err != nil {
			return nil, err
		}
		out = append(out, '\n', '+')
		if !c.justPlus {
			out = append(out, out[hdrStart:hdrEnd]...)
		}
		out = append(out, '\n')

		out, _, err = c.qs.AppendUnpacked(out, cur)
		if err != nil {
			return nil, err
		}
		out = append(out, '\n')
	}
	return out, nil
}

func (c *chunkCodec) decodeFasta(payload []byte) ([]byte, error) {
	cur := packer.NewCursor(payload)
	out := make([]byte, 0, len(payload)*3)
	var term byte
	var err error
	for cur.More() {
		switch cur.Peek() {
		case stream.MarkEmpty:
			if _, err = cur.Next(); err != nil {
				return nil, err
			}
			out = append(out, '\n')
		case stream.MarkHeader:
			if _, err = cur.Next(); err != nil {
				return nil, err
			}
			out = append(out, '>')
			out, term, err = c.hdr.AppendUnpacked(out, cur)
			if err != nil {
				return nil, err
			}
			if term != stream.MarkEnd {
				return nil, fmt.Errorf("unterminated header record (byte %d)", term)
			}
			out = append(out, '\n')
		default:
			// Sequence lines end on 254, with 252 tolerated: old writers
			// used both for sequence-line breaks.
			out, _, err = packer.AppendUnpackedSeq(out, cur)
			if err != nil {
				return nil, err
			}
			out = append(out, '\n')
		}
	}
	return out, nil
}
