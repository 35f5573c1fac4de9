package fastx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Kind
	}{
		{"fasta", ">seq1\nACGT\n", KindFasta},
		{"fastq", "@r1\nACGT\n+\n!!!!\n", KindFastq},
		{"fasta after blank lines", "\n\n>seq1\nACGT\n", KindFasta},
		{"sam header", "@HD\tVN:1.6\n@SQ\tSN:ref\n", KindSam},
		{"sam co", "@CO\tfree text\n", KindSam},
		{"fastq header resembling sam", "@HDX\nACGT\n+\n!!!!\n", KindFastq},
		{"plain text", "hello world\n", KindUnknown},
		{"empty", "", KindUnknown},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rs := strings.NewReader(tt.input)
			kind, err := Detect(rs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)

			// Detect rewinds the input.
			pos, err := rs.Seek(0, 1)
			require.NoError(t, err)
			assert.Zero(t, pos)
		})
	}
}

func TestScan_Fasta(t *testing.T) {
	t.Parallel()

	input := ">chr1 test\nACGTACGT\nACGT\n\n>chr2\nAC\n"
	info, err := Scan(strings.NewReader(input), KindFasta)
	require.NoError(t, err)

	assert.Equal(t, " 12cehrst", info.HdrAlpha)
	assert.Equal(t, 8, info.MaxSeq)
	assert.Equal(t, 6, info.Lines)
	assert.Empty(t, info.QsAlpha)
}

func TestScan_Fastq(t *testing.T) {
	t.Parallel()

	input := "@r1\nACGT\n+\n!#!#\n@r2\nGGGG\n+\n$$!!\n"
	info, err := Scan(strings.NewReader(input), KindFastq)
	require.NoError(t, err)

	assert.Equal(t, "12r", info.HdrAlpha)
	assert.Equal(t, "!#$", info.QsAlpha)
	assert.Equal(t, 2, info.MaxHdr)
	assert.Equal(t, 4, info.MaxQs)
	assert.True(t, info.JustPlus)
	assert.Equal(t, 8, info.Lines)
}

func TestScan_FastqPlusWithText(t *testing.T) {
	t.Parallel()

	input := "@r1\nACGT\n+r1\n!!!!\n"
	info, err := Scan(strings.NewReader(input), KindFastq)
	require.NoError(t, err)
	assert.False(t, info.JustPlus)
}

func TestScan_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		kind  Kind
		input string
	}{
		{"space in fasta sequence", KindFasta, ">a\nAC GT\n"},
		{"space in fastq sequence", KindFastq, "@r\nAC GT\n+\n!!!!\n"},
		{"truncated fastq", KindFastq, "@r\nACGT\n+\n"},
		{"fastq bad header", KindFastq, "r\nACGT\n+\n!!!!\n"},
		{"fastq bad separator", KindFastq, "@r\nACGT\nx\n!!!!\n"},
		{"non-printable header char", KindFastq, "@r\x07\nACGT\n+\n!!!!\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Scan(strings.NewReader(tt.input), tt.kind)
			assert.Error(t, err)
		})
	}
}

func TestLineReader_LastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	lr := NewLineReader(strings.NewReader("abc\ndef"))
	line, err := lr.Next()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(line))
	line, err = lr.Next()
	require.NoError(t, err)
	assert.Equal(t, "def", string(line))
	_, err = lr.Next()
	assert.Error(t, err)
}

func TestBlockLine(t *testing.T) {
	t.Parallel()

	fasta := &Info{Kind: KindFasta, MaxSeq: 100}
	assert.Equal(t, 10, fasta.BlockLine(1000))

	// Lines longer than the budget still get the two-line floor.
	long := &Info{Kind: KindFasta, MaxSeq: 5000}
	assert.Equal(t, 2, long.BlockLine(1000))

	fastq := &Info{Kind: KindFastq, MaxHdr: 10, MaxQs: 45}
	got := fastq.BlockLine(1000)
	assert.Equal(t, 40, got)
	assert.Zero(t, got%4)

	tiny := &Info{Kind: KindFastq, MaxHdr: 1000, MaxQs: 1000}
	assert.Equal(t, 4, tiny.BlockLine(100))
}
