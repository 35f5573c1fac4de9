// Package compact implements the parallel compaction and inverse pipelines:
// chunked packing of FASTA/FASTQ into the framed compact stream, the AES
// boundary around it, and the order-preserving worker orchestration.
package compact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cryfa/cryfa/internal/crypt"
	"github.com/cryfa/cryfa/internal/fastx"
	"github.com/cryfa/cryfa/internal/packer"
	"github.com/cryfa/cryfa/internal/stream"
)

// DefaultBlockBytes sizes the source text one chunk covers.
const DefaultBlockBytes = 1 << 21

// Options configures both directions of the pipeline.
type Options struct {
	Workers        int    // parallel pack/unpack workers (default: NumCPU)
	BlockBytes     int    // chunk sizing constant (default: DefaultBlockBytes)
	DisableShuffle bool   // skip the keyed payload shuffle
	ModernKDF      bool   // derive key/IV with PBKDF2 instead of the legacy construction
	Verbose        bool   // diagnostics on stderr
	Password       []byte // entire key-file content, >= 8 bytes
}

func (o *Options) withDefaults() Options {
	opts := Options{}
	if o != nil {
		opts = *o
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.BlockBytes <= 0 {
		opts.BlockBytes = DefaultBlockBytes
	}
	return opts
}

func (o *Options) keys() (key, iv []byte, err error) {
	if o.ModernKDF {
		return crypt.DeriveKDF(o.Password)
	}
	return crypt.DeriveLegacy(o.Password)
}

func (o *Options) logf(format string, args ...any) {
	if o.Verbose {
		fmt.Fprintf(os.Stderr, "cryfa: "+format+"\n", args...)
	}
}

// Compress compacts and encrypts the input, writing the watermark in
// cleartext followed by the ciphertext.
func Compress(rs io.ReadSeeker, w io.Writer, opts *Options) error {
	o := opts.withDefaults()
	key, iv, err := o.keys()
	if err != nil {
		return err
	}
	body, err := compressBody(rs, &o)
	if err != nil {
		return err
	}
	o.logf("compact stream: %d bytes", len(body))

	ct, err := crypt.Encrypt(body, key, iv)
	if err != nil {
		return err
	}
	if _, err := w.Write(stream.Watermark); err != nil {
		return fmt.Errorf("writing watermark: %w", err)
	}
	if _, err := w.Write(ct); err != nil {
		return fmt.Errorf("writing ciphertext: %w", err)
	}
	return nil
}

// Decompress decrypts and expands input produced by Compress, writing the
// original file bytes to w.
func Decompress(r io.Reader, w io.Writer, opts *Options) error {
	o := opts.withDefaults()
	key, iv, err := o.keys()
	if err != nil {
		return err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	ct, err := stream.StripWatermark(raw)
	if err != nil {
		return err
	}
	body, err := crypt.Decrypt(ct, key, iv)
	if err != nil {
		return err
	}
	o.logf("compact stream: %d bytes", len(body))
	return decompressBody(body, w, &o)
}

// compressBody builds the plaintext compact stream: discovery pass, table
// construction, then the chunked pack pipeline.
func compressBody(rs io.ReadSeeker, o *Options) ([]byte, error) {
	kind, err := fastx.Detect(rs)
	if err != nil {
		return nil, err
	}
	switch kind {
	case fastx.KindFasta, fastx.KindFastq:
	case fastx.KindSam:
		return nil, errors.New("SAM input is not supported")
	default:
		return nil, fastx.ErrNotSequence
	}

	info, err := fastx.Scan(rs, kind)
	if err != nil {
		return nil, err
	}

	codec := &chunkCodec{
		fasta:    kind == fastx.KindFasta,
		justPlus: info.JustPlus,
		hdr:      packer.Build(info.HdrAlpha),
	}
	if !codec.fasta {
		codec.qs = packer.Build(info.QsAlpha)
	}
	blockLine := info.BlockLine(o.BlockBytes)

	shuffled := !o.DisableShuffle
	var seed uint64
	if shuffled {
		seed = crypt.ShuffleSeed(o.Password)
	}

	o.logf("header alphabet: %d chars, %s", len(info.HdrAlpha), codec.hdr.Category())
	if codec.qs != nil {
		o.logf("quality-score alphabet: %d chars, %s", len(info.QsAlpha), codec.qs.Category())
	}
	o.logf("chunk size: %d lines, workers: %d, shuffle: %v", blockLine, o.Workers, shuffled)

	hdr := stream.Header{
		Fasta:    codec.fasta,
		Shuffled: shuffled,
		HdrAlpha: info.HdrAlpha,
		QsAlpha:  info.QsAlpha,
		JustPlus: info.JustPlus,
	}
	var body bytes.Buffer
	body.Write(hdr.Append(nil))

	lr := fastx.NewLineReader(rs)
	if o.Workers == 1 {
		err = compressSingle(lr, &body, codec, blockLine, shuffled, seed)
	} else {
		err = compressParallel(lr, &body, codec, blockLine, shuffled, seed, o.Workers)
	}
	if err != nil {
		return nil, err
	}
	body.WriteByte(stream.MarkEmpty)
	return body.Bytes(), nil
}

// readBlock reads up to blockLine lines, copying each out of the reader's
// scratch buffer. Returns a short (possibly empty) block at EOF.
func readBlock(lr *fastx.LineReader, blockLine int) ([][]byte, error) {
	lines := make([][]byte, 0, blockLine)
	for len(lines) < blockLine {
		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	return lines, nil
}

func compressSingle(lr *fastx.LineReader, body *bytes.Buffer, codec *chunkCodec, blockLine int, shuffled bool, seed uint64) error {
	for {
		lines, err := readBlock(lr, blockLine)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		payload, err := codec.encode(lines)
		if err != nil {
			return err
		}
		if shuffled {
			crypt.Shuffle(payload, seed)
		}
		body.Write(stream.AppendEnvelope(nil, payload))
	}
}

type compressJob struct {
	seq   int
	lines [][]byte
}

type compressResult struct {
	seq     int
	payload []byte
	err     error
}

func compressParallel(lr *fastx.LineReader, body *bytes.Buffer, codec *chunkCodec, blockLine int, shuffled bool, seed uint64, workers int) error {
	jobs := make(chan compressJob, workers*2)
	results := make(chan compressResult, workers*2)

	g, ctx := errgroup.WithContext(context.Background())

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for job := range jobs {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				payload, err := codec.encode(job.lines)
				if err == nil && shuffled {
					crypt.Shuffle(payload, seed)
				}
				results <- compressResult{seq: job.seq, payload: payload, err: err}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for seq := 0; ; seq++ {
			lines, err := readBlock(lr, blockLine)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return nil
			}
			select {
			case jobs <- compressJob{seq: seq, lines: lines}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	var collectorErr error
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		pending := make(map[int][]byte)
		next := 0
		for result := range results {
			if collectorErr != nil {
				continue // keep draining so workers never block on send
			}
			if result.err != nil {
				collectorErr = fmt.Errorf("packing chunk %d: %w", result.seq, result.err)
				continue
			}
			pending[result.seq] = result.payload
			for {
				payload, ok := pending[next]
				if !ok {
					break
				}
				body.Write(stream.AppendEnvelope(nil, payload))
				delete(pending, next)
				next++
			}
		}
	}()

	workerErr := g.Wait()
	close(results)
	<-collectorDone

	if workerErr != nil {
		return workerErr
	}
	return collectorErr
}

// decompressBody parses the decrypted compact stream and runs the inverse
// pipeline. The worker count is independent of the one used to compress;
// the chunk envelopes are self-describing.
func decompressBody(body []byte, w io.Writer, o *Options) error {
	h, pos, err := stream.ParseHeader(body)
	if err != nil {
		return err
	}
	codec := &chunkCodec{
		fasta:    h.Fasta,
		justPlus: h.JustPlus,
		hdr:      packer.Build(h.HdrAlpha),
	}
	if !h.Fasta {
		codec.qs = packer.Build(h.QsAlpha)
	}
	var seed uint64
	if h.Shuffled {
		seed = crypt.ShuffleSeed(o.Password)
	}
	o.logf("header alphabet: %d chars, %s", len(h.HdrAlpha), codec.hdr.Category())
	if codec.qs != nil {
		o.logf("quality-score alphabet: %d chars, %s", len(h.QsAlpha), codec.qs.Category())
	}

	if o.Workers == 1 {
		return decompressSingle(body, pos, w, codec, h.Shuffled, seed)
	}
	return decompressParallel(body, pos, w, codec, h.Shuffled, seed, o.Workers)
}

func decompressSingle(body []byte, pos int, w io.Writer, codec *chunkCodec, shuffled bool, seed uint64) error {
	for {
		payload, next, done, err := stream.NextChunk(body, pos)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		pos = next
		if shuffled {
			crypt.Unshuffle(payload, seed)
		}
		text, err := codec.decode(payload)
		if err != nil {
			return err
		}
		if _, err := w.Write(text); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
}

type decompressJob struct {
	seq     int
	payload []byte
}

type decompressResult struct {
	seq  int
	text []byte
	err  error
}

func decompressParallel(body []byte, pos int, w io.Writer, codec *chunkCodec, shuffled bool, seed uint64, workers int) error {
	jobs := make(chan decompressJob, workers*2)
	results := make(chan decompressResult, workers*2)

	g, ctx := errgroup.WithContext(context.Background())

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for job := range jobs {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				// Chunk payloads are disjoint subslices of body, so
				// unshuffling in place is safe across workers.
				if shuffled {
					crypt.Unshuffle(job.payload, seed)
				}
				text, err := codec.decode(job.payload)
				results <- decompressResult{seq: job.seq, text: text, err: err}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for seq := 0; ; seq++ {
			payload, next, done, err := stream.NextChunk(body, pos)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			pos = next
			select {
			case jobs <- decompressJob{seq: seq, payload: payload}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	var collectorErr error
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		pending := make(map[int][]byte)
		next := 0
		for result := range results {
			if collectorErr != nil {
				continue // keep draining so workers never block on send
			}
			if result.err != nil {
				collectorErr = fmt.Errorf("unpacking chunk %d: %w", result.seq, result.err)
				continue
			}
			pending[result.seq] = result.text
			for {
				text, ok := pending[next]
				if !ok {
					break
				}
				if _, err := w.Write(text); err != nil {
					collectorErr = fmt.Errorf("writing output: %w", err)
					break
				}
				delete(pending, next)
				next++
			}
		}
	}()

	workerErr := g.Wait()
	close(results)
	<-collectorDone

	if workerErr != nil {
		return workerErr
	}
	return collectorErr
}
