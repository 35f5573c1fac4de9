// cryfa compacts and encrypts FASTA/FASTQ files, and inverts its own output.
package main

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/cryfa/cryfa/internal/compact"
	"github.com/cryfa/cryfa/internal/stream"
)

const (
	exitSuccess = 0
	exitError   = 1
)

type config struct {
	keyFile    string
	workers    int
	decrypt    bool
	noShuffle  bool
	modernKDF  bool
	verbose    bool
	outputFile string
	inputFile  string
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, done := parseFlags()
	if done {
		return exitSuccess
	}

	pass, err := readPassword(cfg.keyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}

	input, cleanup, err := openInput(cfg.inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	defer cleanup()

	output, cleanup, err := openOutput(cfg.outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	defer cleanup()

	if err := execute(cfg, pass, input, output); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	return exitSuccess
}

func parseFlags() (config, bool) {
	var cfg config
	var showHelp, showAbout bool

	flag.StringVar(&cfg.keyFile, "k", "", "password file (required)")
	flag.IntVar(&cfg.workers, "t", 0, "worker count (default: NumCPU)")
	flag.BoolVar(&cfg.decrypt, "d", false, "decrypt and decompress mode")
	flag.BoolVar(&cfg.noShuffle, "s", false, "disable payload shuffling")
	flag.BoolVar(&cfg.modernKDF, "kdf", false, "derive key/IV with PBKDF2 instead of the legacy construction")
	flag.BoolVar(&cfg.verbose, "v", false, "diagnostic logs on stderr")
	flag.StringVar(&cfg.outputFile, "o", "", "output file (default: stdout)")
	flag.BoolVar(&showHelp, "h", false, "show help")
	flag.BoolVar(&showAbout, "a", false, "show about")

	flag.Usage = usage
	flag.Parse()

	if showHelp {
		flag.Usage()
		return cfg, true
	}
	if showAbout {
		about()
		return cfg, true
	}

	if args := flag.Args(); len(args) > 0 {
		cfg.inputFile = args[len(args)-1]
	}
	return cfg, false
}

func usage() {
	fmt.Fprintf(os.Stderr, `cryfa - FASTA/FASTQ compaction plus encryption

Usage:
  cryfa -k pass.txt [options] input.fq          Compact and encrypt
  cryfa -k pass.txt -d [options] input.cryfa    Decrypt and expand

Options:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  cryfa -k pass.txt in.fq > in.cryfa            Encrypt to stdout
  cryfa -k pass.txt -o in.cryfa in.fq.gz        Encrypt gzip input
  cryfa -k pass.txt -d in.cryfa > in.fq         Decrypt
  cryfa -k pass.txt -t 8 -s in.fa               8 workers, no shuffle
`)
}

func about() {
	fmt.Printf("cryfa v%d.%d - FASTA/FASTQ compaction plus encryption\n",
		stream.VersionMajor, stream.VersionMinor)
}

func readPassword(keyFile string) ([]byte, error) {
	if keyFile == "" {
		return nil, errors.New("no password file has been set (-k)")
	}
	pass, err := os.ReadFile(keyFile) //nolint:gosec // CLI tool needs to read user-specified files
	if err != nil {
		return nil, fmt.Errorf("cannot read password file: %w", err)
	}
	return pass, nil
}

// openInput returns a seekable view of the input, transparently expanding
// gzip-compressed files. Stdin and gzip input are buffered in memory; the
// discovery pass needs to rewind.
func openInput(path string) (io.ReadSeeker, func(), error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read stdin: %w", err)
		}
		rs, err := maybeGunzip(path, data)
		return rs, func() {}, err
	}

	f, err := os.Open(path) //nolint:gosec // CLI tool needs to open user-specified files
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open input: %w", err)
	}
	cleanup := func() { _ = f.Close() }

	var magic [2]byte
	n, err := f.ReadAt(magic[:], 0)
	if err != nil && !errors.Is(err, io.EOF) {
		cleanup()
		return nil, nil, fmt.Errorf("cannot inspect input: %w", err)
	}
	gzipMagic := n == 2 && magic[0] == 0x1f && magic[1] == 0x8b
	if strings.HasSuffix(strings.ToLower(path), ".gz") || gzipMagic {
		data, err := io.ReadAll(f)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("cannot read input: %w", err)
		}
		rs, err := maybeGunzip(path, data)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return rs, cleanup, nil
	}
	return f, cleanup, nil
}

func maybeGunzip(path string, data []byte) (io.ReadSeeker, error) {
	isGz := strings.HasSuffix(strings.ToLower(path), ".gz") ||
		(len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b)
	if !isGz {
		return bytes.NewReader(data), nil
	}
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot open gzip input: %w", err)
	}
	defer gz.Close() //nolint:errcheck // reader close during cleanup
	plain, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("cannot expand gzip input: %w", err)
	}
	return bytes.NewReader(plain), nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		bw := bufio.NewWriterSize(os.Stdout, 1<<20)
		return bw, func() { _ = bw.Flush() }, nil
	}
	f, err := os.Create(path) //nolint:gosec // CLI tool needs to create user-specified files
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create output: %w", err)
	}
	bw := bufio.NewWriterSize(f, 1<<20)
	return bw, func() { _ = bw.Flush(); _ = f.Close() }, nil
}

func execute(cfg config, pass []byte, input io.ReadSeeker, output io.Writer) error {
	opts := &compact.Options{
		Workers:        cfg.workers,
		DisableShuffle: cfg.noShuffle,
		ModernKDF:      cfg.modernKDF,
		Verbose:        cfg.verbose,
		Password:       pass,
	}
	if cfg.decrypt {
		return compact.Decompress(input, output, opts)
	}
	return compact.Compress(input, output, opts)
}
