// Command rezip is a thin CLI over the core DEFLATE-trace library: dump a
// gzip file's block structure, decompress it (zcat), re-chunk it into an
// rsync-friendly uncompressed stream (zero), or compute and print the
// encoder-decision trace against a gzip level (trace).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"os"

	bufreaderat "github.com/avvmoto/buf-readerat"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/elliotnunn/rezip"
	"github.com/elliotnunn/rezip/internal/bitio"
	"github.com/elliotnunn/rezip/internal/blockparser"
	"github.com/elliotnunn/rezip/internal/codes"
	"github.com/elliotnunn/rezip/internal/gzipheader"
	"github.com/elliotnunn/rezip/internal/plaintextcache"
	"github.com/elliotnunn/rezip/internal/serialise"
	"github.com/elliotnunn/rezip/internal/tracecodec"
	"github.com/elliotnunn/rezip/internal/window"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var run func([]string) error
	switch os.Args[1] {
	case "dump":
		run = runDump
	case "zcat":
		run = runZcat
	case "zero":
		run = runZero
	case "trace":
		run = runTrace
	default:
		usage()
		os.Exit(2)
	}

	if err := run(os.Args[2:]); err != nil {
		slog.Error("rezip command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: rezip <dump|zcat|zero|trace> [flags] [file ...]")
}

// expandFiles turns a subcommand's positional arguments into a concrete
// file list, expanding any doublestar glob pattern (e.g. "**/*.gz") against
// the local filesystem. No arguments means "read stdin".
func expandFiles(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	var out []string
	for _, pattern := range args {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			// Not a glob, or a glob with no hits: treat literally so a
			// plain filename argument still works.
			matches = []string{pattern}
		}
		out = append(out, matches...)
	}
	return out, nil
}

// openEach runs fn once per expanded input file (or once over stdin if no
// files were given), closing each file afterward.
func openEach(args []string, fn func(name string, r io.Reader) error) error {
	files, err := expandFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fn("<stdin>", bufio.NewReader(os.Stdin))
	}

	for _, name := range files {
		slog.Debug("opening input", "file", name)
		if err := func() error {
			f, err := os.Open(name)
			if err != nil {
				return err
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return err
			}

			// Buffer random-access reads over the file through a small
			// chunked ReaderAt cache, then present it to the gzip header
			// reader and block parser as a plain sequential io.Reader.
			ra := bufreaderat.NewBufReaderAt(f, 64*1024)
			sec := io.NewSectionReader(ra, 0, info.Size())

			return fn(name, sec)
		}(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// plaintextSource builds a restartable plaintextcache.Source over the gzip
// member stored at path: each call reopens the file and replays header
// parsing and block decompression from the start, which is what lets a
// plaintextcache.ReaderAt built on top restart decompression after a seek
// back without holding every open file's parser state alive between reads.
func plaintextSource(path string) plaintextcache.Source {
	return func() func() ([]byte, error) {
		f, err := os.Open(path)
		if err != nil {
			return func() ([]byte, error) { return nil, err }
		}

		info, err := f.Stat()
		if err != nil {
			f.Close()
			return func() ([]byte, error) { return nil, err }
		}
		ra := bufreaderat.NewBufReaderAt(f, 64*1024)
		sec := io.NewSectionReader(ra, 0, info.Size())

		if _, err := gzipheader.DiscardHeader(sec); err != nil {
			f.Close()
			return func() ([]byte, error) { return nil, err }
		}

		dictionary := window.New()
		parser := blockparser.New(bitio.NewReader(sec))
		closed := false
		closeOnce := func() {
			if !closed {
				closed = true
				f.Close()
			}
		}

		return func() ([]byte, error) {
			block, ok, err := parser.Next()
			if err != nil {
				closeOnce()
				return nil, err
			}
			if !ok {
				closeOnce()
				return nil, io.EOF
			}
			var buf writeCounter
			if err := serialise.DecompressBlock(&buf, dictionary, block); err != nil {
				closeOnce()
				return nil, err
			}
			return buf.b, nil
		}
	}
}

// zcatRange serves a single byte range of each named file's decompressed
// plaintext through a plaintextcache.ReaderAt, exercising the random-access
// read path (e.g. an HTTP range server over a reconstructed file) the cache
// exists for. Unlike the sequential subcommands this can't read from stdin:
// a ReaderAt restarts decompression from byte zero on a seek back, which an
// unseekable pipe can't support.
func zcatRange(args []string, offset, length int64, out io.Writer) error {
	files, err := expandFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("-offset requires at least one file argument (stdin can't be rewound)")
	}

	n := length
	if n < 0 {
		n = plaintextcache.BlockSize
	}
	buf := make([]byte, n)

	for _, name := range files {
		slog.Debug("random-access read", "file", name, "offset", offset, "length", n)
		ra := plaintextcache.New(name, plaintextSource(name))
		read, err := ra.ReadAt(buf, offset)
		if err != nil && err != io.EOF {
			return fmt.Errorf("%s: %w", name, err)
		}
		if _, err := out.Write(buf[:read]); err != nil {
			return err
		}
	}
	return nil
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	fs.Parse(args)

	return openEach(fs.Args(), func(name string, r io.Reader) error {
		if _, err := gzipheader.DiscardHeader(r); err != nil {
			return err
		}

		parser := blockparser.New(bitio.NewReader(r))
		fmt.Printf("%s:\n", name)
		for id := 0; ; id++ {
			block, ok, err := parser.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			dumpBlock(id, block)
		}
		return nil
	})
}

func dumpBlock(id int, block codes.Block) {
	fmt.Printf("block %d:\n", id)
	switch block.Kind {
	case codes.Uncompressed:
		fmt.Printf(" - uncompressed: %d bytes\n", len(block.Raw))
	case codes.FixedHuffman:
		fmt.Println(" - fixed huffman:")
		dumpCodes(block.Codes)
	case codes.DynamicHuffman:
		fmt.Printf(" - dynamic huffman: %d tree bits\n", len(block.TreeBits))
		dumpCodes(block.Codes)
	}
}

func dumpCodes(list []codes.Code) {
	for _, c := range list {
		if lit, ok := c.AsLiteral(); ok {
			fmt.Printf("    - lit: 0x%02x %q\n", lit, rune(lit))
			continue
		}
		ref, _ := c.AsReference()
		fmt.Printf("    - backref: %d byte(s) back, %d bytes long\n", ref.Dist, ref.Run())
	}
}

func runZcat(args []string) error {
	fs := flag.NewFlagSet("zcat", flag.ExitOnError)
	offset := fs.Int64("offset", -1, "decompressed byte offset to start at; triggers a random-access read through plaintextcache instead of a sequential decompress")
	length := fs.Int64("length", -1, "number of decompressed bytes to read, used with -offset (default one cache block)")
	fs.Parse(args)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	if *offset >= 0 {
		if err := zcatRange(fs.Args(), *offset, *length, out); err != nil {
			return err
		}
		return out.Flush()
	}

	return openEach(fs.Args(), func(name string, r io.Reader) error {
		if _, err := gzipheader.DiscardHeader(r); err != nil {
			return err
		}

		dictionary := window.New()
		parser := blockparser.New(bitio.NewReader(r))
		for {
			block, ok, err := parser.Next()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := serialise.DecompressBlock(out, dictionary, block); err != nil {
				return err
			}
		}
	})
}

func runTrace(args []string) error {
	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	level := fs.Int("level", 6, "gzip compression level (1-9) to emulate")
	fs.Parse(args)

	return openEach(fs.Args(), func(name string, r io.Reader) error {
		if _, err := gzipheader.DiscardHeader(r); err != nil {
			return err
		}

		var plaintext []byte
		var actual []codes.Code
		dictionary := window.New()
		parser := blockparser.New(bitio.NewReader(r))
		for {
			block, ok, err := parser.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}

			var buf writeCounter
			if err := serialise.DecompressBlock(&buf, dictionary, block); err != nil {
				return err
			}
			plaintext = append(plaintext, buf.b...)

			if block.Kind == codes.Uncompressed {
				continue
			}
			actual = append(actual, block.Codes...)
		}

		trace := rezip.TryGzip(*level, nil, plaintext, actual)

		var correct, lit, ref int
		for _, t := range trace {
			switch t.Kind {
			case codes.Correct:
				correct++
			case codes.ActuallyLiteral:
				lit++
			case codes.Actually:
				ref++
			}
		}
		slog.Info("trace summary", "file", name, "correct", correct, "literal_overrides", lit, "reference_overrides", ref)

		return writeAll(os.Stdout, tracecodec.Verify(trace))
	})
}

// writeCounter is an io.Writer that also accumulates everything written,
// used to recover the plaintext a block decompresses to without a second
// pass over the dictionary.
type writeCounter struct{ b []byte }

func (w *writeCounter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

func writeAll(w io.Writer, p []byte) error {
	_, err := w.Write(p)
	return err
}

// runZero re-chunks a gzip file's decompressed payload into a sequence of
// uncompressed DEFLATE blocks, split at content-defined boundaries by a
// simple rolling byte-sum checksum (the "rsync" chunker): each resulting
// member differs from the input by at most the bytes actually changed
// since the member was last produced this way, which keeps an rsync-style
// binary diff small even though the bytes are no longer Huffman-coded.
func runZero(args []string) error {
	fs := flag.NewFlagSet("zero", flag.ExitOnError)
	fs.Parse(args)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	return openEach(fs.Args(), func(name string, r io.Reader) error {
		header, err := gzipheader.DiscardHeader(r)
		if err != nil {
			return err
		}
		if _, err := out.Write(header); err != nil {
			return err
		}

		dictionary := window.New()
		parser := blockparser.New(bitio.NewReader(r))
		var plaintext []byte
		for {
			block, ok, err := parser.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			var buf writeCounter
			if err := serialise.DecompressBlock(&buf, dictionary, block); err != nil {
				return err
			}
			plaintext = append(plaintext, buf.b...)
		}

		writer := bitio.NewWriter(out)
		csum := crc32.NewIEEE()
		rest := plaintext
		for len(rest) > 0 {
			chunk := rsyncChunk(rest)
			rest = rest[len(chunk):]

			if err := writer.WriteBit(len(rest) == 0); err != nil {
				return err
			}
			if err := serialise.CompressBlock(writer, codes.Block{Kind: codes.Uncompressed, Raw: chunk}); err != nil {
				return err
			}
			csum.Write(chunk)
		}

		var trailer [8]byte
		putLE32(trailer[0:4], csum.Sum32())
		putLE32(trailer[4:8], uint32(len(plaintext)))
		_, err = out.Write(trailer[:])
		return err
	})
}

const (
	rsyncMin = 8 * 1024
	rsyncMod = 4 * 1024
	rsyncMax = 64 * 1024
)

// rsyncChunk returns a prefix of data: at least rsyncMin bytes (or all of
// data, if shorter), extended byte by byte up to rsyncMax until the
// trailing rsyncMin-byte window's additive checksum is a multiple of
// rsyncMod, matching the reference repacker's chunk boundary rule exactly.
func rsyncChunk(data []byte) []byte {
	if len(data) <= rsyncMin {
		return data
	}

	sum := 0
	for _, b := range data[:rsyncMin] {
		sum += int(b)
	}

	end := rsyncMin
	for end < len(data) && end < rsyncMax {
		if sum%rsyncMod == 0 {
			break
		}
		sum += int(data[end]) - int(data[end-rsyncMin])
		end++
	}
	return data[:end]
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
