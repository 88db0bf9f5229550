package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/arena"
	"github.com/wippyai/ocamlrep/pool"
	"github.com/wippyai/ocamlrep/schema"
	"github.com/wippyai/ocamlrep/transcoder"
	"github.com/wippyai/ocamlrep/wasmheap"
)

type options struct {
	typeExpr    string
	heap        string
	capacity    int
	depth       int
	verbose     bool
	interactive bool
}

func main() {
	var opts options
	flag.StringVar(&opts.typeExpr, "type", "", "WIT type of the document (e.g. list<tuple<string, u32>>)")
	flag.StringVar(&opts.heap, "heap", "arena", "Heap to encode into: arena or wasm")
	flag.IntVar(&opts.capacity, "capacity", 0, "Initial arena capacity in bytes")
	flag.IntVar(&opts.depth, "depth", 0, "Maximum depth to print (0 for no limit)")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging and heap metrics")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: repview [-type <wit type>] [-heap arena|wasm] [-depth N] [-v] <file>")
		fmt.Fprintln(os.Stderr, "       repview -i <file>  (interactive mode)")
		fmt.Fprintln(os.Stderr, "Input formats: .yaml .yml .json .toml .cbor")
		os.Exit(1)
	}

	if err := run(opts, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, path string) error {
	if opts.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer logger.Sync()
		arena.SetLogger(logger.Named("arena"))
		pool.SetLogger(logger.Named("pool"))
		wasmheap.SetLogger(logger.Named("wasmheap"))
	}

	stdoutTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if !stdoutTTY {
		color.NoColor = true
	}
	if opts.interactive && !stdoutTTY {
		return fmt.Errorf("interactive mode needs a terminal")
	}

	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	v, err := s.encode(opts.typeExpr, doc)
	if err != nil {
		return err
	}

	if opts.interactive {
		return runInteractive(path, v)
	}
	if err := dump(os.Stdout, v, opts.depth); err != nil {
		return err
	}
	if opts.verbose {
		s.report(os.Stderr)
	}
	return nil
}

// session owns the heap a document is encoded into.
type session struct {
	arena *arena.Arena
	heap  *wasmheap.Heap
}

func openSession(ctx context.Context, opts options) (*session, error) {
	switch opts.heap {
	case "arena":
		return &session{arena: arena.NewWithConfig(&arena.Config{InitialCapacity: opts.capacity})}, nil
	case "wasm":
		h, err := wasmheap.Instantiate(ctx, wasmheap.SimulatedRuntime, nil)
		if err != nil {
			return nil, fmt.Errorf("start wasm heap: %w", err)
		}
		return &session{heap: h}, nil
	default:
		return nil, fmt.Errorf("unknown heap %q", opts.heap)
	}
}

// encode converts doc as one root conversion, driven by the WIT type
// expression when one is given.
func (s *session) encode(typeExpr string, doc any) (ocamlrep.Value, error) {
	var a ocamlrep.Allocator = s.arena
	if s.heap != nil {
		p := pool.New(s.heap)
		defer p.Close()
		a = p
	}

	if typeExpr == "" {
		return encodeGeneric(a, doc)
	}
	t, err := schema.ParseType(typeExpr)
	if err != nil {
		return 0, err
	}
	return schema.AddRoot(a, t, doc)
}

// encodeGeneric maps the document without a type: maps become sorted map
// trees, sequences lists, null unit.
func encodeGeneric(a ocamlrep.Allocator, doc any) (v ocamlrep.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	return transcoder.AddRoot(a, doc), nil
}

func (s *session) report(w io.Writer) {
	if s.arena != nil {
		m := s.arena.Metrics()
		fmt.Fprintf(w, "arena: %d chunk(s), %d/%d words in use (%.1f%%)\n",
			m.Chunks, m.WordsInUse, m.CapacityWords, m.Utilization*100)
	}
	if s.heap != nil {
		fmt.Fprintf(w, "wasm heap: generation %d\n", s.heap.Generation())
	}
}

func (s *session) close(ctx context.Context) {
	if s.heap != nil {
		_ = s.heap.Close(ctx)
	}
}
