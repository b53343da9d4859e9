// Package pipeline drives the four pipeline artifacts spec.md §1 names — token file, bytecode
// listing, binary bytecode image, and execution — from a single source file. It is the
// concurrent counterpart to [go.maquibc.dev/pkg.Compiler]: where Compiler stays single-threaded
// and easy to unit test, Run fans the listing and binary-image writes out onto their own
// goroutines once the code vector is final, joined with golang.org/x/sync/errgroup exactly as the
// teacher's own Compiler.build pipes IR text to clang on one goroutine while reading its output
// on another.
package pipeline

import (
	"fmt"
	"io"
	"os"

	"go.maquibc.dev/pkg"
	"go.maquibc.dev/pkg/vm"
	"golang.org/x/sync/errgroup"
)

// Paths names the output files Run produces alongside the source. Tree is only written when
// Run is called with Options.BuildTree set.
type Paths struct {
	Source  string
	Tokens  string
	Listing string
	Image   string
	Tree    string
}

// Result is what Run produced, for callers that want to inspect it further (e.g. to execute the
// image immediately instead of re-reading it from disk).
type Result struct {
	Compiled *maquibc.Result
}

// Run executes the lex → parse/codegen → emit stage of the pipeline, writing the token file,
// text listing, and binary image to the paths in p. If the source fails to compile, the token
// file is still written (tokens are produced before any semantic error can occur) but the listing
// and image are not, and the returned error is nil — check result.Compiled.OK() and
// result.Compiled.Errors for diagnostics, the same split the front end itself uses.
func Run(p Paths, opts maquibc.Options) (*Result, error) {
	lexer, err := maquibc.NewLexer(p.Source)
	if err != nil {
		return nil, err
	}

	tokenFile, err := os.Create(p.Tokens)
	if err != nil {
		return nil, fmt.Errorf("maquibc: create token file: %w", err)
	}
	defer tokenFile.Close()

	tokens, err := lexer.WriteTokenFile(tokenFile)
	if err != nil {
		return nil, err
	}

	tokenizer := maquibc.NewReplayTokenizer(p.Source, tokens)
	parser := maquibc.NewParserWithCapacity(tokenizer, opts.SymbolCapacity, opts.CodeCapacity)
	parser.BuildTree = opts.BuildTree

	if err := parser.Parse(); err != nil {
		return nil, err
	}

	compiled := &maquibc.Result{
		Filename: p.Source,
		Tokens:   tokens,
		Code:     parser.Code,
		Symbols:  parser.Symbols,
		Errors:   parser.Errors,
		Tree:     parser.Tree(),
	}

	if !compiled.OK() {
		return &Result{Compiled: compiled}, nil
	}

	if err := emit(p, parser.Code); err != nil {
		return nil, err
	}

	if opts.BuildTree && p.Tree != "" {
		if err := writeTo(p.Tree, func(w io.Writer) error {
			maquibc.PrintTree(w, compiled.Tree)
			return nil
		}); err != nil {
			return nil, err
		}
	}

	return &Result{Compiled: compiled}, nil
}

// emit writes the text listing and the binary image concurrently.
func emit(p Paths, code *vm.CodeVector) error {
	var g errgroup.Group

	g.Go(func() error {
		return writeTo(p.Listing, func(w io.Writer) error {
			return vm.WriteListing(w, code)
		})
	})

	g.Go(func() error {
		return writeTo(p.Image, func(w io.Writer) error {
			return vm.WriteImage(w, code)
		})
	})

	return g.Wait()
}

func writeTo(path string, f func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("maquibc: create %s: %w", path, err)
	}
	defer file.Close()

	return f(file)
}

// Execute loads the binary image at path and runs it on a fresh [vm.Machine] against the given
// I/O, returning the terminal state. trace may be nil to disable instruction tracing.
func Execute(imagePath string, stackCapacity int, in io.Reader, out io.Writer, trace io.Writer) (vm.State, error) {
	return ExecuteTraced(imagePath, stackCapacity, in, out, trace, false)
}

// ExecuteTraced is [Execute] with control over whether trace output includes the full stack.
func ExecuteTraced(imagePath string, stackCapacity int, in io.Reader, out io.Writer, trace io.Writer, traceStack bool) (vm.State, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return vm.Faulted, fmt.Errorf("maquibc: open bytecode image: %w", err)
	}
	defer file.Close()

	code, err := vm.ReadImage(file)
	if err != nil {
		return vm.Faulted, err
	}

	machine := vm.NewMachine(code, stackCapacity)
	machine.In = in
	machine.Out = out
	machine.Trace = trace
	machine.TraceStack = traceStack

	state, faultErr := machine.Run()
	return state, faultErr
}
