// Command maquibc compiles a single source file to the stack-machine bytecode format and,
// unless -c is given, executes the result immediately.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.maquibc.dev/internal/pipeline"
	maquibc "go.maquibc.dev/pkg"
	"go.maquibc.dev/pkg/vm"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		compileOnly = flag.Bool("c", false, "compile only; do not execute the resulting image")
		symbolCap   = flag.Int("symbols", 0, "symbol table capacity (0 selects the default)")
		codeCap     = flag.Int("code", 0, "code vector size hint (0 selects the default)")
		stackCap    = flag.Int("stack", 0, "machine stack capacity (0 selects the default)")
		buildTree   = flag.Bool("tree", false, "dump the syntax tree alongside the other artifacts")
		trace       = flag.Bool("trace", false, "trace each instruction executed to stderr")
		traceStack  = flag.Bool("trace-stack", false, "include the live stack (cells 0..top) in -trace output")
		outDir      = flag.String("o", "", "output directory for artifacts (default: alongside the source)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] source.mb\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 2
	}

	source := flag.Arg(0)
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	dir := *outDir
	if dir == "" {
		dir = filepath.Dir(source)
	}

	paths := pipeline.Paths{
		Source:  source,
		Tokens:  filepath.Join(dir, base+".tok"),
		Listing: filepath.Join(dir, base+".asm"),
		Image:   filepath.Join(dir, base+".mbc"),
	}
	if *buildTree {
		paths.Tree = filepath.Join(dir, base+".tree")
	}

	result, err := pipeline.Run(paths, maquibc.Options{
		SymbolCapacity: *symbolCap,
		CodeCapacity:   *codeCap,
		BuildTree:      *buildTree,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if !result.Compiled.OK() {
		fmt.Fprintln(os.Stderr, maquibc.FormatErrors(result.Compiled.Errors))
		return 1
	}

	fmt.Fprintf(os.Stderr, "wrote %s, %s, %s\n", paths.Tokens, paths.Listing, paths.Image)

	if *compileOnly {
		return 0
	}

	var traceIO io.Writer
	if *trace {
		traceIO = os.Stderr
	}

	state, runErr := pipeline.ExecuteTraced(paths.Image, *stackCap, os.Stdin, os.Stdout, traceIO, *traceStack)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
	}

	if state == vm.Faulted {
		return 1
	}
	return 0
}
