package maquibc

import (
	"fmt"
	"strings"

	"go.maquibc.dev/pkg/vm"
)

// Options configures the capacities and optional diagnostics of a [Compiler], generalizing the
// teacher's Target: where that struct picked an LLVM backend triple, this one picks the sizes of
// the symbol table and code vector and whether to build the optional syntax tree.
type Options struct {
	// SymbolCapacity bounds the symbol table. Zero selects [DefaultSymbolCapacity].
	SymbolCapacity int
	// CodeCapacity is a size hint for the code vector. Zero selects [DefaultCodeCapacity].
	CodeCapacity int
	// BuildTree requests the optional syntax-tree dump (spec.md §3's non-essential collaborator).
	BuildTree bool
}

func (o Options) withDefaults() Options {
	if o.SymbolCapacity == 0 {
		o.SymbolCapacity = DefaultSymbolCapacity
	}
	if o.CodeCapacity == 0 {
		o.CodeCapacity = DefaultCodeCapacity
	}
	return o
}

// Result holds everything produced by a single run of the front end.
type Result struct {
	Filename string
	Tokens   []Token
	Code     *vm.CodeVector
	Symbols  *SymbolTable
	Errors   []CompileError
	Tree     *Node
}

// OK reports whether compilation produced no diagnostics.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Compiler drives the lexer and parser over a source file and produces a [Result]. It does not
// itself write any of the pipeline's output artifacts (token file, listing, binary image); that
// is [internal/pipeline]'s job, so that Compiler stays usable directly from tests.
type Compiler struct {
	opts Options
}

// NewCompiler returns a compiler configured by opts.
func NewCompiler(opts Options) *Compiler {
	return &Compiler{opts: opts.withDefaults()}
}

// CompileFile lexes and parses the source file at path.
func (c *Compiler) CompileFile(path string) (*Result, error) {
	lexer, err := NewLexer(path)
	if err != nil {
		return nil, err
	}

	return c.compile(path, lexer)
}

// CompileSource lexes and parses source text, under the given display name.
func (c *Compiler) CompileSource(filename, source string) (*Result, error) {
	lexer := NewLexerFromReader(strings.NewReader(source))
	lexer.filename = filename

	return c.compile(filename, lexer)
}

func (c *Compiler) compile(filename string, lexer *Lexer) (*Result, error) {
	tokens, err := lexer.Run()
	if err != nil {
		return nil, err
	}

	tokenizer := NewReplayTokenizer(filename, tokens)
	parser := NewParserWithCapacity(tokenizer, c.opts.SymbolCapacity, c.opts.CodeCapacity)
	parser.BuildTree = c.opts.BuildTree

	if err := parser.Parse(); err != nil {
		return nil, err
	}

	return &Result{
		Filename: filename,
		Tokens:   tokens,
		Code:     parser.Code,
		Symbols:  parser.Symbols,
		Errors:   parser.Errors,
		Tree:     parser.Tree(),
	}, nil
}

// FormatErrors renders a [Result]'s errors, one per line, for CLI reporting.
func FormatErrors(errs []CompileError) string {
	s := ""
	for i, e := range errs {
		if i > 0 {
			s += "\n"
		}
		s += fmt.Sprintf("error: %s", e.Error())
	}
	return s
}
