// Package test holds generators for the maquibc test suite.
package test

import (
	"math/rand"
	"strings"
)

// validTokens enumerates one lexeme of every token category the lexer recognizes: keywords,
// punctuators, relational operators, an identifier, and a number.
const validTokens = "int if else while for read write function call ( ) { } , ; : + - * / = < > ! <= >= == != x n sum 123 0 42"

// GetRandomTokens returns size space-separated tokens drawn from the grammar's lexeme set.
func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

// GetRandomTokensWithSep is [GetRandomTokens] with an explicit separator between lexemes.
func GetRandomTokensWithSep(size int, sep string) string {
	valid := strings.Fields(validTokens)

	var toks []string
	for len(toks) < size {
		toks = append(toks, valid[rand.Intn(len(valid))])
	}

	return strings.Join(toks, sep)
}

// Program renders a minimal but complete well-formed program: a two-parameter helper function
// called from main, read/write statements, and one loop, so generated fixtures exercise every
// opcode family without needing a real parser to build them.
func Program() string {
	return strings.Join([]string{
		"function add(int a, int b) {",
		"  int r;",
		"  r = a + b;",
		"  write r;",
		"}",
		"",
		"main(int argc) {",
		"  int i;",
		"  int total;",
		"  total = 0;",
		"  for (i = 0; i < argc; i = i + 1) {",
		"    write total;",
		"  }",
		"  read total;",
		"  call add(total, argc);",
		"}",
	}, "\n")
}
