package maquibc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.maquibc.dev/internal/test"
)

func TestLexer(t *testing.T) {
	cases := []struct {
		name   string
		data   string
		fail   bool
		expect []Token
	}{
		{
			"minimal main",
			"main () {}",
			false,
			[]Token{
				{TokenID, "main", 1},
				{TokenLParen, "(", 1},
				{TokenRParen, ")", 1},
				{TokenLBrace, "{", 1},
				{TokenRBrace, "}", 1},
			},
		},
		{
			"keywords are case-insensitive",
			"IF Else WHILE",
			false,
			[]Token{
				{TokenIf, "IF", 1},
				{TokenElse, "Else", 1},
				{TokenWhile, "WHILE", 1},
			},
		},
		{
			"relational operators",
			"< > <= >= == != =",
			false,
			[]Token{
				{TokenLT, "<", 1},
				{TokenGT, ">", 1},
				{TokenLE, "<=", 1},
				{TokenGE, ">=", 1},
				{TokenEQ, "==", 1},
				{TokenNE, "!=", 1},
				{TokenAssign, "=", 1},
			},
		},
		{
			"number and identifier",
			"x123 456",
			false,
			[]Token{
				{TokenID, "x123", 1},
				{TokenNum, "456", 1},
			},
		},
		{
			"newlines advance the line counter",
			"int\nx;",
			false,
			[]Token{
				{TokenInt, "int", 1},
				{TokenID, "x", 2},
				{TokenSemi, ";", 2},
			},
		},
		{
			"illegal character fails",
			"int x @ y;",
			true,
			nil,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l := NewLexerFromReader(strings.NewReader(c.data))

			toks, err := l.Run()
			if c.fail {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, c.expect, toks)
		})
	}
}

func TestLexerWriteTokenFile(t *testing.T) {
	l := NewLexerFromReader(strings.NewReader("int x;"))

	var sb strings.Builder
	toks, err := l.WriteTokenFile(&sb)
	assert.NoError(t, err)
	assert.Len(t, toks, 3)
	assert.Equal(t, "int int\nID x\n; ;\n", sb.String())
}

// Use a package-level variable to avoid compiler optimization discarding the call.
var benchResult []Token

func benchmarkLexer(size int, b *testing.B) {
	for n := 0; n < b.N; n++ {
		b.StopTimer()
		data := test.GetRandomTokens(size)
		l := NewLexerFromReader(strings.NewReader(data))
		b.StartTimer()

		toks, err := l.Run()
		if err != nil {
			b.Fatal(err)
		}
		benchResult = toks
	}
}

func BenchmarkLexer100(b *testing.B) {
	benchmarkLexer(100, b)
}

func BenchmarkLexer1000(b *testing.B) {
	benchmarkLexer(1000, b)
}

func BenchmarkLexer10000(b *testing.B) {
	benchmarkLexer(10000, b)
}
