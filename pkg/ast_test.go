package maquibc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintTree(t *testing.T) {
	root := NewNode("program")
	root.AddChild(NewNode("main_decl: main")).AddChild(NewNode("write_stat"))

	var sb strings.Builder
	PrintTree(&sb, root)

	assert.Equal(t, "program\n  main_decl: main\n  write_stat\n", sb.String())
}

func TestPrintTreeNil(t *testing.T) {
	var sb strings.Builder
	PrintTree(&sb, nil)
	assert.Empty(t, sb.String())
}
