package maquibc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompilerCompileSourceOK(t *testing.T) {
	c := NewCompiler(Options{})

	res, err := c.CompileSource("ok.mb", `
main(int n) {
  write n;
}`)

	assert.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "ok.mb", res.Filename)
	assert.Nil(t, res.Tree, "no tree is built unless BuildTree is set")
}

func TestCompilerBuildTree(t *testing.T) {
	c := NewCompiler(Options{BuildTree: true})

	res, err := c.CompileSource("tree.mb", `
main(int n) {
  write n;
}`)

	assert.NoError(t, err)
	assert.True(t, res.OK())
	assert.NotNil(t, res.Tree)
	assert.Equal(t, "program", res.Tree.Label)
}

func TestCompilerCompileSourceLexError(t *testing.T) {
	c := NewCompiler(Options{})

	_, err := c.CompileSource("bad.mb", "main() { @ }")
	assert.Error(t, err)
}

func TestFormatErrors(t *testing.T) {
	c := NewCompiler(Options{})

	res, err := c.CompileSource("errs.mb", `
main() {
  write missing;
}`)
	assert.NoError(t, err)
	assert.False(t, res.OK())

	out := FormatErrors(res.Errors)
	assert.Contains(t, out, "error:")
	assert.Contains(t, out, "missing")
}
