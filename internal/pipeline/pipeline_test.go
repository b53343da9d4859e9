package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	maquibc "go.maquibc.dev/pkg"
	"go.maquibc.dev/pkg/vm"
)

func writeSource(t *testing.T, dir, contents string) string {
	t.Helper()

	path := filepath.Join(dir, "prog.mb")
	assert.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestRunProducesArtifacts(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, `
main(int n) {
  int i;
  int sum;
  sum = 0;
  for (i = 0; i < n; i = i + 1) {
    sum = sum + i;
  }
  write sum;
}`)

	paths := Paths{
		Source:  source,
		Tokens:  filepath.Join(dir, "prog.tok"),
		Listing: filepath.Join(dir, "prog.asm"),
		Image:   filepath.Join(dir, "prog.mbc"),
	}

	result, err := Run(paths, maquibc.Options{})
	assert.NoError(t, err)
	assert.True(t, result.Compiled.OK(), "errors: %v", result.Compiled.Errors)

	for _, p := range []string{paths.Tokens, paths.Listing, paths.Image} {
		info, statErr := os.Stat(p)
		assert.NoError(t, statErr)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestRunWithCompileErrorSkipsImage(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, `
main() {
  write missing;
}`)

	paths := Paths{
		Source:  source,
		Tokens:  filepath.Join(dir, "prog.tok"),
		Listing: filepath.Join(dir, "prog.asm"),
		Image:   filepath.Join(dir, "prog.mbc"),
	}

	result, err := Run(paths, maquibc.Options{})
	assert.NoError(t, err)
	assert.False(t, result.Compiled.OK())

	_, statErr := os.Stat(paths.Image)
	assert.Error(t, statErr, "the image must not be written when compilation fails")
}

func TestExecuteRunsImage(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, `
main(int n) {
  write n;
}`)

	paths := Paths{
		Source:  source,
		Tokens:  filepath.Join(dir, "prog.tok"),
		Listing: filepath.Join(dir, "prog.asm"),
		Image:   filepath.Join(dir, "prog.mbc"),
	}

	_, err := Run(paths, maquibc.Options{})
	assert.NoError(t, err)

	var out strings.Builder
	state, execErr := Execute(paths.Image, 0, strings.NewReader(""), &out, nil)
	assert.NoError(t, execErr)
	assert.Equal(t, vm.Halted, state)
}

func TestRunBuildTreeWritesTreeFile(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, `
main(int n) {
  write n;
}`)

	paths := Paths{
		Source:  source,
		Tokens:  filepath.Join(dir, "prog.tok"),
		Listing: filepath.Join(dir, "prog.asm"),
		Image:   filepath.Join(dir, "prog.mbc"),
		Tree:    filepath.Join(dir, "prog.tree"),
	}

	result, err := Run(paths, maquibc.Options{BuildTree: true})
	assert.NoError(t, err)
	assert.True(t, result.Compiled.OK())

	data, readErr := os.ReadFile(paths.Tree)
	assert.NoError(t, readErr)
	assert.Contains(t, string(data), "program")
}
