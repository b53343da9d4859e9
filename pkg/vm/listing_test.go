package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteListing(t *testing.T) {
	c := NewCodeVector(2)
	c.Emit(BR, 3)
	c.Emit(RETURN, 0)

	var sb strings.Builder
	assert.NoError(t, WriteListing(&sb, c))
	assert.Equal(t, "   0 BR 3\n   1 RETURN\n", sb.String())
}
