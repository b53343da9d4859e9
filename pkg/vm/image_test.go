package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageRoundTrip(t *testing.T) {
	c := NewCodeVector(4)
	c.Emit(BR, 5)
	c.Emit(LOADI, -17)
	c.Emit(ADD, 0)
	c.Emit(RETURN, 0)

	var buf bytes.Buffer
	assert.NoError(t, WriteImage(&buf, c))
	assert.Equal(t, 4*recordSize, buf.Len())

	got, err := ReadImage(&buf)
	assert.NoError(t, err)
	assert.Equal(t, c.Instructions(), got.Instructions())
}

func TestReadImageTruncated(t *testing.T) {
	_, err := ReadImage(bytes.NewReader(make([]byte, recordSize-1)))
	assert.Error(t, err)
}

func TestReadImageUnknownOpcode(t *testing.T) {
	rec := make([]byte, recordSize)
	copy(rec, "BOGUS")

	_, err := ReadImage(bytes.NewReader(rec))
	assert.Error(t, err)
}

func TestTrimZero(t *testing.T) {
	field := make([]byte, opcodeFieldSize)
	copy(field, "ADD")
	assert.Equal(t, "ADD", trimZero(field))
}
