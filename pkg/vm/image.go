package vm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"
)

// opcodeFieldSize is the fixed width, in bytes, of the textual opcode field in a binary record.
// The longest opcode name ("RETURN") is 6 bytes; 10 leaves generous room and matches the source's
// own record layout.
const opcodeFieldSize = 10

// recordSize is the size in bytes of one binary-encoded instruction: the opcode field plus a
// 32-bit operand.
const recordSize = opcodeFieldSize + 4

// byteOrder is the host byte order used to encode operands. The format has no header describing
// endianness, so a binary image is only portable between machines that agree on it.
var byteOrder = hostByteOrder()

// hostByteOrder reports the byte order of the machine the program is running on.
func hostByteOrder() binary.ByteOrder {
	probe := uint16(1)
	if *(*byte)(unsafe.Pointer(&probe)) == 1 {
		return binary.LittleEndian
	}

	return binary.BigEndian
}

// WriteImage encodes every instruction in c as a binary image and writes it to w.
func WriteImage(w io.Writer, c *CodeVector) error {
	bw := bufio.NewWriter(w)

	var field [opcodeFieldSize]byte
	var operand [4]byte

	for _, instr := range c.Instructions() {
		field = [opcodeFieldSize]byte{}
		name := instr.Op.String()
		if len(name) > opcodeFieldSize {
			return fmt.Errorf("maquibc: opcode name %q exceeds %d-byte field", name, opcodeFieldSize)
		}
		copy(field[:], name)

		if _, err := bw.Write(field[:]); err != nil {
			return fmt.Errorf("maquibc: write bytecode image: %w", err)
		}

		byteOrder.PutUint32(operand[:], uint32(instr.Operand))
		if _, err := bw.Write(operand[:]); err != nil {
			return fmt.Errorf("maquibc: write bytecode image: %w", err)
		}
	}

	return bw.Flush()
}

// ReadImage decodes a binary image from r into a [CodeVector]. It fails if the stream length is
// not a multiple of the record size.
func ReadImage(r io.Reader) (*CodeVector, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("maquibc: read bytecode image: %w", err)
	}

	if len(data)%recordSize != 0 {
		return nil, fmt.Errorf("maquibc: truncated bytecode image: %d bytes is not a multiple of %d", len(data), recordSize)
	}

	c := NewCodeVector(len(data) / recordSize)
	for off := 0; off < len(data); off += recordSize {
		field := data[off : off+opcodeFieldSize]
		name := trimZero(field)

		op, ok := ParseOpcode(name)
		if !ok {
			return nil, fmt.Errorf("maquibc: unknown opcode %q in bytecode image", name)
		}

		operand := int32(byteOrder.Uint32(data[off+opcodeFieldSize : off+recordSize]))
		c.Emit(op, operand)
	}

	return c, nil
}

// trimZero returns the leading non-zero run of field as a string.
func trimZero(field []byte) string {
	for i, b := range field {
		if b == 0 {
			return string(field[:i])
		}
	}

	return string(field)
}
