package vm

import (
	"bufio"
	"fmt"
	"io"
)

// WriteListing writes the human-readable text listing of c to w: one line per instruction, of
// the form " iii OPCODE ooo" when the opcode carries a meaningful operand, " iii OPCODE"
// otherwise.
func WriteListing(w io.Writer, c *CodeVector) error {
	bw := bufio.NewWriter(w)

	for i, instr := range c.Instructions() {
		var err error
		if instr.Op.hasOperand() {
			_, err = fmt.Fprintf(bw, " %3d %s %d\n", i, instr.Op, instr.Operand)
		} else {
			_, err = fmt.Fprintf(bw, " %3d %s\n", i, instr.Op)
		}

		if err != nil {
			return fmt.Errorf("maquibc: write bytecode listing: %w", err)
		}
	}

	return bw.Flush()
}
