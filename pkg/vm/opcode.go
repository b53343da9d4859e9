// Package vm implements the binary bytecode format and the stack abstract machine that executes
// it. The package is shared between the front end, which builds a [CodeVector] during code
// generation, and the machine itself, which loads a binary image and interprets it.
package vm

import "fmt"

// Opcode is the closed set of instructions the machine understands.
type Opcode uint8

//go:generate stringer -type=Opcode
const (
	LOAD Opcode = iota
	LOADI
	STO
	STI // reserved, never emitted by the compiler
	ADD
	SUB
	MULT
	DIV
	BR
	BRF
	EQ
	NOTEQ
	GT
	LES
	GE
	LE
	AND
	OR
	NOT
	IN
	OUT
	RETURN
	ENTER
	CAL
	PAS
)

var opcodeNames = [...]string{
	LOAD: "LOAD", LOADI: "LOADI", STO: "STO", STI: "STI",
	ADD: "ADD", SUB: "SUB", MULT: "MULT", DIV: "DIV",
	BR: "BR", BRF: "BRF",
	EQ: "EQ", NOTEQ: "NOTEQ", GT: "GT", LES: "LES", GE: "GE", LE: "LE",
	AND: "AND", OR: "OR", NOT: "NOT",
	IN: "IN", OUT: "OUT",
	RETURN: "RETURN", ENTER: "ENTER", CAL: "CAL", PAS: "PAS",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}

	return fmt.Sprintf("OPCODE(%d)", op)
}

// hasOperand reports whether op carries a semantically meaningful operand. Every other opcode
// still stores an operand slot in the binary encoding, but its value is ignored by the machine.
func (op Opcode) hasOperand() bool {
	switch op {
	case LOAD, LOADI, STO, BR, BRF, CAL, ENTER:
		return true
	default:
		return false
	}
}

// ParseOpcode looks up the opcode whose name is s, as found in a text listing or assembled from
// an opcode string. It is the inverse of [Opcode.String].
func ParseOpcode(s string) (Opcode, bool) {
	for op, name := range opcodeNames {
		if name == s {
			return Opcode(op), true
		}
	}

	return 0, false
}
