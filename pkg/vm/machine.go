package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// defaultCapacity is the default size of the integer stack, matching the source's own choice.
const defaultCapacity = 100

// Machine is the stack abstract machine: a single instruction pointer, a fixed-capacity integer
// stack, and the base/top registers into it. All values are signed 32-bit integers; there is no
// heap and no register file.
type Machine struct {
	code     *CodeVector
	stack    []int32
	capacity int
	ip       int
	top      int
	base     int
	state    State
	fault    error

	// In and Out back the IN and OUT instructions. They default to os.Stdin and os.Stdout.
	In  io.Reader
	Out io.Writer

	// Trace, when set, makes Run write one line per executed instruction (and, if TraceStack is
	// also set, a stack-window dump) to Trace. Tracing is a debug aid, not part of the contract.
	Trace      io.Writer
	TraceStack bool

	inScanner *bufio.Scanner
}

// NewMachine returns a machine ready to execute code, with a stack of the given capacity.
func NewMachine(code *CodeVector, capacity int) *Machine {
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	return &Machine{
		code:     code,
		stack:    make([]int32, capacity),
		capacity: capacity,
		In:       os.Stdin,
		Out:      os.Stdout,
	}
}

// State returns the machine's current state.
func (m *Machine) State() State {
	return m.state
}

// Fault returns the error that drove the machine to the Faulted state, or nil.
func (m *Machine) Fault() error {
	return m.fault
}

// Run executes instructions until the machine halts or faults, and returns the terminal state.
func (m *Machine) Run() (State, error) {
	m.state = Running

	for m.state == Running {
		m.step()
	}

	return m.state, m.fault
}

// step fetches, advances ip past, and executes one instruction.
func (m *Machine) step() {
	if m.ip < 0 || m.ip >= m.code.Len() {
		m.abort(fmt.Errorf("maquibc: ip %d out of range [0, %d)", m.ip, m.code.Len()))
		return
	}

	index := m.ip
	instr := m.code.At(m.ip)
	m.ip++

	m.execute(instr)
	if m.state == Faulted {
		return
	}

	m.traceStep(index, instr)

	if m.ip == 0 {
		m.state = Halted
	}
}

func (m *Machine) execute(instr Instruction) {
	switch instr.Op {
	case LOAD:
		if !m.checkRead(m.base+int(instr.Operand)) || !m.checkPush(1) {
			return
		}
		m.stack[m.top] = m.stack[m.base+int(instr.Operand)]
		m.top++
	case LOADI:
		if !m.checkPush(1) {
			return
		}
		m.stack[m.top] = instr.Operand
		m.top++
	case STO:
		if !m.checkPop(1) || !m.checkWrite(m.base+int(instr.Operand)) {
			return
		}
		m.top--
		m.stack[m.base+int(instr.Operand)] = m.stack[m.top]
	case ADD:
		m.binaryOp(func(a, b int32) int32 { return a + b })
	case SUB:
		m.binaryOp(func(a, b int32) int32 { return a - b })
	case MULT:
		m.binaryOp(func(a, b int32) int32 { return a * b })
	case DIV:
		if !m.checkPop(2) {
			return
		}
		if m.stack[m.top-1] == 0 {
			m.abort(&DivideByZeroError{IP: m.ip - 1})
			return
		}
		m.top--
		m.stack[m.top-1] /= m.stack[m.top]
	case EQ:
		m.compareOp(func(a, b int32) bool { return a == b })
	case NOTEQ:
		m.compareOp(func(a, b int32) bool { return a != b })
	case GT:
		m.compareOp(func(a, b int32) bool { return a > b })
	case LES:
		m.compareOp(func(a, b int32) bool { return a < b })
	case GE:
		m.compareOp(func(a, b int32) bool { return a >= b })
	case LE:
		m.compareOp(func(a, b int32) bool { return a <= b })
	case AND:
		m.compareOp(func(a, b int32) bool { return a != 0 && b != 0 })
	case OR:
		m.compareOp(func(a, b int32) bool { return a != 0 || b != 0 })
	case NOT:
		if !m.checkPop(1) {
			return
		}
		if m.stack[m.top-1] == 0 {
			m.stack[m.top-1] = 1
		} else {
			m.stack[m.top-1] = 0
		}
	case BR:
		m.ip = int(instr.Operand)
	case BRF:
		if !m.checkPop(1) {
			return
		}
		m.top--
		if m.stack[m.top] == 0 {
			m.ip = int(instr.Operand)
		}
	case IN:
		v, err := m.readInt()
		if err != nil {
			m.abort(err)
			return
		}
		if !m.checkPush(1) {
			return
		}
		m.stack[m.top] = v
		m.top++
	case OUT:
		if !m.checkPop(1) {
			return
		}
		m.top--
		fmt.Fprintln(m.Out, m.stack[m.top])
	case ENTER:
		if !m.checkPush(int(instr.Operand)) {
			return
		}
		m.top += int(instr.Operand)
	case CAL:
		if !m.checkWrite(m.top) || !m.checkWrite(m.top+1) {
			return
		}
		m.stack[m.top] = int32(m.base)
		m.stack[m.top+1] = int32(m.ip)
		m.base = m.top
		m.ip = int(instr.Operand)
	case RETURN:
		if !m.checkRead(m.base) || !m.checkRead(m.base+1) {
			return
		}
		m.top = m.base
		m.ip = int(m.stack[m.top+1])
		m.base = int(m.stack[m.top])
	case PAS:
		if !m.checkPop(1) || !m.checkWrite(m.top+2) {
			return
		}
		m.top--
		m.stack[m.top+2] = m.stack[m.top]
	default:
		m.abort(&UnknownOpcodeError{IP: m.ip - 1, Op: instr.Op})
	}
}

func (m *Machine) binaryOp(f func(a, b int32) int32) {
	if !m.checkPop(2) {
		return
	}
	m.top--
	m.stack[m.top-1] = f(m.stack[m.top-1], m.stack[m.top])
}

func (m *Machine) compareOp(f func(a, b int32) bool) {
	if !m.checkPop(2) {
		return
	}
	m.top--
	if f(m.stack[m.top-1], m.stack[m.top]) {
		m.stack[m.top-1] = 1
	} else {
		m.stack[m.top-1] = 0
	}
}

// checkPush reports whether n more values can be pushed without exceeding the stack capacity.
func (m *Machine) checkPush(n int) bool {
	if m.top+n > m.capacity {
		m.abort(&StackOverflowError{Capacity: m.capacity})
		return false
	}

	return true
}

// checkPop reports whether n values are present above top to pop.
func (m *Machine) checkPop(n int) bool {
	if m.top-n < 0 {
		m.abort(&StackOverflowError{Capacity: m.capacity})
		return false
	}

	return true
}

func (m *Machine) checkRead(addr int) bool {
	if addr < 0 || addr >= m.capacity {
		m.abort(&StackOverflowError{Capacity: m.capacity})
		return false
	}

	return true
}

func (m *Machine) checkWrite(addr int) bool {
	if addr < 0 || addr >= m.capacity {
		m.abort(&StackOverflowError{Capacity: m.capacity})
		return false
	}

	return true
}

func (m *Machine) abort(err error) {
	m.state = Faulted
	m.fault = err
}

// readInt blocks reading one line from In and parses a signed decimal integer.
func (m *Machine) readInt() (int32, error) {
	if m.inScanner == nil {
		m.inScanner = bufio.NewScanner(m.In)
	}

	if !m.inScanner.Scan() {
		return 0, &MalformedInputError{Text: ""}
	}

	text := strings.TrimSpace(m.inScanner.Text())
	v, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, &MalformedInputError{Text: text}
	}

	return int32(v), nil
}

// traceStep writes an optional step line and stack dump to Trace.
func (m *Machine) traceStep(index int, instr Instruction) {
	if m.Trace == nil {
		return
	}

	if instr.Op.hasOperand() {
		fmt.Fprintf(m.Trace, "step %d: %3d %s %d\n", index, index, instr.Op, instr.Operand)
	} else {
		fmt.Fprintf(m.Trace, "step %d: %3d %s\n", index, index, instr.Op)
	}

	if m.TraceStack {
		m.dumpStack()
	}
}

func (m *Machine) dumpStack() {
	for i := 0; i <= m.top && i < m.capacity; i++ {
		marker := ""
		switch i {
		case m.top, m.base:
			if i == m.top && i == m.base {
				marker = "  <- top,base"
			} else if i == m.top {
				marker = "  <- top"
			} else {
				marker = "  <- base"
			}
		}

		fmt.Fprintf(m.Trace, "  [%d] %d%s\n", i, m.stack[i], marker)
	}
}
