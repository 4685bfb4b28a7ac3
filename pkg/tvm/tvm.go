// Package tvm is the ternary virtual machine that runs TeaScript bytecode.
//
// A program is a flat sequence of 3-byte instructions: opcode, operand A and
// operand B. The machine has eight 32-bit registers, 256 words of memory and
// a comparison flag holding -1, 0 or +1.
package tvm

import (
	"fmt"
	"os"

	"teaos/pkg/console"
)

const (
	OpLOAD  byte = 0x01
	OpADD   byte = 0x02
	OpSUB   byte = 0x03
	OpMUL   byte = 0x04
	OpNEG   byte = 0x05
	OpOUT   byte = 0x06
	OpTAND  byte = 0x07
	OpTOR   byte = 0x08
	OpSTORE byte = 0x09
	OpLDMEM byte = 0x0A
	OpCMP   byte = 0x0B
	OpJMP   byte = 0x0C
	OpJEQ   byte = 0x0D
	OpJGT   byte = 0x0E
	OpJLT   byte = 0x0F
	OpHALT  byte = 0x10
	OpNOP   byte = 0x11
)

const (
	InstrSize         = 3
	NumRegs           = 8
	MemorySize        = 256
	DefaultStepBudget = 10000
)

type Outcome int

const (
	// Halted means a HALT or an undefined opcode was executed.
	Halted Outcome = iota
	// StepLimit means the step budget ran out.
	StepLimit
	// EndOfProgram means the program counter left the code.
	EndOfProgram
)

func (o Outcome) String() string {
	switch o {
	case Halted:
		return "halted"
	case StepLimit:
		return "step limit"
	case EndOfProgram:
		return "end of program"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

type Result struct {
	Outcome Outcome
	Steps   int
}

type Machine struct {
	Regs    [NumRegs]int32
	Memory  [MemorySize]int32
	PC      int
	Running bool
	Cmp     int32

	// Sink receives OUT lines. If nil, stdout is used.
	Sink console.Sink
}

var stdout = console.NewTerminal(os.Stdout, false)

func New(sink console.Sink) *Machine {
	return &Machine{Sink: sink}
}

func (m *Machine) sink() console.Sink {
	if m.Sink == nil {
		return stdout
	}
	return m.Sink
}

func (m *Machine) reg(idx byte) *int32 {
	return &m.Regs[idx&(NumRegs-1)]
}

// Reset zeroes registers, memory and flags.
func (m *Machine) Reset() {
	sink := m.Sink
	*m = Machine{Sink: sink}
}

// Execute runs code on a fresh machine.
func Execute(code []byte, budget int, sink console.Sink) (Result, *Machine) {
	m := New(sink)
	return m.Run(code, budget), m
}

// Run executes code from instruction 0 until it halts, leaves the code or
// has executed budget instructions. A budget of zero or less selects
// DefaultStepBudget.
func (m *Machine) Run(code []byte, budget int) Result {
	if budget <= 0 {
		budget = DefaultStepBudget
	}

	m.PC = 0
	m.Running = true
	defer func() { m.Running = false }()

	steps := 0
	for steps < budget {
		off := m.PC * InstrSize
		if m.PC < 0 || off+InstrSize > len(code) {
			return Result{Outcome: EndOfProgram, Steps: steps}
		}
		inst := Instruction{Op: code[off], A: code[off+1], B: code[off+2]}
		m.PC++
		steps++
		if !m.Exec(inst) {
			return Result{Outcome: Halted, Steps: steps}
		}
	}
	return Result{Outcome: StepLimit, Steps: steps}
}

// Exec applies one instruction to the machine. The program counter must
// already point past it. Exec reports false when the instruction stops the
// machine.
func (m *Machine) Exec(in Instruction) bool {
	a, b := in.A, in.B

	switch in.Op {
	case OpLOAD:
		*m.reg(a) = int32(int8(b))
	case OpADD:
		*m.reg(a) += *m.reg(b)
	case OpSUB:
		*m.reg(a) -= *m.reg(b)
	case OpMUL:
		*m.reg(a) *= *m.reg(b)
	case OpNEG:
		*m.reg(a) = -*m.reg(a)
	case OpOUT:
		m.sink().Println(fmt.Sprintf("  T%d = %d", a&(NumRegs-1), *m.reg(a)), console.Accent)
	case OpTAND:
		*m.reg(a) = int32(TritAnd(Sign(*m.reg(a)), Sign(*m.reg(b))))
	case OpTOR:
		*m.reg(a) = int32(TritOr(Sign(*m.reg(a)), Sign(*m.reg(b))))
	case OpSTORE:
		m.Memory[b] = *m.reg(a)
	case OpLDMEM:
		*m.reg(a) = m.Memory[b]
	case OpCMP:
		m.Cmp = int32(Sign(*m.reg(a) - *m.reg(b)))
	case OpJMP:
		m.PC = int(a)
	case OpJEQ:
		if m.Cmp == 0 {
			m.PC = int(a)
		}
	case OpJGT:
		if m.Cmp > 0 {
			m.PC = int(a)
		}
	case OpJLT:
		if m.Cmp < 0 {
			m.PC = int(a)
		}
	case OpNOP:
	default:
		// HALT and every undefined opcode
		m.Running = false
		return false
	}
	return true
}

// Registers renders the register file the way the tregs command shows it.
func (m *Machine) Registers() []console.Line {
	lines := []console.Line{{Text: "=== Ternary Registers ===", Severity: console.Title}}
	for i := 0; i < NumRegs/2; i++ {
		lines = append(lines, console.Line{
			Text:     fmt.Sprintf("  T%d: %11d  |  T%d: %11d", i, m.Regs[i], i+4, m.Regs[i+4]),
			Severity: console.Info,
		})
	}
	lines = append(lines,
		console.Line{Text: fmt.Sprintf("  PC: %d  CMP: %s", m.PC, Sign(m.Cmp)), Severity: console.Accent},
		console.Line{Text: "Use 'teas help' for TeaScript commands", Severity: console.Info},
	)
	return lines
}
