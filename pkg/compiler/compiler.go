// Package compiler translates TeaScript source into ternary VM bytecode.
//
// Compilation is a single pass over the source. Labels resolve against the
// labels seen so far, so a jump to a label defined further down the file
// targets instruction 0.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"teaos/pkg/artifact"
	"teaos/pkg/scan"
	"teaos/pkg/symtab"
	"teaos/pkg/tvm"
)

const (
	MaxCode         = 512
	MaxInstructions = MaxCode / tvm.InstrSize
)

var (
	ErrUnknownMnemonic = errors.New("unknown instruction")
	ErrInvalidOperand  = errors.New("invalid operand")
	ErrEmptyProgram    = errors.New("no instructions found")
)

var log = commonlog.GetLogger("teaos.compiler")

type operand int

const (
	none operand = iota
	register
	integer
	address
	label
)

func (o operand) String() string {
	switch o {
	case register:
		return "register"
	case integer:
		return "integer"
	case address:
		return "memory address"
	case label:
		return "label"
	}
	return "nothing"
}

type form struct {
	op   byte
	a, b operand
}

var instructions = map[string]form{
	"LOAD":  {tvm.OpLOAD, register, integer},
	"ADD":   {tvm.OpADD, register, register},
	"SUB":   {tvm.OpSUB, register, register},
	"MUL":   {tvm.OpMUL, register, register},
	"NEG":   {tvm.OpNEG, register, none},
	"OUT":   {tvm.OpOUT, register, none},
	"TAND":  {tvm.OpTAND, register, register},
	"TOR":   {tvm.OpTOR, register, register},
	"STORE": {tvm.OpSTORE, register, address},
	"LDMEM": {tvm.OpLDMEM, register, address},
	"CMP":   {tvm.OpCMP, register, register},
	"JMP":   {tvm.OpJMP, label, none},
	"JEQ":   {tvm.OpJEQ, label, none},
	"JGT":   {tvm.OpJGT, label, none},
	"JLT":   {tvm.OpJLT, label, none},
	"HALT":  {tvm.OpHALT, none, none},
	"NOP":   {tvm.OpNOP, none, none},
}

// Program is the result of a successful compilation.
type Program struct {
	Code         []byte
	Instructions int
	Labels       []symtab.Label
	// Dropped counts instructions beyond MaxInstructions.
	Dropped int
}

// Artifact returns the bytes written to disk: the TB header and the code.
func (p *Program) Artifact() []byte {
	return artifact.Bytecode(p.Code)
}

// Compile translates a whole TeaScript source.
func Compile(src []byte) (*Program, error) {
	syms := symtab.New()
	prog := &Program{Code: make([]byte, 0, MaxCode)}

	sc := scan.New(src, scan.TeaScript)
	for {
		st, ok := sc.Statement()
		if !ok {
			break
		}

		if st.IsLabel() {
			if !syms.Define(string(st.Label), prog.Instructions) {
				log.Debugf("label '%s' on line %d ignored", st.Label, st.Line)
			}
			continue
		}

		in, err := encode(st, syms)
		if err != nil {
			return nil, err
		}

		if prog.Instructions >= MaxInstructions {
			prog.Dropped++
			continue
		}
		prog.Code = append(prog.Code, in.Op, in.A, in.B)
		prog.Instructions++
	}

	if prog.Instructions == 0 {
		return nil, ErrEmptyProgram
	}
	if prog.Dropped > 0 {
		log.Infof("program truncated: %d instructions past the %d instruction limit dropped", prog.Dropped, MaxInstructions)
	}
	prog.Labels = syms.Labels()
	return prog, nil
}

// CompileLine compiles a single instruction with no labels defined.
func CompileLine(line string) (tvm.Instruction, error) {
	sc := scan.New([]byte(line), scan.TeaScript)
	st, ok := sc.Statement()
	if !ok || st.IsLabel() {
		return tvm.Instruction{}, ErrEmptyProgram
	}
	return encode(st, symtab.New())
}

func encode(st scan.Statement, syms *symtab.Table) (tvm.Instruction, error) {
	mnemonic := string(st.Mnemonic)
	f, ok := instructions[mnemonic]
	if !ok {
		return tvm.Instruction{}, fmt.Errorf("%w '%s' on line %d", ErrUnknownMnemonic, mnemonic, st.Line)
	}

	want := 0
	for _, kind := range []operand{f.a, f.b} {
		if kind != none {
			want++
		}
	}
	if len(st.Operands) != want {
		return tvm.Instruction{}, fmt.Errorf("%w: %s takes %d operands, got %d on line %d",
			ErrInvalidOperand, mnemonic, want, len(st.Operands), st.Line)
	}

	in := tvm.Instruction{Op: f.op}
	var err error
	if f.a != none {
		if in.A, err = parseOperand(f.a, st.Operands[0], syms); err != nil {
			return tvm.Instruction{}, fmt.Errorf("%w on line %d", err, st.Line)
		}
	}
	if f.b != none {
		if in.B, err = parseOperand(f.b, st.Operands[1], syms); err != nil {
			return tvm.Instruction{}, fmt.Errorf("%w on line %d", err, st.Line)
		}
	}
	return in, nil
}

func parseOperand(kind operand, text []byte, syms *symtab.Table) (byte, error) {
	switch kind {
	case register:
		return parseRegister(text)
	case integer:
		v, err := scan.ParseInt(text)
		if err != nil {
			return 0, fmt.Errorf("%w: expected %s, got '%s'", ErrInvalidOperand, kind, text)
		}
		return byte(v), nil
	case address:
		v, err := scan.ParseInt(text)
		if err != nil || v < 0 || v >= tvm.MemorySize {
			return 0, fmt.Errorf("%w: expected %s 0-%d, got '%s'", ErrInvalidOperand, kind, tvm.MemorySize-1, text)
		}
		return byte(v), nil
	case label:
		return byte(syms.ResolveImmediate(string(text))), nil
	}
	return 0, nil
}

func parseRegister(text []byte) (byte, error) {
	s := string(text)
	if len(s) != 2 || s[0] != 'T' || s[1] < '0' || s[1] > '7' {
		return 0, fmt.Errorf("%w: expected register T0-T7, got '%s'", ErrInvalidOperand, s)
	}
	return s[1] - '0', nil
}

// Mnemonics lists the instruction names in opcode order.
func Mnemonics() []string {
	names := make([]string, 0, len(instructions))
	for op := tvm.OpLOAD; op <= tvm.OpNOP; op++ {
		names = append(names, tvm.Mnemonic(op))
	}
	return names
}

// Usage is a one-line summary of the instruction set.
func Usage() string {
	return "Instructions: " + strings.Join(Mnemonics(), " ")
}
