// Package asm assembles a small 32-bit x86 subset into raw machine code for
// the native executor.
//
// Assembly runs in two passes. The first emits bytes and leaves a 4-byte
// placeholder for every branch target; the second patches each placeholder
// with the signed displacement from the end of the placeholder to the label.
package asm

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"teaos/pkg/artifact"
	"teaos/pkg/native"
	"teaos/pkg/scan"
	"teaos/pkg/symtab"
)

// MaxCode matches the executable buffer of the native executor.
const MaxCode = native.BufferSize

var (
	ErrUnknownMnemonic = errors.New("unknown mnemonic")
	ErrInvalidOperand  = errors.New("invalid operand")
	ErrEmptyProgram    = errors.New("no instructions found")
	ErrProgramTooLarge = errors.New("program too large")
)

var log = commonlog.GetLogger("teaos.asm")

var registers = map[string]byte{
	"eax": 0,
	"ecx": 1,
	"edx": 2,
	"ebx": 3,
	"esp": 4,
	"ebp": 5,
	"esi": 6,
	"edi": 7,
}

var zeroOperandOps = map[string]byte{
	"nop": 0x90,
	"hlt": 0xF4,
	"ret": 0xC3,
}

// oneRegisterOps encode the register in the low 3 bits of the opcode.
var oneRegisterOps = map[string]byte{
	"inc":  0x40,
	"dec":  0x48,
	"push": 0x50,
	"pop":  0x58,
}

type aluOp struct {
	regReg byte // opcode for "op r/m32, r32"
	group  byte // ModRM reg field for "0x81 /group imm32"
}

var aluOps = map[string]aluOp{
	"add": {0x01, 0},
	"or":  {0x09, 1},
	"and": {0x21, 4},
	"sub": {0x29, 5},
	"xor": {0x31, 6},
	"cmp": {0x39, 7},
}

const (
	opMovRegReg = 0x89
	opMovRegImm = 0xB8
	opALUImm    = 0x81
	opInt       = 0xCD
	modReg      = 0xC0
)

// branchOps map to their opcode bytes; each is followed by a rel32.
var branchOps = map[string][]byte{
	"jmp":  {0xE9},
	"call": {0xE8},
	"je":   {0x0F, 0x84},
	"jz":   {0x0F, 0x84},
	"jne":  {0x0F, 0x85},
	"jnz":  {0x0F, 0x85},
	"jl":   {0x0F, 0x8C},
	"jge":  {0x0F, 0x8D},
	"jle":  {0x0F, 0x8E},
	"jg":   {0x0F, 0x8F},
}

// Assembler holds the state of one assembly run.
type Assembler struct {
	labels    *symtab.Table
	code      []byte
	fixups    []symtab.Fixup
	sourceMap map[int]int
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels:    symtab.New(),
		sourceMap: make(map[int]int),
	}
}

// Assemble assembles source with a fresh Assembler.
func Assemble(source []byte) ([]byte, error) {
	return NewAssembler().Assemble(source)
}

func (a *Assembler) Assemble(source []byte) ([]byte, error) {
	if err := a.emitAll(source); err != nil {
		return nil, err
	}
	if len(a.code) == 0 {
		return nil, ErrEmptyProgram
	}
	if err := a.labels.ResolveDeferred(a.code, a.fixups); err != nil {
		return nil, err
	}
	log.Debugf("assembled %d bytes, %d labels, %d fixups", len(a.code), a.labels.Len(), len(a.fixups))
	return a.code, nil
}

// SourceMap maps the offset of each emitted instruction to its source line.
func (a *Assembler) SourceMap() map[int]int {
	return a.sourceMap
}

func (a *Assembler) Labels() []symtab.Label {
	return a.labels.Labels()
}

func (a *Assembler) emitAll(source []byte) error {
	sc := scan.New(source, scan.Assembly)
	for {
		st, ok := sc.Statement()
		if !ok {
			return nil
		}
		if st.IsLabel() {
			if !a.labels.Define(string(st.Label), len(a.code)) {
				log.Debugf("label '%s' on line %d ignored", st.Label, st.Line)
			}
			continue
		}

		start := len(a.code)
		if err := a.emitStatement(st); err != nil {
			return err
		}
		if len(a.code) > MaxCode {
			return fmt.Errorf("%w: %d bytes exceed %d near line %d", ErrProgramTooLarge, len(a.code), MaxCode, st.Line)
		}
		a.sourceMap[start] = st.Line
	}
}

func (a *Assembler) emit(b ...byte) {
	a.code = append(a.code, b...)
}

func (a *Assembler) emitImm32(v uint32) {
	a.code = binary.LittleEndian.AppendUint32(a.code, v)
}

func (a *Assembler) emitStatement(st scan.Statement) error {
	mnemonic := string(st.Mnemonic)
	ops := st.Operands
	lineNo := st.Line

	if opcode, ok := zeroOperandOps[mnemonic]; ok {
		if len(ops) != 0 {
			return fmt.Errorf("%w: %s expects 0 operands on line %d", ErrInvalidOperand, mnemonic, lineNo)
		}
		a.emit(opcode)
		return nil
	}

	if opcode, ok := oneRegisterOps[mnemonic]; ok {
		if len(ops) != 1 {
			return fmt.Errorf("%w: %s expects 1 operand on line %d", ErrInvalidOperand, mnemonic, lineNo)
		}
		r, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return err
		}
		a.emit(opcode + r)
		return nil
	}

	if mnemonic == "mov" {
		dst, src, imm, isReg, err := parseTwoOperands(mnemonic, ops, lineNo)
		if err != nil {
			return err
		}
		if isReg {
			a.emit(opMovRegReg, modReg|src<<3|dst)
		} else {
			a.emit(opMovRegImm + dst)
			a.emitImm32(imm)
		}
		return nil
	}

	if op, ok := aluOps[mnemonic]; ok {
		dst, src, imm, isReg, err := parseTwoOperands(mnemonic, ops, lineNo)
		if err != nil {
			return err
		}
		if isReg {
			a.emit(op.regReg, modReg|src<<3|dst)
		} else {
			a.emit(opALUImm, modReg|op.group<<3|dst)
			a.emitImm32(imm)
		}
		return nil
	}

	if mnemonic == "int" {
		if len(ops) != 1 {
			return fmt.Errorf("%w: int expects 1 operand on line %d", ErrInvalidOperand, lineNo)
		}
		v, err := scan.ParseInt(ops[0])
		if err != nil || v < -128 || v > 0xFF {
			return fmt.Errorf("%w: int vector '%s' on line %d", ErrInvalidOperand, ops[0], lineNo)
		}
		a.emit(opInt, byte(v))
		return nil
	}

	if opcode, ok := branchOps[mnemonic]; ok {
		if len(ops) != 1 {
			return fmt.Errorf("%w: %s expects a label on line %d", ErrInvalidOperand, mnemonic, lineNo)
		}
		a.emit(opcode...)
		a.fixups = append(a.fixups, symtab.Fixup{Pos: len(a.code), Label: string(ops[0]), Line: lineNo})
		a.emit(0, 0, 0, 0)
		return nil
	}

	return fmt.Errorf("%w '%s' on line %d", ErrUnknownMnemonic, mnemonic, lineNo)
}

func parseRegister(token []byte, lineNo int) (byte, error) {
	r, ok := registers[string(token)]
	if !ok {
		return 0, fmt.Errorf("%w: expected register, got '%s' on line %d", ErrInvalidOperand, token, lineNo)
	}
	return r, nil
}

// parseTwoOperands reads "dst, src" where src is a register or an imm32.
func parseTwoOperands(mnemonic string, ops [][]byte, lineNo int) (dst, src byte, imm uint32, isReg bool, err error) {
	if len(ops) != 2 {
		return 0, 0, 0, false, fmt.Errorf("%w: %s expects 2 operands on line %d", ErrInvalidOperand, mnemonic, lineNo)
	}
	if dst, err = parseRegister(ops[0], lineNo); err != nil {
		return 0, 0, 0, false, err
	}
	if r, ok := registers[string(ops[1])]; ok {
		return dst, r, 0, true, nil
	}
	v, perr := scan.ParseInt(ops[1])
	if perr != nil || v < -(1<<31) {
		return 0, 0, 0, false, fmt.Errorf("%w: expected register or immediate, got '%s' on line %d", ErrInvalidOperand, ops[1], lineNo)
	}
	return dst, 0, uint32(v), false, nil
}

// AssembleFile assembles src from the store and saves the raw code as out.
func AssembleFile(store artifact.Store, src, out string) ([]byte, error) {
	source, err := artifact.Load(store, src)
	if err != nil {
		return nil, err
	}
	code, err := Assemble(source)
	if err != nil {
		return nil, err
	}
	if err := artifact.Save(store, out, code); err != nil {
		return nil, err
	}
	log.Debugf("assembled %s -> %s (%d bytes)", src, out, len(code))
	return code, nil
}
