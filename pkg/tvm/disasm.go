package tvm

import (
	"fmt"
	"strings"
)

type Instruction struct {
	Op, A, B byte
}

type operandKind int

const (
	none operandKind = iota
	register
	literal
	address
	target
)

type opInfo struct {
	name string
	a, b operandKind
}

var opTable = map[byte]opInfo{
	OpLOAD:  {"LOAD", register, literal},
	OpADD:   {"ADD", register, register},
	OpSUB:   {"SUB", register, register},
	OpMUL:   {"MUL", register, register},
	OpNEG:   {"NEG", register, none},
	OpOUT:   {"OUT", register, none},
	OpTAND:  {"TAND", register, register},
	OpTOR:   {"TOR", register, register},
	OpSTORE: {"STORE", register, address},
	OpLDMEM: {"LDMEM", register, address},
	OpCMP:   {"CMP", register, register},
	OpJMP:   {"JMP", target, none},
	OpJEQ:   {"JEQ", target, none},
	OpJGT:   {"JGT", target, none},
	OpJLT:   {"JLT", target, none},
	OpHALT:  {"HALT", none, none},
	OpNOP:   {"NOP", none, none},
}

// Mnemonic returns the TeaScript name of op, or "" if op is undefined.
func Mnemonic(op byte) string {
	return opTable[op].name
}

// Decode splits code into instructions. A trailing partial instruction is
// ignored, as the machine never executes it.
func Decode(code []byte) []Instruction {
	out := make([]Instruction, 0, len(code)/InstrSize)
	for off := 0; off+InstrSize <= len(code); off += InstrSize {
		out = append(out, Instruction{Op: code[off], A: code[off+1], B: code[off+2]})
	}
	return out
}

func formatOperand(kind operandKind, v byte) string {
	switch kind {
	case register:
		return fmt.Sprintf("T%d", v&(NumRegs-1))
	case literal:
		return fmt.Sprint(int8(v))
	case address, target:
		return fmt.Sprint(v)
	}
	return ""
}

// String renders the instruction in TeaScript syntax. Jump targets are shown
// as instruction indices.
func (in Instruction) String() string {
	info, ok := opTable[in.Op]
	if !ok {
		return fmt.Sprintf("??? 0x%02X 0x%02X 0x%02X", in.Op, in.A, in.B)
	}
	parts := []string{info.name}
	if info.a != none {
		parts = append(parts, formatOperand(info.a, in.A))
	}
	if info.b != none {
		parts = append(parts, formatOperand(info.b, in.B))
	}
	return strings.Join(parts, " ")
}

// Disassemble lists code one instruction per line with its index and raw
// bytes.
func Disassemble(code []byte) []string {
	var lines []string
	for i, in := range Decode(code) {
		lines = append(lines, fmt.Sprintf("%04d  %02X %02X %02X  %s", i, in.Op, in.A, in.B, in))
	}
	if rest := len(code) % InstrSize; rest != 0 {
		lines = append(lines, fmt.Sprintf("%04d  % X  (incomplete)", len(code)/InstrSize, code[len(code)-rest:]))
	}
	return lines
}
