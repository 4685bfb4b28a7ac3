package tvm

import (
	"math"
	"testing"

	"teaos/pkg/console"
)

// prog concatenates 3-byte instructions.
func prog(ins ...Instruction) []byte {
	var code []byte
	for _, in := range ins {
		code = append(code, in.Op, in.A, in.B)
	}
	return code
}

func TestExampleProgram(t *testing.T) {
	code := []byte{
		0x01, 0x00, 0x05, // LOAD T0 5
		0x01, 0x01, 0x03, // LOAD T1 3
		0x02, 0x00, 0x01, // ADD T0 T1
		0x06, 0x00, 0x00, // OUT T0
		0x10, 0x00, 0x00, // HALT
	}
	var rec console.Recorder
	res, m := Execute(code, DefaultStepBudget, &rec)

	if res.Outcome != Halted || res.Steps != 5 {
		t.Errorf("Run = %+v; want halted after 5 steps", res)
	}
	if m.Regs[0] != 8 {
		t.Errorf("T0 = %d; want 8", m.Regs[0])
	}
	if len(rec.Lines) != 1 || rec.Lines[0].Text != "  T0 = 8" || rec.Lines[0].Severity != console.Accent {
		t.Errorf("output = %+v; want one accent line \"  T0 = 8\"", rec.Lines)
	}
	if m.Running {
		t.Error("machine should not be running after Run returns")
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		a, b int32
		op   byte
		want int32
	}{
		{"add", 5, 3, OpADD, 8},
		{"sub", 5, 7, OpSUB, -2},
		{"mul", -4, 6, OpMUL, -24},
		{"add wraps", math.MaxInt32, 1, OpADD, math.MinInt32},
		{"mul wraps", 0x10000, 0x10000, OpMUL, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(console.Discard)
			m.Regs[2], m.Regs[3] = tt.a, tt.b
			m.Exec(Instruction{Op: tt.op, A: 2, B: 3})
			if m.Regs[2] != tt.want {
				t.Errorf("%d op %d = %d; want %d", tt.a, tt.b, m.Regs[2], tt.want)
			}
		})
	}
}

func TestLoadSignExtends(t *testing.T) {
	tests := []struct {
		b    byte
		want int32
	}{
		{0x05, 5},
		{0x7F, 127},
		{0x80, -128},
		{0xFF, -1},
	}
	for _, tt := range tests {
		m := New(console.Discard)
		m.Exec(Instruction{Op: OpLOAD, A: 1, B: tt.b})
		if m.Regs[1] != tt.want {
			t.Errorf("LOAD T1 0x%02X = %d; want %d", tt.b, m.Regs[1], tt.want)
		}
	}
}

func TestRegisterMasking(t *testing.T) {
	m := New(console.Discard)
	// register 9 is T1
	m.Exec(Instruction{Op: OpLOAD, A: 9, B: 4})
	if m.Regs[1] != 4 {
		t.Errorf("LOAD with A=9 wrote %v; want T1 = 4", m.Regs)
	}
}

func TestMemory(t *testing.T) {
	var rec console.Recorder
	code := prog(
		Instruction{OpLOAD, 0, 42},
		Instruction{OpSTORE, 0, 200},
		Instruction{OpLOAD, 0, 0},
		Instruction{OpLDMEM, 1, 200},
		Instruction{OpOUT, 1, 0},
		Instruction{OpHALT, 0, 0},
	)
	_, m := Execute(code, 0, &rec)
	if m.Memory[200] != 42 || m.Regs[1] != 42 {
		t.Errorf("mem[200] = %d, T1 = %d; want 42 and 42", m.Memory[200], m.Regs[1])
	}
	if got := rec.Texts(); len(got) != 1 || got[0] != "  T1 = 42" {
		t.Errorf("output = %v", got)
	}
}

func TestCompareAndJump(t *testing.T) {
	// count T0 up to 3 and print each value
	code := prog(
		Instruction{OpLOAD, 0, 0}, // 0
		Instruction{OpLOAD, 1, 1}, // 1
		Instruction{OpLOAD, 2, 3}, // 2
		Instruction{OpADD, 0, 1},  // 3 loop
		Instruction{OpOUT, 0, 0},  // 4
		Instruction{OpCMP, 0, 2},  // 5
		Instruction{OpJLT, 3, 0},  // 6
		Instruction{OpHALT, 0, 0}, // 7
	)
	var rec console.Recorder
	res, m := Execute(code, 0, &rec)

	want := []string{"  T0 = 1", "  T0 = 2", "  T0 = 3"}
	got := rec.Texts()
	if len(got) != len(want) {
		t.Fatalf("output = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q; want %q", i, got[i], want[i])
		}
	}
	if res.Outcome != Halted || m.Cmp != 0 {
		t.Errorf("outcome %v cmp %d; want halted with cmp 0", res.Outcome, m.Cmp)
	}
}

func TestConditionalJumps(t *testing.T) {
	tests := []struct {
		op    byte
		cmp   int32
		taken bool
	}{
		{OpJEQ, 0, true}, {OpJEQ, 1, false}, {OpJEQ, -1, false},
		{OpJGT, 1, true}, {OpJGT, 0, false}, {OpJGT, -1, false},
		{OpJLT, -1, true}, {OpJLT, 0, false}, {OpJLT, 1, false},
		{OpJMP, 1, true}, {OpJMP, 0, true},
	}
	for _, tt := range tests {
		m := New(console.Discard)
		m.PC = 1
		m.Cmp = tt.cmp
		m.Exec(Instruction{Op: tt.op, A: 9})
		if taken := m.PC == 9; taken != tt.taken {
			t.Errorf("%s with cmp %d: taken = %v; want %v", Mnemonic(tt.op), tt.cmp, taken, tt.taken)
		}
	}
}

func TestCompareWraps(t *testing.T) {
	m := New(console.Discard)
	m.Regs[0] = math.MinInt32
	m.Regs[1] = 1
	m.Exec(Instruction{Op: OpCMP, A: 0, B: 1})
	// MinInt32 - 1 wraps to MaxInt32
	if m.Cmp != 1 {
		t.Errorf("Cmp = %d; want 1 from wrapping subtraction", m.Cmp)
	}
}

func TestStepLimit(t *testing.T) {
	code := prog(Instruction{OpJMP, 0, 0})
	res, _ := Execute(code, DefaultStepBudget, console.Discard)
	if res.Outcome != StepLimit || res.Steps != DefaultStepBudget {
		t.Errorf("self-jump = %+v; want step limit after %d steps", res, DefaultStepBudget)
	}

	res, _ = Execute(code, 7, console.Discard)
	if res.Steps != 7 {
		t.Errorf("custom budget ran %d steps; want 7", res.Steps)
	}
}

func TestHaltOnBudgetBoundary(t *testing.T) {
	code := prog(Instruction{OpNOP, 0, 0}, Instruction{OpHALT, 0, 0})
	res, _ := Execute(code, 2, console.Discard)
	if res.Outcome != Halted {
		t.Errorf("HALT as last budgeted step = %v; want halted", res.Outcome)
	}
}

func TestEndOfProgram(t *testing.T) {
	tests := []struct {
		name  string
		code  []byte
		steps int
	}{
		{"empty", nil, 0},
		{"no halt", prog(Instruction{OpNOP, 0, 0}, Instruction{OpNOP, 0, 0}), 2},
		{"partial tail", append(prog(Instruction{OpNOP, 0, 0}), OpHALT, 0), 1},
		{"jump past end", prog(Instruction{OpJMP, 200, 0}), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := Execute(tt.code, 0, console.Discard)
			if res.Outcome != EndOfProgram || res.Steps != tt.steps {
				t.Errorf("Run = %+v; want end of program after %d steps", res, tt.steps)
			}
		})
	}
}

func TestUndefinedOpcodeHalts(t *testing.T) {
	var rec console.Recorder
	code := prog(Instruction{0x7F, 0, 0}, Instruction{OpOUT, 0, 0})
	res, _ := Execute(code, 0, &rec)
	if res.Outcome != Halted || res.Steps != 1 || len(rec.Lines) != 0 {
		t.Errorf("undefined opcode: %+v, output %v; want halt after 1 step", res, rec.Texts())
	}
}

func TestRunResetsPC(t *testing.T) {
	m := New(console.Discard)
	m.PC = 5
	m.Regs[3] = 11
	m.Run(prog(Instruction{OpHALT, 0, 0}), 0)
	if m.PC != 1 {
		t.Errorf("PC = %d; want 1", m.PC)
	}
	if m.Regs[3] != 11 {
		t.Error("Run should keep register state")
	}
	m.Reset()
	if m.Regs[3] != 0 || m.PC != 0 || m.Sink != console.Discard {
		t.Errorf("Reset left %+v", m)
	}
}

func TestRegistersView(t *testing.T) {
	m := New(console.Discard)
	m.Regs[0] = 8
	m.Regs[7] = -3
	m.Cmp = -1
	lines := m.Registers()
	if len(lines) != 7 {
		t.Fatalf("got %d lines; want 7", len(lines))
	}
	if lines[0].Severity != console.Title {
		t.Error("first line should be the title")
	}
	if want := "  T0:           8  |  T4:           0"; lines[1].Text != want {
		t.Errorf("row 0 = %q; want %q", lines[1].Text, want)
	}
	if want := "  T3:           0  |  T7:          -3"; lines[4].Text != want {
		t.Errorf("row 3 = %q; want %q", lines[4].Text, want)
	}
	if want := "  PC: 0  CMP: -"; lines[5].Text != want {
		t.Errorf("status = %q; want %q", lines[5].Text, want)
	}
}
