package main

import (
	"errors"
	"strings"
	"testing"

	"teaos/pkg/asm"
	"teaos/pkg/compiler"
	"teaos/pkg/console"
	"teaos/pkg/native"
	"teaos/pkg/runner"
	"teaos/pkg/tvm"
	"teaos/pkg/vfs"
)

func TestCompilerAndTVM(t *testing.T) {
	source := `
; count down from 3
        LOAD T0 3
        LOAD T1 1
        LOAD T2 0
loop:   OUT T0
        SUB T0 T1
        CMP T0 T2
        JGT loop
        LOAD T3 1
        LOAD T4 -1
        TAND T3 T4
        OUT T3
        HALT
`
	prog, err := compiler.Compile([]byte(source))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	rec := &console.Recorder{}
	res, m := tvm.Execute(prog.Code, 0, rec)
	if res.Outcome != tvm.Halted {
		t.Fatalf("outcome = %s; want halted", res.Outcome)
	}

	want := []string{"  T0 = 3", "  T0 = 2", "  T0 = 1", "  T3 = -1"}
	if got := rec.Texts(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("output = %q; want %q", got, want)
	}
	if m.Regs[0] != 0 || m.Cmp != 0 {
		t.Errorf("T0 = %d, CMP = %d; want 0 and 0", m.Regs[0], m.Cmp)
	}
}

func TestToolchainThroughDisk(t *testing.T) {
	disk := vfs.NewVirtualDisk()
	if err := disk.Write("sum.asm", []byte("mov eax, 0\nmov ecx, 5\nloop:\nadd eax, ecx\nsub ecx, 1\ncmp ecx, 0\njg loop\nret\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := asm.AssembleFile(disk, "sum.asm", "sum.bin"); err != nil {
		t.Fatalf("AssembleFile failed: %v", err)
	}

	exec, err := native.NewBuffer()
	if errors.Is(err, native.ErrUnsupported) {
		t.Skip("native execution is not available on this platform")
	}
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close()

	rec := &console.Recorder{}
	r := &runner.Runner{Store: disk, Sink: rec, Native: exec}
	report, err := r.Run("sum.bin")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Kind != runner.Native || report.Return != 15 {
		t.Errorf("report = %+v; want native return 15", report)
	}
}
