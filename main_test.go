package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"teaos/pkg/artifact"
)

func writeHost(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestCompileAndRunTeaScript(t *testing.T) {
	dir := t.TempDir()
	src := writeHost(t, dir, "prog.tea", "LOAD T0 5\nLOAD T1 3\nADD T0 T1\nOUT T0\nHALT\n")

	code, stdout, stderr := runCLI("-config", "", "-in", src, "-run")
	if code != 0 {
		t.Fatalf("exit code = %d; stderr = %q", code, stderr)
	}

	outPath := filepath.Join(dir, "prog.tbin")
	for _, want := range []string{
		"compiled 5 instructions -> " + outPath,
		"=== Running TBC (5 instr, 15 bytes) ===",
		"  T0 = 8",
		"  Program halted.",
	} {
		if !strings.Contains(stdout, want+"\n") {
			t.Errorf("stdout = %q; missing %q", stdout, want)
		}
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !artifact.IsBytecode(data) || len(data) != 17 {
		t.Errorf("artifact = % X; want 17 bytes starting with TB", data)
	}
}

func TestAssembleToCustomOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeHost(t, dir, "add.asm", "mov eax, 5\nadd eax, 3\nret\n")
	outPath := filepath.Join(dir, "custom.bin")

	code, stdout, stderr := runCLI("-config", "", "-in", src, "-out", outPath)
	if code != 0 {
		t.Fatalf("exit code = %d; stderr = %q", code, stderr)
	}
	if !strings.Contains(stdout, "assembled 12 bytes -> "+outPath) {
		t.Errorf("stdout = %q", stdout)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xB8, 0x05, 0x00, 0x00, 0x00, 0x81, 0xC0, 0x03, 0x00, 0x00, 0x00, 0xC3}
	if !bytes.Equal(data, want) {
		t.Errorf("machine code = % X; want % X", data, want)
	}
}

func TestRunExistingBinary(t *testing.T) {
	dir := t.TempDir()
	bin := writeHost(t, dir, "loop.tbin", "TB\x0C\x00\x00")

	code, stdout, stderr := runCLI("-config", "", "-run-bin", bin)
	if code != 0 {
		t.Fatalf("exit code = %d; stderr = %q", code, stderr)
	}
	if !strings.Contains(stdout, "  Stopped: max steps exceeded") {
		t.Errorf("stdout = %q; want step limit message", stdout)
	}
}

func TestStoragePersistsArtifacts(t *testing.T) {
	dir := t.TempDir()
	storage := filepath.Join(dir, "disk")
	src := writeHost(t, dir, "p.tea", "HALT\n")

	if code, _, stderr := runCLI("-config", "", "-storage", storage, "-in", src); code != 0 {
		t.Fatalf("exit code = %d; stderr = %q", code, stderr)
	}
	for _, name := range []string{"p.tea", "p.tbin"} {
		if _, err := os.Stat(filepath.Join(storage, name)); err != nil {
			t.Errorf("%s not persisted: %v", name, err)
		}
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeHost(t, dir, "teaos.toml", "step-budget = 3\ncolor = false\n")
	bin := writeHost(t, dir, "loop.tbin", "TB\x0C\x00\x00")

	code, stdout, _ := runCLI("-config", cfg, "-run-bin", bin)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "  Stopped: max steps exceeded") {
		t.Errorf("stdout = %q", stdout)
	}

	bad := writeHost(t, dir, "bad.toml", "step-budget = -1\n")
	if code, _, stderr := runCLI("-config", bad, "-run-bin", bin); code != 2 || !strings.Contains(stderr, "step-budget") {
		t.Errorf("bad config: code = %d, stderr = %q", code, stderr)
	}
}

func TestCLIErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeHost(t, dir, "bad.tea", "LOAD T9 1\n")
	big := writeHost(t, dir, "big.asm", strings.Repeat("mov eax, 1\n", 300))

	tests := []struct {
		name string
		args []string
		code int
		text string
	}{
		{"nothing to do", nil, 2, "nothing to do"},
		{"run and run-bin", []string{"-run", "-run-bin", "x.bin"}, 2, "not both"},
		{"run without input", []string{"-run"}, 2, "-run requires -in"},
		{"missing input", []string{"-in", filepath.Join(dir, "none.tea")}, 1, "build failed"},
		{"compile error", []string{"-in", bad}, 1, "expected register T0-T7, got 'T9' on line 1"},
		{"too large", []string{"-in", big}, 1, "program too large"},
		{"missing binary", []string{"-run-bin", filepath.Join(dir, "none.bin")}, 1, "failed to read binary file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(append([]string{"-config", ""}, tt.args...)...)
			if code != tt.code || !strings.Contains(stderr, tt.text) {
				t.Errorf("code = %d, stderr = %q; want %d and %q", code, stderr, tt.code, tt.text)
			}
		})
	}
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in, ext, want string
	}{
		{"prog.tea", ".tbin", "prog.tbin"},
		{"dir/add.asm", ".bin", "dir/add.bin"},
		{"noext", ".bin", "noext.bin"},
	}
	for _, tt := range tests {
		if got := defaultOutputPath(tt.in, tt.ext); got != tt.want {
			t.Errorf("defaultOutputPath(%q, %q) = %q; want %q", tt.in, tt.ext, got, tt.want)
		}
	}
}
