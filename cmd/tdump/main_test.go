package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestDumpTeaScript(t *testing.T) {
	var buf bytes.Buffer
	if err := dump(&buf, "test.tea", []byte(testSource)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Tokens (18)\n",
		`4:LABEL("loop")`,
		"  loop            2\n",
		"Bytecode (7 instructions)\n",
		"  0002  06 00 00  OUT T0\n",
		"  0005  0E 02 00  JGT 2\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestDumpAssembly(t *testing.T) {
	src := "start:\n  mov eax, 5\n  jmp start ; again\n"
	var buf bytes.Buffer
	if err := dump(&buf, "loop.asm", []byte(src)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"  start           0x0000\n",
		"Machine code (10 bytes)\n",
		"  0000  B8 05 00 00 00         2: mov eax, 5\n",
		"  0005  E9 F6 FF FF FF         3: jmp start ; again\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestDumpErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := dump(&buf, "bad.tea", []byte("FROB\n")); err == nil || !strings.Contains(err.Error(), "compile error") {
		t.Errorf("bad TeaScript error = %v", err)
	}
	if err := dump(&buf, "bad.asm", []byte("frob\n")); err == nil || !strings.Contains(err.Error(), "assembly error") {
		t.Errorf("bad assembly error = %v", err)
	}
}
