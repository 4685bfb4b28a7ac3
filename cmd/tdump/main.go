// Command tdump prints what the toolchain makes of a source file: the
// scanner tokens, the labels and the generated code.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"teaos/pkg/asm"
	"teaos/pkg/compiler"
	"teaos/pkg/scan"
	"teaos/pkg/symtab"
	"teaos/pkg/tvm"
)

const testSource = `; countdown
        LOAD T0 3
        LOAD T1 1
loop:   OUT T0
        SUB T0 T1
        CMP T0 T1
        JGT loop
        HALT
`

func main() {
	name, src := "test.tea", []byte(testSource)
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		name, src = os.Args[1], data
	}

	if err := dump(os.Stdout, name, src); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dump(w io.Writer, name string, src []byte) error {
	isTea := strings.HasSuffix(name, ".tea")
	rules := scan.Assembly
	if isTea {
		rules = scan.TeaScript
	}

	var tokens []scan.Token
	for sc := scan.New(src, rules); ; {
		tok := sc.Next()
		if tok.Kind == scan.EOF {
			break
		}
		if tok.Kind != scan.Newline {
			tokens = append(tokens, tok)
		}
	}
	fmt.Fprintf(w, "Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Fprintln(w, " ", tok)
	}
	fmt.Fprintln(w)

	if isTea {
		return dumpBytecode(w, src)
	}
	return dumpNative(w, src)
}

func dumpLabels(w io.Writer, labels []symtab.Label, format string) {
	fmt.Fprintln(w, "Labels")
	for _, l := range labels {
		fmt.Fprintf(w, "  %-15s "+format+"\n", l.Name, l.Address)
	}
	fmt.Fprintln(w)
}

func dumpBytecode(w io.Writer, src []byte) error {
	prog, err := compiler.Compile(src)
	if err != nil {
		return fmt.Errorf("compile error: %w", err)
	}
	dumpLabels(w, prog.Labels, "%d")

	fmt.Fprintf(w, "Bytecode (%d instructions)\n", prog.Instructions)
	for _, line := range tvm.Disassemble(prog.Code) {
		fmt.Fprintln(w, " ", line)
	}
	if prog.Dropped > 0 {
		fmt.Fprintf(w, "  (%d instructions dropped)\n", prog.Dropped)
	}
	return nil
}

func dumpNative(w io.Writer, src []byte) error {
	a := asm.NewAssembler()
	code, err := a.Assemble(src)
	if err != nil {
		return fmt.Errorf("assembly error: %w", err)
	}
	dumpLabels(w, a.Labels(), "0x%04X")

	srcLines := strings.Split(string(src), "\n")
	offsets := make([]int, 0, len(a.SourceMap()))
	for off := range a.SourceMap() {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	fmt.Fprintf(w, "Machine code (%d bytes)\n", len(code))
	for i, off := range offsets {
		end := len(code)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		line := a.SourceMap()[off]
		text := ""
		if line-1 < len(srcLines) {
			text = strings.TrimSpace(srcLines[line-1])
		}
		fmt.Fprintf(w, "  %04X  %-20s %3d: %s\n", off, fmt.Sprintf("% X", code[off:end]), line, text)
	}
	return nil
}
