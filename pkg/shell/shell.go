// Package shell is the command line of the system. It owns the state the
// commands share: the disk, the output sink, the runner and the persistent
// machine used by interactive TeaScript.
package shell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"teaos/pkg/artifact"
	"teaos/pkg/asm"
	"teaos/pkg/compiler"
	"teaos/pkg/console"
	"teaos/pkg/native"
	"teaos/pkg/runner"
	"teaos/pkg/tvm"
	"teaos/pkg/vfs"
)

const xxdLimit = 64

// Prompt is shown before each command line.
const Prompt = "tea@teos:~$ "

type Shell struct {
	Disk    *vfs.VirtualDisk
	Sink    console.Sink
	Runner  *runner.Runner
	Machine *tvm.Machine
	Log     commonlog.Logger

	// Clear is called by the clear command. Nil ignores it.
	Clear func()
}

type command func(s *Shell, rest string) bool

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":  (*Shell).help,
		"clear": (*Shell).clear,
		"echo":  (*Shell).echo,
		"exit":  (*Shell).exit,
		"halt":  (*Shell).exit,
		"ls":    (*Shell).ls,
		"cat":   (*Shell).cat,
		"touch": (*Shell).touch,
		"rm":    (*Shell).rm,
		"write": (*Shell).write,
		"xxd":   (*Shell).xxd,
		"tcc":   (*Shell).tcc,
		"asm":   (*Shell).asm,
		"run":   (*Shell).run,
		"teas":  (*Shell).teas,
		"tregs": (*Shell).tregs,
		"dis":   (*Shell).dis,
	}
}

// New wires a shell over disk. exec may be nil when native code cannot run
// on this host.
func New(disk *vfs.VirtualDisk, sink console.Sink, exec native.Executor, stepBudget int) *Shell {
	log := commonlog.GetLogger("teaos.shell")
	return &Shell{
		Disk: disk,
		Sink: sink,
		Runner: &runner.Runner{
			Store:      disk,
			Sink:       sink,
			Native:     exec,
			StepBudget: stepBudget,
			Log:        commonlog.GetLogger("teaos.runner"),
		},
		Machine: tvm.New(sink),
		Log:     log,
	}
}

// Welcome prints the start-up banner.
func (s *Shell) Welcome() {
	s.println("Welcome to TeaOS - A cozy kernel experience!", console.Title)
	s.println("Type 'help' for commands or 'teas' for TeaScript", console.Info)
}

// Exec runs one command line. It reports false once the user asked to
// leave.
func (s *Shell) Exec(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	if s.Log != nil {
		s.Log.Debugf("command: %s", line)
	}

	cmd, ok := commands[name]
	if !ok {
		s.println("Command not found: "+name, console.Error)
		return true
	}
	return cmd(s, rest)
}

func (s *Shell) println(text string, sev console.Severity) {
	s.Sink.Println(text, sev)
}

func (s *Shell) show(p page) {
	for _, l := range p {
		s.println(l.Text, l.Severity)
	}
}

func (s *Shell) fail(err error) {
	if s.Log != nil {
		s.Log.Debugf("error: %s", err)
	}
	s.println("Error: "+err.Error(), console.Error)
}

// usage prints the help of name and reports true when rest asks for it or
// lacks the required argument.
func (s *Shell) usage(name string, rest string) bool {
	if rest == "" || rest == "-h" {
		s.show(usages[name])
		return true
	}
	return false
}

func (s *Shell) help(string) bool {
	s.show(helpPage)
	return true
}

func (s *Shell) clear(string) bool {
	if s.Clear != nil {
		s.Clear()
	}
	return true
}

func (s *Shell) exit(string) bool {
	return false
}

func (s *Shell) echo(rest string) bool {
	if rest == "-h" {
		s.show(usages["echo"])
	} else if rest != "" {
		s.println(rest, console.Accent)
	}
	return true
}

func (s *Shell) ls(rest string) bool {
	switch rest {
	case "-h":
		s.show(usages["ls"])
		return true
	case "", "-l":
	default:
		s.show(usages["ls"])
		return true
	}

	names := s.Disk.List()
	if len(names) == 0 {
		s.println("  (no files)", console.Info)
	}
	for _, name := range names {
		size, err := s.Disk.Size(name)
		if err != nil {
			continue
		}
		if rest == "-l" {
			_, modified, _ := s.Disk.GetMeta(name)
			s.println(fmt.Sprintf("  %-31s %5d  %-4s  %s", name, size, kindOf(s.Disk, name), modified.Format("2006-01-02 15:04")), console.Info)
		} else {
			s.println(fmt.Sprintf("  %-31s %5d bytes", name, size), console.Info)
		}
	}
	s.println(fmt.Sprintf("  %d files, %d free slots", len(names), s.Disk.FreeSlots()), console.Accent)
	return true
}

func kindOf(disk *vfs.VirtualDisk, name string) string {
	f, err := disk.Open(name)
	if err != nil {
		return "?"
	}
	head, _ := f.Read(len(artifact.Magic))
	switch {
	case artifact.IsBytecode(head):
		return "tbc"
	case strings.HasSuffix(name, artifact.NativeExt):
		return "x86"
	}
	return "text"
}

func (s *Shell) cat(rest string) bool {
	if s.usage("cat", rest) {
		return true
	}
	data, err := s.Disk.Read(rest)
	if err != nil {
		s.fail(err)
		return true
	}
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		s.println(line, console.Info)
	}
	return true
}

func (s *Shell) touch(rest string) bool {
	if s.usage("touch", rest) {
		return true
	}
	if _, err := s.Disk.Create(rest); err != nil {
		s.fail(err)
		return true
	}
	s.println("Created: "+rest, console.Success)
	return true
}

func (s *Shell) rm(rest string) bool {
	if s.usage("rm", rest) {
		return true
	}
	if err := s.Disk.Delete(rest); err != nil {
		s.fail(err)
		return true
	}
	s.println("Removed: "+rest, console.Success)
	return true
}

func (s *Shell) write(rest string) bool {
	if s.usage("write", rest) {
		return true
	}
	name, text, _ := strings.Cut(rest, " ")
	data := []byte(strings.ReplaceAll(text, `\n`, "\n"))
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	if err := s.Disk.Write(name, data); err != nil {
		s.fail(err)
		return true
	}
	s.println(fmt.Sprintf("Wrote: %s (%d bytes)", name, len(data)), console.Success)
	return true
}

func (s *Shell) xxd(rest string) bool {
	if s.usage("xxd", rest) {
		return true
	}
	data, err := s.Disk.Read(rest)
	if err != nil {
		s.fail(err)
		return true
	}
	s.println(fmt.Sprintf("Size: %d bytes", len(data)), console.Info)
	for _, line := range hexRows(data, xxdLimit) {
		s.println(line, console.Accent)
	}
	return true
}

// hexRows formats up to limit bytes, 16 per row, prefixed with the offset.
func hexRows(data []byte, limit int) []string {
	if len(data) > limit {
		data = data[:limit]
	}
	var rows []string
	for off := 0; off < len(data); off += 16 {
		end := min(off+16, len(data))
		rows = append(rows, fmt.Sprintf("%02X: % X", off, data[off:end]))
	}
	return rows
}

// toolArgs splits "<src> [out]" and fills in the default output name.
func toolArgs(rest, ext string) (src, out string) {
	fields := strings.Fields(rest)
	src = fields[0]
	if len(fields) > 1 {
		return src, fields[1]
	}
	return src, artifact.OutputName(src, ext)
}

func (s *Shell) tcc(rest string) bool {
	if s.usage("tcc", rest) {
		return true
	}
	src, out := toolArgs(rest, artifact.BytecodeExt)
	prog, err := compiler.CompileFile(s.Disk, src, out)
	if err != nil {
		s.fail(err)
		return true
	}
	s.println(fmt.Sprintf("Compiled: %s (%d instructions, %d bytes)", out, prog.Instructions, len(prog.Artifact())), console.Success)
	if prog.Dropped > 0 {
		s.println(fmt.Sprintf("  %d instructions past the %d instruction limit were dropped", prog.Dropped, compiler.MaxInstructions), console.Accent)
	}
	return true
}

func (s *Shell) asm(rest string) bool {
	if s.usage("asm", rest) {
		return true
	}
	src, out := toolArgs(rest, artifact.NativeExt)
	code, err := asm.AssembleFile(s.Disk, src, out)
	if err != nil {
		s.fail(err)
		return true
	}
	s.println(fmt.Sprintf("Assembled: %s (%d bytes)", out, len(code)), console.Success)
	return true
}

func (s *Shell) run(rest string) bool {
	if s.usage("run", rest) {
		return true
	}
	if _, err := s.Runner.Run(rest); err != nil {
		s.fail(err)
	}
	return true
}

func (s *Shell) dis(rest string) bool {
	if s.usage("dis", rest) {
		return true
	}
	data, err := artifact.Load(s.Disk, rest)
	if err != nil {
		s.fail(err)
		return true
	}
	if !artifact.IsBytecode(data) {
		s.println("Error: not a TeaScript bytecode file", console.Error)
		return true
	}
	code := artifact.Payload(data)
	s.println(fmt.Sprintf("=== %s (%d instr, %d bytes) ===", rest, len(code)/tvm.InstrSize, len(code)), console.Title)
	for _, line := range tvm.Disassemble(code) {
		s.println("  "+line, console.Info)
	}
	return true
}

func (s *Shell) tregs(string) bool {
	s.show(s.Machine.Registers())
	return true
}

func (s *Shell) teas(rest string) bool {
	switch {
	case rest == "" || rest == "-h":
		s.show(docPages[0])
		return true
	case rest == "help":
		s.show(docPages[1])
		return true
	case strings.HasPrefix(rest, "-doc"):
		n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(rest, "-doc")), "-"))
		if err != nil || n < 0 || n >= len(docPages) {
			s.println(fmt.Sprintf("Error: no such page (use 0-%d)", len(docPages)-1), console.Error)
			return true
		}
		s.show(docPages[n])
		return true
	}

	in, err := compiler.CompileLine(rest)
	if err != nil {
		s.fail(err)
		s.println("Type 'teas help' for commands", console.Info)
		return true
	}

	m := s.Machine
	m.PC++
	running := m.Exec(in)
	name := tvm.Mnemonic(in.Op)

	switch in.Op {
	case tvm.OpOUT:
	case tvm.OpCMP:
		result := map[int32]string{0: "equal (0)", 1: "positive (+1)", -1: "negative (-1)"}[m.Cmp]
		s.println("CMP OK - result: "+result, console.Success)
	case tvm.OpSTORE:
		s.println("STORE OK - value saved to memory", console.Success)
	case tvm.OpJMP, tvm.OpJEQ, tvm.OpJGT, tvm.OpJLT:
		s.println(fmt.Sprintf("%s OK - PC = %d", name, m.PC), console.Success)
	case tvm.OpNOP:
		s.println("NOP OK", console.Success)
	default:
		if !running {
			s.println("HALT OK - machine stopped", console.Success)
		} else {
			s.println(name+" OK - type 'tregs' to see result", console.Success)
		}
	}
	return true
}
