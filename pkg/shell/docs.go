package shell

import "teaos/pkg/console"

type page []console.Line

func title(s string) console.Line  { return console.Line{Text: s, Severity: console.Title} }
func accent(s string) console.Line { return console.Line{Text: s, Severity: console.Accent} }
func info(s string) console.Line   { return console.Line{Text: s, Severity: console.Info} }
func good(s string) console.Line   { return console.Line{Text: s, Severity: console.Success} }

// docPages are shown by "teas -doc -N".
var docPages = []page{
	{
		title("=== TeaScript Documentation Index ==="),
		accent(" Page 0: Index (you are here)"),
		info(" Page 1: Basic Instructions (LOAD, ADD, SUB, MUL, NEG, OUT)"),
		info(" Page 2: Logic Instructions (TAND, TOR)"),
		info(" Page 3: Comparison and Jumps (CMP, JMP, JEQ, JGT, JLT)"),
		info(" Page 4: Memory Operations (STORE, LDMEM)"),
		info(" Page 5: System Commands (tcc, asm, run, tregs, dis)"),
		info(" Usage: teas -doc -N  (where N = page number 0-5)"),
		info("        teas <instruction>  (to execute)"),
		good(" Example: teas -doc -1  (view page 1)"),
	},
	{
		title("=== TeaScript Page 1: Basic Instructions ==="),
		accent(" Ternary Computing: -1 (negative) | 0 (neutral) | +1 (positive)"),
		info(" LOAD Tn val   - Load value into register Tn"),
		info(" ADD  Tn Tm    - Tn = Tn + Tm"),
		info(" SUB  Tn Tm    - Tn = Tn - Tm"),
		info(" MUL  Tn Tm    - Tn = Tn * Tm"),
		info(" NEG  Tn       - Negate register Tn"),
		info(" OUT  Tn       - Output register Tn value"),
		info(" Example: teas LOAD T0 5"),
		info("          teas LOAD T1 3"),
		info("          teas ADD T0 T1"),
		info("          teas OUT T0     (shows T0 = 8)"),
	},
	{
		title("=== TeaScript Page 2: Logic Instructions ==="),
		accent(" Ternary logic uses three states: -1, 0, +1"),
		info(" TAND Tn Tm    - Ternary AND operation"),
		info("                 Returns -1 if either is -1"),
		info("                 Returns  0 if either is  0"),
		info("                 Returns +1 if both are  +1"),
		info(" TOR  Tn Tm    - Ternary OR operation"),
		info("                 Returns +1 if either is +1"),
		info("                 Returns  0 if either is  0"),
		info("                 Returns -1 if both are  -1"),
		info(" Example: teas LOAD T0 1"),
		info("          teas LOAD T1 -1"),
		info("          teas TAND T0 T1  (result: -1)"),
	},
	{
		title("=== TeaScript Page 3: Comparison and Jumps ==="),
		accent(" Comparison instruction:"),
		info(" CMP  Tn Tm    - Compare registers Tn and Tm"),
		info("                 Sets comparison result:"),
		info("                   +1 if Tn > Tm (positive)"),
		info("                    0 if Tn = Tm (equal)"),
		info("                   -1 if Tn < Tm (negative)"),
		info(" JMP label     - Always jump"),
		info(" JEQ/JGT/JLT   - Jump if result is 0 / +1 / -1"),
		info(" Labels are 'name:' and must appear before the jump"),
		info(" Example: teas LOAD T0 5"),
		info("          teas LOAD T1 3"),
		info("          teas CMP T0 T1  (result: positive)"),
		info(" Use 'teas' to return to index"),
	},
	{
		title("=== TeaScript Page 4: Memory Operations ==="),
		accent(" VM Memory: 256 ternary locations (0-255)"),
		info(" STORE Tn addr - Store register Tn to memory address"),
		info(" LDMEM Tn addr - Load memory address into Tn"),
		info(" Example: teas LOAD T0 42"),
		info("          teas STORE T0 10  (save to mem[10])"),
		info("          teas LOAD T1 0"),
		info("          teas LDMEM T1 10  (load from mem[10])"),
		info("          teas OUT T1       (shows 42)"),
		info(" Use 'teas' to return to index"),
	},
	{
		title("=== TeaScript Page 5: System Commands ==="),
		accent(" Toolchain commands:"),
		info(" tcc <src> [out]  - Compile TeaScript to bytecode (.tbin)"),
		info(" asm <src> [out]  - Assemble x86 to machine code (.bin)"),
		info(" run <bin>        - Run bytecode or native code"),
		info(" tregs            - Show the ternary registers"),
		info(" dis <bin>        - List the instructions of a .tbin"),
		info(" Example: write p.tea LOAD T0 5\\nOUT T0\\nHALT"),
		info("          tcc p.tea"),
		info("          run p.tbin"),
		info(" Use 'teas' to return to index"),
	},
}

var helpPage = page{
	title("=== TeaOS Commands === (use <cmd> -h for help)"),
	accent(" System:"),
	info("  help        Show help       | clear       Clear screen"),
	info("  echo <t>    Print text      | exit        Leave the shell"),
	accent(" Files:"),
	info("  ls [-l]     List files      | cat <f>     Show file"),
	info("  touch <f>   Create file     | rm <f>      Remove file"),
	info("  write <f> <t> Write file    | xxd <f>     File hex dump"),
	accent(" Compilers:"),
	info("  tcc <f>     Compile .tea    | asm <f>     Assemble .asm"),
	info("  run <f>     Execute binary  | teas <i>    TeaScript VM"),
	info("  tregs       Ternary regs    | dis <f>     List bytecode"),
}

// usages are printed for "<cmd> -h" and when a required argument is missing.
var usages = map[string]page{
	"tcc": {
		info("Usage: tcc <source.tea> [output.tbin]"),
		info("  -h           Show this help"),
		info("  Compiles TeaScript source to bytecode"),
		accent("  Labels: 'name:' before the jump that uses it"),
		accent("  Jump:  JMP/JEQ/JGT/JLT <label>"),
		accent("  End:   HALT"),
	},
	"asm": {
		info("Usage: asm <source.asm> [output.bin]"),
		info("  -h           Show this help"),
		info("  Assembles x86 assembly to machine code"),
		accent("  Regs: eax ecx edx ebx esp ebp esi edi"),
		accent("  Ops:  mov add sub and or xor cmp inc dec push pop int"),
		accent("  Flow: jmp je jne jl jge jle jg call ret hlt nop"),
	},
	"run": {
		info("Usage: run <binary>"),
		info("  -h         Show this help"),
		info("  .tbin      Run TeaScript bytecode (via TVM)"),
		info("  .bin       Run native x86 code (must end with ret)"),
	},
	"cat": {
		info("Usage: cat <filename>"),
		info("  -h         Show this help"),
		info("  <filename> Display file contents"),
	},
	"xxd": {
		info("Usage: xxd <file>"),
		info("  -h      Show this help"),
		info("  Hex dump file contents (first 64 bytes)"),
	},
	"rm": {
		info("Usage: rm <filename>"),
		info("  -h         Show this help"),
		info("  <file>     Remove a file"),
	},
	"touch": {
		info("Usage: touch <filename>"),
		info("  -h         Show this help"),
		info("  <filename> Create an empty file"),
	},
	"write": {
		info("Usage: write <filename> <text>"),
		info("  -h         Show this help"),
		info("  <text>     Replaces the file; \\n starts a new line"),
	},
	"dis": {
		info("Usage: dis <file.tbin>"),
		info("  -h         Show this help"),
		info("  Lists bytecode one instruction per line"),
	},
	"ls": {
		info("Usage: ls [options]"),
		info("  -h    Show this help"),
		info("  -l    Long listing with sizes and dates"),
	},
	"echo": {
		info("Usage: echo <text>"),
		info("  -h      Show this help"),
		info("  <text>  Print text to terminal"),
	},
}
