//go:build !js

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"teaos/pkg/artifact"
	"teaos/pkg/asm"
	"teaos/pkg/compiler"
	"teaos/pkg/config"
	"teaos/pkg/console"
	"teaos/pkg/native"
	"teaos/pkg/runner"
	"teaos/pkg/utils"
	"teaos/pkg/vfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the whole batch tool. It returns the process exit code: 1 for a
// failed build or run, 2 for bad usage.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("teaos", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inPath := flags.String("in", "", "input source file (.tea is compiled, anything else assembled)")
	outPath := flags.String("out", "", "output binary file path (default: input with .tbin or .bin extension)")
	runProgram := flags.Bool("run", false, "run the generated binary file")
	runBinPath := flags.String("run-bin", "", "run an existing binary file")
	storagePath := flags.String("storage", "", "host directory the virtual disk is loaded from and saved to")
	configPath := flags.String("config", config.FileName, "settings file")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *runProgram && *runBinPath != "" {
		fmt.Fprintln(stderr, "use either -run or -run-bin, not both")
		return 2
	}
	if *inPath == "" && *runBinPath == "" {
		if *runProgram {
			fmt.Fprintln(stderr, "-run requires -in, or use -run-bin <file>")
		} else {
			fmt.Fprintln(stderr, "nothing to do: provide -in to build, -run to run the built output, or -run-bin <file> to run an existing binary")
			flags.Usage()
		}
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if *storagePath != "" {
		cfg.StoragePath = *storagePath
	}
	commonlog.Configure(cfg.Verbosity, nil)
	log := commonlog.GetLogger("teaos.main")

	disk := vfs.NewVirtualDisk()
	if cfg.StoragePath != "" {
		if err := disk.LoadFrom(cfg.StoragePath); err != nil {
			fmt.Fprintf(stderr, "failed to load storage %q: %v\n", cfg.StoragePath, err)
			return 1
		}
	}

	sink := console.NewTerminal(stdout, cfg.Color)
	r := &runner.Runner{Store: disk, Sink: sink, StepBudget: cfg.StepBudget, Log: commonlog.GetLogger("teaos.runner")}

	runTarget := ""
	if *inPath != "" {
		name, err := build(disk, *inPath, *outPath, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "build failed for %q: %v\n", *inPath, err)
			return 1
		}
		if *runProgram {
			runTarget = name
		}
	}
	if *runBinPath != "" {
		name, err := importFile(disk, *runBinPath)
		if err != nil {
			fmt.Fprintf(stderr, "failed to read binary file %q: %v\n", *runBinPath, err)
			return 1
		}
		runTarget = name
	}

	code := 0
	if runTarget != "" {
		if exec, err := native.NewBuffer(); err == nil {
			defer exec.Close()
			r.Native = exec
		} else {
			log.Infof("native execution unavailable: %s", err)
		}
		if _, err := r.Run(runTarget); err != nil {
			fmt.Fprintf(stderr, "run failed for %q: %v\n", runTarget, err)
			code = 1
		}
	}

	if cfg.StoragePath != "" && disk.IsDirty() {
		if err := disk.PersistTo(cfg.StoragePath); err != nil {
			fmt.Fprintf(stderr, "failed to save storage %q: %v\n", cfg.StoragePath, err)
			return 1
		}
	}
	return code
}

// build compiles or assembles the host file inPath through the virtual disk
// and writes the artifact back to the host. It returns the artifact's disk
// name.
func build(disk *vfs.VirtualDisk, inPath, outPath string, stdout io.Writer) (string, error) {
	src, err := importFile(disk, inPath)
	if err != nil {
		return "", err
	}

	ext := artifact.NativeExt
	if strings.HasSuffix(src, ".tea") {
		ext = artifact.BytecodeExt
	}
	if outPath == "" {
		outPath = defaultOutputPath(inPath, ext)
	}
	out, err := utils.DiskName(outPath)
	if err != nil {
		return "", err
	}

	var summary string
	if ext == artifact.BytecodeExt {
		prog, err := compiler.CompileFile(disk, src, out)
		if err != nil {
			return "", err
		}
		summary = fmt.Sprintf("compiled %d instructions", prog.Instructions)
	} else {
		code, err := asm.AssembleFile(disk, src, out)
		if err != nil {
			return "", err
		}
		summary = fmt.Sprintf("assembled %d bytes", len(code))
	}

	data, err := disk.Read(out)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write binary file %q: %w", outPath, err)
	}
	fmt.Fprintf(stdout, "%s -> %s\n", summary, outPath)
	return out, nil
}

// importFile copies a host file onto the virtual disk under its base name.
func importFile(disk *vfs.VirtualDisk, hostPath string) (string, error) {
	name, err := utils.DiskName(hostPath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return "", err
	}
	if err := disk.Write(name, data); err != nil {
		if errors.Is(err, vfs.ErrFileTooLarge) {
			return "", fmt.Errorf("%w: %d bytes", err, len(data))
		}
		return "", err
	}
	return name, nil
}

func defaultOutputPath(inPath, ext string) string {
	if old := filepath.Ext(inPath); old != "" {
		return strings.TrimSuffix(inPath, old) + ext
	}
	return inPath + ext
}
