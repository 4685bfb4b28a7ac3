// Package runner loads a binary artifact from the disk and hands it to the
// interpreter or the native executor depending on its header.
package runner

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"teaos/pkg/artifact"
	"teaos/pkg/console"
	"teaos/pkg/native"
	"teaos/pkg/tvm"
	"teaos/pkg/vfs"
)

type Kind int

const (
	Bytecode Kind = iota
	Native
)

func (k Kind) String() string {
	if k == Native {
		return "native"
	}
	return "bytecode"
}

// Report describes a completed run. Result is set for bytecode, Return for
// native code.
type Report struct {
	Kind   Kind
	Result tvm.Result
	Return int32
}

type Runner struct {
	Store artifact.Store
	Sink  console.Sink
	// Native may be nil, in which case native artifacts fail with
	// native.ErrUnsupported.
	Native     native.Executor
	StepBudget int
	Log        commonlog.Logger
}

func (r *Runner) log() commonlog.Logger {
	if r.Log == nil {
		return commonlog.GetLogger("teaos.runner")
	}
	return r.Log
}

func (r *Runner) sink() console.Sink {
	if r.Sink == nil {
		return console.Discard
	}
	return r.Sink
}

// Run executes the artifact called name.
func (r *Runner) Run(name string) (*Report, error) {
	data, err := artifact.Load(r.Store, name)
	if err != nil {
		if errors.Is(err, artifact.ErrSourceNotFound) {
			return nil, fmt.Errorf("%w: '%s'", vfs.ErrFileNotFound, name)
		}
		return nil, err
	}

	if artifact.IsBytecode(data) {
		return r.runBytecode(name, artifact.Payload(data)), nil
	}
	return r.runNative(name, data)
}

func (r *Runner) runBytecode(name string, code []byte) *Report {
	sink := r.sink()
	sink.Println(fmt.Sprintf("=== Running TBC (%d instr, %d bytes) ===", len(code)/tvm.InstrSize, len(code)), console.Title)

	budget := r.StepBudget
	if budget <= 0 {
		budget = tvm.DefaultStepBudget
	}
	res, _ := tvm.Execute(code, budget, sink)

	switch res.Outcome {
	case tvm.Halted:
		sink.Println("  Program halted.", console.Success)
	case tvm.StepLimit:
		sink.Println("  Stopped: max steps exceeded", console.Error)
	case tvm.EndOfProgram:
		sink.Println("  Program ended: ran past last instruction", console.Info)
	}
	r.log().Debugf("%s: %s after %d steps", name, res.Outcome, res.Steps)
	return &Report{Kind: Bytecode, Result: res}
}

func (r *Runner) runNative(name string, code []byte) (*Report, error) {
	if len(code) > native.BufferSize {
		return nil, native.ErrTooLarge
	}
	if r.Native == nil {
		return nil, native.ErrUnsupported
	}

	sink := r.sink()
	sink.Println("=== Running Native Binary ===", console.Title)
	ret, err := r.Native.ExecuteRaw(code)
	if err != nil {
		r.log().Errorf("%s: %s", name, err)
		return nil, err
	}
	sink.Println(fmt.Sprintf("  Return (eax): %d", ret), console.Accent)
	sink.Println("  Program returned.", console.Success)
	r.log().Debugf("%s: returned %d", name, ret)
	return &Report{Kind: Native, Return: ret}, nil
}
