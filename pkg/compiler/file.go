package compiler

import (
	"teaos/pkg/artifact"
)

// CompileFile compiles src from the store and saves the artifact as out.
func CompileFile(store artifact.Store, src, out string) (*Program, error) {
	source, err := artifact.Load(store, src)
	if err != nil {
		return nil, err
	}
	prog, err := Compile(source)
	if err != nil {
		return nil, err
	}
	if err := artifact.Save(store, out, prog.Artifact()); err != nil {
		return nil, err
	}
	log.Debugf("compiled %s -> %s (%d instructions)", src, out, prog.Instructions)
	return prog, nil
}
