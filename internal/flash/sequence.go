package flash

import (
	"fmt"
	"strings"
)

const (
	StepInit      = "init"
	StepResetHalt = "reset halt"
	StepReset     = "reset"
	StepShutdown  = "shutdown"

	writeImageCmd  = "flash write_image erase"
	verifyImageCmd = "verify_image"
)

// Sequence is the ordered list of programmer commands for one artifact.
type Sequence struct {
	Operation Operation
	Artifact  Artifact
	Steps     []string
}

// BuildSequence returns the fixed six-step flash sequence for op. Program
// always fails with UnsupportedOperationError, whether or not the artifact
// exists.
func BuildSequence(op Operation, artifact Artifact) (*Sequence, error) {
	if !op.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if !op.Supported() {
		return nil, &UnsupportedOperationError{Operation: op, Platform: artifact.Platform}
	}
	if artifact.Path == "" {
		return nil, fmt.Errorf("%w: empty artifact path", ErrInvalidLayout)
	}

	return &Sequence{
		Operation: op,
		Artifact:  artifact,
		Steps: []string{
			StepInit,
			StepResetHalt,
			writeImageCmd + " " + artifact.Path,
			verifyImageCmd + " " + artifact.Path,
			StepReset,
			StepShutdown,
		},
	}, nil
}

// Script renders the composite instruction handed to the programmer with -c.
// boardConfig is sourced first through OpenOCD's [find] search path.
func (s *Sequence) Script(boardConfig string) string {
	parts := make([]string, 0, len(s.Steps)+1)
	if boardConfig != "" {
		parts = append(parts, fmt.Sprintf("source [find %s]", boardConfig))
	}
	parts = append(parts, s.Steps...)
	return strings.Join(parts, "; ")
}
