package flash

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrArtifactNotFound     = errors.New("artifact not found")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrExternalToolFailure  = errors.New("external tool failure")

	ErrUnknownOperation = errors.New("unknown operation")
	ErrProfileMismatch  = errors.New("build profile does not match operation")
	ErrInvalidLayout    = errors.New("invalid artifact layout")
)

// ArtifactNotFoundError reports a compiled image missing at its resolved path.
// Err carries the build or fetch failure, if one was attempted.
type ArtifactNotFoundError struct {
	Path string
	Err  error
}

func (e *ArtifactNotFoundError) Error() string {
	msg := fmt.Sprintf("artifact not found at %s; build it first", e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ArtifactNotFoundError) Is(target error) bool { return target == ErrArtifactNotFound }
func (e *ArtifactNotFoundError) Unwrap() error        { return e.Err }

// UnsupportedOperationError is returned for operations without a flash
// sequence. It is permanent for the board.
type UnsupportedOperationError struct {
	Operation Operation
	Platform  string
}

func (e *UnsupportedOperationError) Error() string {
	platform := e.Platform
	if platform == "" {
		platform = "this board"
	}
	return fmt.Sprintf("cannot %s %s over USB: no bootloader programming path is defined for it. "+
		"Use `flash` over JTAG, or consult the board documentation and customize the %s command for your setup",
		e.Operation, platform, e.Operation)
}

func (e *UnsupportedOperationError) Is(target error) bool { return target == ErrUnsupportedOperation }

// ExternalToolFailureError carries the programmer's non-zero exit status
// together with the tail of its output.
type ExternalToolFailureError struct {
	Tool   string
	Status int
	Output []string
}

func (e *ExternalToolFailureError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.Status)
	if len(e.Output) > 0 {
		msg += ":\n  " + strings.Join(e.Output, "\n  ")
	}
	return msg
}

func (e *ExternalToolFailureError) Is(target error) bool { return target == ErrExternalToolFailure }

// ExitStatus extracts the programmer's exit status from err.
func ExitStatus(err error) (int, bool) {
	var tf *ExternalToolFailureError
	if errors.As(err, &tf) {
		return tf.Status, true
	}
	return 0, false
}
