package flash

import (
	"fmt"
	"strings"
)

// Operation is one of the user-facing flash commands.
type Operation string

const (
	Install    Operation = "install"
	Flash      Operation = "flash"
	FlashDebug Operation = "flash-debug"
	Program    Operation = "program"
)

// BuildProfile selects which compiled image an operation needs.
type BuildProfile string

const (
	Debug   BuildProfile = "debug"
	Release BuildProfile = "release"
)

type operationSpec struct {
	profile   BuildProfile
	supported bool
	// alias is the operation this one stands for, if any.
	alias Operation
}

// The table is fixed at compile time; it is not configurable at runtime.
var operations = map[Operation]operationSpec{
	Install:    {profile: Release, supported: true, alias: Flash},
	Flash:      {profile: Release, supported: true},
	FlashDebug: {profile: Debug, supported: true},
	Program:    {profile: Release, supported: false},
}

// Operations returns every known operation in presentation order.
func Operations() []Operation {
	return []Operation{Install, Flash, FlashDebug, Program}
}

// ParseOperation maps a command name onto an Operation.
func ParseOperation(name string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := operations[op]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return op, nil
}

func (o Operation) String() string {
	return string(o)
}

// Known reports whether o is part of the operation table.
func (o Operation) Known() bool {
	_, ok := operations[o]
	return ok
}

// Profile returns the build profile o requires, or "" for unknown operations.
func (o Operation) Profile() BuildProfile {
	return operations[o].profile
}

// Supported reports whether o can produce a flash command sequence.
func (o Operation) Supported() bool {
	return operations[o].supported
}

// Canonical follows aliases, so Install yields Flash.
func (o Operation) Canonical() Operation {
	if spec, ok := operations[o]; ok && spec.alias != "" {
		return spec.alias
	}
	return o
}

func (p BuildProfile) String() string {
	return string(p)
}
