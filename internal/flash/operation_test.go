package flash

import (
	"errors"
	"testing"
)

func TestOperationTable(t *testing.T) {
	tests := []struct {
		op        Operation
		profile   BuildProfile
		supported bool
		canonical Operation
	}{
		{Install, Release, true, Flash},
		{Flash, Release, true, Flash},
		{FlashDebug, Debug, true, FlashDebug},
		{Program, Release, false, Program},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			if got := tt.op.Profile(); got != tt.profile {
				t.Errorf("Profile() = %q, want %q", got, tt.profile)
			}
			if got := tt.op.Supported(); got != tt.supported {
				t.Errorf("Supported() = %v, want %v", got, tt.supported)
			}
			if got := tt.op.Canonical(); got != tt.canonical {
				t.Errorf("Canonical() = %q, want %q", got, tt.canonical)
			}
		})
	}

	if got := len(Operations()); got != len(operations) {
		t.Errorf("Operations() lists %d operations, table has %d", got, len(operations))
	}
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation(" Flash-Debug ")
	if err != nil || op != FlashDebug {
		t.Fatalf("ParseOperation = %q, %v", op, err)
	}

	if _, err := ParseOperation("erase"); !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("ParseOperation(erase) = %v, want ErrUnknownOperation", err)
	}
}
