package flash

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildSequenceOrder(t *testing.T) {
	for _, op := range []Operation{Install, Flash, FlashDebug} {
		t.Run(op.String(), func(t *testing.T) {
			a, err := testLayout().Resolve(op, op.Profile())
			if err != nil {
				t.Fatal(err)
			}

			seq, err := BuildSequence(op, a)
			if err != nil {
				t.Fatalf("BuildSequence: %v", err)
			}

			want := []string{
				"init",
				"reset halt",
				"flash write_image erase " + a.Path,
				"verify_image " + a.Path,
				"reset",
				"shutdown",
			}
			if diff := cmp.Diff(want, seq.Steps); diff != "" {
				t.Errorf("steps mismatch (-want +got):\n%s", diff)
			}

			written := strings.TrimPrefix(seq.Steps[2], "flash write_image erase ")
			verified := strings.TrimPrefix(seq.Steps[3], "verify_image ")
			if written != verified {
				t.Errorf("write path %q != verify path %q", written, verified)
			}
		})
	}
}

func TestBuildSequenceProgramUnsupported(t *testing.T) {
	artifacts := []Artifact{
		{},
		{Path: "/build/release/app.elf", Platform: "app", Profile: Release},
		{Path: "/does/not/exist.elf", Platform: "app", Profile: Release},
	}

	for _, a := range artifacts {
		seq, err := BuildSequence(Program, a)
		if seq != nil {
			t.Errorf("Program produced a sequence for %q", a.Path)
		}
		if !errors.Is(err, ErrUnsupportedOperation) {
			t.Errorf("BuildSequence(Program, %q) = %v, want ErrUnsupportedOperation", a.Path, err)
		}
	}

	_, err := BuildSequence(Program, Artifact{Platform: "nucleo_f429zi"})
	var uerr *UnsupportedOperationError
	if !errors.As(err, &uerr) {
		t.Fatalf("want *UnsupportedOperationError, got %T", err)
	}
	if !strings.Contains(uerr.Error(), "nucleo_f429zi") || !strings.Contains(uerr.Error(), "documentation") {
		t.Errorf("guidance text missing from %q", uerr.Error())
	}
}

func TestSequenceScript(t *testing.T) {
	seq, err := BuildSequence(Flash, Artifact{Path: "/build/release/app.elf", Profile: Release})
	if err != nil {
		t.Fatal(err)
	}

	want := "source [find board/st_nucleo_f4.cfg]; init; reset halt; " +
		"flash write_image erase /build/release/app.elf; verify_image /build/release/app.elf; reset; shutdown"
	if got := seq.Script("board/st_nucleo_f4.cfg"); got != want {
		t.Errorf("Script() =\n%s\nwant\n%s", got, want)
	}
}
