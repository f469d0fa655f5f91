package flash

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	utilexec "k8s.io/utils/exec"
	testingexec "k8s.io/utils/exec/testing"

	"cloupeer.io/cpeer-flash/pkg/log"
)

func fakeExecFor(fcmd *testingexec.FakeCmd) *testingexec.FakeExec {
	return &testingexec.FakeExec{
		CommandScript: []testingexec.FakeCommandAction{
			func(cmd string, args ...string) utilexec.Cmd {
				return testingexec.InitFakeCmd(fcmd, cmd, args...)
			},
		},
	}
}

func TestOpenOCDRunArgv(t *testing.T) {
	fcmd := &testingexec.FakeCmd{
		RunScript: []testingexec.FakeAction{
			func() ([]byte, []byte, error) { return nil, []byte("Info : shutdown command invoked\n"), nil },
		},
	}
	o := NewOpenOCD(fakeExecFor(fcmd), "/opt/openocd/bin/openocd", []string{"-f", "interface/stlink.cfg"}, 5, log.NewNopLogger())

	script := "source [find board/st_nucleo_f4.cfg]; init; reset halt; flash write_image erase a.elf; verify_image a.elf; reset; shutdown"
	status, err := o.Run(context.Background(), script)
	if err != nil || status != 0 {
		t.Fatalf("Run() = %d, %v", status, err)
	}

	want := []string{"/opt/openocd/bin/openocd", "-f", "interface/stlink.cfg", "-c", script}
	if diff := cmp.Diff(want, fcmd.Argv); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Info : shutdown command invoked"}, o.Tail()); diff != "" {
		t.Errorf("tail mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenOCDRunExitStatus(t *testing.T) {
	fcmd := &testingexec.FakeCmd{
		RunScript: []testingexec.FakeAction{
			func() ([]byte, []byte, error) {
				return nil, []byte("Error: open failed\n"), testingexec.FakeExitError{Status: 1}
			},
		},
	}
	o := NewOpenOCD(fakeExecFor(fcmd), "", nil, 5, log.NewNopLogger())

	status, err := o.Run(context.Background(), "init; shutdown")
	if err != nil {
		t.Fatalf("a tool exit must not be a launch error: %v", err)
	}
	if status != 1 {
		t.Errorf("status = %d, want 1", status)
	}
	if fcmd.Argv[0] != "openocd" {
		t.Errorf("default binary = %q, want openocd", fcmd.Argv[0])
	}
	if o.Name() != "openocd" {
		t.Errorf("Name() = %q", o.Name())
	}
}

func TestOpenOCDRunNotFound(t *testing.T) {
	fcmd := &testingexec.FakeCmd{
		RunScript: []testingexec.FakeAction{
			func() ([]byte, []byte, error) { return nil, nil, utilexec.ErrExecutableNotFound },
		},
	}
	o := NewOpenOCD(fakeExecFor(fcmd), "openocd", nil, 5, log.NewNopLogger())

	_, err := o.Run(context.Background(), "init")
	if !errors.Is(err, utilexec.ErrExecutableNotFound) {
		t.Fatalf("Run() error = %v, want ErrExecutableNotFound", err)
	}
}

func TestOpenOCDRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fcmd := &testingexec.FakeCmd{
		RunScript: []testingexec.FakeAction{
			func() ([]byte, []byte, error) {
				cancel()
				return nil, nil, testingexec.FakeExitError{Status: -1}
			},
		},
	}
	o := NewOpenOCD(fakeExecFor(fcmd), "openocd", nil, 5, log.NewNopLogger())

	_, err := o.Run(ctx, "init")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}
