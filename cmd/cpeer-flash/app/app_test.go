package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloupeer.io/cpeer-flash/internal/flash"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewFlashCommand(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log.output-paths", "stderr", "--log.level", "error"))

	err := cmd.Execute()
	return out.String(), err
}

func TestDryRunFlash(t *testing.T) {
	out, err := execute(t, "flash", "--dry-run",
		"--board", "nucleo_f429zi",
		"--platform", "app",
		"--layout.root", "/build",
		"--layout.template", "{root}/{profile}/{platform}.elf",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	want := "openocd -c 'source [find board/st_nucleo_f4.cfg]; init; reset halt; " +
		"flash write_image erase /build/release/app.elf; verify_image /build/release/app.elf; reset; shutdown'\n"
	if out != want {
		t.Errorf("output =\n%s\nwant\n%s", out, want)
	}
}

func TestDryRunFlashDebugWithExtraArgs(t *testing.T) {
	out, err := execute(t, "flash-debug", "--dry-run",
		"--board", "stm32f3discovery",
		"--layout.root", "/src",
		"--openocd.extra-args=-f,interface/stlink.cfg",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	for _, want := range []string{
		"openocd -f interface/stlink.cfg -c ",
		"verify_image /src/target/thumbv7em-none-eabi/debug/stm32f3discovery.elf",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestProgramIsUnsupported(t *testing.T) {
	for _, args := range [][]string{
		{"program", "--board", "nucleo_f446re"},
		{"program"},
	} {
		_, err := execute(t, args...)
		if !errors.Is(err, flash.ErrUnsupportedOperation) {
			t.Fatalf("%v: got %v, want ErrUnsupportedOperation", args, err)
		}
		if code := ExitCode(err); code == 0 {
			t.Errorf("%v: exit code 0 for unsupported operation", args)
		}
	}
}

func TestFlashMissingArtifact(t *testing.T) {
	root := t.TempDir()
	_, err := execute(t, "flash",
		"--board", "nucleo_f429zi",
		"--layout.root", root,
		"--openocd.binary", filepath.Join(root, "no-such-openocd"),
	)
	if !errors.Is(err, flash.ErrArtifactNotFound) {
		t.Fatalf("got %v, want ErrArtifactNotFound", err)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "cpeer-flash.yaml")
	data := `board: bench
layout:
  root: /work
  template: "{root}/out/{profile}/{platform}.elf"
boards:
  - name: bench
    openocd-config: board/bench.cfg
    platform: bench_fw
`
	if err := os.WriteFile(cfg, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "install", "--dry-run", "--config", cfg)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "source [find board/bench.cfg]") ||
		!strings.Contains(out, "flash write_image erase /work/out/release/bench_fw.elf") {
		t.Errorf("unexpected output: %s", out)
	}

	// Flags win over the config file.
	out, err = execute(t, "install", "--dry-run", "--config", cfg, "--layout.root", "/override")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "/override/out/release/bench_fw.elf") {
		t.Errorf("flag did not override config: %s", out)
	}
}

func TestBoardsCommand(t *testing.T) {
	out, err := execute(t, "boards")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "nucleo_f429zi") || !strings.Contains(out, "OPENOCD CONFIG") {
		t.Errorf("unexpected boards output:\n%s", out)
	}
}

func TestUnknownBoard(t *testing.T) {
	_, err := execute(t, "flash", "--board", "nope", "--dry-run")
	if err == nil || !strings.Contains(err.Error(), "unknown board") {
		t.Fatalf("got %v, want unknown board error", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), 1},
		{&flash.ExternalToolFailureError{Tool: "openocd", Status: 3}, 3},
		{&flash.UnsupportedOperationError{Operation: flash.Program}, 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestShellQuote(t *testing.T) {
	got := shellQuote([]string{"-f", "interface/stlink.cfg", "-c", "init; it's"})
	want := `-f interface/stlink.cfg -c 'init; it'\''s'`
	if got != want {
		t.Errorf("shellQuote = %s, want %s", got, want)
	}
}
