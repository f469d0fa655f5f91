package flash

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloupeer.io/cpeer-flash/pkg/log"
)

func TestWatchReflashesOnChange(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "release"), 0o755); err != nil {
		t.Fatal(err)
	}
	artifact := filepath.Join(root, "release", "app.elf")
	if err := os.WriteFile(artifact, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{}
	d, err := NewDispatcher(
		Layout{Root: root, Platform: "app", Template: "{root}/{profile}/{platform}.elf"},
		runner,
		WithLogger(log.NewNopLogger()),
	)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan error, 8)
	done := make(chan error, 1)
	go func() {
		done <- d.Watch(ctx, Flash, 50*time.Millisecond, func(_ *Result, err error) {
			results <- err
		})
	}()

	waitResult := func() {
		t.Helper()
		select {
		case err := <-results:
			if err != nil {
				t.Fatalf("dispatch failed: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for dispatch")
		}
	}

	waitResult()
	// Let the watcher settle before rewriting the artifact.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(artifact, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitResult()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

func TestWatchRejectsProgram(t *testing.T) {
	d := newTestDispatcher(t, &fakeRunner{}, presentProvisioner())
	err := d.Watch(context.Background(), Program, 0, func(*Result, error) {
		t.Error("callback must not run for program")
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestWatchBuildsIntoMissingDirectory(t *testing.T) {
	root := t.TempDir()
	layout := Layout{Root: root, Platform: "app", Template: "{root}/target/{profile}/{platform}.elf"}

	builder := &fakeBuilder{create: true}
	runner := &fakeRunner{}
	d, err := NewDispatcher(layout, runner,
		WithProvisioner(NewProvisioner(WithBuilder(builder, false), WithProvisionerLogger(log.NewNopLogger()))),
		WithLogger(log.NewNopLogger()),
	)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan error, 4)
	done := make(chan error, 1)
	go func() {
		done <- d.Watch(ctx, Flash, 50*time.Millisecond, func(_ *Result, err error) {
			results <- err
		})
	}()

	select {
	case err := <-results:
		if err != nil {
			t.Fatalf("first dispatch failed: %v", err)
		}
	case err := <-done:
		t.Fatalf("Watch returned before dispatching: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
	if builder.calls != 1 {
		t.Errorf("builder calls = %d, want 1", builder.calls)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
