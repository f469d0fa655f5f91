package log

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLineWriter(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	w := NewLineWriter(NewFromZap(zap.New(core)), "openocd", 2)

	fmt.Fprint(w, "Open On-Chip Debugger\r\n")
	fmt.Fprint(w, "Info : clock speed")
	fmt.Fprint(w, " 2000 kHz\n\n")
	fmt.Fprint(w, "Error: init mode failed")
	w.Flush()

	if got := logs.Len(); got != 3 {
		t.Fatalf("got %d entries, want 3", got)
	}
	for _, e := range logs.All() {
		if e.Message != "openocd" {
			t.Errorf("unexpected message %q", e.Message)
		}
	}

	want := []string{"Info : clock speed 2000 kHz", "Error: init mode failed"}
	if diff := cmp.Diff(want, w.Tail()); diff != "" {
		t.Errorf("tail mismatch (-want +got):\n%s", diff)
	}
}
