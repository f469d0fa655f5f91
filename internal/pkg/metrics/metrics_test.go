package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWriteTextfile(t *testing.T) {
	InvocationsTotal.WithLabelValues("flash", "nucleo_f429zi", "success").Inc()
	LastExitStatus.WithLabelValues("nucleo_f429zi").Set(0)

	if got := testutil.ToFloat64(InvocationsTotal.WithLabelValues("flash", "nucleo_f429zi", "success")); got < 1 {
		t.Fatalf("counter = %v, want >= 1", got)
	}

	path := filepath.Join(t.TempDir(), "flash.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "cpeer_flash_invocations_total") {
		t.Errorf("textfile missing counter:\n%s", data)
	}
}
