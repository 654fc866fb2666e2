package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/rfpanel-core/internal/transmit"
)

func writeConfig(t *testing.T, addresses string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
transmit:
  driver: noop
pairing:
  addresses: ` + addresses + `
  repeats: 2
  interval_ms: 0
database:
  path: "` + filepath.Join(t.TempDir(), "unused.db") + `"
logging:
  level: error
  output: stderr
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestRun_PairsConfiguredAddresses(t *testing.T) {
	cfg := writeConfig(t, "[0xA0001, 0xA0002]")
	in := strings.NewReader("y\nn\n\n")
	var out bytes.Buffer

	if err := run(context.Background(), []string{"-config", cfg}, in, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	text := out.String()
	if n := strings.Count(text, "Send again?"); n != 3 {
		t.Errorf("prompts = %d, want 3\n%s", n, text)
	}
	if !strings.Contains(text, "paired 2 of 2 sockets") {
		t.Errorf("output missing summary:\n%s", text)
	}
}

func TestRun_AddressFlagOverridesConfig(t *testing.T) {
	cfg := writeConfig(t, "[0xA0001, 0xA0002]")
	var out bytes.Buffer

	err := run(context.Background(), []string{"-config", cfg, "-dry-run", "-address", "0xB0001"}, strings.NewReader("n\n"), &out)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "0xB0001") {
		t.Errorf("prompt should name the flag address:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "paired 1 of 1 sockets") {
		t.Errorf("output missing summary:\n%s", out.String())
	}
}

func TestRun_NoAddresses(t *testing.T) {
	cfg := writeConfig(t, "[]")
	var out bytes.Buffer

	err := run(context.Background(), []string{"-config", cfg}, strings.NewReader(""), &out)
	if !errors.Is(err, transmit.ErrNoAddresses) {
		t.Errorf("run() error = %v, want ErrNoAddresses", err)
	}
}

func TestRun_BadAddressFlag(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-address", "socket-one"}, strings.NewReader(""), &out); err == nil {
		t.Error("run() should reject a non-numeric address")
	}
}

func TestPromptConfirmer_EndOfInputMovesOn(t *testing.T) {
	var out bytes.Buffer
	c := promptConfirmer(strings.NewReader(""), &out)

	again, err := c.Relearn(context.Background(), 0xA0001)
	if err != nil || again {
		t.Errorf("Relearn() = %v, %v; want false, nil", again, err)
	}
}

func TestPromptConfirmer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := promptConfirmer(strings.NewReader("y\n"), &bytes.Buffer{})

	if _, err := c.Relearn(ctx, 0xA0001); !errors.Is(err, context.Canceled) {
		t.Errorf("Relearn() error = %v, want context.Canceled", err)
	}
}
