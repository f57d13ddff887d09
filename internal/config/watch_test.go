package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "regwatch/pkg/logx"
)

const watchValidConfig = `
dataset_url: "https://example.test/data.csv"
telegram:
  token: "token123"
  chat_id: 42
`

func TestWatchKeepsPreviousConfigOnBadReload(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "regwatch.yaml")
	if err := os.WriteFile(path, []byte(watchValidConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan Config, 4)
	if err := Watch(ctx, path, logx.Nop(), func(c Config) { applied <- c }); err != nil {
		t.Fatal(err)
	}

	// Unknown field: Load fails, previous config must stay in effect.
	if err := os.WriteFile(path, []byte("dataset_ur1: oops\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-applied:
		t.Fatalf("unparsable config must not be applied, got %+v", c)
	case <-time.After(900 * time.Millisecond):
	}

	// Parses but misses required settings: Validate fails, still not applied.
	if err := os.WriteFile(path, []byte("target_id: incomplete\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-applied:
		t.Fatalf("incomplete config must not be applied, got %+v", c)
	case <-time.After(900 * time.Millisecond):
	}

	// A good write afterwards recovers.
	good := watchValidConfig + "target_id: \"updated-id\"\n"
	if err := os.WriteFile(path, []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-applied:
		if c.TargetID != "updated-id" {
			t.Errorf("applied TargetID = %q, want updated-id", c.TargetID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("valid reload was never applied")
	}
}

func TestWatchAppliesValidReload(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "regwatch.yaml")
	if err := os.WriteFile(path, []byte(watchValidConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan Config, 4)
	if err := Watch(ctx, path, logx.Nop(), func(c Config) { applied <- c }); err != nil {
		t.Fatal(err)
	}

	next := watchValidConfig + "logging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(next), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-applied:
		if c.Logging.Level != "debug" {
			t.Errorf("Logging.Level = %q, want debug", c.Logging.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload was never applied")
	}
}
