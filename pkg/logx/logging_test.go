package logx

import (
	"path/filepath"
	"testing"
)

func fileOnly(t *testing.T, level string) Config {
	t.Helper()
	return Config{
		Level: level,
		File:  FileConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "test.log")},
	}
}

func TestApplySwapsLevelOnLiveLoggers(t *testing.T) {
	svc, log := New(fileOnly(t, "error"))
	defer svc.Close()

	if log.Enabled(LevelInfo) {
		t.Fatal("info should be filtered at error level")
	}

	svc.Apply(fileOnly(t, "debug"))
	if !log.Enabled(LevelInfo) {
		t.Fatal("logger handed out before Apply should pick up the new level")
	}
	if !log.Enabled(LevelDebug) {
		t.Fatal("debug should be enabled after Apply")
	}
}

func TestApplyKeepsDerivedLoggersLive(t *testing.T) {
	svc, log := New(fileOnly(t, "error"))
	defer svc.Close()

	derived := log.With(String("comp", "test"))
	svc.Apply(fileOnly(t, "info"))
	if !derived.Enabled(LevelInfo) {
		t.Fatal("derived logger should follow the service config")
	}
	if derived.Enabled(LevelDebug) {
		t.Fatal("debug should stay filtered at info level")
	}
}

func TestNopAndZeroLoggersAreSafe(t *testing.T) {
	var zero Logger
	zero.Info("ignored")
	if !zero.IsZero() {
		t.Error("zero value should report IsZero")
	}

	n := Nop()
	n.Error("ignored", Err(nil))
	if n.IsZero() {
		t.Error("Nop logger is initialized, not zero")
	}
}
