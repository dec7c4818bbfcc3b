package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewWritesDailyFile(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	root := t.TempDir()
	log, err := New(Options{Root: root, Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debugw("probe", "k", "v")
	_ = log.Sync()

	name := filepath.Join(root, "logs", time.Now().Format("2006-01-02")+".log")
	raw, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	for _, want := range []string{`"msg":"logger online"`, `"level":"debug"`, `"k":"v"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %s:\n%s", want, out)
		}
	}
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	log, err := New(Options{Root: t.TempDir(), Level: "chatty"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.Desugar().Core().Enabled(zap.DebugLevel) {
		t.Fatal("debug enabled for unknown level")
	}
}
