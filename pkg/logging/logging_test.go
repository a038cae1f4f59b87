package logging

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

func TestSetupBeforeFirstUse(t *testing.T) {
	reset()
	defer reset()

	var lines []string
	custom := funcr.New(func(prefix, args string) { lines = append(lines, args) }, funcr.Options{})

	if _, err := Setup(custom); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	Global().Info("hello")
	if len(lines) != 1 {
		t.Errorf("custom logger received %d lines, want 1", len(lines))
	}
}

func TestSetupTwiceFails(t *testing.T) {
	reset()
	defer reset()

	first := funcr.New(func(string, string) {}, funcr.Options{})
	if _, err := Setup(first); err != nil {
		t.Fatalf("first Setup() error = %v", err)
	}

	previous, err := Setup(logr.Discard())
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Setup() error = %v, want %v", err, ErrAlreadyInitialized)
	}
	if previous.GetSink() != first.GetSink() {
		t.Error("second Setup() should return the installed logger")
	}
}

func TestSetupAfterGlobalFails(t *testing.T) {
	reset()
	defer reset()

	_ = Global()
	if _, err := Setup(logr.Discard()); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("Setup() after Global() error = %v, want %v", err, ErrAlreadyInitialized)
	}
}

func TestForModule(t *testing.T) {
	reset()
	defer reset()

	var got string
	_, _ = Setup(funcr.New(func(prefix, args string) { got = args }, funcr.Options{}))
	ForModule("zpool", "open3").Info("executing")

	for _, want := range []string{`"zfskit_module"="zpool"`, `"impl"="open3"`} {
		if !strings.Contains(got, want) {
			t.Errorf("ForModule() logged %s, want it to contain %s", got, want)
		}
	}
}
