// Package logging holds the process wide logger used by the engines.
package logging

import (
	"errors"
	"sync"

	"github.com/go-logr/logr"
	"k8s.io/klog/v2"
)

// Version is reported with every log line of the default logger.
// It can be set at build time using -ldflags.
var Version = "dev"

// ErrAlreadyInitialized is returned by Setup once a logger is installed
var ErrAlreadyInitialized = errors.New("logging: global logger already initialized")

var (
	mu     sync.Mutex
	global *logr.Logger
)

// Global returns the process wide logger. The first call without a prior
// Setup installs a klog backed default.
func Global() logr.Logger {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		l := klog.NewKlogr().WithValues("zfskit_version", Version)
		global = &l
	}
	return *global
}

// Setup installs logger as the global logger. It only succeeds before the
// first call to Global or Setup; afterwards it returns the installed logger
// and ErrAlreadyInitialized.
func Setup(logger logr.Logger) (logr.Logger, error) {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		return *global, ErrAlreadyInitialized
	}
	global = &logger
	return logger, nil
}

// ForModule returns a child of the global logger tagged with the module and implementation names
func ForModule(module, impl string) logr.Logger {
	return Global().WithValues("zfskit_module", module, "impl", impl)
}

// reset clears the global logger. Tests only.
func reset() {
	mu.Lock()
	global = nil
	mu.Unlock()
}
