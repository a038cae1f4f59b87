package command

import (
	"bytes"
	"errors"
	"os"
	"os/exec"

	"github.com/go-logr/logr"
	"github.com/kballard/go-shellquote"
)

// Result is the captured outcome of one command
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports whether the command exited with status 0
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes an external command and captures its output. A non-zero
// exit status is not an error; err is only set when the command could not be
// started or waited for.
type Runner interface {
	Run(argv []string) (*Result, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	logger logr.Logger
}

// NewExecRunner creates a runner that logs every command at V(1)
func NewExecRunner(logger logr.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run executes argv[0] with the remaining arguments
func (r *ExecRunner) Run(argv []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, exec.ErrNotFound
	}
	r.logCommand(argv)

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitError *exec.ExitError
		if !errors.As(err, &exitError) {
			r.logger.V(1).Info("Command failed to run", "cmd", shellquote.Join(argv...), "error", err.Error())
			return nil, err
		}
		result.ExitCode = exitError.ExitCode()
	}
	r.logCommandResult(result)
	return result, nil
}

// logCommand logs the command being executed
func (r *ExecRunner) logCommand(argv []string) {
	r.logger.V(1).Info("Executing command", "cmd", shellquote.Join(argv...))
}

// logCommandResult logs the exit code and any captured output
func (r *ExecRunner) logCommandResult(result *Result) {
	log := r.logger.V(1)
	log.Info("Command finished", "exitCode", result.ExitCode)
	if len(result.Stdout) > 0 {
		log.Info("Command stdout", "stdout", string(result.Stdout))
	}
	if len(result.Stderr) > 0 {
		log.Info("Command stderr", "stderr", string(result.Stderr))
	}
}

// FromEnv returns the command line stored in the environment variable key,
// split with shell quoting rules, or fallback when the variable is unset or empty.
// A value that cannot be split is used as a single program path.
func FromEnv(key, fallback string) []string {
	value := os.Getenv(key)
	if value == "" {
		return []string{fallback}
	}
	argv, err := shellquote.Split(value)
	if err != nil || len(argv) == 0 {
		return []string{value}
	}
	return argv
}
