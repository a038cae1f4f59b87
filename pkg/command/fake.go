package command

import (
	"fmt"
	"strings"
)

// Fake is a Runner that answers from canned results and records every call.
// Results are keyed by the space joined argv; commands without an entry get
// Default, or a successful empty result when Default is nil.
type Fake struct {
	Results map[string]*Result
	Errors  map[string]error
	Default *Result
	Calls   [][]string
}

// NewFake returns an empty Fake
func NewFake() *Fake {
	return &Fake{Results: make(map[string]*Result), Errors: make(map[string]error)}
}

// On registers the result for argv
func (f *Fake) On(argv []string, result *Result) *Fake {
	f.Results[strings.Join(argv, " ")] = result
	return f
}

// Fail registers a start failure for argv
func (f *Fake) Fail(argv []string, err error) *Fake {
	f.Errors[strings.Join(argv, " ")] = err
	return f
}

func (f *Fake) Run(argv []string) (*Result, error) {
	f.Calls = append(f.Calls, append([]string(nil), argv...))
	key := strings.Join(argv, " ")
	if err, ok := f.Errors[key]; ok {
		return nil, err
	}
	if r, ok := f.Results[key]; ok {
		return r, nil
	}
	if f.Default != nil {
		return f.Default, nil
	}
	return &Result{}, nil
}

// Last returns the most recent call joined by spaces
func (f *Fake) Last() string {
	if len(f.Calls) == 0 {
		return ""
	}
	return strings.Join(f.Calls[len(f.Calls)-1], " ")
}

// Stdout builds a successful result
func Stdout(s string) *Result {
	return &Result{Stdout: []byte(s)}
}

// Stderr builds a failed result with exit status 1
func Stderr(s string) *Result {
	return &Result{Stderr: []byte(s), ExitCode: 1}
}

func (r *Result) String() string {
	return fmt.Sprintf("exit %d stdout %q stderr %q", r.ExitCode, r.Stdout, r.Stderr)
}
