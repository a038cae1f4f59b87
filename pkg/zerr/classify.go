package zerr

import (
	"errors"
	"io/fs"
	"os/exec"
	"regexp"
	"strings"
	"syscall"

	"github.com/runningman84/zfskit/pkg/nv"
	"github.com/runningman84/zfskit/pkg/parser"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

type rule struct {
	re   *regexp.Regexp
	kind Kind
	// fill copies capture groups into the error payload
	fill func(e *Error, m []string)
}

func devicePool(e *Error, m []string) {
	e.Device, e.Pool = m[1], m[2]
}

// rules are tried in order. Several tool versions print overlapping
// messages, so the more specific phrasings come first.
var rules = []rule{
	{regexp.MustCompile(`following errors:\n(\S+) is part of active pool '(\S+)'`), VdevReuse, devicePool},
	{regexp.MustCompile(`(\S+) is part of potentially active pool '(\S+)'`), VdevReuse, devicePool},
	{regexp.MustCompile(`one or more vdevs refer to the same device`), VdevReuse, nil},
	{regexp.MustCompile(`size of the device (\S+) is too small`), DeviceTooSmall, func(e *Error, m []string) { e.Device = m[1] }},
	{regexp.MustCompile(`one or more devices is less than the minimum size`), DeviceTooSmall, nil},
	{regexp.MustCompile(`(?i)permission denied`), PermissionDenied, nil},
	{regexp.MustCompile(`there is no active scrub`), NoActiveScrubs, nil},
	{regexp.MustCompile(`cannot (?:pause|cancel) scrubbing (\S+): no active scrub`), NoActiveScrubs, nil},
	{regexp.MustCompile(`cannot open '([^']+)': no such pool`), PoolNotFound, func(e *Error, m []string) { e.Pool = m[1] }},
	{regexp.MustCompile(`no such pool(?:\n|$| )`), PoolNotFound, nil},
	{regexp.MustCompile(`no valid replicas`), NoValidReplicas, nil},
	{regexp.MustCompile(`mismatched replication level`), MismatchedReplicationLevel, nil},
	{regexp.MustCompile(`only applicable to mirror and replacing vdevs`), OnlyDevice, nil},
}

// Classify turns raw diagnostic output into an *Error. It never fails:
// unrecognized text yields an Other error carrying the full text.
func Classify(raw []byte) *Error {
	text := strings.ToValidUTF8(string(raw), "�")
	for _, r := range rules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		e := &Error{Kind: r.kind, Text: strings.TrimSpace(text)}
		if r.fill != nil {
			r.fill(e, m)
		}
		return e
	}
	if node, err := parser.ParseError(raw); err == nil {
		if name, ok := node.Child(parser.DatasetNotFound).ChildText(parser.DatasetName); ok {
			return &Error{Kind: DatasetNotFound, Dataset: name}
		}
	}
	return &Error{Kind: Other, Text: strings.TrimSpace(text)}
}

// FromErrorList converts the error list returned by libzfs_core, keyed by
// dataset name with errno values, into a MultiOp error. Entries that are not
// numbers are kept with an EINVAL reason so nothing is dropped.
func FromErrorList(list *nv.Bag) *Error {
	reasons := make(map[string]error)
	list.Range(func(name string, t nv.Type) bool {
		code, ok := list.Number(name)
		if !ok || t != nv.TypeNumber {
			reasons[name] = Errno(int(unix.EINVAL))
			return true
		}
		reasons[name] = Errno(int(code))
		return true
	})
	return &Error{Kind: MultiOp, Reasons: reasons}
}

// Errno decodes a native return code
func Errno(code int) error {
	return syscall.Errno(code)
}

// ErrnoName returns the symbolic name of code, e.g. ENOENT
func ErrnoName(code int) string {
	if name := unix.ErrnoName(syscall.Errno(code)); name != "" {
		return name
	}
	return "E?"
}

// FromCode wraps a native return code as an Io error
func FromCode(code int) *Error {
	return &Error{Kind: Io, Code: code, Err: syscall.Errno(code)}
}

// FromRun classifies a failure to start or wait for an external command
func FromRun(err error) *Error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return Wrap(CommandNotFound, err)
	}
	return Wrap(Io, err)
}

// FromParse wraps a grammar failure
func FromParse(err error) *Error {
	return Wrap(ParseError, err)
}

// Validation aggregates name validation failures. It returns nil when errs is empty.
func Validation(errs []error) error {
	combined := multierr.Combine(errs...)
	if combined == nil {
		return nil
	}
	return &Error{Kind: ValidationFailed, Err: combined}
}

// Failures returns the individual errors aggregated by Validation
func Failures(err error) []error {
	var e *Error
	if errors.As(err, &e) && e.Kind == ValidationFailed {
		return multierr.Errors(e.Err)
	}
	return nil
}
