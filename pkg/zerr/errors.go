// Package zerr defines the error taxonomy shared by the zpool and zfs engines.
//
// Errors compare by Kind only: errors.Is(err, zerr.ErrVdevReuse) holds for any
// VdevReuse error whatever device or pool it names. Use errors.As to read the
// payload.
package zerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind is the class of a failure
type Kind int

const (
	Other Kind = iota
	CommandNotFound
	Io
	PoolNotFound
	DatasetNotFound
	InvalidTopology
	VdevReuse
	ParseError
	DeviceTooSmall
	PermissionDenied
	NoActiveScrubs
	NoValidReplicas
	OnlyDevice
	MismatchedReplicationLevel
	UnknownRaidType
	InvalidInput
	NameTooLong
	MissingName
	MissingPool
	MissingSnapshotName
	MultipleZpools
	ValidationFailed
	MultiOp
	NvOp
	InitFailed
	Unimplemented
)

var kindNames = map[Kind]string{
	Other:                      "other",
	CommandNotFound:            "command not found",
	Io:                         "i/o error",
	PoolNotFound:               "pool not found",
	DatasetNotFound:            "dataset not found",
	InvalidTopology:            "invalid topology",
	VdevReuse:                  "vdev reuse",
	ParseError:                 "failed to parse output",
	DeviceTooSmall:             "device too small",
	PermissionDenied:           "permission denied",
	NoActiveScrubs:             "no active scrubs",
	NoValidReplicas:            "no valid replicas",
	OnlyDevice:                 "only device",
	MismatchedReplicationLevel: "mismatched replication level",
	UnknownRaidType:            "unknown raid type",
	InvalidInput:               "invalid input",
	NameTooLong:                "name too long",
	MissingName:                "missing name",
	MissingPool:                "missing pool name",
	MissingSnapshotName:        "missing snapshot name",
	MultipleZpools:             "names span multiple pools",
	ValidationFailed:           "validation failed",
	MultiOp:                    "operation failed for some datasets",
	NvOp:                       "nvlist operation failed",
	InitFailed:                 "libzfs_core initialization failed",
	Unimplemented:              "not implemented",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the one error type returned by the engines
type Error struct {
	Kind Kind
	// Device and Pool are set for VdevReuse, DeviceTooSmall and PoolNotFound.
	Device string
	Pool   string
	// Dataset is the name a DatasetNotFound or validation error is about.
	Dataset string
	// Text keeps the raw diagnostic for Other and unparsed output.
	Text string
	// Code is the native error number, if any.
	Code int
	// Reasons maps dataset names to their failure for MultiOp.
	Reasons map[string]error
	// Err is the underlying cause.
	Err error
}

// New returns an error of kind k
func New(k Kind) *Error {
	return &Error{Kind: k}
}

// Wrap returns an error of kind k caused by err
func Wrap(k Kind, err error) *Error {
	return &Error{Kind: k, Err: err}
}

// Errorf returns an error of kind k whose Text is the formatted message
func Errorf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Text: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	switch e.Kind {
	case VdevReuse:
		if e.Device != "" {
			fmt.Fprintf(&b, ": %s is part of active pool %q", e.Device, e.Pool)
		}
	case DeviceTooSmall:
		if e.Device != "" {
			fmt.Fprintf(&b, ": %s", e.Device)
		}
	case PoolNotFound:
		if e.Pool != "" {
			fmt.Fprintf(&b, ": %s", e.Pool)
		}
	case MultiOp:
		names := make([]string, 0, len(e.Reasons))
		for name := range e.Reasons {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			if i == 0 {
				b.WriteString(": ")
			} else {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %v", name, e.Reasons[name])
		}
	}
	if e.Dataset != "" {
		fmt.Fprintf(&b, ": %s", e.Dataset)
	}
	if e.Text != "" {
		fmt.Fprintf(&b, ": %s", e.Text)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind. Payload is ignored.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or Other
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Sentinels for errors.Is.
var (
	ErrOther                      = New(Other)
	ErrCommandNotFound            = New(CommandNotFound)
	ErrIo                         = New(Io)
	ErrPoolNotFound               = New(PoolNotFound)
	ErrDatasetNotFound            = New(DatasetNotFound)
	ErrInvalidTopology            = New(InvalidTopology)
	ErrVdevReuse                  = New(VdevReuse)
	ErrParseError                 = New(ParseError)
	ErrDeviceTooSmall             = New(DeviceTooSmall)
	ErrPermissionDenied           = New(PermissionDenied)
	ErrNoActiveScrubs             = New(NoActiveScrubs)
	ErrNoValidReplicas            = New(NoValidReplicas)
	ErrOnlyDevice                 = New(OnlyDevice)
	ErrMismatchedReplicationLevel = New(MismatchedReplicationLevel)
	ErrUnknownRaidType            = New(UnknownRaidType)
	ErrInvalidInput               = New(InvalidInput)
	ErrNameTooLong                = New(NameTooLong)
	ErrMissingName                = New(MissingName)
	ErrMissingPool                = New(MissingPool)
	ErrMissingSnapshotName        = New(MissingSnapshotName)
	ErrMultipleZpools             = New(MultipleZpools)
	ErrValidationFailed           = New(ValidationFailed)
	ErrMultiOp                    = New(MultiOp)
	ErrNvOp                       = New(NvOp)
	ErrInitFailed                 = New(InitFailed)
	ErrUnimplemented              = New(Unimplemented)
)
