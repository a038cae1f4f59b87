package models

import "fmt"

// Health represents the operational state of a pool or device
type Health int

const (
	Online Health = iota
	Degraded
	Faulted
	Offline
	Unavailable
	Removed
)

var healthTokens = map[string]Health{
	"ONLINE":   Online,
	"DEGRADED": Degraded,
	"FAULTED":  Faulted,
	"OFFLINE":  Offline,
	"UNAVAIL":  Unavailable,
	"REMOVED":  Removed,
}

// ParseHealth converts a health token as printed by zpool(8). Unknown tokens are an error.
func ParseHealth(token string) (Health, error) {
	if h, ok := healthTokens[token]; ok {
		return h, nil
	}
	return 0, fmt.Errorf("unknown health token %q", token)
}

// IsHealthToken reports whether token is one of the fixed health tokens
func IsHealthToken(token string) bool {
	_, ok := healthTokens[token]
	return ok
}

func (h Health) String() string {
	switch h {
	case Online:
		return "ONLINE"
	case Degraded:
		return "DEGRADED"
	case Faulted:
		return "FAULTED"
	case Offline:
		return "OFFLINE"
	case Unavailable:
		return "UNAVAIL"
	case Removed:
		return "REMOVED"
	default:
		return fmt.Sprintf("Health(%d)", int(h))
	}
}

// ErrorStatistics holds the per-device error counters
type ErrorStatistics struct {
	Read     uint64
	Write    uint64
	Checksum uint64
}

// IsZero reports whether no errors were counted
func (s ErrorStatistics) IsZero() bool {
	return s.Read == 0 && s.Write == 0 && s.Checksum == 0
}

// DatasetKind is the type of a dataset
type DatasetKind int

const (
	Filesystem DatasetKind = iota
	Volume
	Snapshot
	Bookmark
)

// ParseDatasetKind converts the type column of zfs list
func ParseDatasetKind(s string) (DatasetKind, error) {
	switch s {
	case "filesystem":
		return Filesystem, nil
	case "volume":
		return Volume, nil
	case "snapshot":
		return Snapshot, nil
	case "bookmark":
		return Bookmark, nil
	default:
		return 0, fmt.Errorf("unknown dataset type %q", s)
	}
}

func (k DatasetKind) String() string {
	switch k {
	case Filesystem:
		return "filesystem"
	case Volume:
		return "volume"
	case Snapshot:
		return "snapshot"
	case Bookmark:
		return "bookmark"
	default:
		return fmt.Sprintf("DatasetKind(%d)", int(k))
	}
}

// Dataset is one entry of a typed dataset listing
type Dataset struct {
	Kind DatasetKind
	Name string
}
