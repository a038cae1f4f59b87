package zfs

import (
	"sort"
	"strings"

	"github.com/runningman84/zfskit/pkg/zerr"
)

// MaxNameLength is the longest dataset name the kernel accepts
const MaxNameLength = 255

// Pool returns the pool part of a dataset, snapshot or bookmark name.
// Absolute paths have no pool.
func Pool(name string) (string, bool) {
	if name == "" || strings.HasPrefix(name, "/") {
		return "", false
	}
	pool := name
	if i := strings.IndexAny(name, "/@#"); i >= 0 {
		pool = name[:i]
	}
	if pool == "" {
		return "", false
	}
	return pool, true
}

// lastComponent is the part after the final separator
func lastComponent(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// SnapshotName returns the part after @ when the last component names a snapshot
func SnapshotName(name string) (string, bool) {
	last := lastComponent(name)
	i := strings.LastIndexByte(last, '@')
	if i < 0 {
		return "", false
	}
	return last[i+1:], true
}

// BookmarkName returns the part after # when the last component names a bookmark
func BookmarkName(name string) (string, bool) {
	last := lastComponent(name)
	i := strings.LastIndexByte(last, '#')
	if i < 0 {
		return "", false
	}
	return last[i+1:], true
}

func IsSnapshot(name string) bool {
	_, ok := SnapshotName(name)
	return ok
}

func IsBookmark(name string) bool {
	_, ok := BookmarkName(name)
	return ok
}

// IsVolumeOrDataset reports whether name is neither a snapshot nor a bookmark
func IsVolumeOrDataset(name string) bool {
	return !IsSnapshot(name) && !IsBookmark(name)
}

// violations lists every rule name breaks
func violations(name string) []error {
	var errs []error
	if name == "" || strings.HasSuffix(name, "/") {
		errs = append(errs, &zerr.Error{Kind: zerr.MissingName, Dataset: name})
	}
	if len(name) > MaxNameLength {
		errs = append(errs, &zerr.Error{Kind: zerr.NameTooLong, Dataset: name})
	}
	if name != "" {
		if _, ok := Pool(name); !ok {
			errs = append(errs, &zerr.Error{Kind: zerr.MissingPool, Dataset: name})
		}
	}
	if snap, ok := SnapshotName(name); ok && snap == "" {
		errs = append(errs, &zerr.Error{Kind: zerr.MissingSnapshotName, Dataset: name})
	}
	return errs
}

// Validate checks a dataset, snapshot or bookmark name. Every broken rule is
// reported in a single ValidationFailed error.
func Validate(name string) error {
	return zerr.Validation(violations(name))
}

// IsValid reports whether Validate accepts name
func IsValid(name string) bool {
	return len(violations(name)) == 0
}

// ValidateSnapshots checks a batch of snapshot names for an atomic
// operation. Names that are not snapshots fail with MissingSnapshotName and a
// batch spanning pools fails with MultipleZpools.
func ValidateSnapshots(names []string) error {
	return validateBatch(names, func(name string) []error {
		if !IsSnapshot(name) {
			return []error{&zerr.Error{Kind: zerr.MissingSnapshotName, Dataset: name}}
		}
		return nil
	})
}

// ValidateBookmarks checks a batch of bookmark names like ValidateSnapshots
func ValidateBookmarks(names []string) error {
	return validateBatch(names, func(name string) []error {
		if !IsBookmark(name) {
			return []error{&zerr.Error{Kind: zerr.InvalidInput, Dataset: name, Text: "not a bookmark name"}}
		}
		return nil
	})
}

func validateBatch(names []string, extra func(string) []error) error {
	var errs []error
	pools := make(map[string]bool)
	for _, name := range names {
		errs = append(errs, violations(name)...)
		errs = append(errs, extra(name)...)
		if pool, ok := Pool(name); ok {
			pools[pool] = true
		}
	}
	if len(pools) > 1 {
		seen := make([]string, 0, len(pools))
		for pool := range pools {
			seen = append(seen, pool)
		}
		sort.Strings(seen)
		errs = append(errs, &zerr.Error{Kind: zerr.MultipleZpools, Text: strings.Join(seen, ", ")})
	}
	return zerr.Validation(errs)
}
