// Package zfs manages datasets through libzfs_core, the zfs(8) command line
// tool, or both.
package zfs

import (
	"os"

	"github.com/runningman84/zfskit/pkg/models"
	"github.com/runningman84/zfskit/pkg/nv"
)

// DestroyTiming selects whether a snapshot with holds or clones is destroyed
// at once or marked for deferred destruction
type DestroyTiming int

const (
	// DestroyImmediate fails when the snapshot is held or cloned
	DestroyImmediate DestroyTiming = iota
	DestroyDeferred
)

// SendFlags are the lzc_send feature flags
type SendFlags uint32

const (
	SendEmbedData  SendFlags = 1 << 0
	SendLargeBlock SendFlags = 1 << 1
	SendCompress   SendFlags = 1 << 2
	SendRaw        SendFlags = 1 << 3
)

// BookmarkRequest asks for Bookmark to be created from Snapshot
type BookmarkRequest struct {
	Snapshot string
	Bookmark string
}

// Engine is the common contract of the dataset engines. Not every
// implementation supports every operation; the rest fail with Unimplemented.
type Engine interface {
	// Exists reports whether a dataset exists. Lzc cannot see bookmarks and
	// reports them as missing.
	Exists(name string) (bool, error)
	Create(req CreateDatasetRequest) error
	// Snapshot atomically creates snapshots, all in the same pool
	Snapshot(snapshots []string, userProperties map[string]string) error
	Bookmark(bookmarks []BookmarkRequest) error

	// Destroy fails with DatasetNotFound when name does not exist
	Destroy(name string) error
	DestroyUnchecked(name string) error
	DestroySnapshots(snapshots []string, timing DestroyTiming) error
	DestroyBookmarks(bookmarks []string) error

	// List returns every dataset below prefix, prefix included, with its kind
	List(prefix string) ([]models.Dataset, error)
	ListFilesystems(prefix string) ([]string, error)
	ListSnapshots(prefix string) ([]string, error)
	ListBookmarks(prefix string) ([]string, error)
	ListVolumes(prefix string) ([]string, error)

	ReadProperties(name string) (Properties, error)

	// SendFull writes a full replication stream of snapshot to w
	SendFull(snapshot string, w *os.File, flags SendFlags) error
	// SendIncremental writes the changes between from and snapshot to w
	SendIncremental(snapshot, from string, w *os.File, flags SendFlags) error

	// RunChannelProgram runs a Lua program against pool and returns its output list
	RunChannelProgram(pool, program string, instrLimit, memLimit uint64, sync bool, args *nv.Bag) (*nv.Bag, error)
}
