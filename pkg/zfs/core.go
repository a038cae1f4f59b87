package zfs

import (
	"github.com/runningman84/zfskit/pkg/nv"
)

// ObjectSetType is the dmu_objset_type_t passed to lzc_create
type ObjectSetType int

const (
	ObjectSetZFS  ObjectSetType = 2
	ObjectSetZVOL ObjectSetType = 3
)

// Core is the libzfs_core function table used by Lzc. Return codes are
// errno values, 0 for success. Calls that act on several datasets return an
// error list keyed by dataset name when some of them failed.
//
// Handles passed in are owned by the caller; error lists and outputs returned
// are owned by the callee's table and adopted by the caller.
type Core interface {
	Init() int
	Exists(name string) bool
	Create(name string, kind ObjectSetType, props nv.Handle) int
	Snapshot(snaps, props nv.Handle) (errlist nv.Handle, code int)
	DestroySnaps(snaps nv.Handle, deferred bool) (errlist nv.Handle, code int)
	Bookmark(bookmarks nv.Handle) (errlist nv.Handle, code int)
	DestroyBookmarks(bookmarks nv.Handle) (errlist nv.Handle, code int)
	Send(snapshot, from string, fd uintptr, flags SendFlags) int
	ChannelProgram(pool, program string, instrLimit, memLimit uint64, sync bool, args nv.Handle) (out nv.Handle, code int)
}
