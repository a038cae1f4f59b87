package zfs

import (
	"os"

	"github.com/runningman84/zfskit/pkg/models"
	"github.com/runningman84/zfskit/pkg/nv"
	"github.com/runningman84/zfskit/pkg/zerr"
)

// Delegating implements Engine by routing each operation to the engine that
// supports it: Lzc for everything libzfs_core offers, Open3 for listing,
// property reads and plain destroy.
type Delegating struct {
	lzc   *Lzc
	open3 *Open3
}

var _ Engine = (*Delegating)(nil)

func NewDelegating(lzc *Lzc, open3 *Open3) *Delegating {
	return &Delegating{lzc: lzc, open3: open3}
}

func (z *Delegating) Exists(name string) (bool, error) {
	return z.lzc.Exists(name)
}

func (z *Delegating) Create(req CreateDatasetRequest) error {
	return z.lzc.Create(req)
}

func (z *Delegating) Snapshot(snapshots []string, userProperties map[string]string) error {
	return z.lzc.Snapshot(snapshots, userProperties)
}

func (z *Delegating) Bookmark(bookmarks []BookmarkRequest) error {
	return z.lzc.Bookmark(bookmarks)
}

// Destroy checks existence before running zfs destroy. libzfs_core cannot
// see bookmarks, so those are looked up with zfs list.
func (z *Delegating) Destroy(name string) error {
	exists := z.lzc.Exists
	if IsBookmark(name) {
		exists = z.open3.Exists
	}
	found, err := exists(name)
	if err != nil {
		return err
	}
	if !found {
		return &zerr.Error{Kind: zerr.DatasetNotFound, Dataset: name}
	}
	return z.open3.DestroyUnchecked(name)
}

func (z *Delegating) DestroyUnchecked(name string) error {
	return z.open3.DestroyUnchecked(name)
}

func (z *Delegating) DestroySnapshots(snapshots []string, timing DestroyTiming) error {
	return z.lzc.DestroySnapshots(snapshots, timing)
}

func (z *Delegating) DestroyBookmarks(bookmarks []string) error {
	return z.lzc.DestroyBookmarks(bookmarks)
}

func (z *Delegating) List(prefix string) ([]models.Dataset, error) {
	return z.open3.List(prefix)
}

func (z *Delegating) ListFilesystems(prefix string) ([]string, error) {
	return z.open3.ListFilesystems(prefix)
}

func (z *Delegating) ListSnapshots(prefix string) ([]string, error) {
	return z.open3.ListSnapshots(prefix)
}

func (z *Delegating) ListBookmarks(prefix string) ([]string, error) {
	return z.open3.ListBookmarks(prefix)
}

func (z *Delegating) ListVolumes(prefix string) ([]string, error) {
	return z.open3.ListVolumes(prefix)
}

func (z *Delegating) ReadProperties(name string) (Properties, error) {
	return z.open3.ReadProperties(name)
}

func (z *Delegating) SendFull(snapshot string, w *os.File, flags SendFlags) error {
	return z.lzc.SendFull(snapshot, w, flags)
}

func (z *Delegating) SendIncremental(snapshot, from string, w *os.File, flags SendFlags) error {
	return z.lzc.SendIncremental(snapshot, from, w, flags)
}

func (z *Delegating) RunChannelProgram(pool, program string, instrLimit, memLimit uint64, sync bool, args *nv.Bag) (*nv.Bag, error) {
	return z.lzc.RunChannelProgram(pool, program, instrLimit, memLimit, sync, args)
}
