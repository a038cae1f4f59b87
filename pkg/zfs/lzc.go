package zfs

import (
	"os"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/runningman84/zfskit/pkg/logging"
	"github.com/runningman84/zfskit/pkg/models"
	"github.com/runningman84/zfskit/pkg/nv"
	"github.com/runningman84/zfskit/pkg/zerr"
)

// Lzc implements Engine on top of libzfs_core. Listing, property reads and
// plain destroy are not part of libzfs_core and fail with Unimplemented.
type Lzc struct {
	core   Core
	table  nv.Table
	logger logr.Logger
}

var _ Engine = (*Lzc)(nil)

// NewLzc initializes core. Lists are built in the default nv table, which
// must be the table core decodes handles from.
func NewLzc(core Core) (*Lzc, error) {
	return NewLzcWithTable(core, nv.DefaultTable())
}

// NewLzcWithTable initializes core and builds lists in table
func NewLzcWithTable(core Core, table nv.Table) (*Lzc, error) {
	if code := core.Init(); code != 0 {
		return nil, &zerr.Error{Kind: zerr.InitFailed, Code: code, Err: syscall.Errno(code)}
	}
	return &Lzc{core: core, table: table, logger: logging.ForModule("zfs", "lzc")}, nil
}

func (z *Lzc) newBag() (*nv.Bag, error) {
	bag, err := nv.NewWithTable(z.table, nv.FlagNone)
	if err != nil {
		return nil, zerr.Wrap(zerr.NvOp, err)
	}
	return bag, nil
}

// result turns a libzfs_core return into an error. A non-empty error list
// wins over the return code because it says which datasets failed.
func (z *Lzc) result(errlist nv.Handle, code int) error {
	if errlist != 0 {
		list := nv.FromHandle(z.table, errlist)
		defer list.Close()
		if !list.IsEmpty() {
			return zerr.FromErrorList(list)
		}
	}
	if code != 0 {
		return zerr.FromCode(code)
	}
	return nil
}

// nameSet builds a list with one true pair per name, the way libzfs_core takes sets
func (z *Lzc) nameSet(names []string) (*nv.Bag, error) {
	bag, err := z.newBag()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if err := bag.InsertBool(name, true); err != nil {
			bag.Close()
			return nil, zerr.Wrap(zerr.NvOp, err)
		}
	}
	return bag, nil
}

func (z *Lzc) Exists(name string) (bool, error) {
	return z.core.Exists(name), nil
}

type numberProp struct {
	key   string
	value uint64
}

// createProps renders req the way lzc_create wants it: every native property
// as a number, user properties as strings. Filesystem only properties are left
// out for volumes.
func createProps(bag *nv.Bag, req CreateDatasetRequest) error {
	fs := req.Kind == models.Filesystem
	numbers := []numberProp{
		{"checksum", req.Checksum.NativeValue()},
		{"compression", req.Compression.NativeValue()},
		{"copies", req.Copies.NativeValue()},
		{"primarycache", req.PrimaryCache.NativeValue()},
		{"readonly", nativeBool(req.ReadOnly)},
		{"secondarycache", req.SecondaryCache.NativeValue()},
	}
	if fs {
		numbers = append(numbers,
			numberProp{"aclinherit", req.AclInherit.NativeValue()},
			numberProp{"atime", nativeBool(req.Atime)},
			numberProp{"canmount", req.CanMount.NativeValue()},
			numberProp{"devices", nativeBool(req.Devices)},
			numberProp{"exec", nativeBool(req.Exec)},
			numberProp{"setuid", nativeBool(req.Setuid)},
			numberProp{"snapdir", req.SnapDir.NativeValue()},
			numberProp{"xattr", nativeBool(req.Xattr)},
		)
		if req.AclMode != nil {
			numbers = append(numbers, numberProp{"aclmode", req.AclMode.NativeValue()})
		}
	}

	optional := []struct {
		key   string
		value *uint64
		fs    bool
	}{
		{"quota", req.Quota, true},
		{"recordsize", req.RecordSize, true},
		{"refquota", req.RefQuota, false},
		{"refreservation", req.RefReservation, false},
		{"volsize", req.VolumeSize, false},
		{"volblocksize", req.VolumeBlockSize, false},
	}
	for _, o := range optional {
		if o.value != nil && (fs || !o.fs) {
			numbers = append(numbers, numberProp{o.key, *o.value})
		}
	}

	for _, n := range numbers {
		if err := bag.InsertNumber(n.key, n.value); err != nil {
			return err
		}
	}
	if fs && req.MountPoint != nil {
		if err := bag.InsertString("mountpoint", *req.MountPoint); err != nil {
			return err
		}
	}
	for key, value := range req.UserProperties {
		if err := bag.InsertString(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (z *Lzc) Create(req CreateDatasetRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	props, err := z.newBag()
	if err != nil {
		return err
	}
	defer props.Close()
	if err := createProps(props, req); err != nil {
		return zerr.Wrap(zerr.NvOp, err)
	}

	kind := ObjectSetZFS
	if req.Kind == models.Volume {
		kind = ObjectSetZVOL
	}
	z.logger.Info("Creating dataset", "dataset", req.Name, "kind", req.Kind.String())
	return z.result(0, z.core.Create(req.Name, kind, props.Handle()))
}

func (z *Lzc) Snapshot(snapshots []string, userProperties map[string]string) error {
	if err := ValidateSnapshots(snapshots); err != nil {
		return err
	}
	snaps, err := z.nameSet(snapshots)
	if err != nil {
		return err
	}
	defer snaps.Close()
	props, err := z.newBag()
	if err != nil {
		return err
	}
	defer props.Close()
	for key, value := range userProperties {
		if err := props.InsertString(key, value); err != nil {
			return zerr.Wrap(zerr.NvOp, err)
		}
	}

	z.logger.Info("Creating snapshots", "snapshots", snapshots)
	return z.result(z.core.Snapshot(snaps.Handle(), props.Handle()))
}

func (z *Lzc) Bookmark(bookmarks []BookmarkRequest) error {
	names := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		if !IsSnapshot(b.Snapshot) {
			return &zerr.Error{Kind: zerr.MissingSnapshotName, Dataset: b.Snapshot}
		}
		names = append(names, b.Bookmark)
	}
	if err := ValidateBookmarks(names); err != nil {
		return err
	}
	list, err := z.newBag()
	if err != nil {
		return err
	}
	defer list.Close()
	for _, b := range bookmarks {
		if err := list.InsertString(b.Bookmark, b.Snapshot); err != nil {
			return zerr.Wrap(zerr.NvOp, err)
		}
	}

	z.logger.Info("Creating bookmarks", "bookmarks", names)
	return z.result(z.core.Bookmark(list.Handle()))
}

func (z *Lzc) DestroySnapshots(snapshots []string, timing DestroyTiming) error {
	if err := ValidateSnapshots(snapshots); err != nil {
		return err
	}
	snaps, err := z.nameSet(snapshots)
	if err != nil {
		return err
	}
	defer snaps.Close()

	z.logger.Info("Destroying snapshots", "snapshots", snapshots, "deferred", timing == DestroyDeferred)
	return z.result(z.core.DestroySnaps(snaps.Handle(), timing == DestroyDeferred))
}

func (z *Lzc) DestroyBookmarks(bookmarks []string) error {
	if err := ValidateBookmarks(bookmarks); err != nil {
		return err
	}
	list, err := z.nameSet(bookmarks)
	if err != nil {
		return err
	}
	defer list.Close()

	z.logger.Info("Destroying bookmarks", "bookmarks", bookmarks)
	return z.result(z.core.DestroyBookmarks(list.Handle()))
}

func (z *Lzc) send(snapshot, from string, w *os.File, flags SendFlags) error {
	if !IsSnapshot(snapshot) {
		return &zerr.Error{Kind: zerr.MissingSnapshotName, Dataset: snapshot}
	}
	if err := Validate(snapshot); err != nil {
		return err
	}
	if from != "" {
		if err := Validate(from); err != nil {
			return err
		}
	}
	z.logger.V(1).Info("Sending", "snapshot", snapshot, "from", from, "flags", uint32(flags))
	return z.result(0, z.core.Send(snapshot, from, w.Fd(), flags))
}

func (z *Lzc) SendFull(snapshot string, w *os.File, flags SendFlags) error {
	return z.send(snapshot, "", w, flags)
}

// SendIncremental accepts a snapshot or a bookmark as from
func (z *Lzc) SendIncremental(snapshot, from string, w *os.File, flags SendFlags) error {
	if from == "" {
		return &zerr.Error{Kind: zerr.MissingName, Text: "incremental source"}
	}
	return z.send(snapshot, from, w, flags)
}

// RunChannelProgram returns the program output. On failure the error text
// carries the error string the program reported, if any.
func (z *Lzc) RunChannelProgram(pool, program string, instrLimit, memLimit uint64, sync bool, args *nv.Bag) (*nv.Bag, error) {
	if p, ok := Pool(pool); !ok || p != pool {
		return nil, &zerr.Error{Kind: zerr.MissingPool, Dataset: pool}
	}
	if args == nil {
		empty, err := z.newBag()
		if err != nil {
			return nil, err
		}
		defer empty.Close()
		args = empty
	}

	z.logger.V(1).Info("Running channel program", "pool", pool, "sync", sync)
	outHandle, code := z.core.ChannelProgram(pool, program, instrLimit, memLimit, sync, args.Handle())
	var out *nv.Bag
	if outHandle != 0 {
		out = nv.FromHandle(z.table, outHandle)
	}
	if code != 0 {
		e := zerr.FromCode(code)
		if out != nil {
			if msg, ok := out.String("error"); ok {
				e.Text = msg
			}
			out.Close()
		}
		return nil, e
	}
	if out == nil {
		return z.newBag()
	}
	return out, nil
}

func (z *Lzc) Destroy(string) error {
	return zerr.New(zerr.Unimplemented)
}

func (z *Lzc) DestroyUnchecked(string) error {
	return zerr.New(zerr.Unimplemented)
}

func (z *Lzc) List(string) ([]models.Dataset, error) {
	return nil, zerr.New(zerr.Unimplemented)
}

func (z *Lzc) ListFilesystems(string) ([]string, error) {
	return nil, zerr.New(zerr.Unimplemented)
}

func (z *Lzc) ListSnapshots(string) ([]string, error) {
	return nil, zerr.New(zerr.Unimplemented)
}

func (z *Lzc) ListBookmarks(string) ([]string, error) {
	return nil, zerr.New(zerr.Unimplemented)
}

func (z *Lzc) ListVolumes(string) ([]string, error) {
	return nil, zerr.New(zerr.Unimplemented)
}

func (z *Lzc) ReadProperties(string) (Properties, error) {
	return Properties{}, zerr.New(zerr.Unimplemented)
}
