package zfs

import (
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/runningman84/zfskit/pkg/models"
	"github.com/runningman84/zfskit/pkg/nv"
	"github.com/runningman84/zfskit/pkg/zerr"
)

// fakeCore records copies of the lists it is handed and answers with canned codes
type fakeCore struct {
	table *nv.MemoryTable

	initCode int
	existing map[string]bool
	code     int
	// failures become the error list of batch calls
	failures map[string]int
	// output is returned by ChannelProgram
	output map[string]string

	calls    []string
	kind     ObjectSetType
	deferred bool
	from     string
	flags    SendFlags
	bags     []*nv.Bag
}

func newFakeCore() *fakeCore {
	return &fakeCore{table: nv.NewMemoryTable(), existing: make(map[string]bool)}
}

func (c *fakeCore) record(call string, h nv.Handle) {
	c.calls = append(c.calls, call)
	if h == 0 {
		return
	}
	copied, ok := c.table.Clone(h)
	if !ok {
		panic("clone of a list handed to libzfs_core failed")
	}
	c.bags = append(c.bags, nv.FromHandle(c.table, copied))
}

func (c *fakeCore) errlist() (nv.Handle, int) {
	if len(c.failures) == 0 {
		return 0, c.code
	}
	h, _ := c.table.Create(nv.FlagNone)
	for name, code := range c.failures {
		c.table.AddNumber(h, []byte(name), uint64(code))
	}
	return h, c.code
}

func (c *fakeCore) Init() int { return c.initCode }

func (c *fakeCore) Exists(name string) bool { return c.existing[name] }

func (c *fakeCore) Create(name string, kind ObjectSetType, props nv.Handle) int {
	c.record("create "+name, props)
	c.kind = kind
	return c.code
}

func (c *fakeCore) Snapshot(snaps, props nv.Handle) (nv.Handle, int) {
	c.record("snapshot", snaps)
	c.record("snapshot props", props)
	return c.errlist()
}

func (c *fakeCore) DestroySnaps(snaps nv.Handle, deferred bool) (nv.Handle, int) {
	c.record("destroy snapshots", snaps)
	c.deferred = deferred
	return c.errlist()
}

func (c *fakeCore) Bookmark(bookmarks nv.Handle) (nv.Handle, int) {
	c.record("bookmark", bookmarks)
	return c.errlist()
}

func (c *fakeCore) DestroyBookmarks(bookmarks nv.Handle) (nv.Handle, int) {
	c.record("destroy bookmarks", bookmarks)
	return c.errlist()
}

func (c *fakeCore) Send(snapshot, from string, fd uintptr, flags SendFlags) int {
	c.record("send "+snapshot, 0)
	c.from, c.flags = from, flags
	return c.code
}

func (c *fakeCore) ChannelProgram(pool, program string, instrLimit, memLimit uint64, sync bool, args nv.Handle) (nv.Handle, int) {
	c.record("program "+pool, args)
	if c.output == nil {
		return 0, c.code
	}
	h, _ := c.table.Create(nv.FlagNone)
	for k, v := range c.output {
		c.table.AddString(h, []byte(k), []byte(v))
	}
	return h, c.code
}

func newTestLzc(t *testing.T) (*Lzc, *fakeCore) {
	t.Helper()
	core := newFakeCore()
	z, err := NewLzcWithTable(core, core.table)
	if err != nil {
		t.Fatalf("NewLzcWithTable() error = %v", err)
	}
	t.Cleanup(func() {
		for _, b := range core.bags {
			b.Close()
		}
	})
	return z, core
}

func TestNewLzcInitFailed(t *testing.T) {
	core := newFakeCore()
	core.initCode = int(syscall.EPERM)

	_, err := NewLzcWithTable(core, core.table)
	if !errors.Is(err, zerr.ErrInitFailed) {
		t.Fatalf("NewLzcWithTable() error = %v, want InitFailed", err)
	}
	if !errors.Is(err, syscall.EPERM) {
		t.Errorf("NewLzcWithTable() error = %v, want it to wrap EPERM", err)
	}
}

func TestLzcCreateFilesystem(t *testing.T) {
	z, core := newTestLzc(t)
	req, err := NewCreateDatasetRequest("tank/data", models.Filesystem).
		Compression(CompressionLZ4).
		Atime(false).
		Quota(1<<20).
		MountPoint("/srv/data").
		UserProperty("com.example:owner", "ops").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if err := z.Create(req); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if core.kind != ObjectSetZFS {
		t.Errorf("object set type = %v, want %v", core.kind, ObjectSetZFS)
	}
	props := core.bags[0]
	numbers := map[string]uint64{
		"compression": 15,
		"atime":       0,
		"exec":        1,
		"readonly":    0,
		"aclinherit":  4,
		"canmount":    1,
		"quota":       1 << 20,
	}
	for key, want := range numbers {
		if got, ok := props.Number(key); !ok || got != want {
			t.Errorf("props[%s] = %d, %v, want %d", key, got, ok, want)
		}
	}
	if got, _ := props.String("mountpoint"); got != "/srv/data" {
		t.Errorf("props[mountpoint] = %q, want /srv/data", got)
	}
	if got, _ := props.String("com.example:owner"); got != "ops" {
		t.Errorf("props[com.example:owner] = %q, want ops", got)
	}
	if props.ContainsKey("aclmode") || props.ContainsKey("volsize") {
		t.Error("unset optional properties should not be sent")
	}
}

func TestLzcCreateVolume(t *testing.T) {
	z, core := newTestLzc(t)
	req, err := NewCreateDatasetRequest("tank/vol", models.Volume).VolumeSize(1<<30).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if err := z.Create(req); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if core.kind != ObjectSetZVOL {
		t.Errorf("object set type = %v, want %v", core.kind, ObjectSetZVOL)
	}
	props := core.bags[0]
	if got, _ := props.Number("volsize"); got != 1<<30 {
		t.Errorf("props[volsize] = %d, want %d", got, 1<<30)
	}
	for _, key := range []string{"atime", "canmount", "mountpoint", "snapdir"} {
		if props.ContainsKey(key) {
			t.Errorf("volume props contain filesystem property %s", key)
		}
	}
}

func TestLzcCreateFailure(t *testing.T) {
	z, core := newTestLzc(t)
	core.code = int(syscall.EEXIST)
	req, _ := NewCreateDatasetRequest("tank/data", models.Filesystem).Build()

	err := z.Create(req)
	if !errors.Is(err, zerr.ErrIo) || !errors.Is(err, syscall.EEXIST) {
		t.Errorf("Create() error = %v, want Io wrapping EEXIST", err)
	}
}

func TestLzcCreateRejectsInvalidRequest(t *testing.T) {
	z, core := newTestLzc(t)

	err := z.Create(CreateDatasetRequest{Name: "tank/vol", Kind: models.Volume})
	if !errors.Is(err, zerr.ErrInvalidInput) {
		t.Errorf("Create() error = %v, want InvalidInput", err)
	}
	if len(core.calls) != 0 {
		t.Errorf("core was called: %v", core.calls)
	}
}

func TestLzcSnapshot(t *testing.T) {
	z, core := newTestLzc(t)

	err := z.Snapshot([]string{"tank/a@s", "tank/b@s"}, map[string]string{"com.example:reason": "backup"})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	snaps, props := core.bags[0], core.bags[1]
	for _, name := range []string{"tank/a@s", "tank/b@s"} {
		if v, ok := snaps.Bool(name); !ok || !v {
			t.Errorf("snapshot set[%s] = %v, %v, want true, true", name, v, ok)
		}
	}
	if got, _ := props.String("com.example:reason"); got != "backup" {
		t.Errorf("props[com.example:reason] = %q, want backup", got)
	}
}

func TestLzcSnapshotErrorList(t *testing.T) {
	z, core := newTestLzc(t)
	core.code = int(syscall.EEXIST)
	core.failures = map[string]int{"tank/a@s": int(syscall.EEXIST)}

	err := z.Snapshot([]string{"tank/a@s", "tank/b@s"}, nil)
	var e *zerr.Error
	if !errors.As(err, &e) || e.Kind != zerr.MultiOp {
		t.Fatalf("Snapshot() error = %v, want MultiOp", err)
	}
	if !errors.Is(e.Reasons["tank/a@s"], syscall.EEXIST) {
		t.Errorf("reason for tank/a@s = %v, want EEXIST", e.Reasons["tank/a@s"])
	}
	if _, ok := e.Reasons["tank/b@s"]; ok {
		t.Error("tank/b@s should not have a reason")
	}
	if live := core.table.Live(); live != len(core.bags) {
		t.Errorf("table holds %d lists, want %d", live, len(core.bags))
	}
}

func TestLzcSnapshotValidation(t *testing.T) {
	z, core := newTestLzc(t)

	if err := z.Snapshot([]string{"tank/a@s", "vault/a@s"}, nil); !errors.Is(err, zerr.ErrMultipleZpools) {
		t.Errorf("Snapshot(two pools) error = %v, want MultipleZpools", err)
	}
	if err := z.Snapshot([]string{"tank/a"}, nil); !errors.Is(err, zerr.ErrMissingSnapshotName) {
		t.Errorf("Snapshot(not a snapshot) error = %v, want MissingSnapshotName", err)
	}
	if len(core.calls) != 0 {
		t.Errorf("core was called: %v", core.calls)
	}
}

func TestLzcBookmark(t *testing.T) {
	z, core := newTestLzc(t)

	err := z.Bookmark([]BookmarkRequest{{Snapshot: "tank/a@s", Bookmark: "tank/a#s"}})
	if err != nil {
		t.Fatalf("Bookmark() error = %v", err)
	}
	if got, _ := core.bags[0].String("tank/a#s"); got != "tank/a@s" {
		t.Errorf("bookmarks[tank/a#s] = %q, want tank/a@s", got)
	}

	err = z.Bookmark([]BookmarkRequest{{Snapshot: "tank/a", Bookmark: "tank/a#s"}})
	if !errors.Is(err, zerr.ErrMissingSnapshotName) {
		t.Errorf("Bookmark(from dataset) error = %v, want MissingSnapshotName", err)
	}
	err = z.Bookmark([]BookmarkRequest{{Snapshot: "tank/a@s", Bookmark: "tank/a@t"}})
	if !errors.Is(err, zerr.ErrInvalidInput) {
		t.Errorf("Bookmark(to snapshot) error = %v, want InvalidInput", err)
	}
}

func TestLzcDestroySnapshots(t *testing.T) {
	tests := []struct {
		timing   DestroyTiming
		deferred bool
	}{
		{DestroyImmediate, false},
		{DestroyDeferred, true},
	}

	for _, tt := range tests {
		z, core := newTestLzc(t)
		if err := z.DestroySnapshots([]string{"tank/a@s"}, tt.timing); err != nil {
			t.Fatalf("DestroySnapshots() error = %v", err)
		}
		if core.deferred != tt.deferred {
			t.Errorf("DestroySnapshots(%v) deferred = %v, want %v", tt.timing, core.deferred, tt.deferred)
		}
		if !core.bags[0].ContainsKey("tank/a@s") {
			t.Error("snapshot set does not contain tank/a@s")
		}
	}
}

func TestLzcDestroyBookmarks(t *testing.T) {
	z, core := newTestLzc(t)

	if err := z.DestroyBookmarks([]string{"tank/a#s", "tank/b#s"}); err != nil {
		t.Fatalf("DestroyBookmarks() error = %v", err)
	}
	if got := core.bags[0].Len(); got != 2 {
		t.Errorf("bookmark set has %d entries, want 2", got)
	}
}

func TestLzcSend(t *testing.T) {
	z, core := newTestLzc(t)
	w, err := os.CreateTemp(t.TempDir(), "stream")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	defer w.Close()

	if err := z.SendFull("tank/a@s", w, SendCompress|SendLargeBlock); err != nil {
		t.Fatalf("SendFull() error = %v", err)
	}
	if core.from != "" || core.flags != SendCompress|SendLargeBlock {
		t.Errorf("send from, flags = %q, %v", core.from, core.flags)
	}

	if err := z.SendIncremental("tank/a@t", "tank/a#s", w, 0); err != nil {
		t.Fatalf("SendIncremental() error = %v", err)
	}
	if core.from != "tank/a#s" {
		t.Errorf("send from = %q, want tank/a#s", core.from)
	}

	if err := z.SendIncremental("tank/a@t", "", w, 0); !errors.Is(err, zerr.ErrMissingName) {
		t.Errorf("SendIncremental(no from) error = %v, want MissingName", err)
	}
	if err := z.SendFull("tank/a", w, 0); !errors.Is(err, zerr.ErrMissingSnapshotName) {
		t.Errorf("SendFull(dataset) error = %v, want MissingSnapshotName", err)
	}
}

func TestLzcRunChannelProgram(t *testing.T) {
	z, core := newTestLzc(t)
	core.output = map[string]string{"return": "ok"}

	out, err := z.RunChannelProgram("tank", "return 'ok'", 10_000_000, 10<<20, true, nil)
	if err != nil {
		t.Fatalf("RunChannelProgram() error = %v", err)
	}
	defer out.Close()
	if got, _ := out.String("return"); got != "ok" {
		t.Errorf("output[return] = %q, want ok", got)
	}

	core.code = int(syscall.EINVAL)
	core.output = map[string]string{"error": "attempt to call a nil value"}
	_, err = z.RunChannelProgram("tank", "nope()", 10_000_000, 10<<20, false, nil)
	var e *zerr.Error
	if !errors.As(err, &e) || e.Kind != zerr.Io {
		t.Fatalf("RunChannelProgram() error = %v, want Io", err)
	}
	if e.Text != "attempt to call a nil value" {
		t.Errorf("error text = %q, want the program error", e.Text)
	}

	if _, err := z.RunChannelProgram("tank/data", "", 0, 0, false, nil); !errors.Is(err, zerr.ErrMissingPool) {
		t.Errorf("RunChannelProgram(dataset) error = %v, want MissingPool", err)
	}
}

func TestLzcUnimplemented(t *testing.T) {
	z, _ := newTestLzc(t)

	if _, err := z.List("tank"); !errors.Is(err, zerr.ErrUnimplemented) {
		t.Errorf("List() error = %v, want Unimplemented", err)
	}
	if _, err := z.ReadProperties("tank"); !errors.Is(err, zerr.ErrUnimplemented) {
		t.Errorf("ReadProperties() error = %v, want Unimplemented", err)
	}
	if err := z.Destroy("tank/a"); !errors.Is(err, zerr.ErrUnimplemented) {
		t.Errorf("Destroy() error = %v, want Unimplemented", err)
	}
}
