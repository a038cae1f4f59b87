package nv

import (
	"errors"
	"reflect"
	"syscall"
	"testing"
)

func newBag(t *testing.T, table *MemoryTable, flags Flag) *Bag {
	t.Helper()
	b, err := NewWithTable(table, flags)
	if err != nil {
		t.Fatalf("NewWithTable() error = %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func TestNewBagIsEmpty(t *testing.T) {
	b := newBag(t, NewMemoryTable(), FlagNone)

	if !b.IsEmpty() {
		t.Error("IsEmpty() = false, want true")
	}
	if b.Flags() != FlagNone {
		t.Errorf("Flags() = %v, want %v", b.Flags(), FlagNone)
	}
	if b.Error() != 0 {
		t.Errorf("Error() = %d, want 0", b.Error())
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	b := newBag(t, NewMemoryTable(), FlagNone)

	if err := Put(b, "bool", true); err != nil {
		t.Fatalf("Put(bool) error = %v", err)
	}
	if err := Put(b, "number", uint64(42)); err != nil {
		t.Fatalf("Put(number) error = %v", err)
	}
	if err := Put(b, "string", "tank/data"); err != nil {
		t.Fatalf("Put(string) error = %v", err)
	}
	if err := Put(b, "bools", []bool{true, false}); err != nil {
		t.Fatalf("Put(bools) error = %v", err)
	}
	if err := Put(b, "numbers", []uint64{1, 2, 3}); err != nil {
		t.Fatalf("Put(numbers) error = %v", err)
	}
	if err := Put(b, "strings", []string{"a", "b"}); err != nil {
		t.Fatalf("Put(strings) error = %v", err)
	}

	if got, ok := Get[bool](b, "bool"); !ok || !got {
		t.Errorf("Get[bool]() = %v, %v, want true, true", got, ok)
	}
	if got, ok := Get[uint64](b, "number"); !ok || got != 42 {
		t.Errorf("Get[uint64]() = %v, %v, want 42, true", got, ok)
	}
	if got, ok := Get[string](b, "string"); !ok || got != "tank/data" {
		t.Errorf("Get[string]() = %v, %v, want tank/data, true", got, ok)
	}
	if got, ok := Get[[]bool](b, "bools"); !ok || !reflect.DeepEqual(got, []bool{true, false}) {
		t.Errorf("Get[[]bool]() = %v, %v", got, ok)
	}
	if got, ok := Get[[]uint64](b, "numbers"); !ok || !reflect.DeepEqual(got, []uint64{1, 2, 3}) {
		t.Errorf("Get[[]uint64]() = %v, %v", got, ok)
	}
	if got, ok := Get[[]string](b, "strings"); !ok || !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Get[[]string]() = %v, %v", got, ok)
	}
	if b.Len() != 6 {
		t.Errorf("Len() = %d, want 6", b.Len())
	}
}

func TestMismatchedTypeIsAbsent(t *testing.T) {
	b := newBag(t, NewMemoryTable(), FlagNone)
	if err := b.InsertNumber("copies", 2); err != nil {
		t.Fatalf("InsertNumber() error = %v", err)
	}

	if _, ok := b.String("copies"); ok {
		t.Error("String() on number pair ok = true, want false")
	}
	if _, ok := b.Bool("copies"); ok {
		t.Error("Bool() on number pair ok = true, want false")
	}
	if _, ok := b.Number("missing"); ok {
		t.Error("Number() on missing pair ok = true, want false")
	}
	if !b.ContainsKey("copies") {
		t.Error("ContainsKey() = false, want true")
	}
	if b.ContainsKeyWithType("copies", TypeString) {
		t.Error("ContainsKeyWithType(string) = true, want false")
	}
}

func TestPutOptional(t *testing.T) {
	b := newBag(t, NewMemoryTable(), FlagNone)

	if err := PutOptional[uint64](b, "quota", nil); err != nil {
		t.Fatalf("PutOptional(nil) error = %v", err)
	}
	value := "on"
	if err := PutOptional(b, "atime", &value); err != nil {
		t.Fatalf("PutOptional() error = %v", err)
	}

	if !b.IsNull("quota") {
		t.Error("IsNull(quota) = false, want true")
	}
	if got, ok := b.String("atime"); !ok || got != "on" {
		t.Errorf("String(atime) = %v, %v, want on, true", got, ok)
	}
}

func TestInvalidKeyEncoding(t *testing.T) {
	table := NewMemoryTable()
	b := newBag(t, table, FlagNone)

	if err := b.InsertBool("bad\x00key", true); !errors.Is(err, ErrInvalidKeyEncoding) {
		t.Errorf("InsertBool() error = %v, want %v", err, ErrInvalidKeyEncoding)
	}
	if err := b.InsertString("key", "bad\x00value"); !errors.Is(err, ErrInvalidKeyEncoding) {
		t.Errorf("InsertString() error = %v, want %v", err, ErrInvalidKeyEncoding)
	}
	if err := b.InsertStringArray("key", []string{"ok", "b\x00d"}); !errors.Is(err, ErrInvalidKeyEncoding) {
		t.Errorf("InsertStringArray() error = %v, want %v", err, ErrInvalidKeyEncoding)
	}
	if !b.IsEmpty() {
		t.Error("bag should stay empty after rejected inserts")
	}
	if b.Error() != 0 {
		t.Errorf("Error() = %d, want 0", b.Error())
	}
}

func TestDuplicateNameSetsError(t *testing.T) {
	b := newBag(t, NewMemoryTable(), FlagNone)

	if err := b.InsertBool("readonly", true); err != nil {
		t.Fatalf("first insert error = %v", err)
	}
	err := b.InsertNumber("readonly", 1)
	var nativeErr *NativeError
	if !errors.As(err, &nativeErr) {
		t.Fatalf("second insert error = %v, want *NativeError", err)
	}
	if !errors.Is(err, syscall.EEXIST) {
		t.Errorf("second insert error = %v, want EEXIST", err)
	}

	// Once in the error state every further insert reports the same code.
	if err := b.InsertString("other", "x"); !errors.Is(err, syscall.EEXIST) {
		t.Errorf("insert after error = %v, want EEXIST", err)
	}
	if b.ContainsKey("other") {
		t.Error("insert after error should be a no-op")
	}
}

func TestNoUniqueAllowsDuplicates(t *testing.T) {
	b := newBag(t, NewMemoryTable(), FlagNoUnique)

	if err := b.InsertBool("snap", true); err != nil {
		t.Fatalf("first insert error = %v", err)
	}
	if err := b.InsertBool("snap", true); err != nil {
		t.Fatalf("second insert error = %v", err)
	}
	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}
}

func TestIgnoreCase(t *testing.T) {
	b := newBag(t, NewMemoryTable(), FlagIgnoreCase)
	if err := b.InsertString("Compression", "lz4"); err != nil {
		t.Fatalf("InsertString() error = %v", err)
	}

	if got, ok := b.String("compression"); !ok || got != "lz4" {
		t.Errorf("String(compression) = %v, %v, want lz4, true", got, ok)
	}
}

func TestSetError(t *testing.T) {
	b := newBag(t, NewMemoryTable(), FlagNone)

	if err := b.SetError(int(syscall.ENOENT)); err != nil {
		t.Fatalf("SetError() error = %v", err)
	}
	if b.Error() != int(syscall.ENOENT) {
		t.Errorf("Error() = %d, want %d", b.Error(), syscall.ENOENT)
	}
	if err := b.SetError(int(syscall.EPERM)); !errors.Is(err, ErrAlreadySet) {
		t.Errorf("second SetError() error = %v, want %v", err, ErrAlreadySet)
	}
	if b.Error() != int(syscall.ENOENT) {
		t.Errorf("Error() after second SetError = %d, want %d", b.Error(), syscall.ENOENT)
	}
}

func TestCloneIsDeep(t *testing.T) {
	table := NewMemoryTable()
	b := newBag(t, table, FlagNone)
	child := newBag(t, table, FlagNone)
	if err := child.InsertNumber("inner", 7); err != nil {
		t.Fatalf("InsertNumber() error = %v", err)
	}
	if err := b.InsertBag("child", child); err != nil {
		t.Fatalf("InsertBag() error = %v", err)
	}

	clone, err := b.Clone()
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	defer clone.Close()

	b.Remove("child")
	if b.ContainsKey("child") {
		t.Error("Remove() left the pair behind")
	}

	nested, ok := clone.Bag("child")
	if !ok {
		t.Fatal("clone lost nested bag")
	}
	defer nested.Close()
	if got, ok := nested.Number("inner"); !ok || got != 7 {
		t.Errorf("nested Number(inner) = %v, %v, want 7, true", got, ok)
	}
}

func TestNestedBagIsCopiedOnInsert(t *testing.T) {
	table := NewMemoryTable()
	b := newBag(t, table, FlagNone)
	child := newBag(t, table, FlagNone)

	if err := b.InsertBagArray("children", []*Bag{child, child}); err != nil {
		t.Fatalf("InsertBagArray() error = %v", err)
	}
	if err := child.InsertBool("late", true); err != nil {
		t.Fatalf("InsertBool() error = %v", err)
	}

	children, ok := b.BagArray("children")
	if !ok || len(children) != 2 {
		t.Fatalf("BagArray() = %v, %v, want 2 bags", children, ok)
	}
	for _, c := range children {
		if c.ContainsKey("late") {
			t.Error("array element shares state with the original bag")
		}
		c.Close()
	}
}

func TestCloseReleasesHandles(t *testing.T) {
	table := NewMemoryTable()
	b, err := NewWithTable(table, FlagNone)
	if err != nil {
		t.Fatalf("NewWithTable() error = %v", err)
	}
	child, _ := NewWithTable(table, FlagNone)
	_ = b.InsertBag("child", child)
	child.Close()

	nested, ok := b.Bag("child")
	if !ok {
		t.Fatal("Bag(child) ok = false")
	}
	nested.Close()

	b.Close()
	b.Close()
	if table.Live() != 0 {
		t.Errorf("Live() = %d after Close, want 0", table.Live())
	}
	if err := b.InsertBool("x", true); !errors.Is(err, ErrClosed) {
		t.Errorf("insert after Close error = %v, want %v", err, ErrClosed)
	}
}

func TestRangeOrder(t *testing.T) {
	b := newBag(t, NewMemoryTable(), FlagNone)
	_ = b.InsertNull("a")
	_ = b.InsertBool("b", false)
	_ = b.InsertNumber("c", 1)

	var names []string
	var types []Type
	b.Range(func(name string, typ Type) bool {
		names = append(names, name)
		types = append(types, typ)
		return true
	})

	if !reflect.DeepEqual(names, []string{"a", "b", "c"}) {
		t.Errorf("Range() names = %v, want [a b c]", names)
	}
	if !reflect.DeepEqual(types, []Type{TypeNull, TypeBool, TypeNumber}) {
		t.Errorf("Range() types = %v", types)
	}
}
