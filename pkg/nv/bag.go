// Package nv wraps the native name/value list used to pass typed
// parameters across the binary management boundary.
package nv

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

var (
	// ErrInvalidKeyEncoding is returned for names or string values with an embedded NUL byte.
	ErrInvalidKeyEncoding = errors.New("nv: string contains an embedded NUL byte")
	// ErrOutOfMemory is returned when the native library cannot allocate a list.
	ErrOutOfMemory = errors.New("nv: out of memory")
	// ErrAlreadySet is returned by SetError when the list already carries an error code.
	ErrAlreadySet = errors.New("nv: error code already set")
	// ErrClosed is returned when a closed bag is used.
	ErrClosed = errors.New("nv: bag is closed")
)

// NativeError is the error code accumulated by the native list.
type NativeError struct {
	Code int
}

func (e *NativeError) Error() string {
	if name := unix.ErrnoName(syscall.Errno(e.Code)); name != "" {
		return fmt.Sprintf("nv: native error %s (%d)", name, e.Code)
	}
	return fmt.Sprintf("nv: native error %d", e.Code)
}

// Unwrap exposes the code as a syscall.Errno so errors.Is(err, syscall.EEXIST) works.
func (e *NativeError) Unwrap() error {
	return syscall.Errno(e.Code)
}

// Bag owns one native list. It is released exactly once, either by Close or,
// as a backstop, when the garbage collector finds it unreachable. A Bag is
// not safe for concurrent mutation.
type Bag struct {
	table   Table
	handle  Handle
	cleanup runtime.Cleanup
	closed  bool
}

// New creates an empty bag in the default table.
func New(flags Flag) (*Bag, error) {
	return NewWithTable(DefaultTable(), flags)
}

// NewWithTable creates an empty bag in table.
func NewWithTable(table Table, flags Flag) (*Bag, error) {
	h, ok := table.Create(flags)
	if !ok {
		return nil, ErrOutOfMemory
	}
	return own(table, h), nil
}

// FromHandle takes ownership of a list created by table.
func FromHandle(table Table, h Handle) *Bag {
	return own(table, h)
}

func own(table Table, h Handle) *Bag {
	b := &Bag{table: table, handle: h}
	b.cleanup = runtime.AddCleanup(b, func(h Handle) { table.Destroy(h) }, h)
	return b
}

// Table returns the table the bag lives in.
func (b *Bag) Table() Table { return b.table }

// Handle returns the native handle. It stays owned by the bag.
func (b *Bag) Handle() Handle { return b.handle }

// Close destroys the native list. Calling Close again has no effect.
func (b *Bag) Close() {
	if b == nil || b.closed {
		return
	}
	b.closed = true
	b.cleanup.Stop()
	b.table.Destroy(b.handle)
}

// Clone returns a deep copy owned by the caller.
func (b *Bag) Clone() (*Bag, error) {
	if b.closed {
		return nil, ErrClosed
	}
	h, ok := b.table.Clone(b.handle)
	if !ok {
		if code := b.table.Error(b.handle); code != 0 {
			return nil, &NativeError{Code: code}
		}
		return nil, ErrOutOfMemory
	}
	return own(b.table, h), nil
}

// IsEmpty reports whether the bag has no pairs.
func (b *Bag) IsEmpty() bool { return b.table.Empty(b.handle) }

// Flags returns the flags the bag was created with.
func (b *Bag) Flags() Flag { return b.table.Flags(b.handle) }

// Error returns the accumulated native error code, 0 when none.
func (b *Bag) Error() int { return b.table.Error(b.handle) }

// SetError attaches code to the bag. A code can only be attached once.
func (b *Bag) SetError(code int) error {
	if b.Error() != 0 {
		return ErrAlreadySet
	}
	b.table.SetError(b.handle, code)
	return nil
}

func cstring(s string) ([]byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, ErrInvalidKeyEncoding
	}
	return append([]byte(s), 0), nil
}

// check surfaces the accumulated error after a mutation.
func (b *Bag) check() error {
	if code := b.table.Error(b.handle); code != 0 {
		return &NativeError{Code: code}
	}
	return nil
}

func (b *Bag) insert(name string, add func(key []byte)) error {
	if b.closed {
		return ErrClosed
	}
	key, err := cstring(name)
	if err != nil {
		return err
	}
	add(key)
	return b.check()
}

func (b *Bag) InsertNull(name string) error {
	return b.insert(name, func(key []byte) { b.table.AddNull(b.handle, key) })
}

func (b *Bag) InsertBool(name string, value bool) error {
	return b.insert(name, func(key []byte) { b.table.AddBool(b.handle, key, value) })
}

func (b *Bag) InsertNumber(name string, value uint64) error {
	return b.insert(name, func(key []byte) { b.table.AddNumber(b.handle, key, value) })
}

func (b *Bag) InsertString(name, value string) error {
	v, err := cstring(value)
	if err != nil {
		return err
	}
	return b.insert(name, func(key []byte) { b.table.AddString(b.handle, key, v) })
}

// InsertBag adds a copy of value. The caller keeps ownership of value.
func (b *Bag) InsertBag(name string, value *Bag) error {
	if value == nil || value.closed {
		return ErrClosed
	}
	return b.insert(name, func(key []byte) { b.table.AddNvlist(b.handle, key, value.handle) })
}

func (b *Bag) InsertBoolArray(name string, value []bool) error {
	return b.insert(name, func(key []byte) { b.table.AddBoolArray(b.handle, key, value) })
}

func (b *Bag) InsertNumberArray(name string, value []uint64) error {
	return b.insert(name, func(key []byte) { b.table.AddNumberArray(b.handle, key, value) })
}

func (b *Bag) InsertStringArray(name string, value []string) error {
	values := make([][]byte, len(value))
	for i, s := range value {
		v, err := cstring(s)
		if err != nil {
			return err
		}
		values[i] = v
	}
	return b.insert(name, func(key []byte) { b.table.AddStringArray(b.handle, key, values) })
}

// InsertBagArray adds copies of value. The caller keeps ownership of every element.
func (b *Bag) InsertBagArray(name string, value []*Bag) error {
	handles := make([]Handle, len(value))
	for i, v := range value {
		if v == nil || v.closed {
			return ErrClosed
		}
		handles[i] = v.handle
	}
	return b.insert(name, func(key []byte) { b.table.AddNvlistArray(b.handle, key, handles) })
}

// ContainsKey reports whether a pair named name exists with any type.
func (b *Bag) ContainsKey(name string) bool {
	key, err := cstring(name)
	if err != nil || b.closed {
		return false
	}
	return b.table.Exists(b.handle, key)
}

// ContainsKeyWithType reports whether a pair named name exists with type t.
func (b *Bag) ContainsKeyWithType(name string, t Type) bool {
	key, err := cstring(name)
	if err != nil || b.closed {
		return false
	}
	return b.table.ExistsType(b.handle, key, t)
}

// Remove deletes the first pair named name. Missing names are ignored.
func (b *Bag) Remove(name string) {
	if !b.ContainsKey(name) {
		return
	}
	key, _ := cstring(name)
	b.table.Free(b.handle, key)
}

// RemoveWithType deletes the first pair named name with type t.
func (b *Bag) RemoveWithType(name string, t Type) {
	if !b.ContainsKeyWithType(name, t) {
		return
	}
	key, _ := cstring(name)
	b.table.FreeType(b.handle, key, t)
}

// key returns the encoded name if a pair of type t exists under it.
func (b *Bag) key(name string, t Type) ([]byte, bool) {
	if b.closed {
		return nil, false
	}
	key, err := cstring(name)
	if err != nil || !b.table.ExistsType(b.handle, key, t) {
		return nil, false
	}
	return key, true
}

// IsNull reports whether name holds a null pair.
func (b *Bag) IsNull(name string) bool {
	_, ok := b.key(name, TypeNull)
	return ok
}

func (b *Bag) Bool(name string) (bool, bool) {
	key, ok := b.key(name, TypeBool)
	if !ok {
		return false, false
	}
	return b.table.GetBool(b.handle, key)
}

func (b *Bag) Number(name string) (uint64, bool) {
	key, ok := b.key(name, TypeNumber)
	if !ok {
		return 0, false
	}
	return b.table.GetNumber(b.handle, key)
}

func (b *Bag) String(name string) (string, bool) {
	key, ok := b.key(name, TypeString)
	if !ok {
		return "", false
	}
	return b.table.GetString(b.handle, key)
}

// Bag returns a deep copy of the nested list name. The caller must Close it.
func (b *Bag) Bag(name string) (*Bag, bool) {
	key, ok := b.key(name, TypeNvlist)
	if !ok {
		return nil, false
	}
	child, ok := b.table.GetNvlist(b.handle, key)
	if !ok {
		return nil, false
	}
	h, ok := b.table.Clone(child)
	if !ok {
		return nil, false
	}
	return own(b.table, h), true
}

func (b *Bag) BoolArray(name string) ([]bool, bool) {
	key, ok := b.key(name, TypeBoolArray)
	if !ok {
		return nil, false
	}
	v, ok := b.table.GetBoolArray(b.handle, key)
	return append([]bool(nil), v...), ok
}

func (b *Bag) NumberArray(name string) ([]uint64, bool) {
	key, ok := b.key(name, TypeNumberArray)
	if !ok {
		return nil, false
	}
	v, ok := b.table.GetNumberArray(b.handle, key)
	return append([]uint64(nil), v...), ok
}

func (b *Bag) StringArray(name string) ([]string, bool) {
	key, ok := b.key(name, TypeStringArray)
	if !ok {
		return nil, false
	}
	v, ok := b.table.GetStringArray(b.handle, key)
	return append([]string(nil), v...), ok
}

// BagArray returns deep copies of the nested lists under name. The caller must Close each one.
func (b *Bag) BagArray(name string) ([]*Bag, bool) {
	key, ok := b.key(name, TypeNvlistArray)
	if !ok {
		return nil, false
	}
	children, ok := b.table.GetNvlistArray(b.handle, key)
	if !ok {
		return nil, false
	}
	out := make([]*Bag, 0, len(children))
	for _, child := range children {
		h, ok := b.table.Clone(child)
		if !ok {
			for _, o := range out {
				o.Close()
			}
			return nil, false
		}
		out = append(out, own(b.table, h))
	}
	return out, true
}

// Range calls fn for every pair in insertion order until fn returns false.
func (b *Bag) Range(fn func(name string, t Type) bool) {
	if b.closed {
		return
	}
	var cookie Cookie
	for {
		name, t, ok := b.table.Next(b.handle, &cookie)
		if !ok || !fn(name, t) {
			return
		}
	}
}

// Len returns the number of pairs.
func (b *Bag) Len() int {
	n := 0
	b.Range(func(string, Type) bool {
		n++
		return true
	})
	return n
}
