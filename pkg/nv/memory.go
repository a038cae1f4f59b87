package nv

import (
	"bytes"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

type pair struct {
	name  string
	typ   Type
	value any
}

type list struct {
	flags  Flag
	err    int
	pairs  []*pair
	handle Handle
}

// MemoryTable is an in-process Table with the semantics of the native library.
// It is safe to share between lists owned by different goroutines; a single
// list still needs external synchronization.
type MemoryTable struct {
	mu      sync.Mutex
	next    Handle
	handles map[Handle]*list
}

// NewMemoryTable returns an empty table.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{handles: make(map[Handle]*list)}
}

var defaultTable = NewMemoryTable()

// DefaultTable returns the process wide table used by New.
func DefaultTable() Table {
	return defaultTable
}

// Live returns how many lists, borrowed nested ones included, are registered.
func (m *MemoryTable) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

func (m *MemoryTable) register(l *list) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.handle != 0 {
		return l.handle
	}
	m.next++
	l.handle = m.next
	m.handles[l.handle] = l
	return l.handle
}

func (m *MemoryTable) unregister(l *list) {
	m.mu.Lock()
	m.unregisterLocked(l)
	m.mu.Unlock()
}

func (m *MemoryTable) unregisterLocked(l *list) {
	if l.handle != 0 {
		delete(m.handles, l.handle)
		l.handle = 0
	}
	for _, p := range l.pairs {
		switch v := p.value.(type) {
		case *list:
			m.unregisterLocked(v)
		case []*list:
			for _, child := range v {
				m.unregisterLocked(child)
			}
		}
	}
}

func (m *MemoryTable) lookup(h Handle) *list {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handles[h]
}

func (m *MemoryTable) Create(flags Flag) (Handle, bool) {
	return m.register(&list{flags: flags}), true
}

func (m *MemoryTable) Destroy(h Handle) {
	if l := m.lookup(h); l != nil {
		m.unregister(l)
	}
}

func (m *MemoryTable) Clone(h Handle) (Handle, bool) {
	l := m.lookup(h)
	if l == nil || l.err != 0 {
		return 0, false
	}
	return m.register(l.clone()), true
}

func (l *list) clone() *list {
	out := &list{flags: l.flags, err: l.err, pairs: make([]*pair, 0, len(l.pairs))}
	for _, p := range l.pairs {
		out.pairs = append(out.pairs, &pair{name: p.name, typ: p.typ, value: cloneValue(p.value)})
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case *list:
		return x.clone()
	case []*list:
		out := make([]*list, len(x))
		for i, child := range x {
			out[i] = child.clone()
		}
		return out
	case []bool:
		return append([]bool(nil), x...)
	case []uint64:
		return append([]uint64(nil), x...)
	case []string:
		return append([]string(nil), x...)
	default:
		return v
	}
}

func (m *MemoryTable) Empty(h Handle) bool {
	l := m.lookup(h)
	return l == nil || len(l.pairs) == 0
}

func (m *MemoryTable) Flags(h Handle) Flag {
	if l := m.lookup(h); l != nil {
		return l.flags
	}
	return FlagNone
}

func (m *MemoryTable) Error(h Handle) int {
	if l := m.lookup(h); l != nil {
		return l.err
	}
	return int(unix.EINVAL)
}

func (m *MemoryTable) SetError(h Handle, code int) {
	if l := m.lookup(h); l != nil && l.err == 0 {
		l.err = code
	}
}

// cname strips the terminating NUL a name carries across the boundary.
func cname(name []byte) string {
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

func (l *list) match(a, b string) bool {
	if l.flags&FlagIgnoreCase != 0 {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func (l *list) find(name string, t Type) *pair {
	for _, p := range l.pairs {
		if (t == TypeNone || p.typ == t) && l.match(p.name, name) {
			return p
		}
	}
	return nil
}

func (m *MemoryTable) Exists(h Handle, name []byte) bool {
	return m.ExistsType(h, name, TypeNone)
}

func (m *MemoryTable) ExistsType(h Handle, name []byte, t Type) bool {
	l := m.lookup(h)
	return l != nil && l.find(cname(name), t) != nil
}

func (m *MemoryTable) Free(h Handle, name []byte) {
	m.FreeType(h, name, TypeNone)
}

func (m *MemoryTable) FreeType(h Handle, name []byte, t Type) {
	l := m.lookup(h)
	if l == nil {
		return
	}
	n := cname(name)
	for i, p := range l.pairs {
		if (t == TypeNone || p.typ == t) && l.match(p.name, n) {
			l.pairs = append(l.pairs[:i], l.pairs[i+1:]...)
			m.mu.Lock()
			switch v := p.value.(type) {
			case *list:
				m.unregisterLocked(v)
			case []*list:
				for _, child := range v {
					m.unregisterLocked(child)
				}
			}
			m.mu.Unlock()
			return
		}
	}
}

func (m *MemoryTable) Next(h Handle, cookie *Cookie) (string, Type, bool) {
	l := m.lookup(h)
	if l == nil || int(*cookie) >= len(l.pairs) {
		return "", TypeNone, false
	}
	p := l.pairs[*cookie]
	*cookie++
	return p.name, p.typ, true
}

func (m *MemoryTable) add(h Handle, name []byte, t Type, value any) {
	l := m.lookup(h)
	if l == nil || l.err != 0 {
		return
	}
	n := cname(name)
	if l.flags&FlagNoUnique == 0 && l.find(n, TypeNone) != nil {
		l.err = int(unix.EEXIST)
		return
	}
	l.pairs = append(l.pairs, &pair{name: n, typ: t, value: value})
}

func (m *MemoryTable) AddNull(h Handle, name []byte) {
	m.add(h, name, TypeNull, nil)
}

func (m *MemoryTable) AddBool(h Handle, name []byte, value bool) {
	m.add(h, name, TypeBool, value)
}

func (m *MemoryTable) AddNumber(h Handle, name []byte, value uint64) {
	m.add(h, name, TypeNumber, value)
}

func (m *MemoryTable) AddString(h Handle, name []byte, value []byte) {
	m.add(h, name, TypeString, cname(value))
}

func (m *MemoryTable) AddNvlist(h Handle, name []byte, value Handle) {
	child := m.lookup(value)
	if child == nil {
		m.SetError(h, int(unix.EINVAL))
		return
	}
	m.add(h, name, TypeNvlist, child.clone())
}

func (m *MemoryTable) AddBoolArray(h Handle, name []byte, value []bool) {
	m.add(h, name, TypeBoolArray, append([]bool(nil), value...))
}

func (m *MemoryTable) AddNumberArray(h Handle, name []byte, value []uint64) {
	m.add(h, name, TypeNumberArray, append([]uint64(nil), value...))
}

func (m *MemoryTable) AddStringArray(h Handle, name []byte, value [][]byte) {
	out := make([]string, len(value))
	for i, v := range value {
		out[i] = cname(v)
	}
	m.add(h, name, TypeStringArray, out)
}

func (m *MemoryTable) AddNvlistArray(h Handle, name []byte, value []Handle) {
	out := make([]*list, len(value))
	for i, v := range value {
		child := m.lookup(v)
		if child == nil {
			m.SetError(h, int(unix.EINVAL))
			return
		}
		out[i] = child.clone()
	}
	m.add(h, name, TypeNvlistArray, out)
}

func (m *MemoryTable) get(h Handle, name []byte, t Type) (any, bool) {
	l := m.lookup(h)
	if l == nil {
		return nil, false
	}
	p := l.find(cname(name), t)
	if p == nil {
		return nil, false
	}
	return p.value, true
}

func (m *MemoryTable) GetBool(h Handle, name []byte) (bool, bool) {
	v, ok := m.get(h, name, TypeBool)
	if !ok {
		return false, false
	}
	return v.(bool), true
}

func (m *MemoryTable) GetNumber(h Handle, name []byte) (uint64, bool) {
	v, ok := m.get(h, name, TypeNumber)
	if !ok {
		return 0, false
	}
	return v.(uint64), true
}

func (m *MemoryTable) GetString(h Handle, name []byte) (string, bool) {
	v, ok := m.get(h, name, TypeString)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (m *MemoryTable) GetNvlist(h Handle, name []byte) (Handle, bool) {
	v, ok := m.get(h, name, TypeNvlist)
	if !ok {
		return 0, false
	}
	return m.register(v.(*list)), true
}

func (m *MemoryTable) GetBoolArray(h Handle, name []byte) ([]bool, bool) {
	v, ok := m.get(h, name, TypeBoolArray)
	if !ok {
		return nil, false
	}
	return v.([]bool), true
}

func (m *MemoryTable) GetNumberArray(h Handle, name []byte) ([]uint64, bool) {
	v, ok := m.get(h, name, TypeNumberArray)
	if !ok {
		return nil, false
	}
	return v.([]uint64), true
}

func (m *MemoryTable) GetStringArray(h Handle, name []byte) ([]string, bool) {
	v, ok := m.get(h, name, TypeStringArray)
	if !ok {
		return nil, false
	}
	return v.([]string), true
}

func (m *MemoryTable) GetNvlistArray(h Handle, name []byte) ([]Handle, bool) {
	v, ok := m.get(h, name, TypeNvlistArray)
	if !ok {
		return nil, false
	}
	children := v.([]*list)
	out := make([]Handle, len(children))
	for i, child := range children {
		out[i] = m.register(child)
	}
	return out, true
}
