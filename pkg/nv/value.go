package nv

// Value is the set of Go types that map onto a native pair type.
type Value interface {
	bool | uint64 | string | *Bag | []bool | []uint64 | []string | []*Bag
}

// Put inserts value under name using the insert matching its type.
func Put[T Value](b *Bag, name string, value T) error {
	switch v := any(value).(type) {
	case bool:
		return b.InsertBool(name, v)
	case uint64:
		return b.InsertNumber(name, v)
	case string:
		return b.InsertString(name, v)
	case *Bag:
		return b.InsertBag(name, v)
	case []bool:
		return b.InsertBoolArray(name, v)
	case []uint64:
		return b.InsertNumberArray(name, v)
	case []string:
		return b.InsertStringArray(name, v)
	default:
		return b.InsertBagArray(name, any(value).([]*Bag))
	}
}

// PutOptional inserts *value, or a null pair when value is nil.
func PutOptional[T Value](b *Bag, name string, value *T) error {
	if value == nil {
		return b.InsertNull(name)
	}
	return Put(b, name, *value)
}

// Get reads name back as T. It reports false when name is absent with that type.
func Get[T Value](b *Bag, name string) (T, bool) {
	var zero T
	var out any
	var ok bool
	switch any(zero).(type) {
	case bool:
		out, ok = b.Bool(name)
	case uint64:
		out, ok = b.Number(name)
	case string:
		out, ok = b.String(name)
	case *Bag:
		out, ok = b.Bag(name)
	case []bool:
		out, ok = b.BoolArray(name)
	case []uint64:
		out, ok = b.NumberArray(name)
	case []string:
		out, ok = b.StringArray(name)
	default:
		out, ok = b.BagArray(name)
	}
	if !ok {
		return zero, false
	}
	return out.(T), true
}
