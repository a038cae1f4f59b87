package nv

// Flag is the set of creation flags of a list. Flags are fixed for the life of the list.
type Flag int

const (
	// FlagNone creates a list with case sensitive, unique names.
	FlagNone Flag = 0
	// FlagIgnoreCase makes name lookups case insensitive.
	FlagIgnoreCase Flag = 1
	// FlagNoUnique allows several pairs with the same name.
	FlagNoUnique Flag = 2
	// FlagBoth combines FlagIgnoreCase and FlagNoUnique.
	FlagBoth Flag = 3
)

// Type identifies the type of a single pair. The values match the native NV_TYPE_* constants.
type Type int

const (
	TypeNone Type = iota
	TypeNull
	TypeBool
	TypeNumber
	TypeString
	TypeNvlist
	TypeDescriptor
	TypeBinary
	TypeBoolArray
	TypeNumberArray
	TypeStringArray
	TypeNvlistArray
	TypeDescriptorArray
)

var typeNames = map[Type]string{
	TypeNone:            "none",
	TypeNull:            "null",
	TypeBool:            "bool",
	TypeNumber:          "number",
	TypeString:          "string",
	TypeNvlist:          "nvlist",
	TypeDescriptor:      "descriptor",
	TypeBinary:          "binary",
	TypeBoolArray:       "bool_array",
	TypeNumberArray:     "number_array",
	TypeStringArray:     "string_array",
	TypeNvlistArray:     "nvlist_array",
	TypeDescriptorArray: "descriptor_array",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Handle is an opaque reference to a native list owned by a Table.
type Handle uintptr

// Cookie carries iteration state between calls to Table.Next. The zero value starts at the first pair.
type Cookie uintptr

// Table is the foreign function surface of the native name/value list library.
//
// Names and string values cross the boundary NUL terminated. Errors are not
// reported per call: a failed add puts the list into an error state that is
// read back with Error, and once a list carries an error every further add is
// a no-op. Getters for a name that does not exist with the requested type
// report ok == false. Handles returned by GetNvlist and GetNvlistArray are
// borrowed and stay valid until the parent is destroyed.
type Table interface {
	Create(flags Flag) (Handle, bool)
	Destroy(h Handle)
	Clone(h Handle) (Handle, bool)
	Empty(h Handle) bool
	Flags(h Handle) Flag
	Error(h Handle) int
	SetError(h Handle, code int)

	Exists(h Handle, name []byte) bool
	ExistsType(h Handle, name []byte, t Type) bool
	Free(h Handle, name []byte)
	FreeType(h Handle, name []byte, t Type)
	Next(h Handle, cookie *Cookie) (name string, t Type, ok bool)

	AddNull(h Handle, name []byte)
	AddBool(h Handle, name []byte, value bool)
	AddNumber(h Handle, name []byte, value uint64)
	AddString(h Handle, name []byte, value []byte)
	AddNvlist(h Handle, name []byte, value Handle)
	AddBoolArray(h Handle, name []byte, value []bool)
	AddNumberArray(h Handle, name []byte, value []uint64)
	AddStringArray(h Handle, name []byte, value [][]byte)
	AddNvlistArray(h Handle, name []byte, value []Handle)

	GetBool(h Handle, name []byte) (bool, bool)
	GetNumber(h Handle, name []byte) (uint64, bool)
	GetString(h Handle, name []byte) (string, bool)
	GetNvlist(h Handle, name []byte) (Handle, bool)
	GetBoolArray(h Handle, name []byte) ([]bool, bool)
	GetNumberArray(h Handle, name []byte) ([]uint64, bool)
	GetStringArray(h Handle, name []byte) ([]string, bool)
	GetNvlistArray(h Handle, name []byte) ([]Handle, bool)
}
