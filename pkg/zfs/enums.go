package zfs

import (
	"fmt"
	"strconv"
)

// enumValue pairs the zfs(8) spelling of a property value with the index
// libzfs_core expects for it.
type enumValue struct {
	name   string
	native uint64
}

func parseEnum[T ~int](values []enumValue, prop, s string) (T, error) {
	for i, v := range values {
		if v.name == s {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s value %q", prop, s)
}

func enumName(values []enumValue, i int) string {
	if i < 0 || i >= len(values) {
		return strconv.Itoa(i)
	}
	return values[i].name
}

func enumNative(values []enumValue, i int) uint64 {
	if i < 0 || i >= len(values) {
		return 0
	}
	return values[i].native
}

// AclInheritMode controls how ACL entries are inherited by new files and directories
type AclInheritMode int

const (
	AclInheritDiscard AclInheritMode = iota
	AclInheritNoAllow
	AclInheritRestricted
	// AclInheritSecure is the old spelling of restricted
	AclInheritSecure
	AclInheritPassthrough
	AclInheritPassthroughX
)

var aclInheritValues = []enumValue{
	{"discard", 0}, {"noallow", 1}, {"restricted", 4}, {"secure", 4}, {"passthrough", 3}, {"passthrough-x", 5},
}

func (m AclInheritMode) String() string      { return enumName(aclInheritValues, int(m)) }
func (m AclInheritMode) NativeValue() uint64 { return enumNative(aclInheritValues, int(m)) }

func ParseAclInheritMode(s string) (AclInheritMode, error) {
	return parseEnum[AclInheritMode](aclInheritValues, "aclinherit", s)
}

// AclMode controls how chmod modifies ACL entries
type AclMode int

const (
	AclModeDiscard AclMode = iota
	AclModeGroupMask
	AclModePassthrough
	AclModeRestricted
)

var aclModeValues = []enumValue{{"discard", 0}, {"groupmask", 2}, {"passthrough", 3}, {"restricted", 4}}

func (m AclMode) String() string      { return enumName(aclModeValues, int(m)) }
func (m AclMode) NativeValue() uint64 { return enumNative(aclModeValues, int(m)) }

func ParseAclMode(s string) (AclMode, error) {
	return parseEnum[AclMode](aclModeValues, "aclmode", s)
}

// Checksum is the algorithm verifying data integrity. Not every module
// supports every algorithm.
type Checksum int

const (
	ChecksumOn Checksum = iota
	ChecksumOff
	ChecksumFletcher2
	ChecksumFletcher4
	ChecksumSHA256
	ChecksumNoParity
	ChecksumSHA512
	ChecksumSkein
	ChecksumEdonR
	ChecksumBlake3
)

var checksumValues = []enumValue{
	{"on", 1}, {"off", 2}, {"fletcher2", 6}, {"fletcher4", 7}, {"sha256", 8},
	{"noparity", 10}, {"sha512", 11}, {"skein", 12}, {"edonr", 13}, {"blake3", 14},
}

func (c Checksum) String() string      { return enumName(checksumValues, int(c)) }
func (c Checksum) NativeValue() uint64 { return enumNative(checksumValues, int(c)) }

func ParseChecksum(s string) (Checksum, error) {
	return parseEnum[Checksum](checksumValues, "checksum", s)
}

// Compression is the compression algorithm of a dataset
type Compression int

const (
	CompressionOn Compression = iota
	CompressionOff
	CompressionLZJB
	// CompressionGzip is gzip-6
	CompressionGzip
	CompressionGzip1
	CompressionGzip2
	CompressionGzip3
	CompressionGzip4
	CompressionGzip5
	CompressionGzip6
	CompressionGzip7
	CompressionGzip8
	CompressionGzip9
	CompressionZLE
	CompressionLZ4
	CompressionZstd
)

var compressionValues = []enumValue{
	{"on", 1}, {"off", 2}, {"lzjb", 3}, {"gzip", 10},
	{"gzip-1", 5}, {"gzip-2", 6}, {"gzip-3", 7}, {"gzip-4", 8}, {"gzip-5", 9},
	{"gzip-6", 10}, {"gzip-7", 11}, {"gzip-8", 12}, {"gzip-9", 13},
	{"zle", 14}, {"lz4", 15}, {"zstd", 16},
}

func (c Compression) String() string      { return enumName(compressionValues, int(c)) }
func (c Compression) NativeValue() uint64 { return enumNative(compressionValues, int(c)) }

func ParseCompression(s string) (Compression, error) {
	return parseEnum[Compression](compressionValues, "compression", s)
}

// Copies is the number of copies of user data kept on top of pool redundancy
type Copies int

const (
	CopiesOne Copies = iota
	CopiesTwo
	CopiesThree
)

var copiesValues = []enumValue{{"1", 1}, {"2", 2}, {"3", 3}}

func (c Copies) String() string      { return enumName(copiesValues, int(c)) }
func (c Copies) NativeValue() uint64 { return enumNative(copiesValues, int(c)) }

func ParseCopies(s string) (Copies, error) {
	return parseEnum[Copies](copiesValues, "copies", s)
}

// CacheMode is what the primary (ARC) or secondary (L2ARC) cache holds
type CacheMode int

const (
	CacheAll CacheMode = iota
	CacheMetadata
	CacheNone
)

var cacheModeValues = []enumValue{{"all", 2}, {"metadata", 1}, {"none", 0}}

func (m CacheMode) String() string      { return enumName(cacheModeValues, int(m)) }
func (m CacheMode) NativeValue() uint64 { return enumNative(cacheModeValues, int(m)) }

func ParseCacheMode(s string) (CacheMode, error) {
	return parseEnum[CacheMode](cacheModeValues, "cache", s)
}

// SnapDir controls whether .zfs is visible in the root of a filesystem
type SnapDir int

const (
	SnapDirHidden SnapDir = iota
	SnapDirVisible
)

var snapDirValues = []enumValue{{"hidden", 0}, {"visible", 1}}

func (d SnapDir) String() string      { return enumName(snapDirValues, int(d)) }
func (d SnapDir) NativeValue() uint64 { return enumNative(snapDirValues, int(d)) }

func ParseSnapDir(s string) (SnapDir, error) {
	return parseEnum[SnapDir](snapDirValues, "snapdir", s)
}

// CanMount controls whether a filesystem can be mounted
type CanMount int

const (
	CanMountOn CanMount = iota
	CanMountOff
	// CanMountNoAuto only mounts explicitly
	CanMountNoAuto
)

var canMountValues = []enumValue{{"on", 1}, {"off", 0}, {"noauto", 2}}

func (c CanMount) String() string      { return enumName(canMountValues, int(c)) }
func (c CanMount) NativeValue() uint64 { return enumNative(canMountValues, int(c)) }

func ParseCanMount(s string) (CanMount, error) {
	return parseEnum[CanMount](canMountValues, "canmount", s)
}
