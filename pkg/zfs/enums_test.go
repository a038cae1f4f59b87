package zfs

import "testing"

func TestCompression(t *testing.T) {
	tests := []struct {
		name   string
		want   Compression
		native uint64
	}{
		{"on", CompressionOn, 1},
		{"off", CompressionOff, 2},
		{"lzjb", CompressionLZJB, 3},
		{"gzip", CompressionGzip, 10},
		{"gzip-1", CompressionGzip1, 5},
		{"gzip-9", CompressionGzip9, 13},
		{"zle", CompressionZLE, 14},
		{"lz4", CompressionLZ4, 15},
		{"zstd", CompressionZstd, 16},
	}

	for _, tt := range tests {
		got, err := ParseCompression(tt.name)
		if err != nil {
			t.Fatalf("ParseCompression(%q) error = %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("ParseCompression(%q) = %v, want %v", tt.name, got, tt.want)
		}
		if got.String() != tt.name {
			t.Errorf("String() = %q, want %q", got.String(), tt.name)
		}
		if got.NativeValue() != tt.native {
			t.Errorf("%s NativeValue() = %d, want %d", tt.name, got.NativeValue(), tt.native)
		}
	}
}

func TestNativeValues(t *testing.T) {
	tests := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"aclinherit restricted", AclInheritRestricted.NativeValue(), 4},
		{"aclinherit secure", AclInheritSecure.NativeValue(), 4},
		{"aclinherit passthrough-x", AclInheritPassthroughX.NativeValue(), 5},
		{"aclmode groupmask", AclModeGroupMask.NativeValue(), 2},
		{"checksum on", ChecksumOn.NativeValue(), 1},
		{"checksum sha256", ChecksumSHA256.NativeValue(), 8},
		{"checksum blake3", ChecksumBlake3.NativeValue(), 14},
		{"copies 3", CopiesThree.NativeValue(), 3},
		{"primarycache all", CacheAll.NativeValue(), 2},
		{"primarycache none", CacheNone.NativeValue(), 0},
		{"snapdir visible", SnapDirVisible.NativeValue(), 1},
		{"canmount off", CanMountOff.NativeValue(), 0},
		{"canmount noauto", CanMountNoAuto.NativeValue(), 2},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s NativeValue() = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestParseEnumRejectsUnknown(t *testing.T) {
	if _, err := ParseChecksum("crc32"); err == nil {
		t.Error("ParseChecksum(crc32) error = nil, want error")
	}
	if _, err := ParseCopies("4"); err == nil {
		t.Error("ParseCopies(4) error = nil, want error")
	}
	if _, err := ParseCanMount("ON"); err == nil {
		t.Error("ParseCanMount(ON) error = nil, want error")
	}
}

func TestEnumStringOutOfRange(t *testing.T) {
	if got := SnapDir(7).String(); got != "7" {
		t.Errorf("SnapDir(7).String() = %q, want %q", got, "7")
	}
	if got := SnapDir(7).NativeValue(); got != 0 {
		t.Errorf("SnapDir(7).NativeValue() = %d, want 0", got)
	}
}
