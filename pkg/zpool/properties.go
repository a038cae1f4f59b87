package zpool

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/runningman84/zfskit/pkg/models"
	"github.com/runningman84/zfskit/pkg/parser"
	"github.com/runningman84/zfskit/pkg/zerr"
)

// PropertyColumns is the -o argument of zpool list used by ReadProperties.
// PropertiesFromStdout expects the columns in this order.
var PropertyColumns = []string{
	"alloc", "cap", "comment", "dedupratio", "expandsize", "fragmentation", "free",
	"freeing", "guid", "health", "size", "leaked", "altroot", "readonly", "autoexpand",
	"autoreplace", "bootfs", "cachefile", "dedupditto", "delegation", "failmode",
}

// FailMode is the behavior of a pool on catastrophic failure
type FailMode int

const (
	FailWait FailMode = iota
	FailContinue
	FailPanic
)

func (m FailMode) String() string {
	switch m {
	case FailContinue:
		return "continue"
	case FailPanic:
		return "panic"
	default:
		return "wait"
	}
}

// ParseFailMode converts the failmode property value
func ParseFailMode(s string) (FailMode, error) {
	switch s {
	case "wait":
		return FailWait, nil
	case "continue":
		return FailContinue, nil
	case "panic":
		return FailPanic, nil
	default:
		return 0, fmt.Errorf("unknown failmode %q", s)
	}
}

// CacheType selects where the pool configuration is cached
type CacheType int

const (
	CacheDefault CacheType = iota
	CacheNone
	CacheCustom
)

// CacheFile is the cachefile property. Path is only set for CacheCustom.
type CacheFile struct {
	Type CacheType
	Path string
}

func (c CacheFile) String() string {
	switch c.Type {
	case CacheNone:
		return "none"
	case CacheCustom:
		return c.Path
	default:
		return ""
	}
}

func parseCacheFile(s string) CacheFile {
	switch s {
	case "-", "":
		return CacheFile{Type: CacheDefault}
	case "none":
		return CacheFile{Type: CacheNone}
	default:
		return CacheFile{Type: CacheCustom, Path: s}
	}
}

// PropertiesWrite holds the writable pool properties
type PropertiesWrite struct {
	AltRoot     *string
	ReadOnly    bool
	AutoExpand  bool
	AutoReplace bool
	BootFS      *string
	CacheFile   CacheFile
	DedupDitto  uint64
	Delegation  bool
	FailMode    FailMode
}

// DefaultPropertiesWrite returns the values zpool create uses when nothing is given
func DefaultPropertiesWrite() PropertiesWrite {
	return PropertiesWrite{CacheFile: CacheFile{Type: CacheDefault}, FailMode: FailWait}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Args renders the properties as key=value pairs for -o. Properties that can
// only be set at import time or are unset are left out.
func (p PropertiesWrite) Args() []string {
	var args []string
	if p.AltRoot != nil {
		args = append(args, "altroot="+*p.AltRoot)
	}
	if p.ReadOnly {
		args = append(args, "readonly=on")
	}
	args = append(args,
		"autoexpand="+onOff(p.AutoExpand),
		"autoreplace="+onOff(p.AutoReplace),
	)
	if p.BootFS != nil {
		args = append(args, "bootfs="+*p.BootFS)
	}
	if p.CacheFile.Type != CacheDefault {
		args = append(args, "cachefile="+p.CacheFile.String())
	}
	if p.DedupDitto > 0 {
		args = append(args, "dedupditto="+strconv.FormatUint(p.DedupDitto, 10))
	}
	args = append(args,
		"delegation="+onOff(p.Delegation),
		"failmode="+p.FailMode.String(),
	)
	return args
}

// Properties are the pool properties read with zpool list -p
type Properties struct {
	Alloc         uint64
	Capacity      uint8
	Comment       *string
	DedupRatio    float64
	ExpandSize    *uint64
	Fragmentation int8
	Free          int64
	Freeing       int64
	GUID          uint64
	Health        models.Health
	Size          uint64
	Leaked        uint64

	AltRoot     *string
	ReadOnly    bool
	AutoExpand  bool
	AutoReplace bool
	BootFS      *string
	CacheFile   CacheFile
	DedupDitto  uint64
	Delegation  bool
	FailMode    FailMode
}

type fieldParser struct {
	fields []*parser.Node
	err    error
}

func (f *fieldParser) fail(i int, err error) {
	if f.err == nil {
		f.err = zerr.Errorf(zerr.ParseError, "column %s: %v", PropertyColumns[i], err)
	}
}

func (f *fieldParser) text(i int) string {
	return f.fields[i].Text
}

func (f *fieldParser) unsigned(i, bits int) uint64 {
	v, err := strconv.ParseUint(f.text(i), 10, bits)
	if err != nil {
		f.fail(i, err)
	}
	return v
}

func (f *fieldParser) signed(i, bits int, suffix string) int64 {
	s := strings.TrimSuffix(f.text(i), suffix)
	if s == "-" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		f.fail(i, err)
	}
	return v
}

func (f *fieldParser) optional(i int) *string {
	s := f.text(i)
	if s == "-" || s == "" {
		return nil
	}
	return &s
}

func (f *fieldParser) flag(i int) bool {
	switch f.text(i) {
	case "on":
		return true
	case "off":
		return false
	}
	f.fail(i, fmt.Errorf("expected on or off, got %q", f.text(i)))
	return false
}

// PropertiesFromStdout parses the single tab separated line printed by
// zpool list -p -H -o with PropertyColumns.
func PropertiesFromStdout(stdout []byte) (Properties, error) {
	record, err := parser.ParsePropertyRecord(stdout, len(PropertyColumns))
	if err != nil {
		return Properties{}, zerr.FromParse(err)
	}
	f := &fieldParser{fields: record.Children}

	var p Properties
	p.Alloc = f.unsigned(0, 64)
	p.Capacity = uint8(f.unsigned(1, 8))
	p.Comment = f.optional(2)
	ratio, err := strconv.ParseFloat(strings.TrimSuffix(f.text(3), "x"), 64)
	if err != nil {
		f.fail(3, err)
	}
	p.DedupRatio = ratio
	if f.optional(4) != nil {
		v := f.unsigned(4, 64)
		p.ExpandSize = &v
	}
	p.Fragmentation = int8(f.signed(5, 8, "%"))
	p.Free = f.signed(6, 64, "")
	p.Freeing = f.signed(7, 64, "")
	p.GUID = f.unsigned(8, 64)
	if h, err := models.ParseHealth(f.text(9)); err != nil {
		f.fail(9, err)
	} else {
		p.Health = h
	}
	p.Size = f.unsigned(10, 64)
	p.Leaked = f.unsigned(11, 64)
	p.AltRoot = f.optional(12)
	p.ReadOnly = f.flag(13)
	p.AutoExpand = f.flag(14)
	p.AutoReplace = f.flag(15)
	p.BootFS = f.optional(16)
	p.CacheFile = parseCacheFile(f.text(17))
	p.DedupDitto = f.unsigned(18, 64)
	p.Delegation = f.flag(19)
	if m, err := ParseFailMode(f.text(20)); err != nil {
		f.fail(20, err)
	} else {
		p.FailMode = m
	}

	if f.err != nil {
		return Properties{}, f.err
	}
	return p, nil
}
