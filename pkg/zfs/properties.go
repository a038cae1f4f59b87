package zfs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/runningman84/zfskit/pkg/models"
	"github.com/runningman84/zfskit/pkg/parser"
	"github.com/runningman84/zfskit/pkg/zerr"
)

// creationLayout is how zfs get prints creation without -p
const creationLayout = "Mon Jan _2 15:04 2006"

// Properties are the native properties of a dataset read with zfs get.
// Fields that do not apply to Kind are nil. Properties without a field,
// user properties included, land in Unknown.
type Properties struct {
	Name string
	Kind models.DatasetKind

	GUID          uint64
	Creation      time.Time
	CreateTxg     uint64
	Used          uint64
	Referenced    uint64
	Available     *uint64
	CompressRatio float64
	Written       uint64
	Origin        *string
	Clones        []string

	Compression *Compression
	Checksum    *Checksum
	Copies      *Copies
	ReadOnly    *bool
	Quota       *uint64
	RefQuota    *uint64
	Reservation *uint64
	RefReserv   *uint64

	// Filesystem only
	Mounted    *bool
	MountPoint *string
	CanMount   *CanMount
	Atime      *bool
	Exec       *bool
	Devices    *bool
	Setuid     *bool
	Xattr      *bool
	SnapDir    *SnapDir
	AclInherit *AclInheritMode
	AclMode    *AclMode
	RecordSize *uint64

	// Volume only
	VolumeSize      *uint64
	VolumeBlockSize *uint64

	PrimaryCache   *CacheMode
	SecondaryCache *CacheMode

	Unknown map[string]string
}

type propertyReader struct {
	key   string
	value string
	err   error
}

func (r *propertyReader) fail(err error) {
	if r.err == nil {
		r.err = zerr.Errorf(zerr.ParseError, "property %s: %v", r.key, err)
	}
}

func (r *propertyReader) number() uint64 {
	v, err := strconv.ParseUint(r.value, 10, 64)
	if err != nil {
		r.fail(err)
	}
	return v
}

// optionalNumber treats "-", "none" and 0 as unset
func (r *propertyReader) optionalNumber() *uint64 {
	switch r.value {
	case "-", "", "none", "0":
		return nil
	}
	v := r.number()
	return &v
}

// flag treats "-" as not applicable
func (r *propertyReader) flag() *bool {
	var on bool
	switch r.value {
	case "-":
		return nil
	case "on", "yes", "sa", "dir":
		on = true
	case "off", "no":
	default:
		r.fail(fmt.Errorf("expected on or off, got %q", r.value))
	}
	return &on
}

func (r *propertyReader) text() *string {
	if r.value == "-" || r.value == "" || r.value == "none" {
		return nil
	}
	s := r.value
	return &s
}

func (r *propertyReader) ratio() float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(r.value, "x"), 64)
	if err != nil {
		r.fail(err)
	}
	return v
}

func (r *propertyReader) creation() time.Time {
	if ts, err := strconv.ParseInt(r.value, 10, 64); err == nil {
		return time.Unix(ts, 0).UTC()
	}
	t, err := time.ParseInLocation(creationLayout, r.value, time.Local)
	if err != nil {
		r.fail(err)
	}
	return t
}

// enum parses an enumerated value. Values newer than this package knows
// are kept in Unknown rather than failing the whole read.
func enum[T ~int](p *Properties, r *propertyReader, parse func(string) (T, error)) *T {
	v, err := parse(r.value)
	if err != nil {
		p.Unknown[r.key] = r.value
		return nil
	}
	return &v
}

// PropertiesFromStdout parses the output of zfs get -Hp all for one dataset
func PropertiesFromStdout(stdout []byte) (Properties, error) {
	root, err := parser.ParseDatasetProperties(stdout)
	if err != nil {
		return Properties{}, zerr.FromParse(err)
	}
	if len(root.Children) == 0 {
		return Properties{}, zerr.Errorf(zerr.ParseError, "no properties printed")
	}

	p := Properties{Unknown: make(map[string]string)}
	for _, entry := range root.Children {
		name, _ := entry.ChildText(parser.DatasetName)
		key, _ := entry.ChildText(parser.PropertyKey)
		value, _ := entry.ChildText(parser.PropertyValue)
		if p.Name == "" {
			p.Name = name
		}
		r := &propertyReader{key: key, value: value}
		p.set(r)
		if r.err != nil {
			return Properties{}, r.err
		}
	}
	return p, nil
}

func (p *Properties) set(r *propertyReader) {
	switch r.key {
	case "type":
		kind, err := models.ParseDatasetKind(r.value)
		if err != nil {
			r.fail(err)
		}
		p.Kind = kind
	case "guid":
		p.GUID = r.number()
	case "creation":
		p.Creation = r.creation()
	case "createtxg":
		p.CreateTxg = r.number()
	case "used":
		p.Used = r.number()
	case "referenced":
		p.Referenced = r.number()
	case "available":
		p.Available = r.optionalNumber()
	case "compressratio":
		p.CompressRatio = r.ratio()
	case "written":
		p.Written = r.number()
	case "origin":
		p.Origin = r.text()
	case "clones":
		if s := r.text(); s != nil {
			p.Clones = strings.Split(*s, ",")
		}
	case "compression":
		p.Compression = enum(p, r, ParseCompression)
	case "checksum":
		p.Checksum = enum(p, r, ParseChecksum)
	case "copies":
		p.Copies = enum(p, r, ParseCopies)
	case "readonly":
		p.ReadOnly = r.flag()
	case "quota":
		p.Quota = r.optionalNumber()
	case "refquota":
		p.RefQuota = r.optionalNumber()
	case "reservation":
		p.Reservation = r.optionalNumber()
	case "refreservation":
		p.RefReserv = r.optionalNumber()
	case "mounted":
		p.Mounted = r.flag()
	case "mountpoint":
		p.MountPoint = r.text()
	case "canmount":
		p.CanMount = enum(p, r, ParseCanMount)
	case "atime":
		p.Atime = r.flag()
	case "exec":
		p.Exec = r.flag()
	case "devices":
		p.Devices = r.flag()
	case "setuid":
		p.Setuid = r.flag()
	case "xattr":
		p.Xattr = r.flag()
	case "snapdir":
		p.SnapDir = enum(p, r, ParseSnapDir)
	case "aclinherit":
		p.AclInherit = enum(p, r, ParseAclInheritMode)
	case "aclmode":
		p.AclMode = enum(p, r, ParseAclMode)
	case "recordsize":
		p.RecordSize = r.optionalNumber()
	case "volsize":
		p.VolumeSize = r.optionalNumber()
	case "volblocksize":
		p.VolumeBlockSize = r.optionalNumber()
	case "primarycache":
		p.PrimaryCache = enum(p, r, ParseCacheMode)
	case "secondarycache":
		p.SecondaryCache = enum(p, r, ParseCacheMode)
	default:
		p.Unknown[r.key] = r.value
	}
}
