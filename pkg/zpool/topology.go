package zpool

import (
	"fmt"
	"slices"
	"strings"

	"github.com/runningman84/zfskit/pkg/models"
	"github.com/runningman84/zfskit/pkg/zerr"
)

// MaxNameLength is the longest pool or dataset name the kernel accepts
const MaxNameLength = 255

// VdevKind is the redundancy class of a vdev
type VdevKind int

const (
	SingleDisk VdevKind = iota
	Mirror
	RaidZ
	RaidZ2
	RaidZ3
)

// minDisks is the minimum member count per redundancy class
var minDisks = map[VdevKind]int{
	SingleDisk: 1,
	Mirror:     2,
	RaidZ:      3,
	RaidZ2:     5,
	RaidZ3:     8,
}

func (k VdevKind) String() string {
	switch k {
	case SingleDisk:
		return "disk"
	case Mirror:
		return "mirror"
	case RaidZ:
		return "raidz"
	case RaidZ2:
		return "raidz2"
	case RaidZ3:
		return "raidz3"
	default:
		return fmt.Sprintf("VdevKind(%d)", int(k))
	}
}

// ParseVdevKind converts a group name prefix such as mirror or raidz2
func ParseVdevKind(s string) (VdevKind, error) {
	switch s {
	case "mirror":
		return Mirror, nil
	case "raidz", "raidz1":
		return RaidZ, nil
	case "raidz2":
		return RaidZ2, nil
	case "raidz3":
		return RaidZ3, nil
	default:
		return 0, &zerr.Error{Kind: zerr.UnknownRaidType, Text: s}
	}
}

// Reason is the free text zpool prints after a device state, e.g. "was /dev/sdb1"
type Reason string

// WasPath returns the former path of a replaced device
func (r Reason) WasPath() (string, bool) {
	s := string(r)
	if !strings.HasPrefix(s, "was ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(s, "was ")), true
}

// Disk is a leaf device backed by a block device or a file. A path made of
// digits only is a guid reference zpool printed because it could not
// resolve a path.
type Disk struct {
	Path            string
	Health          models.Health
	Reason          *Reason
	ErrorStatistics models.ErrorStatistics
}

// IsGUID reports whether Path is a bare guid
func (d Disk) IsGUID() bool {
	if d.Path == "" {
		return false
	}
	for _, c := range d.Path {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Vdev is a top level group of disks
type Vdev struct {
	Kind            VdevKind
	Health          models.Health
	Reason          *Reason
	Disks           []Disk
	ErrorStatistics models.ErrorStatistics
}

// Paths returns the member paths in order
func (v Vdev) Paths() []string {
	paths := make([]string, len(v.Disks))
	for i, d := range v.Disks {
		paths[i] = d.Path
	}
	return paths
}

// Equal compares kind and member paths only
func (v Vdev) Equal(other Vdev) bool {
	return v.Kind == other.Kind && slices.Equal(v.Paths(), other.Paths())
}

// Matches reports whether the vdev has the layout req asks for
func (v Vdev) Matches(req CreateVdevRequest) bool {
	return v.Kind == req.Kind && slices.Equal(v.Paths(), req.Disks)
}

// Spare is a hot spare. State is AVAIL, INUSE or a health token.
type Spare struct {
	Path   string
	State  string
	Reason *Reason
}

// CreateVdevRequest describes a vdev to create or add
type CreateVdevRequest struct {
	Kind  VdevKind
	Disks []string
}

// NewDisk is a single disk or file vdev
func NewDisk(path string) CreateVdevRequest {
	return CreateVdevRequest{Kind: SingleDisk, Disks: []string{path}}
}

// NewMirror is a mirror of disks
func NewMirror(disks ...string) CreateVdevRequest {
	return CreateVdevRequest{Kind: Mirror, Disks: disks}
}

// NewRaidZ is a single parity RAID-Z group
func NewRaidZ(disks ...string) CreateVdevRequest {
	return CreateVdevRequest{Kind: RaidZ, Disks: disks}
}

// NewRaidZ2 is a double parity RAID-Z group
func NewRaidZ2(disks ...string) CreateVdevRequest {
	return CreateVdevRequest{Kind: RaidZ2, Disks: disks}
}

// NewRaidZ3 is a triple parity RAID-Z group
func NewRaidZ3(disks ...string) CreateVdevRequest {
	return CreateVdevRequest{Kind: RaidZ3, Disks: disks}
}

// IsValid checks the minimum member count of the redundancy class
func (r CreateVdevRequest) IsValid() bool {
	if r.Kind == SingleDisk {
		return len(r.Disks) == 1
	}
	want, ok := minDisks[r.Kind]
	return ok && len(r.Disks) >= want
}

// Args renders the vdev as zpool(8) arguments
func (r CreateVdevRequest) Args() []string {
	if r.Kind == SingleDisk {
		return append([]string(nil), r.Disks...)
	}
	return append([]string{r.Kind.String()}, r.Disks...)
}

// CreateMode selects whether zpool is allowed to override safety checks
type CreateMode int

const (
	Gentle CreateMode = iota
	Force
)

// CreateZpoolRequest describes a pool to create, or devices to add to one.
// Build it with NewCreateZpoolRequest.
type CreateZpoolRequest struct {
	Name       string
	Props      *PropertiesWrite
	AltRoot    string
	Mount      string
	CreateMode CreateMode
	Vdevs      []CreateVdevRequest
	Caches     []string
	Logs       []CreateVdevRequest
	Spares     []string
}

// CreateZpoolRequestBuilder accumulates a CreateZpoolRequest
type CreateZpoolRequestBuilder struct {
	req CreateZpoolRequest
}

// NewCreateZpoolRequest starts a request for the named pool
func NewCreateZpoolRequest(name string) *CreateZpoolRequestBuilder {
	return &CreateZpoolRequestBuilder{req: CreateZpoolRequest{Name: name}}
}

func (b *CreateZpoolRequestBuilder) Props(p PropertiesWrite) *CreateZpoolRequestBuilder {
	b.req.Props = &p
	return b
}

func (b *CreateZpoolRequestBuilder) AltRoot(path string) *CreateZpoolRequestBuilder {
	b.req.AltRoot = path
	return b
}

func (b *CreateZpoolRequestBuilder) Mount(path string) *CreateZpoolRequestBuilder {
	b.req.Mount = path
	return b
}

func (b *CreateZpoolRequestBuilder) CreateMode(mode CreateMode) *CreateZpoolRequestBuilder {
	b.req.CreateMode = mode
	return b
}

func (b *CreateZpoolRequestBuilder) Vdev(v CreateVdevRequest) *CreateZpoolRequestBuilder {
	b.req.Vdevs = append(b.req.Vdevs, v)
	return b
}

func (b *CreateZpoolRequestBuilder) Vdevs(v ...CreateVdevRequest) *CreateZpoolRequestBuilder {
	b.req.Vdevs = append(b.req.Vdevs, v...)
	return b
}

func (b *CreateZpoolRequestBuilder) Cache(path string) *CreateZpoolRequestBuilder {
	b.req.Caches = append(b.req.Caches, path)
	return b
}

func (b *CreateZpoolRequestBuilder) Zil(v CreateVdevRequest) *CreateZpoolRequestBuilder {
	b.req.Logs = append(b.req.Logs, v)
	return b
}

func (b *CreateZpoolRequestBuilder) Spare(path string) *CreateZpoolRequestBuilder {
	b.req.Spares = append(b.req.Spares, path)
	return b
}

// Build validates the pool name and returns the request
func (b *CreateZpoolRequestBuilder) Build() (CreateZpoolRequest, error) {
	if err := ValidatePoolName(b.req.Name); err != nil {
		return CreateZpoolRequest{}, err
	}
	return b.req, nil
}

// ValidatePoolName checks the name rules shared with datasets
func ValidatePoolName(name string) error {
	switch {
	case name == "" || strings.HasSuffix(name, "/"):
		return &zerr.Error{Kind: zerr.MissingName, Dataset: name}
	case len(name) > MaxNameLength:
		return &zerr.Error{Kind: zerr.NameTooLong, Dataset: name}
	case strings.ContainsAny(name, "/@#"):
		return &zerr.Error{Kind: zerr.InvalidInput, Dataset: name, Text: "pool names cannot contain '/', '@' or '#'"}
	}
	return nil
}

// IsSuitableForUpdate reports whether every vdev and log vdev is valid
func (r CreateZpoolRequest) IsSuitableForUpdate() bool {
	for _, v := range r.Vdevs {
		if !v.IsValid() {
			return false
		}
	}
	for _, v := range r.Logs {
		if !v.IsValid() {
			return false
		}
	}
	return true
}

// IsSuitableForCreate additionally requires at least one data vdev
func (r CreateZpoolRequest) IsSuitableForCreate() bool {
	return len(r.Vdevs) > 0 && r.IsSuitableForUpdate()
}

// Args renders the topology as zpool(8) arguments
func (r CreateZpoolRequest) Args() []string {
	var args []string
	for _, v := range r.Vdevs {
		args = append(args, v.Args()...)
	}
	if len(r.Logs) > 0 {
		args = append(args, "log")
		for _, v := range r.Logs {
			args = append(args, v.Args()...)
		}
	}
	if len(r.Caches) > 0 {
		args = append(args, "cache")
		args = append(args, r.Caches...)
	}
	if len(r.Spares) > 0 {
		args = append(args, "spare")
		args = append(args, r.Spares...)
	}
	return args
}
