package zfs

import (
	"maps"

	"github.com/runningman84/zfskit/pkg/models"
	"github.com/runningman84/zfskit/pkg/zerr"
)

// CreateDatasetRequest describes a filesystem or volume to create. Build it
// with NewCreateDatasetRequest so that Validate has already run.
type CreateDatasetRequest struct {
	Name string
	Kind models.DatasetKind
	// UserProperties are passed through as strings, e.g. com.example:owner
	UserProperties map[string]string

	AclInherit     AclInheritMode
	AclMode        *AclMode
	Atime          bool
	CanMount       CanMount
	Checksum       Checksum
	Compression    Compression
	Copies         Copies
	Devices        bool
	Exec           bool
	MountPoint     *string
	PrimaryCache   CacheMode
	Quota          *uint64
	ReadOnly       bool
	RecordSize     *uint64
	RefQuota       *uint64
	RefReservation *uint64
	SecondaryCache CacheMode
	Setuid         bool
	SnapDir        SnapDir
	Xattr          bool

	// VolumeSize is required for volumes and rejected for filesystems
	VolumeSize *uint64
	// VolumeBlockSize is only valid for volumes
	VolumeBlockSize *uint64
}

// Validate checks the name and that volume only fields match the kind
func (r CreateDatasetRequest) Validate() error {
	if err := Validate(r.Name); err != nil {
		return err
	}
	if !IsVolumeOrDataset(r.Name) {
		return &zerr.Error{Kind: zerr.InvalidInput, Dataset: r.Name, Text: "cannot create a snapshot or bookmark"}
	}
	switch r.Kind {
	case models.Filesystem:
		if r.VolumeSize != nil || r.VolumeBlockSize != nil {
			return &zerr.Error{Kind: zerr.InvalidInput, Dataset: r.Name, Text: "volume size set on a filesystem"}
		}
	case models.Volume:
		if r.VolumeSize == nil {
			return &zerr.Error{Kind: zerr.InvalidInput, Dataset: r.Name, Text: "volume size is required"}
		}
	default:
		return &zerr.Error{Kind: zerr.InvalidInput, Dataset: r.Name, Text: "only filesystems and volumes can be created"}
	}
	return nil
}

// CreateDatasetRequestBuilder accumulates a CreateDatasetRequest
type CreateDatasetRequestBuilder struct {
	req CreateDatasetRequest
}

// NewCreateDatasetRequest starts a request with the defaults zfs create uses
func NewCreateDatasetRequest(name string, kind models.DatasetKind) *CreateDatasetRequestBuilder {
	return &CreateDatasetRequestBuilder{req: CreateDatasetRequest{
		Name:           name,
		Kind:           kind,
		AclInherit:     AclInheritRestricted,
		Atime:          true,
		CanMount:       CanMountOn,
		Checksum:       ChecksumOn,
		Compression:    CompressionOff,
		Copies:         CopiesOne,
		Devices:        true,
		Exec:           true,
		PrimaryCache:   CacheAll,
		SecondaryCache: CacheAll,
		Setuid:         true,
		SnapDir:        SnapDirHidden,
		Xattr:          true,
	}}
}

func (b *CreateDatasetRequestBuilder) UserProperty(key, value string) *CreateDatasetRequestBuilder {
	if b.req.UserProperties == nil {
		b.req.UserProperties = make(map[string]string)
	}
	b.req.UserProperties[key] = value
	return b
}

func (b *CreateDatasetRequestBuilder) AclInherit(m AclInheritMode) *CreateDatasetRequestBuilder {
	b.req.AclInherit = m
	return b
}

func (b *CreateDatasetRequestBuilder) AclMode(m AclMode) *CreateDatasetRequestBuilder {
	b.req.AclMode = &m
	return b
}

func (b *CreateDatasetRequestBuilder) Atime(on bool) *CreateDatasetRequestBuilder {
	b.req.Atime = on
	return b
}

func (b *CreateDatasetRequestBuilder) CanMount(c CanMount) *CreateDatasetRequestBuilder {
	b.req.CanMount = c
	return b
}

func (b *CreateDatasetRequestBuilder) Checksum(c Checksum) *CreateDatasetRequestBuilder {
	b.req.Checksum = c
	return b
}

func (b *CreateDatasetRequestBuilder) Compression(c Compression) *CreateDatasetRequestBuilder {
	b.req.Compression = c
	return b
}

func (b *CreateDatasetRequestBuilder) Copies(c Copies) *CreateDatasetRequestBuilder {
	b.req.Copies = c
	return b
}

func (b *CreateDatasetRequestBuilder) Devices(on bool) *CreateDatasetRequestBuilder {
	b.req.Devices = on
	return b
}

func (b *CreateDatasetRequestBuilder) Exec(on bool) *CreateDatasetRequestBuilder {
	b.req.Exec = on
	return b
}

func (b *CreateDatasetRequestBuilder) MountPoint(path string) *CreateDatasetRequestBuilder {
	b.req.MountPoint = &path
	return b
}

func (b *CreateDatasetRequestBuilder) PrimaryCache(m CacheMode) *CreateDatasetRequestBuilder {
	b.req.PrimaryCache = m
	return b
}

func (b *CreateDatasetRequestBuilder) Quota(bytes uint64) *CreateDatasetRequestBuilder {
	b.req.Quota = &bytes
	return b
}

func (b *CreateDatasetRequestBuilder) ReadOnly(on bool) *CreateDatasetRequestBuilder {
	b.req.ReadOnly = on
	return b
}

func (b *CreateDatasetRequestBuilder) RecordSize(bytes uint64) *CreateDatasetRequestBuilder {
	b.req.RecordSize = &bytes
	return b
}

func (b *CreateDatasetRequestBuilder) RefQuota(bytes uint64) *CreateDatasetRequestBuilder {
	b.req.RefQuota = &bytes
	return b
}

func (b *CreateDatasetRequestBuilder) RefReservation(bytes uint64) *CreateDatasetRequestBuilder {
	b.req.RefReservation = &bytes
	return b
}

func (b *CreateDatasetRequestBuilder) SecondaryCache(m CacheMode) *CreateDatasetRequestBuilder {
	b.req.SecondaryCache = m
	return b
}

func (b *CreateDatasetRequestBuilder) Setuid(on bool) *CreateDatasetRequestBuilder {
	b.req.Setuid = on
	return b
}

func (b *CreateDatasetRequestBuilder) SnapDir(d SnapDir) *CreateDatasetRequestBuilder {
	b.req.SnapDir = d
	return b
}

func (b *CreateDatasetRequestBuilder) Xattr(on bool) *CreateDatasetRequestBuilder {
	b.req.Xattr = on
	return b
}

func (b *CreateDatasetRequestBuilder) VolumeSize(bytes uint64) *CreateDatasetRequestBuilder {
	b.req.VolumeSize = &bytes
	return b
}

func (b *CreateDatasetRequestBuilder) VolumeBlockSize(bytes uint64) *CreateDatasetRequestBuilder {
	b.req.VolumeBlockSize = &bytes
	return b
}

// Build validates and returns the request
func (b *CreateDatasetRequestBuilder) Build() (CreateDatasetRequest, error) {
	if err := b.req.Validate(); err != nil {
		return CreateDatasetRequest{}, err
	}
	req := b.req
	req.UserProperties = maps.Clone(b.req.UserProperties)
	return req, nil
}

// nativeBool is the number libzfs_core expects for an on/off property
func nativeBool(on bool) uint64 {
	if on {
		return 1
	}
	return 0
}
