package zpool

// DestroyMode selects whether zpool destroy forces unmounting
type DestroyMode int

const (
	DestroyGentle DestroyMode = iota
	DestroyForce
)

// ExportMode selects whether zpool export forces unmounting
type ExportMode int

const (
	ExportGentle ExportMode = iota
	ExportForce
)

// OfflineMode selects how long a device stays offline
type OfflineMode int

const (
	OfflinePermanent OfflineMode = iota
	// OfflineUntilReboot does not persist across reboots
	OfflineUntilReboot
)

// OnlineMode selects whether an onlined device is expanded
type OnlineMode int

const (
	OnlineSimple OnlineMode = iota
	OnlineExpand
)

// StatusOptions are the flags passed to zpool status
type StatusOptions struct {
	// FullPaths prints full device paths (-P)
	FullPaths bool
	// ResolveLinks resolves device links (-L)
	ResolveLinks bool
}

// Engine manages pools.
//
// Every mutating operation on an existing pool comes in two flavors. The
// Unchecked one runs the command straight away and relies on classifying
// its diagnostics. The checked one first confirms the pool exists and fails
// with PoolNotFound otherwise, so callers do not depend on the wording of
// not-found messages across tool versions.
type Engine interface {
	Exists(name string) (bool, error)
	Create(req CreateZpoolRequest) error

	Destroy(name string, mode DestroyMode) error
	DestroyUnchecked(name string, mode DestroyMode) error

	ReadProperties(name string) (Properties, error)
	ReadPropertiesUnchecked(name string) (Properties, error)
	SetProperty(name, key, value string) error
	SetPropertyUnchecked(name, key, value string) error

	Export(name string, mode ExportMode) error
	ExportUnchecked(name string, mode ExportMode) error

	Available() ([]Pool, error)
	AvailableInDir(dir string) ([]Pool, error)
	Import(name string) error
	ImportFromDir(name, dir string) error

	Status(name string, opts StatusOptions) (Pool, error)
	StatusAll(opts StatusOptions) ([]Pool, error)

	Scrub(name string) error
	ScrubUnchecked(name string) error
	PauseScrub(name string) error
	PauseScrubUnchecked(name string) error
	StopScrub(name string) error
	StopScrubUnchecked(name string) error

	TakeOffline(name, device string, mode OfflineMode) error
	TakeOfflineUnchecked(name, device string, mode OfflineMode) error
	BringOnline(name, device string, mode OnlineMode) error
	BringOnlineUnchecked(name, device string, mode OnlineMode) error

	Attach(name, device, newDevice string) error
	AttachUnchecked(name, device, newDevice string) error
	Detach(name, device string) error
	DetachUnchecked(name, device string) error

	AddVdev(name string, vdev CreateVdevRequest, mode CreateMode) error
	AddVdevUnchecked(name string, vdev CreateVdevRequest, mode CreateMode) error
	AddZil(name string, vdev CreateVdevRequest, mode CreateMode) error
	AddZilUnchecked(name string, vdev CreateVdevRequest, mode CreateMode) error
	AddCache(name, device string, mode CreateMode) error
	AddCacheUnchecked(name, device string, mode CreateMode) error
	AddSpare(name, device string, mode CreateMode) error
	AddSpareUnchecked(name, device string, mode CreateMode) error

	ReplaceDisk(name, oldDevice, newDevice string) error
	ReplaceDiskUnchecked(name, oldDevice, newDevice string) error
	Remove(name, device string) error
	RemoveUnchecked(name, device string) error
}
