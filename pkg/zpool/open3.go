package zpool

import (
	"strings"

	"github.com/go-logr/logr"
	"github.com/runningman84/zfskit/pkg/command"
	"github.com/runningman84/zfskit/pkg/logging"
	"github.com/runningman84/zfskit/pkg/zerr"
)

// Open3 implements Engine by running the zpool(8) command line tool
type Open3 struct {
	cmd    []string
	runner command.Runner
	logger logr.Logger
}

var _ Engine = (*Open3)(nil)

// NewOpen3 creates an engine running the command named by ZPOOL_CMD, or
// zpool from PATH when the variable is unset.
func NewOpen3() *Open3 {
	return NewOpen3WithCmd(command.FromEnv("ZPOOL_CMD", "zpool"), nil)
}

// NewOpen3WithCmd creates an engine running cmd, which may carry a prefix
// such as chroot /host. A nil runner executes commands with os/exec.
func NewOpen3WithCmd(cmd []string, runner command.Runner) *Open3 {
	logger := logging.ForModule("zpool", "open3")
	if runner == nil {
		runner = command.NewExecRunner(logger)
	}
	return &Open3{cmd: cmd, runner: runner, logger: logger}
}

func (z *Open3) run(args ...string) (*command.Result, error) {
	argv := make([]string, 0, len(z.cmd)+len(args))
	argv = append(append(argv, z.cmd...), args...)
	result, err := z.runner.Run(argv)
	if err != nil {
		return nil, zerr.FromRun(err)
	}
	return result, nil
}

// runChecked runs a command whose output is not needed
func (z *Open3) runChecked(args ...string) error {
	result, err := z.run(args...)
	if err != nil {
		return err
	}
	if !result.Success() {
		e := zerr.Classify(result.Stderr)
		z.logger.V(1).Info("Operation failed", "op", args[0], "kind", e.Kind.String())
		return e
	}
	return nil
}

// ensure fails with PoolNotFound when the pool does not exist
func (z *Open3) ensure(name string) error {
	exists, err := z.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return &zerr.Error{Kind: zerr.PoolNotFound, Pool: name}
	}
	return nil
}

func (z *Open3) checked(name string, op func() error) error {
	if err := z.ensure(name); err != nil {
		return err
	}
	return op()
}

// Exists reports whether zpool list knows the pool
func (z *Open3) Exists(name string) (bool, error) {
	result, err := z.run("list", name)
	if err != nil {
		return false, err
	}
	return result.Success(), nil
}

// Create creates a pool. The topology is checked before anything runs.
func (z *Open3) Create(req CreateZpoolRequest) error {
	if err := ValidatePoolName(req.Name); err != nil {
		return err
	}
	if !req.IsSuitableForCreate() {
		return &zerr.Error{Kind: zerr.InvalidTopology, Pool: req.Name}
	}
	args := []string{"create"}
	if req.CreateMode == Force {
		args = append(args, "-f")
	}
	if req.Props != nil {
		for _, kv := range req.Props.Args() {
			args = append(args, "-o", kv)
		}
	}
	if req.Mount != "" {
		args = append(args, "-m", req.Mount)
	}
	if req.AltRoot != "" {
		args = append(args, "-R", req.AltRoot)
	}
	args = append(args, req.Name)
	args = append(args, req.Args()...)

	z.logger.Info("Creating pool", "pool", req.Name)
	return z.runChecked(args...)
}

func (z *Open3) Destroy(name string, mode DestroyMode) error {
	return z.checked(name, func() error { return z.DestroyUnchecked(name, mode) })
}

func (z *Open3) DestroyUnchecked(name string, mode DestroyMode) error {
	args := []string{"destroy"}
	if mode == DestroyForce {
		args = append(args, "-f")
	}
	z.logger.Info("Destroying pool", "pool", name)
	return z.runChecked(append(args, name)...)
}

func (z *Open3) ReadProperties(name string) (Properties, error) {
	if err := z.ensure(name); err != nil {
		return Properties{}, err
	}
	return z.ReadPropertiesUnchecked(name)
}

func (z *Open3) ReadPropertiesUnchecked(name string) (Properties, error) {
	result, err := z.run("list", "-p", "-H", "-o", strings.Join(PropertyColumns, ","), name)
	if err != nil {
		return Properties{}, err
	}
	if !result.Success() {
		return Properties{}, zerr.Classify(result.Stderr)
	}
	return PropertiesFromStdout(result.Stdout)
}

func (z *Open3) SetProperty(name, key, value string) error {
	return z.checked(name, func() error { return z.SetPropertyUnchecked(name, key, value) })
}

func (z *Open3) SetPropertyUnchecked(name, key, value string) error {
	return z.runChecked("set", key+"="+value, name)
}

func (z *Open3) Export(name string, mode ExportMode) error {
	return z.checked(name, func() error { return z.ExportUnchecked(name, mode) })
}

func (z *Open3) ExportUnchecked(name string, mode ExportMode) error {
	args := []string{"export"}
	if mode == ExportForce {
		args = append(args, "-f")
	}
	return z.runChecked(append(args, name)...)
}

// pools parses a pool listing. A failure that printed nothing means there
// was nothing to list.
func (z *Open3) pools(args ...string) ([]Pool, error) {
	result, err := z.run(args...)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		if len(result.Stdout) == 0 && len(result.Stderr) == 0 {
			return []Pool{}, nil
		}
		return nil, zerr.Classify(result.Stderr)
	}
	return ParsePools(result.Stdout)
}

// Available lists pools that can be imported from the default device directory
func (z *Open3) Available() ([]Pool, error) {
	return z.pools("import")
}

// AvailableInDir lists pools that can be imported from devices in dir
func (z *Open3) AvailableInDir(dir string) ([]Pool, error) {
	return z.pools("import", "-d", dir)
}

func (z *Open3) Import(name string) error {
	z.logger.Info("Importing pool", "pool", name)
	return z.runChecked("import", name)
}

func (z *Open3) ImportFromDir(name, dir string) error {
	z.logger.Info("Importing pool", "pool", name, "dir", dir)
	return z.runChecked("import", "-d", dir, name)
}

func (o StatusOptions) args() []string {
	var args []string
	if o.FullPaths {
		args = append(args, "-P")
	}
	if o.ResolveLinks {
		args = append(args, "-L")
	}
	return args
}

// Status returns the status of one pool
func (z *Open3) Status(name string, opts StatusOptions) (Pool, error) {
	args := append([]string{"status"}, opts.args()...)
	pools, err := z.pools(append(args, name)...)
	if err != nil {
		return Pool{}, err
	}
	if len(pools) == 0 {
		return Pool{}, &zerr.Error{Kind: zerr.PoolNotFound, Pool: name}
	}
	return pools[0], nil
}

// StatusAll returns the status of every imported pool
func (z *Open3) StatusAll(opts StatusOptions) ([]Pool, error) {
	return z.pools(append([]string{"status"}, opts.args()...)...)
}

func (z *Open3) Scrub(name string) error {
	return z.checked(name, func() error { return z.ScrubUnchecked(name) })
}

func (z *Open3) ScrubUnchecked(name string) error {
	return z.runChecked("scrub", name)
}

func (z *Open3) PauseScrub(name string) error {
	return z.checked(name, func() error { return z.PauseScrubUnchecked(name) })
}

func (z *Open3) PauseScrubUnchecked(name string) error {
	return z.runChecked("scrub", "-p", name)
}

func (z *Open3) StopScrub(name string) error {
	return z.checked(name, func() error { return z.StopScrubUnchecked(name) })
}

func (z *Open3) StopScrubUnchecked(name string) error {
	return z.runChecked("scrub", "-s", name)
}

func (z *Open3) TakeOffline(name, device string, mode OfflineMode) error {
	return z.checked(name, func() error { return z.TakeOfflineUnchecked(name, device, mode) })
}

func (z *Open3) TakeOfflineUnchecked(name, device string, mode OfflineMode) error {
	args := []string{"offline"}
	if mode == OfflineUntilReboot {
		args = append(args, "-t")
	}
	return z.runChecked(append(args, name, device)...)
}

func (z *Open3) BringOnline(name, device string, mode OnlineMode) error {
	return z.checked(name, func() error { return z.BringOnlineUnchecked(name, device, mode) })
}

func (z *Open3) BringOnlineUnchecked(name, device string, mode OnlineMode) error {
	args := []string{"online"}
	if mode == OnlineExpand {
		args = append(args, "-e")
	}
	return z.runChecked(append(args, name, device)...)
}

func (z *Open3) Attach(name, device, newDevice string) error {
	return z.checked(name, func() error { return z.AttachUnchecked(name, device, newDevice) })
}

func (z *Open3) AttachUnchecked(name, device, newDevice string) error {
	return z.runChecked("attach", name, device, newDevice)
}

func (z *Open3) Detach(name, device string) error {
	return z.checked(name, func() error { return z.DetachUnchecked(name, device) })
}

func (z *Open3) DetachUnchecked(name, device string) error {
	return z.runChecked("detach", name, device)
}

func (z *Open3) add(name string, mode CreateMode, devices ...string) error {
	args := []string{"add"}
	if mode == Force {
		args = append(args, "-f")
	}
	args = append(args, name)
	return z.runChecked(append(args, devices...)...)
}

func (z *Open3) AddVdev(name string, vdev CreateVdevRequest, mode CreateMode) error {
	return z.checked(name, func() error { return z.AddVdevUnchecked(name, vdev, mode) })
}

// AddVdevUnchecked adds a data vdev. An invalid vdev fails with InvalidTopology.
func (z *Open3) AddVdevUnchecked(name string, vdev CreateVdevRequest, mode CreateMode) error {
	if !vdev.IsValid() {
		return &zerr.Error{Kind: zerr.InvalidTopology, Pool: name}
	}
	return z.add(name, mode, vdev.Args()...)
}

func (z *Open3) AddZil(name string, vdev CreateVdevRequest, mode CreateMode) error {
	return z.checked(name, func() error { return z.AddZilUnchecked(name, vdev, mode) })
}

func (z *Open3) AddZilUnchecked(name string, vdev CreateVdevRequest, mode CreateMode) error {
	if !vdev.IsValid() {
		return &zerr.Error{Kind: zerr.InvalidTopology, Pool: name}
	}
	return z.add(name, mode, append([]string{"log"}, vdev.Args()...)...)
}

func (z *Open3) AddCache(name, device string, mode CreateMode) error {
	return z.checked(name, func() error { return z.AddCacheUnchecked(name, device, mode) })
}

func (z *Open3) AddCacheUnchecked(name, device string, mode CreateMode) error {
	return z.add(name, mode, "cache", device)
}

func (z *Open3) AddSpare(name, device string, mode CreateMode) error {
	return z.checked(name, func() error { return z.AddSpareUnchecked(name, device, mode) })
}

func (z *Open3) AddSpareUnchecked(name, device string, mode CreateMode) error {
	return z.add(name, mode, "spare", device)
}

func (z *Open3) ReplaceDisk(name, oldDevice, newDevice string) error {
	return z.checked(name, func() error { return z.ReplaceDiskUnchecked(name, oldDevice, newDevice) })
}

func (z *Open3) ReplaceDiskUnchecked(name, oldDevice, newDevice string) error {
	return z.runChecked("replace", name, oldDevice, newDevice)
}

func (z *Open3) Remove(name, device string) error {
	return z.checked(name, func() error { return z.RemoveUnchecked(name, device) })
}

func (z *Open3) RemoveUnchecked(name, device string) error {
	return z.runChecked("remove", name, device)
}
