package zfs

import (
	"os"
	"sort"

	"github.com/go-logr/logr"
	"github.com/runningman84/zfskit/pkg/command"
	"github.com/runningman84/zfskit/pkg/logging"
	"github.com/runningman84/zfskit/pkg/models"
	"github.com/runningman84/zfskit/pkg/nv"
	"github.com/runningman84/zfskit/pkg/parser"
	"github.com/runningman84/zfskit/pkg/zerr"
)

// Open3 implements Engine by running the zfs(8) command line tool. Create,
// bookmarks, batch destroys, send and channel programs fail with Unimplemented.
type Open3 struct {
	cmd    []string
	runner command.Runner
	logger logr.Logger
}

var _ Engine = (*Open3)(nil)

// NewOpen3 creates an engine running the command named by ZFS_CMD, or zfs
// from PATH when the variable is unset.
func NewOpen3() *Open3 {
	return NewOpen3WithCmd(command.FromEnv("ZFS_CMD", "zfs"), nil)
}

// NewOpen3WithCmd creates an engine running cmd. A nil runner executes
// commands with os/exec.
func NewOpen3WithCmd(cmd []string, runner command.Runner) *Open3 {
	logger := logging.ForModule("zfs", "open3")
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

// output runs a command and returns its stdout, classifying stderr on failure
func (z *Open3) output(args ...string) ([]byte, error) {
	result, err := z.run(args...)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		e := zerr.Classify(result.Stderr)
		z.logger.V(1).Info("Operation failed", "op", args[0], "kind", e.Kind.String())
		return nil, e
	}
	return result.Stdout, nil
}

// Exists reports whether zfs list knows the filesystem, volume or snapshot
func (z *Open3) Exists(name string) (bool, error) {
	args := []string{"list", "-H", "-o", "name"}
	if IsBookmark(name) {
		args = append(args, "-t", "bookmark")
	}
	result, err := z.run(append(args, name)...)
	if err != nil {
		return false, err
	}
	return result.Success(), nil
}

func (z *Open3) Destroy(name string) error {
	exists, err := z.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return &zerr.Error{Kind: zerr.DatasetNotFound, Dataset: name}
	}
	return z.DestroyUnchecked(name)
}

func (z *Open3) DestroyUnchecked(name string) error {
	if err := Validate(name); err != nil {
		return err
	}
	z.logger.Info("Destroying dataset", "dataset", name)
	_, err := z.output("destroy", name)
	return err
}

// Snapshot runs a single zfs snapshot so the snapshots are taken atomically
func (z *Open3) Snapshot(snapshots []string, userProperties map[string]string) error {
	if err := ValidateSnapshots(snapshots); err != nil {
		return err
	}
	args := []string{"snapshot"}
	keys := make([]string, 0, len(userProperties))
	for key := range userProperties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, "-o", key+"="+userProperties[key])
	}
	z.logger.Info("Creating snapshots", "snapshots", snapshots)
	_, err := z.output(append(args, snapshots...)...)
	return err
}

// List returns every dataset below prefix with its kind, in the order zfs printed them
func (z *Open3) List(prefix string) ([]models.Dataset, error) {
	stdout, err := z.output("list", "-t", "all", "-o", "type,name", "-Hpr", prefix)
	if err != nil {
		return nil, err
	}
	root, err := parser.ParseDatasetsWithType(stdout)
	if err != nil {
		return nil, &zerr.Error{Kind: zerr.ParseError, Text: string(stdout), Err: err}
	}
	datasets := make([]models.Dataset, 0, len(root.Children))
	for _, entry := range root.Children {
		typ, _ := entry.ChildText(parser.DatasetType)
		name, _ := entry.ChildText(parser.DatasetName)
		kind, err := models.ParseDatasetKind(typ)
		if err != nil {
			return nil, zerr.FromParse(err)
		}
		datasets = append(datasets, models.Dataset{Kind: kind, Name: name})
	}
	return datasets, nil
}

func (z *Open3) listNames(kind, prefix string) ([]string, error) {
	stdout, err := z.output("list", "-t", kind, "-o", "name", "-Hpr", prefix)
	if err != nil {
		return nil, err
	}
	root, err := parser.ParseDatasets(stdout)
	if err != nil {
		return nil, &zerr.Error{Kind: zerr.ParseError, Text: string(stdout), Err: err}
	}
	names := make([]string, 0, len(root.Children))
	for _, n := range root.Children {
		names = append(names, n.Text)
	}
	return names, nil
}

func (z *Open3) ListFilesystems(prefix string) ([]string, error) {
	return z.listNames("filesystem", prefix)
}

func (z *Open3) ListSnapshots(prefix string) ([]string, error) {
	return z.listNames("snapshot", prefix)
}

func (z *Open3) ListBookmarks(prefix string) ([]string, error) {
	return z.listNames("bookmark", prefix)
}

func (z *Open3) ListVolumes(prefix string) ([]string, error) {
	return z.listNames("volume", prefix)
}

func (z *Open3) ReadProperties(name string) (Properties, error) {
	stdout, err := z.output("get", "-Hp", "all", name)
	if err != nil {
		return Properties{}, err
	}
	return PropertiesFromStdout(stdout)
}

func (z *Open3) Create(CreateDatasetRequest) error {
	return zerr.New(zerr.Unimplemented)
}

func (z *Open3) Bookmark([]BookmarkRequest) error {
	return zerr.New(zerr.Unimplemented)
}

func (z *Open3) DestroyBookmarks([]string) error {
	return zerr.New(zerr.Unimplemented)
}

func (z *Open3) DestroySnapshots([]string, DestroyTiming) error {
	return zerr.New(zerr.Unimplemented)
}

func (z *Open3) SendFull(string, *os.File, SendFlags) error {
	return zerr.New(zerr.Unimplemented)
}

func (z *Open3) SendIncremental(string, string, *os.File, SendFlags) error {
	return zerr.New(zerr.Unimplemented)
}

func (z *Open3) RunChannelProgram(string, string, uint64, uint64, bool, *nv.Bag) (*nv.Bag, error) {
	return nil, zerr.New(zerr.Unimplemented)
}
