package zpool

import (
	"strconv"
	"strings"

	"github.com/runningman84/zfskit/pkg/models"
	"github.com/runningman84/zfskit/pkg/parser"
	"github.com/runningman84/zfskit/pkg/zerr"
)

// Pool is one section of zpool status or zpool import output
type Pool struct {
	Name string
	// ID is only printed by zpool import
	ID     *uint64
	Health models.Health
	Vdevs  []Vdev
	Caches []Disk
	Logs   []Vdev
	Spares []Spare

	Status *string
	Action *string
	See    *string
	Scan   *string
	// Errors is nil when zpool reported no known data errors
	Errors *string
	// Note is free text printed after the config tree
	Note *string

	Reason          *Reason
	ErrorStatistics models.ErrorStatistics
}

// IsHealthy reports whether the pool is online with no errors counted or reported
func (p Pool) IsHealthy() bool {
	if p.Health != models.Online || p.Errors != nil || !p.ErrorStatistics.IsZero() {
		return false
	}
	for _, v := range append(append([]Vdev(nil), p.Vdevs...), p.Logs...) {
		if v.Health != models.Online || !v.ErrorStatistics.IsZero() {
			return false
		}
		for _, d := range v.Disks {
			if d.Health != models.Online || !d.ErrorStatistics.IsZero() {
				return false
			}
		}
	}
	return true
}

// Matches reports whether the pool has the name and the topology req describes.
// Devices are compared by path.
func (p Pool) Matches(req CreateZpoolRequest) bool {
	if p.Name != req.Name {
		return false
	}
	if !vdevsMatch(p.Vdevs, req.Vdevs) || !vdevsMatch(p.Logs, req.Logs) {
		return false
	}
	if len(p.Caches) != len(req.Caches) || len(p.Spares) != len(req.Spares) {
		return false
	}
	for i, c := range p.Caches {
		if c.Path != req.Caches[i] {
			return false
		}
	}
	for i, s := range p.Spares {
		if s.Path != req.Spares[i] {
			return false
		}
	}
	return true
}

func vdevsMatch(have []Vdev, want []CreateVdevRequest) bool {
	if len(have) != len(want) {
		return false
	}
	for i := range have {
		if !have[i].Matches(want[i]) {
			return false
		}
	}
	return true
}

// ParsePools parses zpool status or zpool import output. Pools are returned in source order.
func ParsePools(stdout []byte) ([]Pool, error) {
	root, err := parser.ParsePoolReports(stdout)
	if err != nil {
		return nil, zerr.FromParse(err)
	}
	return FromReports(root)
}

// FromReports builds pools out of a Reports parse tree
func FromReports(root *parser.Node) ([]Pool, error) {
	pools := make([]Pool, 0, len(root.Children))
	for _, report := range root.Children {
		pool, err := poolFromReport(report)
		if err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

func poolFromReport(report *parser.Node) (Pool, error) {
	var pool Pool
	for _, n := range report.Children {
		switch n.Rule {
		case parser.PoolName:
			pool.Name = n.Text
		case parser.PoolID:
			id, err := strconv.ParseUint(n.Text, 10, 64)
			if err != nil {
				return Pool{}, zerr.FromParse(err)
			}
			pool.ID = &id
		case parser.State:
			h, err := models.ParseHealth(n.Text)
			if err != nil {
				return Pool{}, zerr.FromParse(err)
			}
			pool.Health = h
		case parser.Status:
			pool.Status = textOf(n)
		case parser.Action:
			pool.Action = textOf(n)
		case parser.See:
			pool.See = textOf(n)
		case parser.Scan:
			pool.Scan = textOf(n)
		case parser.Errors:
			pool.Errors = textOf(n)
		case parser.ConfigNote:
			pool.Note = textOf(n)
		case parser.PoolLine:
			stats, err := errorStatistics(n)
			if err != nil {
				return Pool{}, err
			}
			pool.ErrorStatistics = stats
			pool.Reason = reasonOf(n)
		case parser.Vdevs:
			vdevs, err := vdevsFromNode(n)
			if err != nil {
				return Pool{}, err
			}
			pool.Vdevs = vdevs
		case parser.Logs:
			logs, err := vdevsFromNode(n)
			if err != nil {
				return Pool{}, err
			}
			pool.Logs = logs
		case parser.Caches:
			for _, c := range n.Children {
				disk, err := diskFromLine(c)
				if err != nil {
					return Pool{}, err
				}
				pool.Caches = append(pool.Caches, disk)
			}
		case parser.Spares:
			for _, c := range n.Children {
				path, _ := c.ChildText(parser.Path)
				state, _ := c.ChildText(parser.SpareState)
				pool.Spares = append(pool.Spares, Spare{Path: path, State: state, Reason: reasonOf(c)})
			}
		}
	}
	return pool, nil
}

func vdevsFromNode(n *parser.Node) ([]Vdev, error) {
	vdevs := make([]Vdev, 0, len(n.Children))
	for _, c := range n.Children {
		var (
			vdev Vdev
			err  error
		)
		switch c.Rule {
		case parser.RaidedVdev:
			vdev, err = raidedVdev(c)
		case parser.NakedVdev:
			vdev, err = nakedVdev(c)
		default:
			err = zerr.Errorf(zerr.ParseError, "unexpected %v in vdev list", c.Rule)
		}
		if err != nil {
			return nil, err
		}
		vdevs = append(vdevs, vdev)
	}
	return vdevs, nil
}

func raidedVdev(n *parser.Node) (Vdev, error) {
	line := n.Child(parser.RaidLine)
	name, _ := line.ChildText(parser.RaidName)
	prefix := name
	if i := strings.LastIndexByte(name, '-'); i > 0 {
		prefix = name[:i]
	}
	kind, err := ParseVdevKind(prefix)
	if err != nil {
		return Vdev{}, err
	}
	h, err := healthOf(line)
	if err != nil {
		return Vdev{}, err
	}
	stats, err := errorStatistics(line)
	if err != nil {
		return Vdev{}, err
	}
	vdev := Vdev{Kind: kind, Health: h, Reason: reasonOf(line), ErrorStatistics: stats}
	for _, c := range n.Children {
		if c.Rule != parser.DiskLine {
			continue
		}
		disk, err := diskFromLine(c)
		if err != nil {
			return Vdev{}, err
		}
		vdev.Disks = append(vdev.Disks, disk)
	}
	return vdev, nil
}

func nakedVdev(n *parser.Node) (Vdev, error) {
	disk, err := diskFromLine(n.Child(parser.DiskLine))
	if err != nil {
		return Vdev{}, err
	}
	return Vdev{
		Kind:            SingleDisk,
		Health:          disk.Health,
		Reason:          disk.Reason,
		Disks:           []Disk{disk},
		ErrorStatistics: disk.ErrorStatistics,
	}, nil
}

func diskFromLine(n *parser.Node) (Disk, error) {
	if n == nil {
		return Disk{}, zerr.Errorf(zerr.ParseError, "missing disk line")
	}
	path, _ := n.ChildText(parser.Path)
	h, err := healthOf(n)
	if err != nil {
		return Disk{}, err
	}
	stats, err := errorStatistics(n)
	if err != nil {
		return Disk{}, err
	}
	return Disk{Path: path, Health: h, Reason: reasonOf(n), ErrorStatistics: stats}, nil
}

func healthOf(n *parser.Node) (models.Health, error) {
	token, _ := n.ChildText(parser.Health)
	h, err := models.ParseHealth(token)
	if err != nil {
		return 0, zerr.FromParse(err)
	}
	return h, nil
}

// errorStatistics defaults every counter to 0 when the columns are absent
func errorStatistics(n *parser.Node) (models.ErrorStatistics, error) {
	stats := n.Child(parser.ErrorStatistics)
	if stats == nil {
		return models.ErrorStatistics{}, nil
	}
	var counts [3]uint64
	for i, c := range stats.Children {
		if i >= len(counts) {
			break
		}
		v, err := parser.ParseCount(c.Text)
		if err != nil {
			return models.ErrorStatistics{}, zerr.FromParse(err)
		}
		counts[i] = v
	}
	return models.ErrorStatistics{Read: counts[0], Write: counts[1], Checksum: counts[2]}, nil
}

func reasonOf(n *parser.Node) *Reason {
	s, ok := n.ChildText(parser.Reason)
	if !ok {
		return nil
	}
	r := Reason(s)
	return &r
}

func textOf(n *parser.Node) *string {
	s := n.Text
	return &s
}
