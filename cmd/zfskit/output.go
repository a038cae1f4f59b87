package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/runningman84/zfskit/pkg/models"
	"github.com/runningman84/zfskit/pkg/zfs"
	"github.com/runningman84/zfskit/pkg/zpool"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

func errorCounts(s models.ErrorStatistics) []string {
	return []string{
		strconv.FormatUint(s.Read, 10),
		strconv.FormatUint(s.Write, 10),
		strconv.FormatUint(s.Checksum, 10),
	}
}

func reasonText(r *zpool.Reason) string {
	if r == nil {
		return ""
	}
	return string(*r)
}

// writePool renders the device tree of p the way zpool status lays it out
func writePool(w io.Writer, p zpool.Pool) {
	fmt.Fprintf(w, "pool: %s\n", p.Name)
	if p.ID != nil {
		fmt.Fprintf(w, "id: %d\n", *p.ID)
	}
	fmt.Fprintf(w, "state: %s\n", p.Health)
	for _, line := range []struct {
		label string
		value *string
	}{
		{"status", p.Status},
		{"action", p.Action},
		{"scan", p.Scan},
		{"errors", p.Errors},
	} {
		if line.value != nil {
			fmt.Fprintf(w, "%s: %s\n", line.label, *line.value)
		}
	}

	table := newTable(w, "name", "state", "read", "write", "cksum", "note")
	table.Append(append([]string{p.Name, p.Health.String()}, append(errorCounts(p.ErrorStatistics), reasonText(p.Reason))...))
	appendVdevs(table, p.Vdevs, "  ")
	if len(p.Logs) > 0 {
		table.Append([]string{"logs", "", "", "", "", ""})
		appendVdevs(table, p.Logs, "  ")
	}
	if len(p.Caches) > 0 {
		table.Append([]string{"cache", "", "", "", "", ""})
		for _, d := range p.Caches {
			appendDisk(table, d, "  ")
		}
	}
	if len(p.Spares) > 0 {
		table.Append([]string{"spares", "", "", "", "", ""})
		for _, s := range p.Spares {
			table.Append([]string{"  " + s.Path, s.State, "", "", "", reasonText(s.Reason)})
		}
	}
	table.Render()
	fmt.Fprintln(w)
}

func appendVdevs(table *tablewriter.Table, vdevs []zpool.Vdev, indent string) {
	for _, v := range vdevs {
		if v.Kind == zpool.SingleDisk && len(v.Disks) == 1 {
			appendDisk(table, v.Disks[0], indent)
			continue
		}
		table.Append(append([]string{indent + v.Kind.String(), v.Health.String()}, append(errorCounts(v.ErrorStatistics), reasonText(v.Reason))...))
		for _, d := range v.Disks {
			appendDisk(table, d, indent+"  ")
		}
	}
}

func appendDisk(table *tablewriter.Table, d zpool.Disk, indent string) {
	table.Append(append([]string{indent + d.Path, d.Health.String()}, append(errorCounts(d.ErrorStatistics), reasonText(d.Reason))...))
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func writePoolProperties(w io.Writer, name string, p zpool.Properties) {
	expand := "-"
	if p.ExpandSize != nil {
		expand = humanize.IBytes(*p.ExpandSize)
	}
	table := newTable(w, "name", "property", "value")
	for _, row := range [][2]string{
		{"size", humanize.IBytes(p.Size)},
		{"allocated", humanize.IBytes(p.Alloc)},
		{"free", humanize.IBytes(uint64(max(p.Free, 0)))},
		{"capacity", fmt.Sprintf("%d%%", p.Capacity)},
		{"fragmentation", fmt.Sprintf("%d%%", p.Fragmentation)},
		{"dedupratio", fmt.Sprintf("%.2fx", p.DedupRatio)},
		{"expandsize", expand},
		{"health", p.Health.String()},
		{"guid", strconv.FormatUint(p.GUID, 10)},
		{"comment", optional(p.Comment)},
		{"altroot", optional(p.AltRoot)},
		{"bootfs", optional(p.BootFS)},
		{"cachefile", p.CacheFile.String()},
		{"readonly", onOff(p.ReadOnly)},
		{"autoexpand", onOff(p.AutoExpand)},
		{"autoreplace", onOff(p.AutoReplace)},
		{"delegation", onOff(p.Delegation)},
		{"failmode", p.FailMode.String()},
	} {
		table.Append([]string{name, row[0], row[1]})
	}
	table.Render()
}

func writeDatasets(w io.Writer, datasets []models.Dataset) {
	table := newTable(w, "name", "type")
	for _, d := range datasets {
		table.Append([]string{d.Name, d.Kind.String()})
	}
	table.Render()
}

func bytesOrDash(v *uint64) string {
	if v == nil {
		return "-"
	}
	return humanize.IBytes(*v)
}

func writeDatasetProperties(w io.Writer, p zfs.Properties) {
	rows := [][2]string{
		{"type", p.Kind.String()},
		{"creation", p.Creation.Format("Mon Jan _2 15:04 2006")},
		{"used", humanize.IBytes(p.Used)},
		{"available", bytesOrDash(p.Available)},
		{"referenced", humanize.IBytes(p.Referenced)},
		{"compressratio", fmt.Sprintf("%.2fx", p.CompressRatio)},
		{"quota", bytesOrDash(p.Quota)},
		{"origin", optional(p.Origin)},
		{"mountpoint", optional(p.MountPoint)},
		{"volsize", bytesOrDash(p.VolumeSize)},
	}
	if len(p.Clones) > 0 {
		rows = append(rows, [2]string{"clones", strings.Join(p.Clones, ",")})
	}
	if p.Compression != nil {
		rows = append(rows, [2]string{"compression", p.Compression.String()})
	}
	if p.Checksum != nil {
		rows = append(rows, [2]string{"checksum", p.Checksum.String()})
	}

	table := newTable(w, "name", "property", "value")
	for _, row := range rows {
		table.Append([]string{p.Name, row[0], row[1]})
	}
	table.Render()
}
