package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/runningman84/zfskit/pkg/models"
)

// indentUnit is the width of one indentation step. A tab counts as one full unit.
const indentUnit = 8

var (
	labelRe = regexp.MustCompile(`^(pool|id|state|status|action|see|scan|config|errors):(?:\s+(.*))?$`)
	raidRe  = regexp.MustCompile(`^(mirror|raidz|raidz1|raidz2|raidz3)-\d+$`)
	countRe = regexp.MustCompile(`^\d+(?:(?:\.\d+)?[KMGTPE])?$`)

	// replacing-N and spare-N wrap the disks of a group while a device is
	// being resilvered or a hot spare is in use
	transitionRe = regexp.MustCompile(`^(replacing|spare)-\d+$`)
)

// spareStates are the states zpool prints for hot spares besides the health tokens
var spareStates = map[string]bool{
	"AVAIL": true,
	"INUSE": true,
}

type line struct {
	num    int
	indent int
	body   string
}

func (l line) blank() bool { return l.body == "" }

// label returns the label and inline value of a header line. Lines indented a
// full unit or more are continuations or config entries, never labels.
func (l line) label() (string, string, bool) {
	if l.indent >= indentUnit {
		return "", "", false
	}
	m := labelRe.FindStringSubmatch(l.body)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

func splitLines(input []byte) []line {
	raw := strings.Split(string(input), "\n")
	lines := make([]line, 0, len(raw))
	for i, text := range raw {
		text = strings.TrimRight(text, " \t\r")
		indent := 0
		j := 0
	loop:
		for ; j < len(text); j++ {
			switch text[j] {
			case ' ':
				indent++
			case '\t':
				indent += indentUnit
			default:
				break loop
			}
		}
		lines = append(lines, line{num: i + 1, indent: indent, body: text[j:]})
	}
	return lines
}

// ParsePoolReports parses the output of zpool status or zpool import into a
// Reports node holding one Report per pool, in source order.
func ParsePoolReports(input []byte) (*Node, error) {
	lines := splitLines(input)
	root := &Node{Rule: Reports, Line: 1}

	i := 0
	for i < len(lines) && lines[i].blank() {
		i++
	}
	if i < len(lines) && lines[i].body == "no pools available" {
		return root, nil
	}

	for i < len(lines) {
		if lines[i].blank() {
			i++
			continue
		}
		if label, _, ok := lines[i].label(); !ok || label != "pool" {
			return nil, syntaxErrorf(lines[i].num, "expected pool label, found %q", lines[i].body)
		}
		report, next, err := parseReport(lines, i)
		if err != nil {
			return nil, err
		}
		root.add(report)
		i = next
	}
	return root, nil
}

func parseReport(lines []line, i int) (*Node, int, error) {
	report := &Node{Rule: Report, Line: lines[i].num}
	seen := make(map[string]bool)

	for i < len(lines) {
		l := lines[i]
		if l.blank() {
			i++
			continue
		}
		label, value, ok := l.label()
		if !ok {
			return nil, 0, syntaxErrorf(l.num, "unexpected text %q", l.body)
		}
		if label == "pool" && seen["pool"] {
			break
		}
		if seen[label] {
			return nil, 0, syntaxErrorf(l.num, "duplicate %s label", label)
		}
		seen[label] = true

		var err error
		switch label {
		case "pool":
			if value == "" || strings.ContainsAny(value, " \t") {
				return nil, 0, syntaxErrorf(l.num, "invalid pool name %q", value)
			}
			report.add(&Node{Rule: PoolName, Text: value, Line: l.num})
			i++
		case "id":
			if _, err := strconv.ParseUint(value, 10, 64); err != nil {
				return nil, 0, syntaxErrorf(l.num, "invalid pool id %q", value)
			}
			report.add(&Node{Rule: PoolID, Text: value, Line: l.num})
			i++
		case "state":
			if !models.IsHealthToken(value) {
				return nil, 0, syntaxErrorf(l.num, "unknown health token %q", value)
			}
			report.add(&Node{Rule: State, Text: value, Line: l.num})
			i++
		case "status", "action", "see", "scan":
			var text string
			text, i = readBlock(lines, i+1, value)
			report.add(&Node{Rule: blockRules[label], Text: text, Line: l.num})
		case "errors":
			var text string
			text, i = readBlock(lines, i+1, value)
			rule := Errors
			if text == "No known data errors" {
				rule = NoErrors
			}
			report.add(&Node{Rule: rule, Text: text, Line: l.num})
		case "config":
			report.add(&Node{Rule: Config, Line: l.num})
			i, err = parseConfig(lines, i+1, report)
			if err != nil {
				return nil, 0, err
			}
		}
	}

	for _, required := range []string{"pool", "state", "config"} {
		if !seen[required] {
			return nil, 0, syntaxErrorf(report.Line, "pool report is missing the %s label", required)
		}
	}
	return report, i, nil
}

var blockRules = map[string]Rule{
	"status": Status,
	"action": Action,
	"see":    See,
	"scan":   Scan,
}

func isContinuation(l line) bool {
	if l.blank() || l.indent < indentUnit {
		return false
	}
	_, _, isLabel := l.label()
	return !isLabel
}

// readBlock collects a free text value and its continuation lines. Blank
// lines inside the block are dropped.
func readBlock(lines []line, i int, first string) (string, int) {
	parts := []string{}
	if first != "" {
		parts = append(parts, first)
	}
	for i < len(lines) {
		if lines[i].blank() {
			j := i
			for j < len(lines) && lines[j].blank() {
				j++
			}
			if j < len(lines) && isContinuation(lines[j]) {
				i = j
				continue
			}
			return strings.Join(parts, "\n"), j
		}
		if !isContinuation(lines[i]) {
			break
		}
		parts = append(parts, lines[i].body)
		i++
	}
	return strings.Join(parts, "\n"), i
}

func parseConfig(lines []line, i int, report *Node) (int, error) {
	for i < len(lines) && lines[i].blank() {
		i++
	}
	if i < len(lines) {
		if fields := strings.Fields(lines[i].body); len(fields) > 1 && fields[0] == "NAME" && fields[1] == "STATE" {
			i++
		}
	}
	if i >= len(lines) || lines[i].blank() {
		return i, syntaxErrorf(lastLine(lines, i), "config is missing the pool line")
	}
	if _, _, isLabel := lines[i].label(); isLabel {
		return i, syntaxErrorf(lines[i].num, "config is missing the pool line")
	}

	poolLine, err := parseDeviceLine(lines[i], PoolLine, PoolName)
	if err != nil {
		return i, err
	}
	report.add(poolLine)
	base := lines[i].indent
	i++

	var (
		section      *Node
		group        *Node
		memberIndent = -1
		groupIndent  = -1
		transition   bool
		sections     = make(map[string]bool)
	)
	for ; i < len(lines); i++ {
		l := lines[i]
		if l.blank() {
			break
		}
		if _, _, isLabel := l.label(); isLabel {
			return i, nil
		}

		if l.indent <= base {
			rule, ok := sectionRules[l.body]
			if !ok {
				return i, syntaxErrorf(l.num, "unknown config section %q", l.body)
			}
			if sections[l.body] {
				return i, syntaxErrorf(l.num, "duplicate config section %q", l.body)
			}
			sections[l.body] = true
			section = report.add(&Node{Rule: rule, Line: l.num})
			group, memberIndent, groupIndent, transition = nil, -1, -1, false
			continue
		}

		if section == nil {
			sections["vdevs"] = true
			section = report.add(&Node{Rule: Vdevs, Line: l.num})
		}
		if memberIndent < 0 {
			memberIndent = l.indent
		}

		switch {
		case l.indent == memberIndent:
			group, groupIndent, transition = nil, -1, false
			entry, err := parseSectionEntry(section, l)
			if err != nil {
				return i, err
			}
			if entry.Rule == RaidedVdev {
				group = entry
			}
		case l.indent > memberIndent:
			if group == nil {
				return i, syntaxErrorf(l.num, "device %q is nested under an entry that is not a redundancy group", firstField(l.body))
			}
			if groupIndent < 0 {
				groupIndent = l.indent
			}
			if l.indent == groupIndent {
				transition = transitionRe.MatchString(firstField(l.body))
				if transition {
					continue
				}
			} else if !transition || l.indent < groupIndent {
				return i, syntaxErrorf(l.num, "unexpected nesting depth for %q", firstField(l.body))
			}
			disk, err := parseDeviceLine(l, DiskLine, Path)
			if err != nil {
				return i, err
			}
			group.add(disk)
		default:
			return i, syntaxErrorf(l.num, "inconsistent indentation for %q", firstField(l.body))
		}
	}

	return collectNote(lines, i, report), nil
}

var sectionRules = map[string]Rule{
	"logs":   Logs,
	"cache":  Caches,
	"spares": Spares,
}

func parseSectionEntry(section *Node, l line) (*Node, error) {
	switch section.Rule {
	case Caches:
		disk, err := parseDeviceLine(l, DiskLine, Path)
		if err != nil {
			return nil, err
		}
		return section.add(disk), nil
	case Spares:
		spare, err := parseSpareLine(l)
		if err != nil {
			return nil, err
		}
		return section.add(spare), nil
	}

	if raidRe.MatchString(firstField(l.body)) {
		raid, err := parseDeviceLine(l, RaidLine, RaidName)
		if err != nil {
			return nil, err
		}
		vdev := section.add(&Node{Rule: RaidedVdev, Line: l.num})
		vdev.add(raid)
		return vdev, nil
	}
	disk, err := parseDeviceLine(l, DiskLine, Path)
	if err != nil {
		return nil, err
	}
	vdev := section.add(&Node{Rule: NakedVdev, Line: l.num})
	vdev.add(disk)
	return vdev, nil
}

// collectNote turns free text printed after the config tree into a ConfigNote.
func collectNote(lines []line, i int, report *Node) int {
	var parts []string
	start := 0
	for ; i < len(lines); i++ {
		l := lines[i]
		if l.blank() {
			continue
		}
		if _, _, isLabel := l.label(); isLabel {
			break
		}
		if start == 0 {
			start = l.num
		}
		parts = append(parts, l.body)
	}
	if len(parts) > 0 {
		report.add(&Node{Rule: ConfigNote, Text: strings.Join(parts, "\n"), Line: start})
	}
	return i
}

// parseDeviceLine matches `name health [read write cksum] [reason]`.
func parseDeviceLine(l line, rule, nameRule Rule) (*Node, error) {
	fields := strings.Fields(l.body)
	if len(fields) < 2 {
		return nil, syntaxErrorf(l.num, "device line %q has no health", l.body)
	}
	if !models.IsHealthToken(fields[1]) {
		return nil, syntaxErrorf(l.num, "unknown health token %q", fields[1])
	}
	n := &Node{Rule: rule, Text: l.body, Line: l.num}
	n.add(&Node{Rule: nameRule, Text: fields[0], Line: l.num})
	n.add(&Node{Rule: Health, Text: fields[1], Line: l.num})
	consumed := 2
	if stats := parseCounters(fields, l.num); stats != nil {
		n.add(stats)
		consumed = 5
	}
	if reason := restAfterFields(l.body, consumed); reason != "" {
		n.add(&Node{Rule: Reason, Text: reason, Line: l.num})
	}
	return n, nil
}

func parseSpareLine(l line) (*Node, error) {
	fields := strings.Fields(l.body)
	if len(fields) < 2 {
		return nil, syntaxErrorf(l.num, "spare line %q has no state", l.body)
	}
	if !spareStates[fields[1]] && !models.IsHealthToken(fields[1]) {
		return nil, syntaxErrorf(l.num, "unknown spare state %q", fields[1])
	}
	n := &Node{Rule: SpareLine, Text: l.body, Line: l.num}
	n.add(&Node{Rule: Path, Text: fields[0], Line: l.num})
	n.add(&Node{Rule: SpareState, Text: fields[1], Line: l.num})
	consumed := 2
	if stats := parseCounters(fields, l.num); stats != nil {
		n.add(stats)
		consumed = 5
	}
	if reason := restAfterFields(l.body, consumed); reason != "" {
		n.add(&Node{Rule: Reason, Text: reason, Line: l.num})
	}
	return n, nil
}

func parseCounters(fields []string, num int) *Node {
	if len(fields) < 5 {
		return nil
	}
	for _, f := range fields[2:5] {
		if !countRe.MatchString(f) {
			return nil
		}
	}
	stats := &Node{Rule: ErrorStatistics, Text: strings.Join(fields[2:5], " "), Line: num}
	for _, f := range fields[2:5] {
		stats.add(&Node{Rule: Count, Text: f, Line: num})
	}
	return stats
}

// ParseCount converts an error counter. Large counters are printed abbreviated
// with a binary suffix, e.g. 1.2K.
func ParseCount(s string) (uint64, error) {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}
	if !countRe.MatchString(s) {
		return 0, syntaxErrorf(0, "invalid error counter %q", s)
	}
	return humanize.ParseBytes(s + "iB")
}

func restAfterFields(s string, n int) string {
	s = strings.TrimLeft(s, " \t")
	for ; n > 0 && s != ""; n-- {
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			return ""
		}
		s = strings.TrimLeft(s[end:], " \t")
	}
	return strings.TrimSpace(s)
}

func firstField(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func lastLine(lines []line, i int) int {
	if i < len(lines) {
		return lines[i].num
	}
	if len(lines) > 0 {
		return lines[len(lines)-1].num
	}
	return 0
}
