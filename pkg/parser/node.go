package parser

import "fmt"

// Rule identifies the grammar production a Node was produced by
type Rule int

const (
	Reports Rule = iota
	Report
	PoolName
	PoolID
	State
	Status
	Action
	See
	Scan
	Config
	PoolLine
	Vdevs
	RaidedVdev
	NakedVdev
	RaidLine
	RaidName
	DiskLine
	Path
	Health
	ErrorStatistics
	Count
	Reason
	Logs
	Caches
	Spares
	SpareLine
	SpareState
	ConfigNote
	Errors
	NoErrors
	Datasets
	DatasetName
	DatasetsWithType
	DatasetWithType
	DatasetType
	Error
	DatasetNotFound
	PropertyRecord
	PropertyField
	DatasetProperties
	DatasetProperty
	PropertyKey
	PropertyValue
	PropertySource
)

var ruleNames = [...]string{
	"reports", "report", "pool_name", "pool_id", "state", "status", "action", "see", "scan", "config",
	"pool_line", "vdevs", "raided_vdev", "naked_vdev", "raid_line", "raid_name", "disk_line", "path",
	"health", "error_statistics", "count", "reason", "logs", "caches", "spares", "spare_line",
	"spare_state", "config_note", "errors", "no_errors", "datasets", "dataset_name",
	"datasets_with_type", "dataset_with_type", "dataset_type", "error", "dataset_not_found",
	"property_record", "property_field", "dataset_properties", "dataset_property", "property_key",
	"property_value", "property_source",
}

func (r Rule) String() string {
	if r >= 0 && int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return fmt.Sprintf("Rule(%d)", int(r))
}

// Node is one matched production in a parse tree. Line is 1-based.
type Node struct {
	Rule     Rule
	Text     string
	Line     int
	Children []*Node
}

func (n *Node) add(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// Child returns the first direct child produced by rule, or nil
func (n *Node) Child(rule Rule) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Rule == rule {
			return c
		}
	}
	return nil
}

// ChildText returns the text of the first direct child produced by rule
func (n *Node) ChildText(rule Rule) (string, bool) {
	c := n.Child(rule)
	if c == nil {
		return "", false
	}
	return c.Text, true
}

// SyntaxError reports where the input stopped matching the grammar
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Msg)
	}
	return "syntax error: " + e.Msg
}

func syntaxErrorf(line int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
