package parser

import (
	"regexp"
	"strings"
)

var (
	datasetNameRe     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:\-/@# %+]*$`)
	datasetNotFoundRe = regexp.MustCompile(`(?m)^cannot open '([^']+)': dataset does not exist\s*$`)
)

var datasetTypes = map[string]bool{
	"filesystem": true,
	"volume":     true,
	"snapshot":   true,
	"bookmark":   true,
}

// nonBlankLines yields trimmed non-empty lines with their 1-based line numbers
func nonBlankLines(input []byte, fn func(num int, text string) error) error {
	for i, text := range strings.Split(string(input), "\n") {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if err := fn(i+1, text); err != nil {
			return err
		}
	}
	return nil
}

// ParseDatasets parses a dataset listing with one bare name per line
func ParseDatasets(input []byte) (*Node, error) {
	root := &Node{Rule: Datasets, Line: 1}
	err := nonBlankLines(input, func(num int, text string) error {
		if !datasetNameRe.MatchString(text) {
			return syntaxErrorf(num, "invalid dataset name %q", text)
		}
		root.add(&Node{Rule: DatasetName, Text: text, Line: num})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// ParseDatasetsWithType parses `type<TAB>name` lines. Any run of spaces or tabs separates the columns.
func ParseDatasetsWithType(input []byte) (*Node, error) {
	root := &Node{Rule: DatasetsWithType, Line: 1}
	err := nonBlankLines(input, func(num int, text string) error {
		kind := firstField(text)
		if !datasetTypes[kind] {
			return syntaxErrorf(num, "unknown dataset type %q", kind)
		}
		name := restAfterFields(text, 1)
		if !datasetNameRe.MatchString(name) {
			return syntaxErrorf(num, "invalid dataset name %q", name)
		}
		entry := root.add(&Node{Rule: DatasetWithType, Text: text, Line: num})
		entry.add(&Node{Rule: DatasetType, Text: kind, Line: num})
		entry.add(&Node{Rule: DatasetName, Text: name, Line: num})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// ParseError recognizes the known single line diagnostics printed by zfs(8)
func ParseError(input []byte) (*Node, error) {
	text := string(input)
	loc := datasetNotFoundRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, syntaxErrorf(0, "unrecognized diagnostic %q", strings.TrimSpace(text))
	}
	num := strings.Count(text[:loc[0]], "\n") + 1
	root := &Node{Rule: Error, Text: strings.TrimSpace(text[loc[0]:loc[1]]), Line: num}
	dnf := root.add(&Node{Rule: DatasetNotFound, Text: root.Text, Line: num})
	dnf.add(&Node{Rule: DatasetName, Text: text[loc[2]:loc[3]], Line: num})
	return root, nil
}

// ParsePropertyRecord splits a single tab separated record that must have exactly columns fields
func ParsePropertyRecord(input []byte, columns int) (*Node, error) {
	text := strings.TrimSuffix(string(input), "\n")
	text = strings.TrimSuffix(text, "\r")
	fields := strings.Split(text, "\t")
	if len(fields) != columns {
		return nil, syntaxErrorf(1, "property record has %d fields, want %d", len(fields), columns)
	}
	root := &Node{Rule: PropertyRecord, Text: text, Line: 1}
	for _, f := range fields {
		root.add(&Node{Rule: PropertyField, Text: f, Line: 1})
	}
	return root, nil
}

// ParseDatasetProperties parses `zfs get -Hp` output: name, property, value and source separated by tabs
func ParseDatasetProperties(input []byte) (*Node, error) {
	root := &Node{Rule: DatasetProperties, Line: 1}
	for i, text := range strings.Split(string(input), "\n") {
		text = strings.TrimRight(text, "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 4 {
			return nil, syntaxErrorf(i+1, "property line has %d fields, want 4", len(fields))
		}
		entry := root.add(&Node{Rule: DatasetProperty, Text: text, Line: i + 1})
		entry.add(&Node{Rule: DatasetName, Text: fields[0], Line: i + 1})
		entry.add(&Node{Rule: PropertyKey, Text: fields[1], Line: i + 1})
		entry.add(&Node{Rule: PropertyValue, Text: fields[2], Line: i + 1})
		entry.add(&Node{Rule: PropertySource, Text: fields[3], Line: i + 1})
	}
	return root, nil
}
