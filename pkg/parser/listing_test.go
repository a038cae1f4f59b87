package parser

import (
	"testing"
)

func TestParseDatasets(t *testing.T) {
	root, err := ParseDatasets([]byte("s\ns/s/s/s\ns/d@test\n\n"))
	if err != nil {
		t.Fatalf("ParseDatasets() error = %v", err)
	}

	want := []string{"s", "s/s/s/s", "s/d@test"}
	if len(root.Children) != len(want) {
		t.Fatalf("ParseDatasets() returned %d names, want %d", len(root.Children), len(want))
	}
	for i, w := range want {
		if root.Children[i].Text != w {
			t.Errorf("names[%d] = %q, want %q", i, root.Children[i].Text, w)
		}
	}
}

func TestParseDatasetsRejectsGarbage(t *testing.T) {
	if _, err := ParseDatasets([]byte("z/ok\n'quoted'\n")); err == nil {
		t.Error("ParseDatasets() error = nil, want syntax error")
	}
}

func TestParseDatasetsWithType(t *testing.T) {
	input := "volume  z/iohyve/rancher/disk0\n" +
		"filesystem\tz/var/mail\n" +
		"snapshot        z/var/mail@backup-2019-08-08\n" +
		"bookmark        z/var/mail#backup-2019-08-08\n" +
		"        \n"

	root, err := ParseDatasetsWithType([]byte(input))
	if err != nil {
		t.Fatalf("ParseDatasetsWithType() error = %v", err)
	}

	want := [][2]string{
		{"volume", "z/iohyve/rancher/disk0"},
		{"filesystem", "z/var/mail"},
		{"snapshot", "z/var/mail@backup-2019-08-08"},
		{"bookmark", "z/var/mail#backup-2019-08-08"},
	}
	if len(root.Children) != len(want) {
		t.Fatalf("got %d entries, want %d", len(root.Children), len(want))
	}
	for i, w := range want {
		kind, _ := root.Children[i].ChildText(DatasetType)
		name, _ := root.Children[i].ChildText(DatasetName)
		if kind != w[0] || name != w[1] {
			t.Errorf("entries[%d] = (%q, %q), want (%q, %q)", i, kind, name, w[0], w[1])
		}
	}
}

func TestParseDatasetsWithTypeUnknownType(t *testing.T) {
	if _, err := ParseDatasetsWithType([]byte("pool\tz\n")); err == nil {
		t.Error("ParseDatasetsWithType() error = nil, want syntax error")
	}
}

func TestParseErrorDatasetNotFound(t *testing.T) {
	root, err := ParseError([]byte("cannot open 's/asd/asd': dataset does not exist\n"))
	if err != nil {
		t.Fatalf("ParseError() error = %v", err)
	}
	dnf := root.Child(DatasetNotFound)
	if dnf == nil {
		t.Fatal("expected dataset_not_found node")
	}
	if name, _ := dnf.ChildText(DatasetName); name != "s/asd/asd" {
		t.Errorf("dataset name = %q, want s/asd/asd", name)
	}
}

func TestParseErrorUnknown(t *testing.T) {
	if _, err := ParseError([]byte("something else went wrong")); err == nil {
		t.Error("ParseError() error = nil, want syntax error")
	}
}

func TestParsePropertyRecord(t *testing.T) {
	line := "69120\t0\t-\t1.00x\t-\t1%\t67039744\t0\t15867762423891129245\tONLINE\t67108864\t0\t-\toff\toff\toff\t-\t-\t0\ton\twait\n"

	root, err := ParsePropertyRecord([]byte(line), 21)
	if err != nil {
		t.Fatalf("ParsePropertyRecord() error = %v", err)
	}
	if len(root.Children) != 21 {
		t.Fatalf("got %d fields, want 21", len(root.Children))
	}
	if root.Children[20].Text != "wait" {
		t.Errorf("last field = %q, want wait", root.Children[20].Text)
	}

	if _, err := ParsePropertyRecord([]byte("1\t2\n"), 21); err == nil {
		t.Error("ParsePropertyRecord() with 2 fields error = nil, want error")
	}
}

func TestParseDatasetProperties(t *testing.T) {
	input := "tank/data\ttype\tfilesystem\t-\n" +
		"tank/data\tcompression\tlz4\tlocal\n" +
		"tank/data\tcom.example:owner\tops\tlocal\n"

	root, err := ParseDatasetProperties([]byte(input))
	if err != nil {
		t.Fatalf("ParseDatasetProperties() error = %v", err)
	}
	if len(root.Children) != 3 {
		t.Fatalf("got %d lines, want 3", len(root.Children))
	}
	second := root.Children[1]
	if key, _ := second.ChildText(PropertyKey); key != "compression" {
		t.Errorf("key = %q, want compression", key)
	}
	if value, _ := second.ChildText(PropertyValue); value != "lz4" {
		t.Errorf("value = %q, want lz4", value)
	}
	if source, _ := second.ChildText(PropertySource); source != "local" {
		t.Errorf("source = %q, want local", source)
	}

	if _, err := ParseDatasetProperties([]byte("tank\tonly-two\n")); err == nil {
		t.Error("ParseDatasetProperties() error = nil, want error")
	}
}
