package zfs

import (
	"errors"
	"strings"
	"testing"

	"github.com/runningman84/zfskit/pkg/zerr"
)

func TestPool(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOk bool
	}{
		{"tank", "tank", true},
		{"tank/data", "tank", true},
		{"tank/data/nested", "tank", true},
		{"tank@snap", "tank", true},
		{"tank/data@snap", "tank", true},
		{"tank#mark", "tank", true},
		{"tank/data#mark", "tank", true},
		{"", "", false},
		{"/tank/data", "", false},
		{"@snap", "", false},
	}

	for _, tt := range tests {
		got, ok := Pool(tt.name)
		if got != tt.want || ok != tt.wantOk {
			t.Errorf("Pool(%q) = %q, %v, want %q, %v", tt.name, got, ok, tt.want, tt.wantOk)
		}
	}
}

func TestSnapshotAndBookmarkNames(t *testing.T) {
	tests := []struct {
		name         string
		snapshot     string
		isSnapshot   bool
		bookmark     string
		isBookmark   bool
		volumeOrData bool
	}{
		{"tank/data", "", false, "", false, true},
		{"tank/data@daily", "daily", true, "", false, false},
		{"tank/data#daily", "", false, "daily", true, false},
		{"tank@", "", true, "", false, false},
		{"tank@snap/child", "", false, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, ok := SnapshotName(tt.name)
			if snap != tt.snapshot || ok != tt.isSnapshot {
				t.Errorf("SnapshotName() = %q, %v, want %q, %v", snap, ok, tt.snapshot, tt.isSnapshot)
			}
			mark, ok := BookmarkName(tt.name)
			if mark != tt.bookmark || ok != tt.isBookmark {
				t.Errorf("BookmarkName() = %q, %v, want %q, %v", mark, ok, tt.bookmark, tt.isBookmark)
			}
			if got := IsVolumeOrDataset(tt.name); got != tt.volumeOrData {
				t.Errorf("IsVolumeOrDataset() = %v, want %v", got, tt.volumeOrData)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		want []error
	}{
		{"tank", nil},
		{"tank/data", nil},
		{"tank/data@snap", nil},
		{"tank/data#mark", nil},
		{"", []error{zerr.ErrMissingName}},
		{"tank/", []error{zerr.ErrMissingName}},
		{"/tank", []error{zerr.ErrMissingPool}},
		{"tank@", []error{zerr.ErrMissingSnapshotName}},
		{"tank/" + strings.Repeat("a", MaxNameLength), []error{zerr.ErrNameTooLong}},
		{"/" + strings.Repeat("a", MaxNameLength) + "/", []error{zerr.ErrMissingName, zerr.ErrNameTooLong, zerr.ErrMissingPool}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.name)
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				if !IsValid(tt.name) {
					t.Error("IsValid() = false, want true")
				}
				return
			}
			if !errors.Is(err, zerr.ErrValidationFailed) {
				t.Fatalf("Validate() = %v, want ValidationFailed", err)
			}
			if got := len(zerr.Failures(err)); got != len(tt.want) {
				t.Errorf("Validate() reported %d failures, want %d: %v", got, len(tt.want), err)
			}
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("Validate() = %v, want it to include %v", err, want)
				}
			}
			if IsValid(tt.name) {
				t.Error("IsValid() = true, want false")
			}
		})
	}
}

func TestValidateSnapshots(t *testing.T) {
	if err := ValidateSnapshots([]string{"tank/a@s", "tank/b@s"}); err != nil {
		t.Errorf("ValidateSnapshots(same pool) = %v, want nil", err)
	}

	err := ValidateSnapshots([]string{"tank/a@s", "tank/b"})
	if !errors.Is(err, zerr.ErrMissingSnapshotName) {
		t.Errorf("ValidateSnapshots(not a snapshot) = %v, want MissingSnapshotName", err)
	}

	err = ValidateSnapshots([]string{"vault/a@s", "tank/a@s", "tank/b@s"})
	if !errors.Is(err, zerr.ErrMultipleZpools) {
		t.Fatalf("ValidateSnapshots(two pools) = %v, want MultipleZpools", err)
	}
	var multi *zerr.Error
	for _, f := range zerr.Failures(err) {
		if errors.As(f, &multi) && multi.Kind == zerr.MultipleZpools {
			break
		}
	}
	if multi == nil || multi.Text != "tank, vault" {
		t.Errorf("MultipleZpools text = %v, want %q", multi, "tank, vault")
	}
}

func TestValidateBookmarks(t *testing.T) {
	if err := ValidateBookmarks([]string{"tank/a#m", "tank/b#m"}); err != nil {
		t.Errorf("ValidateBookmarks() = %v, want nil", err)
	}
	if err := ValidateBookmarks([]string{"tank/a@m"}); !errors.Is(err, zerr.ErrInvalidInput) {
		t.Errorf("ValidateBookmarks(snapshot) = %v, want InvalidInput", err)
	}
	if err := ValidateBookmarks([]string{"tank/a#m", "vault/a#m"}); !errors.Is(err, zerr.ErrMultipleZpools) {
		t.Errorf("ValidateBookmarks(two pools) = %v, want MultipleZpools", err)
	}
}
