package utils

import (
	"errors"
	"path/filepath"
	"testing"

	"teaos/pkg/vfs"
)

func TestGetPathInfo(t *testing.T) {
	full, parent, err := GetPathInfo("examples/prog.tea")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(full) || filepath.Base(full) != "prog.tea" {
		t.Errorf("fullPath = %q", full)
	}
	if parent != filepath.Dir(full) || filepath.Base(parent) != "examples" {
		t.Errorf("parentDir = %q", parent)
	}
}

func TestDiskName(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"/tmp/work/prog.tea", "prog.tea", false},
		{"add.s", "add.s", false},
		{"dir/has space.tea", "", true},
		{"/tmp/" + "a-very-long-file-name-that-does-not-fit.tea", "", true},
	}
	for _, tt := range tests {
		got, err := DiskName(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("DiskName(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, vfs.ErrInvalidFilename) {
			t.Errorf("DiskName(%q) error = %v; want ErrInvalidFilename", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("DiskName(%q) = %q; want %q", tt.path, got, tt.want)
		}
	}
}
