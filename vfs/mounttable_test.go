package vfs

import (
	"slices"
	"testing"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/memfs"
)

func TestMountTableResolve(t *testing.T) {
	root, mnt, deep := memfs.New(), memfs.New(), memfs.New()
	mt := NewMountTable(root)
	if err := mt.Mount("/mnt", mnt); err != nil {
		t.Fatal(err)
	}
	if err := mt.Mount("mnt/deep/", deep); err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		path       string
		backend    fs.Backend
		local      string
		mountPoint string
	}{
		{"/", root, "/", "/"},
		{"/file", root, "/file", "/"},
		{"/mntx/a", root, "/mntx/a", "/"},
		{"/mnt", mnt, "/", "/mnt"},
		{"/mnt/a/b", mnt, "/a/b", "/mnt"},
		{"/mnt/deepish", mnt, "/deepish", "/mnt"},
		{"/mnt/deep", deep, "/", "/mnt/deep"},
		{"/mnt/deep/x/y", deep, "/x/y", "/mnt/deep"},
	} {
		r := mt.Resolve(tt.path)
		if r.Backend != tt.backend || r.Local != tt.local || r.MountPoint != tt.mountPoint {
			t.Errorf("Resolve(%q) = {%p %q %q}, want {%p %q %q}",
				tt.path, r.Backend, r.Local, r.MountPoint, tt.backend, tt.local, tt.mountPoint)
		}
	}

	if !mt.Unmount("/mnt/deep") {
		t.Fatal("expected unmount to succeed")
	}
	if mt.Unmount("/mnt/deep") {
		t.Fatal("expected second unmount to report nothing mounted")
	}
	if r := mt.Resolve("/mnt/deep/x"); r.Backend != fs.Backend(mnt) || r.Local != "/deep/x" {
		t.Errorf("after unmount got {%p %q}", r.Backend, r.Local)
	}
}

func TestMountTableMountErrors(t *testing.T) {
	mt := NewMountTable(memfs.New())
	if err := mt.Mount("/", memfs.New()); !fs.IsCode(err, fs.EEXIST) {
		t.Fatalf("mount at root: expected EEXIST, got %v", err)
	}
	if err := mt.Mount("/a", nil); !fs.IsCode(err, fs.EINVAL) {
		t.Fatalf("nil backend: expected EINVAL, got %v", err)
	}
	if err := mt.Mount("/a", memfs.New()); err != nil {
		t.Fatal(err)
	}
	if err := mt.Mount("/a/./", memfs.New()); !fs.IsCode(err, fs.EEXIST) {
		t.Fatalf("duplicate: expected EEXIST, got %v", err)
	}
	if mt.Len() != 1 || !mt.HasMounts() {
		t.Fatalf("unexpected mount count %d", mt.Len())
	}
}

func TestMountTableListing(t *testing.T) {
	mt := NewMountTable(memfs.New())
	for _, p := range []string{"/b", "/a/x/y", "/a", "/c/d"} {
		if err := mt.Mount(p, memfs.New()); err != nil {
			t.Fatal(err)
		}
	}

	if got, want := mt.MountPoints(), []string{"/a/x/y", "/c/d", "/a", "/b"}; !slices.Equal(got, want) {
		t.Errorf("MountPoints() = %v, want %v", got, want)
	}
	if got, want := mt.ChildMounts("/"), []string{"a", "c", "b"}; !slices.Equal(sorted(got), sorted(want)) {
		t.Errorf("ChildMounts(/) = %v, want %v", got, want)
	}
	if got := mt.ChildMounts("/a"); !slices.Equal(got, []string{"x"}) {
		t.Errorf("ChildMounts(/a) = %v", got)
	}
	if got := mt.MountsUnder("/a"); !slices.Equal(sorted(got), []string{"/a", "/a/x/y"}) {
		t.Errorf("MountsUnder(/a) = %v", got)
	}
	if !mt.IsMountPoint("/c/d") || mt.IsMountPoint("/c") {
		t.Error("IsMountPoint mismatch")
	}
	if !mt.hasMountBelow("/c") || mt.hasMountBelow("/c/d") {
		t.Error("hasMountBelow mismatch")
	}
}

func sorted(s []string) []string {
	s = slices.Clone(s)
	slices.Sort(s)
	return s
}
