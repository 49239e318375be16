package boltfs

import (
	"context"
	"path/filepath"
	"testing"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/backendtest"
)

func openTemp(t *testing.T, opts *Options) (*FS, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.db")
	fsys, err := Open(path, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { fsys.Close() })
	return fsys, path
}

func TestContract(t *testing.T) {
	backendtest.Run(t, func(t *testing.T) fs.Backend {
		fsys, _ := openTemp(t, nil)
		return fsys
	})
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "assets.db")
	fsys, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := fsys.MakeDirectory(ctx, "/img"); err != nil {
		t.Fatal(err)
	}
	if err := fsys.WriteEntry(ctx, "/img/logo.png", fs.Bytes([]byte{0x89, 'P', 'N', 'G'})); err != nil {
		t.Fatal(err)
	}
	if err := fsys.WriteEntry(ctx, "/notes.txt", fs.Text("keep me")); err != nil {
		t.Fatal(err)
	}
	if err := fsys.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path, &Options{ReadOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	d, err := reopened.ReadEntry(ctx, "/img/logo.png")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(fs.Bytes([]byte{0x89, 'P', 'N', 'G'})) {
		t.Fatalf("binary entry changed: %v text=%v", d.Bytes(), d.IsText())
	}
	d, err = reopened.ReadEntry(ctx, "/notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(fs.Text("keep me")) {
		t.Fatalf("text entry changed: %q text=%v", d.String(), d.IsText())
	}
	backendtest.RunReadOnly(t, reopened)
}

func TestBucketsAreIndependent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")
	a, err := Open(path, &Options{Bucket: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.WriteEntry(ctx, "/f", fs.Text("a")); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := Open(path, &Options{Bucket: "b"})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if _, err := b.StatEntry(ctx, "/f"); !fs.IsCode(err, fs.ENOENT) {
		t.Fatalf("expected ENOENT in other bucket, got %v", err)
	}
}

func TestListSkipsGrandchildren(t *testing.T) {
	ctx := context.Background()
	fsys, _ := openTemp(t, nil)
	for _, dir := range []string{"/a", "/a/b", "/a.d"} {
		if err := fsys.MakeDirectory(ctx, dir); err != nil {
			t.Fatal(err)
		}
	}
	if err := fsys.WriteEntry(ctx, "/a/b/c", fs.Text("x")); err != nil {
		t.Fatal(err)
	}
	entries, err := fsys.ListEntries(ctx, "/a")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0] != (fs.DirEntry{Name: "b", IsDir: true}) {
		t.Fatalf("unexpected entries %v", entries)
	}
}
