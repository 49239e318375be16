// Package backendtest checks that an fs.Backend honours the storage
// contract. Backend packages call Run from their own tests.
package backendtest

import (
	"context"
	"testing"

	"tractor.dev/assetvfs/fs"
)

// Run exercises a writable backend. newBackend must return an empty
// backend each time it is called.
func Run(t *testing.T, newBackend func(t *testing.T) fs.Backend) {
	t.Helper()
	for _, tc := range []struct {
		name string
		fn   func(t *testing.T, ctx context.Context, b fs.Backend)
	}{
		{"Root", testRoot},
		{"WriteRead", testWriteRead},
		{"Overwrite", testOverwrite},
		{"WriteMissingParent", testWriteMissingParent},
		{"WriteDirectory", testWriteDirectory},
		{"MakeDirectory", testMakeDirectory},
		{"ListEntries", testListEntries},
		{"DeleteEntry", testDeleteEntry},
		{"Stat", testStat},
		{"Rename", testRename},
		{"Wipe", testWipe},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, context.Background(), newBackend(t))
		})
	}
}

// RunReadOnly checks that every mutation of b fails with EROFS.
func RunReadOnly(t *testing.T, b fs.Backend) {
	t.Helper()
	ctx := context.Background()
	if !b.IsReadOnly() {
		t.Fatal("expected read-only backend")
	}
	expectCode(t, b.WriteEntry(ctx, "/new", fs.Text("x")), fs.EROFS)
	expectCode(t, b.MakeDirectory(ctx, "/newdir"), fs.EROFS)
	expectCode(t, b.DeleteEntry(ctx, "/new"), fs.EROFS)
	if rn, ok := b.(fs.Renamer); ok {
		expectCode(t, rn.RenameEntry(ctx, "/a", "/b"), fs.EROFS)
	}
}

func expectCode(t *testing.T, err error, code fs.Code) {
	t.Helper()
	if !fs.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func testRoot(t *testing.T, ctx context.Context, b fs.Backend) {
	st, err := b.StatEntry(ctx, "/")
	must(t, err)
	if !st.IsDir || st.IsFile {
		t.Fatalf("root is not a directory: %+v", st)
	}
	entries, err := b.ListEntries(ctx, "/")
	must(t, err)
	if len(entries) != 0 {
		t.Fatalf("new backend not empty: %v", entries)
	}
	expectCode(t, b.MakeDirectory(ctx, "/"), fs.EEXIST)
	if b.IsReadOnly() {
		t.Fatal("expected writable backend")
	}
}

func testWriteRead(t *testing.T, ctx context.Context, b fs.Backend) {
	must(t, b.WriteEntry(ctx, "/hello.txt", fs.Text("hello")))
	must(t, b.WriteEntry(ctx, "/blob.bin", fs.Bytes([]byte{0, 1, 2, 255})))

	d, err := b.ReadEntry(ctx, "/hello.txt")
	must(t, err)
	if !d.Equal(fs.Text("hello")) {
		t.Fatalf("unexpected text entry: %q text=%v", d.String(), d.IsText())
	}
	d, err = b.ReadEntry(ctx, "/blob.bin")
	must(t, err)
	if !d.Equal(fs.Bytes([]byte{0, 1, 2, 255})) {
		t.Fatalf("unexpected binary entry: %v text=%v", d.Bytes(), d.IsText())
	}

	_, err = b.ReadEntry(ctx, "/missing")
	expectCode(t, err, fs.ENOENT)
}

func testOverwrite(t *testing.T, ctx context.Context, b fs.Backend) {
	must(t, b.WriteEntry(ctx, "/f", fs.Text("first version")))
	must(t, b.WriteEntry(ctx, "/f", fs.Bytes([]byte("2"))))
	d, err := b.ReadEntry(ctx, "/f")
	must(t, err)
	if !d.Equal(fs.Bytes([]byte("2"))) {
		t.Fatalf("overwrite kept old content: %q text=%v", d.String(), d.IsText())
	}
}

func testWriteMissingParent(t *testing.T, ctx context.Context, b fs.Backend) {
	if err := b.WriteEntry(ctx, "/no/such/file", fs.Text("x")); err == nil {
		t.Fatal("expected error writing below a missing directory")
	}
	must(t, b.WriteEntry(ctx, "/file", fs.Text("x")))
	if err := b.WriteEntry(ctx, "/file/child", fs.Text("x")); err == nil {
		t.Fatal("expected error writing below a file")
	}
}

func testWriteDirectory(t *testing.T, ctx context.Context, b fs.Backend) {
	must(t, b.MakeDirectory(ctx, "/dir"))
	expectCode(t, b.WriteEntry(ctx, "/dir", fs.Text("x")), fs.EISDIR)
	_, err := b.ReadEntry(ctx, "/dir")
	expectCode(t, err, fs.EISDIR)
}

func testMakeDirectory(t *testing.T, ctx context.Context, b fs.Backend) {
	must(t, b.MakeDirectory(ctx, "/a"))
	must(t, b.MakeDirectory(ctx, "/a/b"))
	expectCode(t, b.MakeDirectory(ctx, "/a"), fs.EEXIST)
	expectCode(t, b.MakeDirectory(ctx, "/x/y"), fs.ENOENT)

	must(t, b.WriteEntry(ctx, "/a/file", fs.Text("x")))
	expectCode(t, b.MakeDirectory(ctx, "/a/file"), fs.EEXIST)
}

func testListEntries(t *testing.T, ctx context.Context, b fs.Backend) {
	must(t, b.MakeDirectory(ctx, "/dir"))
	must(t, b.MakeDirectory(ctx, "/dir/sub"))
	must(t, b.WriteEntry(ctx, "/dir/b.txt", fs.Text("b")))
	must(t, b.WriteEntry(ctx, "/dir/a.txt", fs.Text("a")))
	must(t, b.WriteEntry(ctx, "/dir/sub/deep.txt", fs.Text("deep")))

	entries, err := b.ListEntries(ctx, "/dir")
	must(t, err)
	fs.SortEntries(entries)
	want := []fs.DirEntry{
		{Name: "a.txt"},
		{Name: "b.txt"},
		{Name: "sub", IsDir: true},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %v, want %v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d: got %+v, want %+v", i, entries[i], want[i])
		}
	}

	_, err = b.ListEntries(ctx, "/dir/a.txt")
	expectCode(t, err, fs.ENOTDIR)
	_, err = b.ListEntries(ctx, "/nope")
	expectCode(t, err, fs.ENOENT)
}

func testDeleteEntry(t *testing.T, ctx context.Context, b fs.Backend) {
	must(t, b.MakeDirectory(ctx, "/dir"))
	must(t, b.WriteEntry(ctx, "/dir/f", fs.Text("x")))

	expectCode(t, b.DeleteEntry(ctx, "/dir"), fs.ENOTEMPTY)
	must(t, b.DeleteEntry(ctx, "/dir/f"))
	must(t, b.DeleteEntry(ctx, "/dir"))
	expectCode(t, b.DeleteEntry(ctx, "/dir"), fs.ENOENT)

	_, err := b.StatEntry(ctx, "/dir")
	expectCode(t, err, fs.ENOENT)
}

func testStat(t *testing.T, ctx context.Context, b fs.Backend) {
	must(t, b.WriteEntry(ctx, "/f", fs.Text("12345")))
	must(t, b.MakeDirectory(ctx, "/d"))

	st, err := b.StatEntry(ctx, "/f")
	must(t, err)
	if !st.IsFile || st.IsDir || st.Size != 5 {
		t.Fatalf("unexpected file stat: %+v", st)
	}
	if st.Modified.IsZero() {
		t.Fatal("file has no modification time")
	}

	st, err = b.StatEntry(ctx, "/d")
	must(t, err)
	if !st.IsDir || st.IsFile {
		t.Fatalf("unexpected dir stat: %+v", st)
	}

	_, err = b.StatEntry(ctx, "/missing")
	expectCode(t, err, fs.ENOENT)
}

func testRename(t *testing.T, ctx context.Context, b fs.Backend) {
	rn, ok := b.(fs.Renamer)
	if !ok {
		t.Skip("backend does not rename natively")
	}
	must(t, b.MakeDirectory(ctx, "/src"))
	must(t, b.MakeDirectory(ctx, "/src/sub"))
	must(t, b.WriteEntry(ctx, "/src/sub/f.txt", fs.Text("moved")))
	must(t, b.WriteEntry(ctx, "/lone", fs.Bytes([]byte{7})))

	must(t, rn.RenameEntry(ctx, "/src", "/dst"))
	d, err := b.ReadEntry(ctx, "/dst/sub/f.txt")
	must(t, err)
	if !d.Equal(fs.Text("moved")) {
		t.Fatalf("unexpected content after rename: %q", d.String())
	}
	_, err = b.StatEntry(ctx, "/src")
	expectCode(t, err, fs.ENOENT)

	must(t, rn.RenameEntry(ctx, "/lone", "/dst/lone"))
	d, err = b.ReadEntry(ctx, "/dst/lone")
	must(t, err)
	if !d.Equal(fs.Bytes([]byte{7})) {
		t.Fatalf("file kind lost in rename: %v text=%v", d.Bytes(), d.IsText())
	}

	expectCode(t, rn.RenameEntry(ctx, "/missing", "/x"), fs.ENOENT)
	expectCode(t, rn.RenameEntry(ctx, "/dst", "/dst/sub/inside"), fs.EINVAL)
}

func testWipe(t *testing.T, ctx context.Context, b fs.Backend) {
	must(t, b.MakeDirectory(ctx, "/d"))
	must(t, b.WriteEntry(ctx, "/d/f", fs.Text("x")))
	must(t, b.WriteEntry(ctx, "/g", fs.Text("y")))
	must(t, b.Wipe(ctx))

	entries, err := b.ListEntries(ctx, "/")
	must(t, err)
	if len(entries) != 0 {
		t.Fatalf("wipe left entries: %v", entries)
	}
	must(t, b.WriteEntry(ctx, "/g", fs.Text("again")))
}
