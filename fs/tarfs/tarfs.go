// Package tarfs is a read-only backend serving the contents of a tar
// archive from an in-memory index.
package tarfs

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/vpath"
)

type node struct {
	dir     bool
	data    []byte
	modTime time.Time
}

// FS is immutable once built, so it needs no locking.
type FS struct {
	// nodes by canonical path; children by directory path then name
	nodes    map[string]*node
	children map[string]map[string]*node
	log      *slog.Logger
}

var _ fs.Backend = (*FS)(nil)

// New reads a tar stream, gzip compressed or not, into a new FS. Entries
// whose parent directories are missing from the archive get implicit ones.
func New(r io.Reader) (*FS, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("tarfs: %w", err)
		}
		defer zr.Close()
		return From(tar.NewReader(zr))
	}
	return From(tar.NewReader(br))
}

// From indexes every directory and regular file read from t. Other entry
// types such as links are skipped.
func From(t *tar.Reader) (*FS, error) {
	fsys := &FS{
		nodes:    map[string]*node{vpath.Root: {dir: true}},
		children: map[string]map[string]*node{vpath.Root: {}},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for {
		hdr, err := t.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tarfs: reading archive: %w", err)
		}
		name := vpath.Normalize(hdr.Name, vpath.Root)
		switch hdr.Typeflag {
		case tar.TypeDir:
			fsys.add(name, &node{dir: true, modTime: hdr.ModTime})
		case tar.TypeReg:
			var buf bytes.Buffer
			size, err := buf.ReadFrom(t)
			if err != nil {
				return nil, fmt.Errorf("tarfs: reading %s: %w", hdr.Name, err)
			}
			if size != hdr.Size {
				return nil, fmt.Errorf("tarfs: size mismatch for %s", hdr.Name)
			}
			fsys.add(name, &node{data: buf.Bytes(), modTime: hdr.ModTime})
		}
	}
	return fsys, nil
}

// add inserts n at name, creating implicit parents. A later entry replaces
// an earlier one with the same name, as when extracting.
func (fsys *FS) add(name string, n *node) {
	if name == vpath.Root {
		return
	}
	dir := vpath.Dir(name)
	if parent, ok := fsys.nodes[dir]; !ok || !parent.dir {
		fsys.add(dir, &node{dir: true, modTime: n.modTime})
	}
	if old, ok := fsys.nodes[name]; ok && old.dir && n.dir {
		old.modTime = n.modTime
		return
	}
	fsys.nodes[name] = n
	fsys.children[dir][vpath.Base(name)] = n
	if n.dir {
		fsys.children[name] = map[string]*node{}
	} else {
		delete(fsys.children, name)
	}
}

func (fsys *FS) SetLogger(logger *slog.Logger) {
	fsys.log = logger
}

func (fsys *FS) IsReadOnly() bool {
	return true
}

func (fsys *FS) lookup(op, name string) (string, *node, error) {
	name = vpath.Normalize(name, vpath.Root)
	n, ok := fsys.nodes[name]
	if !ok {
		return name, nil, fs.NewError(fs.ENOENT, op, name)
	}
	return name, n, nil
}

// ReadEntry returns archive content as binary data, since tar keeps no
// record of how a file was written.
func (fsys *FS) ReadEntry(ctx context.Context, name string) (fs.Data, error) {
	name, n, err := fsys.lookup("read", name)
	if err != nil {
		return fs.Data{}, err
	}
	if n.dir {
		return fs.Data{}, fs.NewError(fs.EISDIR, "read", name)
	}
	return fs.Bytes(bytes.Clone(n.data)), nil
}

func (fsys *FS) ListEntries(ctx context.Context, dir string) ([]fs.DirEntry, error) {
	dir, n, err := fsys.lookup("list", dir)
	if err != nil {
		return nil, err
	}
	if !n.dir {
		return nil, fs.NewError(fs.ENOTDIR, "list", dir)
	}
	entries := make([]fs.DirEntry, 0, len(fsys.children[dir]))
	for name, child := range fsys.children[dir] {
		entries = append(entries, fs.DirEntry{Name: name, IsDir: child.dir})
	}
	fs.SortEntries(entries)
	return entries, nil
}

func (fsys *FS) StatEntry(ctx context.Context, name string) (fs.Stat, error) {
	_, n, err := fsys.lookup("stat", name)
	if err != nil {
		return fs.Stat{}, err
	}
	return fs.Stat{
		IsFile:   !n.dir,
		IsDir:    n.dir,
		Size:     int64(len(n.data)),
		Created:  n.modTime,
		Modified: n.modTime,
	}, nil
}

func (fsys *FS) WriteEntry(ctx context.Context, name string, data fs.Data) error {
	return fs.NewError(fs.EROFS, "write", name)
}

func (fsys *FS) DeleteEntry(ctx context.Context, name string) error {
	return fs.NewError(fs.EROFS, "delete", name)
}

func (fsys *FS) MakeDirectory(ctx context.Context, name string) error {
	return fs.NewError(fs.EROFS, "mkdir", name)
}

// Wipe does nothing: the archive is the source of truth.
func (fsys *FS) Wipe(ctx context.Context) error {
	return nil
}
