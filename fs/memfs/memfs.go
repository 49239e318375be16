// Package memfs is a read-write backend over an afero filesystem: an
// in-memory tree with New, or a host directory with NewDir.
package memfs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/spf13/afero"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/vpath"
)

// meta is what afero has no place for.
type meta struct {
	text    bool
	created time.Time
}

type FS struct {
	fs   afero.Fs
	meta map[string]meta
	mu   sync.RWMutex
	log  *slog.Logger
}

var (
	_ fs.Backend = (*FS)(nil)
	_ fs.Renamer = (*FS)(nil)
)

// New returns an empty in-memory backend. Its content is lost with the
// process.
func New() *FS {
	return newFS(afero.NewMemMapFs())
}

// NewDir returns a backend storing entries under the host directory root,
// creating it if needed. Content survives restarts; files whose text kind
// was not recorded by this process are reported as text when they are
// valid UTF-8.
func NewDir(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fs.Wrap("open", root, err)
	}
	return newFS(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

func newFS(afs afero.Fs) *FS {
	return &FS{
		fs:   afs,
		meta: make(map[string]meta),
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (fsys *FS) SetLogger(logger *slog.Logger) {
	fsys.log = logger
}

func (fsys *FS) IsReadOnly() bool {
	return false
}

func (fsys *FS) ReadEntry(ctx context.Context, name string) (fs.Data, error) {
	name = vpath.Normalize(name, vpath.Root)
	fsys.mu.RLock()
	defer fsys.mu.RUnlock()
	fi, err := fsys.fs.Stat(name)
	if err != nil {
		return fs.Data{}, fs.Wrap("read", name, err)
	}
	if fi.IsDir() {
		return fs.Data{}, fs.NewError(fs.EISDIR, "read", name)
	}
	b, err := afero.ReadFile(fsys.fs, name)
	if err != nil {
		return fs.Data{}, fs.Wrap("read", name, err)
	}
	m, ok := fsys.meta[name]
	if !ok {
		m.text = utf8.Valid(b)
	}
	return fs.Raw(b, m.text), nil
}

func (fsys *FS) WriteEntry(ctx context.Context, name string, data fs.Data) (err error) {
	defer func() {
		fsys.log.Debug("write", "name", name, "size", data.Len(), "err", err)
	}()
	name = vpath.Normalize(name, vpath.Root)
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if err := fsys.checkParent("write", name); err != nil {
		return err
	}
	created := time.Now()
	if fi, err := fsys.fs.Stat(name); err == nil {
		if fi.IsDir() {
			return fs.NewError(fs.EISDIR, "write", name)
		}
		if m, ok := fsys.meta[name]; ok {
			created = m.created
		} else {
			created = fi.ModTime()
		}
	}
	if err := afero.WriteFile(fsys.fs, name, data.Bytes(), 0644); err != nil {
		return fs.Wrap("write", name, err)
	}
	fsys.meta[name] = meta{text: data.IsText(), created: created}
	return nil
}

func (fsys *FS) DeleteEntry(ctx context.Context, name string) (err error) {
	defer func() {
		fsys.log.Debug("delete", "name", name, "err", err)
	}()
	name = vpath.Normalize(name, vpath.Root)
	if name == vpath.Root {
		return fs.NewError(fs.EINVAL, "delete", name)
	}
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	fi, err := fsys.fs.Stat(name)
	if err != nil {
		return fs.Wrap("delete", name, err)
	}
	if fi.IsDir() {
		empty, err := afero.IsEmpty(fsys.fs, name)
		if err != nil {
			return fs.Wrap("delete", name, err)
		}
		if !empty {
			return fs.NewError(fs.ENOTEMPTY, "delete", name)
		}
	}
	if err := fsys.fs.Remove(name); err != nil {
		return fs.Wrap("delete", name, err)
	}
	delete(fsys.meta, name)
	return nil
}

func (fsys *FS) ListEntries(ctx context.Context, dir string) ([]fs.DirEntry, error) {
	dir = vpath.Normalize(dir, vpath.Root)
	fsys.mu.RLock()
	defer fsys.mu.RUnlock()
	fi, err := fsys.fs.Stat(dir)
	if err != nil {
		return nil, fs.Wrap("list", dir, err)
	}
	if !fi.IsDir() {
		return nil, fs.NewError(fs.ENOTDIR, "list", dir)
	}
	infos, err := afero.ReadDir(fsys.fs, dir)
	if err != nil {
		return nil, fs.Wrap("list", dir, err)
	}
	entries := make([]fs.DirEntry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, fs.DirEntry{Name: fi.Name(), IsDir: fi.IsDir()})
	}
	fs.SortEntries(entries)
	return entries, nil
}

func (fsys *FS) StatEntry(ctx context.Context, name string) (fs.Stat, error) {
	name = vpath.Normalize(name, vpath.Root)
	fsys.mu.RLock()
	defer fsys.mu.RUnlock()
	fi, err := fsys.fs.Stat(name)
	if err != nil {
		return fs.Stat{}, fs.Wrap("stat", name, err)
	}
	st := fs.Stat{
		IsFile:   !fi.IsDir(),
		IsDir:    fi.IsDir(),
		Created:  fi.ModTime(),
		Modified: fi.ModTime(),
	}
	if !fi.IsDir() {
		st.Size = fi.Size()
	}
	if m, ok := fsys.meta[name]; ok {
		st.Created = m.created
	}
	return st, nil
}

func (fsys *FS) MakeDirectory(ctx context.Context, name string) (err error) {
	defer func() {
		fsys.log.Debug("mkdir", "name", name, "err", err)
	}()
	name = vpath.Normalize(name, vpath.Root)
	if name == vpath.Root {
		return fs.NewError(fs.EEXIST, "mkdir", name)
	}
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if _, err := fsys.fs.Stat(name); err == nil {
		return fs.NewError(fs.EEXIST, "mkdir", name)
	}
	if err := fsys.checkParent("mkdir", name); err != nil {
		return err
	}
	if err := fsys.fs.Mkdir(name, 0755); err != nil {
		return fs.Wrap("mkdir", name, err)
	}
	fsys.meta[name] = meta{created: time.Now()}
	return nil
}

// RenameEntry moves a file or a whole directory. newname must not exist
// and must not lie inside oldname.
func (fsys *FS) RenameEntry(ctx context.Context, oldname, newname string) (err error) {
	defer func() {
		fsys.log.Debug("rename", "oldname", oldname, "newname", newname, "err", err)
	}()
	oldname = vpath.Normalize(oldname, vpath.Root)
	newname = vpath.Normalize(newname, vpath.Root)
	if oldname == newname {
		return nil
	}
	if oldname == vpath.Root || vpath.HasPrefix(newname, oldname) {
		return fs.NewError(fs.EINVAL, "rename", newname)
	}
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	fi, err := fsys.fs.Stat(oldname)
	if err != nil {
		return fs.Wrap("rename", oldname, err)
	}
	if _, err := fsys.fs.Stat(newname); err == nil {
		return fs.NewError(fs.EEXIST, "rename", newname)
	}
	if err := fsys.checkParent("rename", newname); err != nil {
		return err
	}
	if fi.IsDir() {
		err = fsys.renameDir(oldname, newname)
	} else {
		err = fsys.fs.Rename(oldname, newname)
	}
	if err != nil {
		return fs.Wrap("rename", oldname, err)
	}
	for p, m := range fsys.meta {
		if vpath.HasPrefix(p, oldname) {
			delete(fsys.meta, p)
			fsys.meta[newname+strings.TrimPrefix(p, oldname)] = m
		}
	}
	return nil
}

// renameDir moves a directory tree entry by entry, since not every afero
// filesystem renames directories with their descendants.
func (fsys *FS) renameDir(oldname, newname string) error {
	var dirs []string
	err := afero.Walk(fsys.fs, oldname, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		p = vpath.Normalize(p, vpath.Root)
		target := newname + strings.TrimPrefix(p, oldname)
		if fi.IsDir() {
			dirs = append(dirs, p)
			return fsys.fs.Mkdir(target, 0755)
		}
		return fsys.fs.Rename(p, target)
	})
	if err != nil {
		return err
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		if err := fsys.fs.Remove(dirs[i]); err != nil {
			return err
		}
	}
	return nil
}

// Wipe removes everything below the root.
func (fsys *FS) Wipe(ctx context.Context) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	infos, err := afero.ReadDir(fsys.fs, vpath.Root)
	if err != nil {
		return fs.Wrap("wipe", vpath.Root, err)
	}
	for _, fi := range infos {
		if err := fsys.fs.RemoveAll(vpath.Join(vpath.Root, fi.Name())); err != nil {
			return fs.Wrap("wipe", vpath.Root, err)
		}
	}
	clear(fsys.meta)
	fsys.log.Debug("wipe")
	return nil
}

// checkParent requires the parent of name to be an existing directory.
// Must be called with fsys.mu held.
func (fsys *FS) checkParent(op, name string) error {
	dir := vpath.Dir(name)
	fi, err := fsys.fs.Stat(dir)
	if err != nil {
		return fs.Wrap(op, dir, err)
	}
	if !fi.IsDir() {
		return fs.NewError(fs.ENOTDIR, op, dir)
	}
	return nil
}
