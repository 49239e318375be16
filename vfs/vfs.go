// Package vfs presents one slash separated tree over any number of storage
// backends composed with mount points.
//
// Every path handed to a VFS is normalized against the instance's working
// directory before it is routed to a backend, so relative paths, "." and
// ".." behave as in a shell. Mount points nest: the most specific mount
// holding a path owns it.
//
// A VFS does not lock its own state. Mount, Unmount, Chdir, Pushd, Popd
// and Wipe must be serialized by the caller; reads such as ReadFile, Stat,
// ReadDir and Glob may run concurrently with each other but not with those
// mutations. Unmounting a backend while a Glob walk is inside it is not
// supported.
package vfs

import (
	"context"
	"io"
	"log/slog"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/vpath"
)

const defaultGlobCacheSize = 256

type VFS struct {
	name     string
	readOnly bool
	mounts   *MountTable
	dirs     DirStack
	globs    *globCache
	log      *slog.Logger
}

type Option func(*VFS)

// WithName sets the name reported by Info.
func WithName(name string) Option {
	return func(v *VFS) {
		v.name = name
	}
}

// WithReadOnly rejects every mutation with EROFS regardless of backend.
func WithReadOnly() Option {
	return func(v *VFS) {
		v.readOnly = true
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *VFS) {
		v.log = logger
	}
}

// WithGlobCacheSize bounds the number of compiled patterns kept by the
// instance.
func WithGlobCacheSize(n int) Option {
	return func(v *VFS) {
		v.globs = newGlobCache(n)
	}
}

// New returns a VFS with root mounted at "/" and the working directory at
// the root.
func New(root fs.Backend, opts ...Option) *VFS {
	v := &VFS{
		name:   "vfs",
		mounts: NewMountTable(root),
		dirs:   NewDirStack(),
		globs:  newGlobCache(defaultGlobCacheSize),
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *VFS) SetLogger(logger *slog.Logger) {
	v.log = logger
}

func (v *VFS) Name() string {
	return v.name
}

func (v *VFS) IsReadOnly() bool {
	return v.readOnly
}

// Abs returns the canonical form of p against the working directory.
func (v *VFS) Abs(p string) string {
	return vpath.Normalize(p, v.dirs.Cwd())
}

// Resolve reports which backend and local path p maps to.
func (v *VFS) Resolve(p string) Resolution {
	return v.mounts.Resolve(v.Abs(p))
}

// Mount binds b at mountPoint. Relative mount points are taken from the
// root, not the working directory.
func (v *VFS) Mount(mountPoint string, b fs.Backend) error {
	if err := v.mounts.Mount(mountPoint, b); err != nil {
		return err
	}
	v.log.Debug("mount", "point", vpath.Normalize(mountPoint, vpath.Root), "readonly", b.IsReadOnly())
	return nil
}

// Unmount detaches the backend at mountPoint and reports whether one was
// mounted there.
func (v *VFS) Unmount(mountPoint string) bool {
	ok := v.mounts.Unmount(mountPoint)
	v.log.Debug("unmount", "point", mountPoint, "ok", ok)
	return ok
}

func (v *VFS) HasMounts() bool {
	return v.mounts.HasMounts()
}

// Mounts lists the mounts most specific first.
func (v *VFS) Mounts() []MountEntry {
	return v.mounts.Mounts()
}

// Info is a snapshot of the instance state for display.
type Info struct {
	Name          string
	ReadOnly      bool
	Cwd           string
	MountCount    int
	MountPoints   []string
	DirStackDepth int
}

func (v *VFS) Info() Info {
	return Info{
		Name:          v.name,
		ReadOnly:      v.readOnly,
		Cwd:           v.dirs.Cwd(),
		MountCount:    v.mounts.Len(),
		MountPoints:   v.mounts.MountPoints(),
		DirStackDepth: v.dirs.Depth(),
	}
}

// Wipe resets every writable backend, root included, and returns the
// working directory to the root with an empty stack.
func (v *VFS) Wipe(ctx context.Context) error {
	if v.readOnly {
		return fs.NewError(fs.EROFS, "wipe", vpath.Root)
	}
	for _, e := range append([]MountEntry{{MountPoint: vpath.Root, Backend: v.mounts.Root()}}, v.mounts.Mounts()...) {
		if e.Backend.IsReadOnly() {
			continue
		}
		if err := e.Backend.Wipe(ctx); err != nil {
			return fs.Wrap("wipe", e.MountPoint, err)
		}
	}
	v.dirs = NewDirStack()
	v.log.Debug("wipe")
	return nil
}

// writable rejects a mutation of p before any backend I/O when either the
// instance or the backend owning p is read-only.
func (v *VFS) writable(op, p string, r Resolution) error {
	if v.readOnly || r.Backend.IsReadOnly() {
		return fs.NewError(fs.EROFS, op, p)
	}
	return nil
}
