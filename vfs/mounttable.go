package vfs

import (
	"github.com/google/btree"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/vpath"
)

// MountEntry binds a backend to a canonical mount point.
type MountEntry struct {
	MountPoint string
	Backend    fs.Backend
	depth      int
}

// Resolution is where a canonical path lives: the backend that holds it,
// the path local to that backend, and the mount point it was found under
// ("/" for the root backend).
type Resolution struct {
	Backend    fs.Backend
	Local      string
	MountPoint string
}

// mountLess orders mounts most specific first so the first prefix hit
// while ascending is the longest one. Equal depths fall back to the path to
// keep iteration deterministic.
func mountLess(a, b MountEntry) bool {
	if a.depth != b.depth {
		return a.depth > b.depth
	}
	return a.MountPoint < b.MountPoint
}

// MountTable routes canonical paths to backends. The root backend is an
// implicit entry at "/" that can't be replaced or removed, so resolution
// always succeeds.
type MountTable struct {
	root    fs.Backend
	entries *btree.BTreeG[MountEntry]
}

func NewMountTable(root fs.Backend) *MountTable {
	return &MountTable{
		root:    root,
		entries: btree.NewG(8, mountLess),
	}
}

// Root returns the backend mounted at "/".
func (t *MountTable) Root() fs.Backend {
	return t.root
}

func key(mountPoint string) MountEntry {
	return MountEntry{MountPoint: mountPoint, depth: vpath.Depth(mountPoint)}
}

// Mount binds b at mountPoint, which is normalized against the root.
func (t *MountTable) Mount(mountPoint string, b fs.Backend) error {
	mountPoint = vpath.Normalize(mountPoint, vpath.Root)
	if b == nil {
		return fs.NewError(fs.EINVAL, "mount", mountPoint)
	}
	if mountPoint == vpath.Root || t.entries.Has(key(mountPoint)) {
		return fs.NewError(fs.EEXIST, "mount", mountPoint)
	}
	e := key(mountPoint)
	e.Backend = b
	t.entries.ReplaceOrInsert(e)
	return nil
}

// Unmount removes the mount at mountPoint and reports whether there was one.
func (t *MountTable) Unmount(mountPoint string) bool {
	_, ok := t.entries.Delete(key(vpath.Normalize(mountPoint, vpath.Root)))
	return ok
}

// Resolve finds the most specific mount whose mount point is p or an
// ancestor of p. p must be canonical.
func (t *MountTable) Resolve(p string) Resolution {
	res := Resolution{Backend: t.root, Local: p, MountPoint: vpath.Root}
	t.entries.Ascend(func(e MountEntry) bool {
		if e.depth > vpath.Depth(p) || !vpath.HasPrefix(p, e.MountPoint) {
			return true
		}
		res = Resolution{
			Backend:    e.Backend,
			Local:      vpath.TrimPrefix(p, e.MountPoint),
			MountPoint: e.MountPoint,
		}
		return false
	})
	return res
}

func (t *MountTable) HasMounts() bool {
	return t.entries.Len() > 0
}

func (t *MountTable) Len() int {
	return t.entries.Len()
}

// Mounts returns the mounts, most specific first. The root entry is not
// included.
func (t *MountTable) Mounts() []MountEntry {
	out := make([]MountEntry, 0, t.entries.Len())
	t.entries.Ascend(func(e MountEntry) bool {
		out = append(out, e)
		return true
	})
	return out
}

// MountPoints returns the mount points in the same order as Mounts.
func (t *MountTable) MountPoints() []string {
	var out []string
	for _, e := range t.Mounts() {
		out = append(out, e.MountPoint)
	}
	return out
}

func (t *MountTable) IsMountPoint(p string) bool {
	return t.entries.Has(key(p))
}

// MountsUnder returns the mount points equal to p or below it.
func (t *MountTable) MountsUnder(p string) []string {
	var out []string
	t.entries.Ascend(func(e MountEntry) bool {
		if vpath.HasPrefix(e.MountPoint, p) {
			out = append(out, e.MountPoint)
		}
		return true
	})
	return out
}

// hasMountBelow reports whether some mount point lies strictly below p,
// which makes p a directory of the logical tree even if no backend has it.
func (t *MountTable) hasMountBelow(p string) bool {
	found := false
	t.entries.Ascend(func(e MountEntry) bool {
		if e.MountPoint != p && vpath.HasPrefix(e.MountPoint, p) {
			found = true
			return false
		}
		return true
	})
	return found
}

// ChildMounts returns the names directly inside dir that lead to a mount
// point: the mount point's own name when mounted right under dir, or the
// first intermediate segment for deeper mounts.
func (t *MountTable) ChildMounts(dir string) []string {
	seen := map[string]bool{}
	var out []string
	t.entries.Ascend(func(e MountEntry) bool {
		if e.MountPoint == dir || !vpath.HasPrefix(e.MountPoint, dir) {
			return true
		}
		name := vpath.Split(vpath.TrimPrefix(e.MountPoint, dir))[0]
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
		return true
	})
	return out
}
