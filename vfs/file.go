package vfs

import (
	"context"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/vpath"
)

type WriteOptions struct {
	// Append concatenates data onto an existing file instead of replacing
	// it. See fs.Concat for how text and binary combine.
	Append bool
}

type MkdirOptions struct {
	// Recursive creates missing parents and succeeds if the directory
	// already exists.
	Recursive bool
}

type DeleteOptions struct {
	// Recursive removes the directory's contents first.
	Recursive bool
}

// stat describes the canonical path p. Paths with a mount point below them
// are directories even when their own backend has no such entry.
func (v *VFS) stat(ctx context.Context, p string) (fs.Stat, error) {
	r := v.mounts.Resolve(p)
	st, err := r.Backend.StatEntry(ctx, r.Local)
	if err != nil {
		if fs.IsCode(err, fs.ENOENT) && v.mounts.hasMountBelow(p) {
			return fs.Stat{IsDir: true}, nil
		}
		return fs.Stat{}, err
	}
	return st, nil
}

// Stat describes the file or directory at p.
func (v *VFS) Stat(ctx context.Context, p string) (fs.Stat, error) {
	p = v.Abs(p)
	st, err := v.stat(ctx, p)
	if err != nil {
		return fs.Stat{}, fs.Wrap("stat", p, err)
	}
	return st, nil
}

// Exists reports whether p names a file or directory. Errors other than
// ENOENT are returned.
func (v *VFS) Exists(ctx context.Context, p string) (bool, error) {
	_, err := v.Stat(ctx, p)
	switch {
	case err == nil:
		return true, nil
	case fs.IsCode(err, fs.ENOENT):
		return false, nil
	}
	return false, err
}

// ReadFile returns the content of the file at p.
func (v *VFS) ReadFile(ctx context.Context, p string) (fs.Data, error) {
	p = v.Abs(p)
	r := v.mounts.Resolve(p)
	data, err := r.Backend.ReadEntry(ctx, r.Local)
	if err != nil {
		if fs.IsCode(err, fs.ENOENT) && v.mounts.hasMountBelow(p) {
			return fs.Data{}, fs.NewError(fs.EISDIR, "readFile", p)
		}
		return fs.Data{}, fs.Wrap("readFile", p, err)
	}
	return data, nil
}

// WriteFile creates or replaces the file at p, or appends to it.
func (v *VFS) WriteFile(ctx context.Context, p string, data fs.Data, opts WriteOptions) error {
	p = v.Abs(p)
	r := v.mounts.Resolve(p)
	if err := v.writable("writeFile", p, r); err != nil {
		return err
	}
	if v.mounts.IsMountPoint(p) || v.mounts.hasMountBelow(p) {
		return fs.NewError(fs.EISDIR, "writeFile", p)
	}
	if opts.Append {
		old, err := r.Backend.ReadEntry(ctx, r.Local)
		switch {
		case err == nil:
			data = fs.Concat(old, data)
		case !fs.IsCode(err, fs.ENOENT):
			return fs.Wrap("writeFile", p, err)
		}
	}
	return fs.Wrap("writeFile", p, r.Backend.WriteEntry(ctx, r.Local, data))
}

// AppendFile is WriteFile with Append set.
func (v *VFS) AppendFile(ctx context.Context, p string, data fs.Data) error {
	return v.WriteFile(ctx, p, data, WriteOptions{Append: true})
}

// ReadDir lists the directory at p sorted by name. Mount points directly
// inside p are listed as directories and hide any backend entry with the
// same name.
func (v *VFS) ReadDir(ctx context.Context, p string) ([]fs.DirEntry, error) {
	p = v.Abs(p)
	st, err := v.stat(ctx, p)
	if err != nil {
		return nil, fs.Wrap("readDir", p, err)
	}
	if !st.IsDir {
		return nil, fs.NewError(fs.ENOTDIR, "readDir", p)
	}
	r := v.mounts.Resolve(p)
	entries, err := r.Backend.ListEntries(ctx, r.Local)
	if err != nil && !(fs.IsCode(err, fs.ENOENT) && v.mounts.hasMountBelow(p)) {
		return nil, fs.Wrap("readDir", p, err)
	}
	if names := v.mounts.ChildMounts(p); len(names) > 0 {
		index := make(map[string]int, len(entries))
		for i, e := range entries {
			index[e.Name] = i
		}
		for _, name := range names {
			if i, ok := index[name]; ok {
				entries[i].IsDir = true
				continue
			}
			entries = append(entries, fs.DirEntry{Name: name, IsDir: true})
		}
	}
	fs.SortEntries(entries)
	return entries, nil
}

// Mkdir creates the directory p. With Recursive, parents are created
// through whichever mounts own them, and parents that already exist are
// never written to.
func (v *VFS) Mkdir(ctx context.Context, p string, opts MkdirOptions) error {
	p = v.Abs(p)
	r := v.mounts.Resolve(p)
	if err := v.writable("mkdir", p, r); err != nil {
		return err
	}
	if opts.Recursive {
		st, err := v.stat(ctx, p)
		switch {
		case err == nil && st.IsDir:
			return nil
		case err == nil:
			return fs.NewError(fs.EEXIST, "mkdir", p)
		case !fs.IsCode(err, fs.ENOENT):
			return fs.Wrap("mkdir", p, err)
		}
		if err := v.Mkdir(ctx, vpath.Dir(p), opts); err != nil {
			return err
		}
	}
	if p == vpath.Root || v.mounts.IsMountPoint(p) {
		return fs.NewError(fs.EEXIST, "mkdir", p)
	}
	if err := r.Backend.MakeDirectory(ctx, r.Local); err != nil {
		return fs.Wrap("mkdir", p, err)
	}
	return nil
}

// DeleteFile removes the file at p.
func (v *VFS) DeleteFile(ctx context.Context, p string) error {
	p = v.Abs(p)
	r := v.mounts.Resolve(p)
	if err := v.writable("deleteFile", p, r); err != nil {
		return err
	}
	if len(v.mounts.MountsUnder(p)) > 0 {
		return fs.NewError(fs.EBUSY, "deleteFile", p)
	}
	st, err := r.Backend.StatEntry(ctx, r.Local)
	if err != nil {
		return fs.Wrap("deleteFile", p, err)
	}
	if st.IsDir {
		return fs.NewError(fs.EISDIR, "deleteFile", p)
	}
	return fs.Wrap("deleteFile", p, r.Backend.DeleteEntry(ctx, r.Local))
}

// DeleteDirectory removes the directory at p. It refuses with EBUSY when p
// or anything below it is a mount point, since removing it would orphan
// the mounted backend.
func (v *VFS) DeleteDirectory(ctx context.Context, p string, opts DeleteOptions) error {
	p = v.Abs(p)
	r := v.mounts.Resolve(p)
	if err := v.writable("deleteDirectory", p, r); err != nil {
		return err
	}
	if p == vpath.Root || len(v.mounts.MountsUnder(p)) > 0 {
		return fs.NewError(fs.EBUSY, "deleteDirectory", p)
	}
	st, err := r.Backend.StatEntry(ctx, r.Local)
	if err != nil {
		return fs.Wrap("deleteDirectory", p, err)
	}
	if !st.IsDir {
		return fs.NewError(fs.ENOTDIR, "deleteDirectory", p)
	}
	if opts.Recursive {
		err = removeAll(ctx, r.Backend, r.Local)
	} else {
		err = r.Backend.DeleteEntry(ctx, r.Local)
	}
	if err != nil {
		return fs.Wrap("deleteDirectory", p, err)
	}
	v.log.Debug("rmdir", "path", p, "recursive", opts.Recursive)
	return nil
}

// removeAll deletes name and everything below it within one backend.
func removeAll(ctx context.Context, b fs.Backend, name string) error {
	entries, err := b.ListEntries(ctx, name)
	if err != nil {
		return err
	}
	for _, e := range entries {
		child := vpath.Join(name, e.Name)
		if e.IsDir {
			err = removeAll(ctx, b, child)
		} else {
			err = b.DeleteEntry(ctx, child)
		}
		if err != nil {
			return err
		}
	}
	if name == vpath.Root {
		return nil
	}
	return b.DeleteEntry(ctx, name)
}
