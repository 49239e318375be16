package vfs

import (
	"context"
	"errors"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/vpath"
)

type CopyOptions struct {
	Overwrite bool
}

type MoveOptions struct {
	Overwrite bool
}

// CopyFile copies the file at src to dst, which may live on a different
// backend. The copy keeps the text or binary kind of the source. An
// existing dst fails with EEXIST unless Overwrite is set.
func (v *VFS) CopyFile(ctx context.Context, src, dst string, opts CopyOptions) error {
	src, dst = v.Abs(src), v.Abs(dst)
	sr, dr := v.mounts.Resolve(src), v.mounts.Resolve(dst)
	if err := v.writable("copyFile", dst, dr); err != nil {
		return err
	}
	st, err := v.stat(ctx, src)
	if err != nil {
		return fs.Wrap("copyFile", src, err)
	}
	if st.IsDir {
		return fs.NewError(fs.EISDIR, "copyFile", src)
	}
	if err := v.checkDestination(ctx, "copyFile", dst, opts.Overwrite, false); err != nil {
		return err
	}
	data, err := sr.Backend.ReadEntry(ctx, sr.Local)
	if err != nil {
		return fs.Wrap("copyFile", src, err)
	}
	return fs.Wrap("copyFile", dst, dr.Backend.WriteEntry(ctx, dr.Local, data.Clone()))
}

// Move renames src to dst. Within one mount a backend that implements
// fs.Renamer moves natively unless it reports errors.ErrUnsupported.
// Otherwise files are copied and directories are recreated and filled
// recursively before the source is removed.
func (v *VFS) Move(ctx context.Context, src, dst string, opts MoveOptions) error {
	src, dst = v.Abs(src), v.Abs(dst)
	sr, dr := v.mounts.Resolve(src), v.mounts.Resolve(dst)
	if err := v.writable("move", src, sr); err != nil {
		return err
	}
	if err := v.writable("move", dst, dr); err != nil {
		return err
	}
	if src == vpath.Root || len(v.mounts.MountsUnder(src)) > 0 {
		return fs.NewError(fs.EBUSY, "move", src)
	}
	if v.mounts.IsMountPoint(dst) {
		return fs.NewError(fs.EBUSY, "move", dst)
	}
	st, err := v.stat(ctx, src)
	if err != nil {
		return fs.Wrap("move", src, err)
	}
	if src == dst {
		return nil
	}
	if st.IsDir && vpath.HasPrefix(dst, src) {
		return fs.NewError(fs.EINVAL, "move", dst)
	}
	if err := v.checkDestination(ctx, "move", dst, opts.Overwrite, true); err != nil {
		return err
	}

	if sr.MountPoint == dr.MountPoint {
		if rn, ok := sr.Backend.(fs.Renamer); ok {
			err := rn.RenameEntry(ctx, sr.Local, dr.Local)
			if !errors.Is(err, errors.ErrUnsupported) {
				v.log.Debug("move", "src", src, "dst", dst, "native", true)
				return fs.Wrap("move", src, err)
			}
		}
	}
	v.log.Debug("move", "src", src, "dst", dst, "native", false, "dir", st.IsDir)
	if st.IsDir {
		if err := copyTree(ctx, sr.Backend, sr.Local, dr.Backend, dr.Local); err != nil {
			return fs.Wrap("move", dst, err)
		}
		return fs.Wrap("move", src, removeAll(ctx, sr.Backend, sr.Local))
	}
	data, err := sr.Backend.ReadEntry(ctx, sr.Local)
	if err != nil {
		return fs.Wrap("move", src, err)
	}
	if err := dr.Backend.WriteEntry(ctx, dr.Local, data.Clone()); err != nil {
		return fs.Wrap("move", dst, err)
	}
	return fs.Wrap("move", src, sr.Backend.DeleteEntry(ctx, sr.Local))
}

// checkDestination enforces the overwrite rule for dst. When the
// destination exists and overwriting is allowed, an existing directory is
// an error for copies and is cleared first for moves.
func (v *VFS) checkDestination(ctx context.Context, op, dst string, overwrite, clear bool) error {
	st, err := v.stat(ctx, dst)
	if fs.IsCode(err, fs.ENOENT) {
		return nil
	}
	if err != nil {
		return fs.Wrap(op, dst, err)
	}
	if !overwrite {
		return fs.NewError(fs.EEXIST, op, dst)
	}
	if !st.IsDir {
		if !clear {
			return nil
		}
		r := v.mounts.Resolve(dst)
		return fs.Wrap(op, dst, r.Backend.DeleteEntry(ctx, r.Local))
	}
	if !clear || len(v.mounts.MountsUnder(dst)) > 0 {
		return fs.NewError(fs.EISDIR, op, dst)
	}
	r := v.mounts.Resolve(dst)
	return fs.Wrap(op, dst, removeAll(ctx, r.Backend, r.Local))
}

// copyTree recreates the directory src of sb as dst on db.
func copyTree(ctx context.Context, sb fs.Backend, src string, db fs.Backend, dst string) error {
	if err := db.MakeDirectory(ctx, dst); err != nil {
		return err
	}
	entries, err := sb.ListEntries(ctx, src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		s, d := vpath.Join(src, e.Name), vpath.Join(dst, e.Name)
		if e.IsDir {
			if err := copyTree(ctx, sb, s, db, d); err != nil {
				return err
			}
			continue
		}
		data, err := sb.ReadEntry(ctx, s)
		if err != nil {
			return err
		}
		if err := db.WriteEntry(ctx, d, data.Clone()); err != nil {
			return err
		}
	}
	return nil
}
