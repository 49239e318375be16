package vfs

import (
	"context"

	"tractor.dev/assetvfs/fs"
)

// Cwd returns the working directory.
func (v *VFS) Cwd() string {
	return v.dirs.Cwd()
}

// Chdir changes the working directory to p, which must be a directory.
func (v *VFS) Chdir(ctx context.Context, p string) error {
	dir, err := v.lookupDir(ctx, "chdir", p)
	if err != nil {
		return err
	}
	v.dirs = v.dirs.Chdir(dir)
	v.log.Debug("chdir", "cwd", dir)
	return nil
}

// Pushd saves the working directory on the stack and changes to p. If p is
// not a directory nothing changes.
func (v *VFS) Pushd(ctx context.Context, p string) error {
	dir, err := v.lookupDir(ctx, "pushd", p)
	if err != nil {
		return err
	}
	v.dirs = v.dirs.Push(dir)
	v.log.Debug("pushd", "cwd", dir, "depth", v.dirs.Depth())
	return nil
}

// Popd returns to the most recently pushed directory and returns it. The
// directory is trusted as saved: if it was deleted since, the working
// directory still moves there and later relative operations fail with
// ENOENT.
func (v *VFS) Popd() (string, error) {
	next, dir, ok := v.dirs.Pop()
	if !ok {
		return "", fs.NewError(fs.ESTACKEMPTY, "popd", v.dirs.Cwd())
	}
	v.dirs = next
	v.log.Debug("popd", "cwd", dir, "depth", v.dirs.Depth())
	return dir, nil
}

// DirStack returns the saved directories, oldest first.
func (v *VFS) DirStack() []string {
	return v.dirs.Entries()
}

func (v *VFS) lookupDir(ctx context.Context, op, p string) (string, error) {
	dir := v.Abs(p)
	st, err := v.stat(ctx, dir)
	if err != nil {
		return "", fs.Wrap(op, dir, err)
	}
	if !st.IsDir {
		return "", fs.NewError(fs.ENOTDIR, op, dir)
	}
	return dir, nil
}
