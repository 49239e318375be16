package tarfs

import (
	"archive/tar"
	"context"
	"fmt"
	"io"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/vpath"
)

// Archive writes the subtree of b below root to w as a tar stream. Entry
// names are relative to root, directories first, in name order. The result
// can be read back with New.
func Archive(ctx context.Context, b fs.Backend, root string, w io.Writer) error {
	root = vpath.Normalize(root, vpath.Root)
	st, err := b.StatEntry(ctx, root)
	if err != nil {
		return err
	}
	if !st.IsDir {
		return fs.NewError(fs.ENOTDIR, "archive", root)
	}
	tw := tar.NewWriter(w)
	if err := archiveDir(ctx, b, root, "", tw); err != nil {
		return err
	}
	return tw.Close()
}

func archiveDir(ctx context.Context, b fs.Backend, dir, prefix string, tw *tar.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := b.ListEntries(ctx, dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := vpath.Join(dir, e.Name)
		name := prefix + e.Name
		st, err := b.StatEntry(ctx, p)
		if err != nil {
			return err
		}
		if e.IsDir {
			hdr := &tar.Header{
				Typeflag: tar.TypeDir,
				Name:     name + "/",
				Mode:     0755,
				ModTime:  st.Modified,
			}
			if err := tw.WriteHeader(hdr); err != nil {
				return fmt.Errorf("tarfs: %w", err)
			}
			if err := archiveDir(ctx, b, p, name+"/", tw); err != nil {
				return err
			}
			continue
		}
		data, err := b.ReadEntry(ctx, p)
		if err != nil {
			return err
		}
		hdr := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     name,
			Mode:     0644,
			Size:     int64(data.Len()),
			ModTime:  st.Modified,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("tarfs: %w", err)
		}
		if _, err := tw.Write(data.Bytes()); err != nil {
			return fmt.Errorf("tarfs: %w", err)
		}
	}
	return nil
}
