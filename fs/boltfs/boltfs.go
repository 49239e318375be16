// Package boltfs is a persistent backend storing each entry as a record in
// a bbolt database bucket, keyed by its canonical path.
package boltfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/vpath"
)

const DefaultBucket = "assetvfs"

type Options struct {
	// Bucket holds the entries. Several backends can share one database
	// file by using different buckets.
	Bucket string

	// Timeout bounds the wait for the database file lock. Zero waits
	// forever.
	Timeout time.Duration

	// ReadOnly opens the database read-only; every mutation fails with
	// EROFS.
	ReadOnly bool
}

// record is the stored form of an entry. The root directory is implicit
// and never stored.
type record struct {
	Dir      bool      `cbor:"dir,omitempty"`
	Text     bool      `cbor:"text,omitempty"`
	Data     []byte    `cbor:"data,omitempty"`
	Created  time.Time `cbor:"created"`
	Modified time.Time `cbor:"modified"`
}

type FS struct {
	db       *bolt.DB
	bucket   []byte
	readOnly bool
	log      *slog.Logger
}

var (
	_ fs.Backend = (*FS)(nil)
	_ fs.Renamer = (*FS)(nil)
	_ fs.Closer  = (*FS)(nil)
)

// Open opens or creates the database at path. opts may be nil.
func Open(path string, opts *Options) (*FS, error) {
	if opts == nil {
		opts = &Options{}
	}
	bucket := opts.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: opts.Timeout, ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("boltfs: open %s: %w", path, err)
	}
	fsys := &FS{
		db:       db,
		bucket:   []byte(bucket),
		readOnly: opts.ReadOnly,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if !opts.ReadOnly {
		err := db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(fsys.bucket)
			return err
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("boltfs: create bucket: %w", err)
		}
	}
	return fsys, nil
}

func (fsys *FS) SetLogger(logger *slog.Logger) {
	fsys.log = logger
}

func (fsys *FS) Close() error {
	return fsys.db.Close()
}

func (fsys *FS) IsReadOnly() bool {
	return fsys.readOnly
}

func (fsys *FS) view(fn func(b *bolt.Bucket) error) error {
	return fsys.db.View(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(fsys.bucket))
	})
}

func (fsys *FS) update(op, name string, fn func(b *bolt.Bucket) error) error {
	if fsys.readOnly {
		return fs.NewError(fs.EROFS, op, name)
	}
	return fsys.db.Update(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(fsys.bucket))
	})
}

// get loads the record for a canonical name. b may be nil when a
// read-only database has no bucket yet.
func get(b *bolt.Bucket, name string) (record, bool, error) {
	if name == vpath.Root {
		return record{Dir: true}, true, nil
	}
	if b == nil {
		return record{}, false, nil
	}
	v := b.Get([]byte(name))
	if v == nil {
		return record{}, false, nil
	}
	var rec record
	if err := cbor.Unmarshal(bytes.Clone(v), &rec); err != nil {
		return record{}, false, fmt.Errorf("boltfs: decode %s: %w", name, err)
	}
	return rec, true, nil
}

func put(b *bolt.Bucket, name string, rec record) error {
	v, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("boltfs: encode %s: %w", name, err)
	}
	return b.Put([]byte(name), v)
}

// lookup returns the record at name or ENOENT.
func lookup(b *bolt.Bucket, op, name string) (record, error) {
	rec, ok, err := get(b, name)
	if err != nil {
		return record{}, err
	}
	if !ok {
		return record{}, fs.NewError(fs.ENOENT, op, name)
	}
	return rec, nil
}

// checkParent requires the parent of name to be a stored directory.
func checkParent(b *bolt.Bucket, op, name string) error {
	dir := vpath.Dir(name)
	rec, err := lookup(b, op, dir)
	if err != nil {
		return err
	}
	if !rec.Dir {
		return fs.NewError(fs.ENOTDIR, op, dir)
	}
	return nil
}

// childPrefix is the key prefix shared by everything below dir.
func childPrefix(dir string) string {
	if dir == vpath.Root {
		return vpath.Root
	}
	return dir + "/"
}

// descendants returns the keys strictly below dir in key order.
func descendants(b *bolt.Bucket, dir string) [][]byte {
	if b == nil {
		return nil
	}
	prefix := []byte(childPrefix(dir))
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		if string(k) == vpath.Root {
			continue
		}
		keys = append(keys, bytes.Clone(k))
	}
	return keys
}

func (fsys *FS) ReadEntry(ctx context.Context, name string) (data fs.Data, err error) {
	name = vpath.Normalize(name, vpath.Root)
	err = fsys.view(func(b *bolt.Bucket) error {
		rec, err := lookup(b, "read", name)
		if err != nil {
			return err
		}
		if rec.Dir {
			return fs.NewError(fs.EISDIR, "read", name)
		}
		data = fs.Raw(rec.Data, rec.Text)
		return nil
	})
	return data, fs.Wrap("read", name, err)
}

func (fsys *FS) WriteEntry(ctx context.Context, name string, data fs.Data) (err error) {
	defer func() {
		fsys.log.Debug("write", "name", name, "size", data.Len(), "err", err)
	}()
	name = vpath.Normalize(name, vpath.Root)
	err = fsys.update("write", name, func(b *bolt.Bucket) error {
		if err := checkParent(b, "write", name); err != nil {
			return err
		}
		now := time.Now()
		rec, ok, err := get(b, name)
		if err != nil {
			return err
		}
		if ok && rec.Dir {
			return fs.NewError(fs.EISDIR, "write", name)
		}
		if !ok {
			rec.Created = now
		}
		rec.Text = data.IsText()
		rec.Data = data.Bytes()
		rec.Modified = now
		return put(b, name, rec)
	})
	return fs.Wrap("write", name, err)
}

func (fsys *FS) DeleteEntry(ctx context.Context, name string) (err error) {
	defer func() {
		fsys.log.Debug("delete", "name", name, "err", err)
	}()
	name = vpath.Normalize(name, vpath.Root)
	if name == vpath.Root {
		return fs.NewError(fs.EINVAL, "delete", name)
	}
	err = fsys.update("delete", name, func(b *bolt.Bucket) error {
		rec, err := lookup(b, "delete", name)
		if err != nil {
			return err
		}
		if rec.Dir && len(descendants(b, name)) > 0 {
			return fs.NewError(fs.ENOTEMPTY, "delete", name)
		}
		return b.Delete([]byte(name))
	})
	return fs.Wrap("delete", name, err)
}

func (fsys *FS) ListEntries(ctx context.Context, dir string) (entries []fs.DirEntry, err error) {
	dir = vpath.Normalize(dir, vpath.Root)
	err = fsys.view(func(b *bolt.Bucket) error {
		rec, err := lookup(b, "list", dir)
		if err != nil {
			return err
		}
		if !rec.Dir {
			return fs.NewError(fs.ENOTDIR, "list", dir)
		}
		prefix := childPrefix(dir)
		entries = []fs.DirEntry{}
		for _, k := range descendants(b, dir) {
			rest := strings.TrimPrefix(string(k), prefix)
			if strings.Contains(rest, "/") {
				continue
			}
			child, _, err := get(b, string(k))
			if err != nil {
				return err
			}
			entries = append(entries, fs.DirEntry{Name: rest, IsDir: child.Dir})
		}
		return nil
	})
	if err != nil {
		return nil, fs.Wrap("list", dir, err)
	}
	return entries, nil
}

func (fsys *FS) StatEntry(ctx context.Context, name string) (st fs.Stat, err error) {
	name = vpath.Normalize(name, vpath.Root)
	err = fsys.view(func(b *bolt.Bucket) error {
		rec, err := lookup(b, "stat", name)
		if err != nil {
			return err
		}
		st = fs.Stat{
			IsFile:   !rec.Dir,
			IsDir:    rec.Dir,
			Size:     int64(len(rec.Data)),
			Created:  rec.Created,
			Modified: rec.Modified,
		}
		return nil
	})
	return st, fs.Wrap("stat", name, err)
}

func (fsys *FS) MakeDirectory(ctx context.Context, name string) (err error) {
	defer func() {
		fsys.log.Debug("mkdir", "name", name, "err", err)
	}()
	name = vpath.Normalize(name, vpath.Root)
	err = fsys.update("mkdir", name, func(b *bolt.Bucket) error {
		if _, ok, err := get(b, name); err != nil {
			return err
		} else if ok {
			return fs.NewError(fs.EEXIST, "mkdir", name)
		}
		if err := checkParent(b, "mkdir", name); err != nil {
			return err
		}
		now := time.Now()
		return put(b, name, record{Dir: true, Created: now, Modified: now})
	})
	return fs.Wrap("mkdir", name, err)
}

// RenameEntry moves an entry and, for directories, every key below it in
// a single transaction.
func (fsys *FS) RenameEntry(ctx context.Context, oldname, newname string) (err error) {
	defer func() {
		fsys.log.Debug("rename", "oldname", oldname, "newname", newname, "err", err)
	}()
	oldname = vpath.Normalize(oldname, vpath.Root)
	newname = vpath.Normalize(newname, vpath.Root)
	if oldname == newname {
		return nil
	}
	if fsys.readOnly {
		return fs.NewError(fs.EROFS, "rename", oldname)
	}
	if oldname == vpath.Root || vpath.HasPrefix(newname, oldname) {
		return fs.NewError(fs.EINVAL, "rename", newname)
	}
	err = fsys.update("rename", oldname, func(b *bolt.Bucket) error {
		rec, err := lookup(b, "rename", oldname)
		if err != nil {
			return err
		}
		if _, ok, err := get(b, newname); err != nil {
			return err
		} else if ok {
			return fs.NewError(fs.EEXIST, "rename", newname)
		}
		if err := checkParent(b, "rename", newname); err != nil {
			return err
		}
		keys := [][]byte{[]byte(oldname)}
		if rec.Dir {
			keys = append(keys, descendants(b, oldname)...)
		}
		for _, k := range keys {
			v := bytes.Clone(b.Get(k))
			target := newname + strings.TrimPrefix(string(k), oldname)
			if err := b.Put([]byte(target), v); err != nil {
				return err
			}
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return fs.Wrap("rename", oldname, err)
}

// Wipe drops and recreates the bucket.
func (fsys *FS) Wipe(ctx context.Context) error {
	if fsys.readOnly {
		return fs.NewError(fs.EROFS, "wipe", vpath.Root)
	}
	err := fsys.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(fsys.bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(fsys.bucket)
		return err
	})
	return fs.Wrap("wipe", vpath.Root, err)
}
