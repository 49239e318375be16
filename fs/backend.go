// Package fs defines the storage contract every backend satisfies, the Data
// payload type and the Error type shared by backends and the VFS.
//
// Backend paths are canonical, slash separated and rooted at "/", which is
// always a directory. The VFS hands each backend paths local to its mount
// point, so a backend never sees the logical tree it is mounted into.
package fs

import (
	"context"
	"sort"
	"time"
)

// Backend is the minimal set of primitives a storage engine exposes.
type Backend interface {
	// ReadEntry returns the content of the file at name.
	ReadEntry(ctx context.Context, name string) (Data, error)

	// WriteEntry creates or replaces the file at name. The parent directory
	// must exist.
	WriteEntry(ctx context.Context, name string, data Data) error

	// DeleteEntry removes a file or an empty directory.
	DeleteEntry(ctx context.Context, name string) error

	// ListEntries returns the direct children of dir.
	ListEntries(ctx context.Context, dir string) ([]DirEntry, error)

	// StatEntry describes the entry at name.
	StatEntry(ctx context.Context, name string) (Stat, error)

	// MakeDirectory creates a single directory whose parent exists.
	MakeDirectory(ctx context.Context, name string) error

	IsReadOnly() bool

	// Wipe resets the backend to an empty root.
	Wipe(ctx context.Context) error
}

// Renamer is implemented by backends that can move an entry, including a
// directory subtree, natively.
type Renamer interface {
	Backend
	RenameEntry(ctx context.Context, oldname, newname string) error
}

// Closer is implemented by backends holding resources such as open
// database files or network connections.
type Closer interface {
	Close() error
}

// Stat describes a file or directory.
type Stat struct {
	IsFile   bool
	IsDir    bool
	Size     int64
	Created  time.Time
	Modified time.Time
}

// Type returns the EntryType for the stat.
func (s Stat) Type() EntryType {
	if s.IsDir {
		return TypeDir
	}
	return TypeFile
}

// DirEntry is one child returned by ListEntries.
type DirEntry struct {
	Name  string
	IsDir bool
}

// EntryType distinguishes files from directories in listings and results.
type EntryType int

const (
	TypeFile EntryType = iota
	TypeDir
)

func (t EntryType) String() string {
	if t == TypeDir {
		return "directory"
	}
	return "file"
}

// SortEntries sorts entries by name in place.
func SortEntries(entries []DirEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
}
