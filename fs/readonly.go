package fs

import "context"

type readOnlyFS struct {
	Backend
}

// ReadOnly wraps b so that every mutation fails with EROFS. Reads are
// passed through.
func ReadOnly(b Backend) Backend {
	if b.IsReadOnly() {
		return b
	}
	return readOnlyFS{Backend: b}
}

func (readOnlyFS) IsReadOnly() bool {
	return true
}

func (readOnlyFS) WriteEntry(ctx context.Context, name string, data Data) error {
	return NewError(EROFS, "write", name)
}

func (readOnlyFS) DeleteEntry(ctx context.Context, name string) error {
	return NewError(EROFS, "delete", name)
}

func (readOnlyFS) MakeDirectory(ctx context.Context, name string) error {
	return NewError(EROFS, "mkdir", name)
}

func (readOnlyFS) Wipe(ctx context.Context) error {
	return NewError(EROFS, "wipe", "/")
}
