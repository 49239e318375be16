package fs

import (
	"errors"
	iofs "io/fs"
	"syscall"
)

// Code is a machine readable error code carried by every Error.
type Code string

const (
	ENOENT      Code = "ENOENT"      // missing path
	ENOTDIR     Code = "ENOTDIR"     // expected a directory, got a file
	EISDIR      Code = "EISDIR"      // expected a file, got a directory
	EEXIST      Code = "EEXIST"      // destination exists
	EROFS       Code = "EROFS"       // mutation on a read-only target
	EIO         Code = "EIO"         // generic backend failure
	ESTACKEMPTY Code = "ESTACKEMPTY" // popd on an empty directory stack
	ENOTEMPTY   Code = "ENOTEMPTY"
	EBUSY       Code = "EBUSY"
	EINVAL      Code = "EINVAL"
)

var descriptions = map[Code]string{
	ENOENT:      "no such file or directory",
	ENOTDIR:     "not a directory",
	EISDIR:      "is a directory",
	EEXIST:      "file exists",
	EROFS:       "read-only file system",
	EIO:         "input/output error",
	ESTACKEMPTY: "directory stack empty",
	ENOTEMPTY:   "directory not empty",
	EBUSY:       "mount point busy",
	EINVAL:      "invalid argument",
}

func (c Code) String() string {
	return string(c)
}

// Description returns the human readable meaning of the code.
func (c Code) Description() string {
	if d, ok := descriptions[c]; ok {
		return d
	}
	return "unknown error"
}

// Error is the single error type returned by backends and the VFS.
type Error struct {
	Code Code
	Op   string
	Path string
	Err  error
}

// NewError returns an Error without an underlying cause.
func NewError(code Code, op, path string) *Error {
	return &Error{Code: code, Op: op, Path: path}
}

func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.Code.Description()
	if e.Err != nil {
		s = string(e.Code) + ": " + e.Err.Error()
	}
	if e.Path != "" {
		s = e.Path + ": " + s
	}
	if e.Op != "" {
		s = e.Op + " " + s
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an Error with the same code or the io/fs
// sentinel corresponding to the code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Code == e.Code
	}
	switch e.Code {
	case ENOENT:
		return target == iofs.ErrNotExist
	case EEXIST:
		return target == iofs.ErrExist
	case EROFS:
		return target == iofs.ErrPermission
	case EINVAL:
		return target == iofs.ErrInvalid
	}
	return false
}

// Wrap translates err into an *Error for op on path. An *Error keeps its
// code but takes the new op and path; foreign errors are classified by
// codeFor and default to EIO.
func Wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return &Error{Code: e.Code, Op: op, Path: path, Err: e.Err}
	}
	return &Error{Code: codeFor(err), Op: op, Path: path, Err: err}
}

// CodeOf returns the code carried by err, EIO for foreign errors and the
// empty code for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return codeFor(err)
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// codeFor checks specific errnos first: syscall.Errno reports ENOTEMPTY as
// io/fs.ErrExist.
func codeFor(err error) Code {
	switch {
	case errors.Is(err, syscall.ENOTEMPTY):
		return ENOTEMPTY
	case errors.Is(err, syscall.ENOTDIR):
		return ENOTDIR
	case errors.Is(err, syscall.EISDIR):
		return EISDIR
	case errors.Is(err, syscall.EBUSY):
		return EBUSY
	case errors.Is(err, syscall.EROFS):
		return EROFS
	case errors.Is(err, iofs.ErrNotExist):
		return ENOENT
	case errors.Is(err, iofs.ErrExist):
		return EEXIST
	case errors.Is(err, iofs.ErrPermission):
		return EROFS
	case errors.Is(err, iofs.ErrInvalid):
		return EINVAL
	}
	return EIO
}
