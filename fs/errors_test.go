package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"strings"
	"syscall"
	"testing"
)

func TestWrapClassifiesForeignErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"not exist", iofs.ErrNotExist, ENOENT},
		{"path error", &os.PathError{Op: "open", Path: "x", Err: syscall.ENOENT}, ENOENT},
		{"exist", iofs.ErrExist, EEXIST},
		{"not dir", syscall.ENOTDIR, ENOTDIR},
		{"is dir", &os.PathError{Op: "open", Path: "x", Err: syscall.EISDIR}, EISDIR},
		{"not empty", syscall.ENOTEMPTY, ENOTEMPTY},
		{"not empty path error", &os.PathError{Op: "remove", Path: "x", Err: syscall.ENOTEMPTY}, ENOTEMPTY},
		{"exist errno", syscall.EEXIST, EEXIST},
		{"busy", syscall.EBUSY, EBUSY},
		{"read-only errno", syscall.EROFS, EROFS},
		{"permission", iofs.ErrPermission, EROFS},
		{"invalid", iofs.ErrInvalid, EINVAL},
		{"other", errors.New("disk on fire"), EIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap("read", "/a", tt.err)
			if got := CodeOf(err); got != tt.want {
				t.Fatalf("CodeOf(%v) = %s, want %s", tt.err, got, tt.want)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("Wrap returned %T, want *Error", err)
			}
			if e.Op != "read" || e.Path != "/a" {
				t.Fatalf("unexpected op/path: %q %q", e.Op, e.Path)
			}
		})
	}
}

func TestWrapKeepsCodeAndRewritesPath(t *testing.T) {
	inner := NewError(EISDIR, "write", "/local")
	err := Wrap("writeFile", "/mnt/local", inner)
	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("expected *Error")
	}
	if e.Code != EISDIR || e.Path != "/mnt/local" || e.Op != "writeFile" {
		t.Fatalf("got %+v", e)
	}
	if Wrap("x", "y", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
}

func TestErrorIs(t *testing.T) {
	if !errors.Is(NewError(ENOENT, "stat", "/a"), iofs.ErrNotExist) {
		t.Error("ENOENT should match fs.ErrNotExist")
	}
	if !errors.Is(NewError(EEXIST, "move", "/a"), iofs.ErrExist) {
		t.Error("EEXIST should match fs.ErrExist")
	}
	if !errors.Is(NewError(EROFS, "write", "/a"), iofs.ErrPermission) {
		t.Error("EROFS should match fs.ErrPermission")
	}
	if !errors.Is(NewError(EBUSY, "rmdir", "/a"), NewError(EBUSY, "", "")) {
		t.Error("same code should match")
	}
	if errors.Is(NewError(ENOTDIR, "chdir", "/a"), iofs.ErrNotExist) {
		t.Error("ENOTDIR should not match fs.ErrNotExist")
	}
}

func TestErrorMessage(t *testing.T) {
	msg := NewError(ESTACKEMPTY, "popd", "").Error()
	if msg != "popd ESTACKEMPTY: directory stack empty" {
		t.Fatalf("unexpected message %q", msg)
	}
	msg = Wrap("stat", "/x", errors.New("boom")).Error()
	if !strings.Contains(msg, "/x") || !strings.Contains(msg, "boom") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestConcat(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Data
		want     string
		wantText bool
	}{
		{"binary+binary", Bytes([]byte{0, 1}), Bytes([]byte{2, 255}), "\x00\x01\x02\xff", false},
		{"text+binary", Text("ab"), Bytes([]byte("cd")), "abcd", true},
		{"binary+text", Bytes([]byte("ab")), Text("cd"), "abcd", true},
		{"text+text", Text("a"), Text("b"), "ab", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Concat(tt.a, tt.b)
			if got.String() != tt.want || got.IsText() != tt.wantText {
				t.Fatalf("Concat = %q (text=%v), want %q (text=%v)", got.String(), got.IsText(), tt.want, tt.wantText)
			}
		})
	}
}
