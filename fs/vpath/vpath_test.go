package vpath

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		path string
		cwd  string
		want string
	}{
		{"", "/", "/"},
		{"", "/home/user", "/home/user"},
		{".", "/home/user", "/home/user"},
		{"..", "/home/user", "/home"},
		{"..", "/", "/"},
		{"../../../..", "/a/b", "/"},
		{"docs", "/home", "/home/docs"},
		{"./docs/../img", "/home", "/home/img"},
		{"/abs//path///", "/home", "/abs/path"},
		{"a/./b/./c/", "/", "/a/b/c"},
		{"/..", "/x", "/"},
		{"file.txt", "relative/cwd", "/relative/cwd/file.txt"},
		{"x", "", "/x"},
		{"//", "/a", "/"},
		{"..hidden", "/a", "/a/..hidden"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.path, tt.cwd); got != tt.want {
			t.Errorf("Normalize(%q, %q) = %q, want %q", tt.path, tt.cwd, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	paths := []string{"", ".", "..", "a/b/../c", "/x//y/", "../../..", "./a/./b", "/"}
	cwds := []string{"/", "/a", "/a/b/c", "rel"}
	for _, cwd := range cwds {
		for _, p := range paths {
			once := Normalize(p, cwd)
			if twice := Normalize(once, cwd); twice != once {
				t.Errorf("Normalize not idempotent for (%q, %q): %q then %q", p, cwd, once, twice)
			}
		}
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		cwd  string
		segs []string
		want string
	}{
		{"/", nil, "/"},
		{"/a", []string{"b", "c"}, "/a/b/c"},
		{"/a", []string{"b", "..", "c"}, "/a/c"},
		{"/a", []string{"/x", "y"}, "/x/y"},
		{"/a/b", []string{"../../.."}, "/"},
	}
	for _, tt := range tests {
		if got := Join(tt.cwd, tt.segs...); got != tt.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tt.cwd, tt.segs, got, tt.want)
		}
	}
}

func TestRelative(t *testing.T) {
	tests := []struct {
		cwd, target, want string
	}{
		{"/a", "/a", "."},
		{"/", "/", "."},
		{"/a", "/a/b/c", "b/c"},
		{"/a/b", "/a", ".."},
		{"/a/b/c", "/a/x", "../../x"},
		{"/a", "/b", "../b"},
		{"/", "/x/y", "x/y"},
		{"/x/y", "/", "../.."},
		{"/a", "b/c", "b/c"},
		{"/a/b", "../x", "../x"},
		{"/a/b", "", "."},
		{"/a/b", "..", ".."},
	}
	for _, tt := range tests {
		if got := Relative(tt.cwd, tt.target); got != tt.want {
			t.Errorf("Relative(%q, %q) = %q, want %q", tt.cwd, tt.target, got, tt.want)
		}
	}
}

func TestRelativeInvertsJoin(t *testing.T) {
	for _, cwd := range []string{"/", "/a", "/a/b"} {
		for _, x := range []string{"f", "d/f", "d/e/f.txt"} {
			if got := Relative(cwd, Join(cwd, x)); got != x {
				t.Errorf("Relative(%q, Join(%q, %q)) = %q", cwd, cwd, x, got)
			}
		}
	}
}

func TestSegments(t *testing.T) {
	if got := Split("/"); got != nil {
		t.Errorf("Split(/) = %v", got)
	}
	if got := Split("/a/b"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Split(/a/b) = %v", got)
	}
	if Depth("/") != 0 || Depth("/a") != 1 || Depth("/a/b/c") != 3 {
		t.Error("unexpected Depth")
	}
	if Dir("/a/b") != "/a" || Dir("/a") != "/" || Dir("/") != "/" {
		t.Error("unexpected Dir")
	}
	if Base("/a/b") != "b" || Base("/") != "/" {
		t.Error("unexpected Base")
	}
}

func TestHasPrefix(t *testing.T) {
	tests := []struct {
		p, prefix string
		want      bool
	}{
		{"/mnt/a", "/mnt", true},
		{"/mnt", "/mnt", true},
		{"/mntx", "/mnt", false},
		{"/anything", "/", true},
		{"/mn", "/mnt", false},
	}
	for _, tt := range tests {
		if got := HasPrefix(tt.p, tt.prefix); got != tt.want {
			t.Errorf("HasPrefix(%q, %q) = %v", tt.p, tt.prefix, got)
		}
	}
	if TrimPrefix("/mnt/a/b", "/mnt") != "/a/b" || TrimPrefix("/mnt", "/mnt") != "/" || TrimPrefix("/x", "/") != "/x" {
		t.Error("unexpected TrimPrefix")
	}
}
