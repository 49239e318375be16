package vfs

import (
	"slices"
	"testing"
)

func TestDirStackPushPop(t *testing.T) {
	s := NewDirStack()
	if s.Cwd() != "/" || s.Depth() != 0 {
		t.Fatalf("unexpected initial stack: %q %d", s.Cwd(), s.Depth())
	}

	a := s.Push("/a")
	b := a.Push("/b")
	if b.Cwd() != "/b" || !slices.Equal(b.Entries(), []string{"/", "/a"}) {
		t.Fatalf("unexpected stack after pushes: %q %v", b.Cwd(), b.Entries())
	}

	next, dir, ok := b.Pop()
	if !ok || dir != "/a" || next.Cwd() != "/a" || next.Depth() != 1 {
		t.Fatalf("unexpected pop: %v %q %q %d", ok, dir, next.Cwd(), next.Depth())
	}

	// the original values are unchanged
	if a.Cwd() != "/a" || a.Depth() != 1 || b.Depth() != 2 {
		t.Fatal("push or pop modified its receiver")
	}

	_, _, ok = s.Pop()
	if ok {
		t.Fatal("expected pop of empty stack to fail")
	}
}

func TestDirStackIndependentBranches(t *testing.T) {
	base := NewDirStack().Push("/a")
	x := base.Push("/x")
	y := base.Push("/y")
	if !slices.Equal(x.Entries(), []string{"/", "/a"}) || !slices.Equal(y.Entries(), []string{"/", "/a"}) {
		t.Fatalf("branches share history: %v %v", x.Entries(), y.Entries())
	}
	popped, _, _ := x.Pop()
	again := popped.Push("/z")
	if x.Cwd() != "/x" || !slices.Equal(x.Entries(), []string{"/", "/a"}) {
		t.Fatalf("push after pop changed an earlier stack: %q %v", x.Cwd(), x.Entries())
	}
	if !slices.Equal(again.Entries(), []string{"/", "/a"}) {
		t.Fatalf("unexpected entries: %v", again.Entries())
	}

	entries := x.Entries()
	entries[0] = "/mutated"
	if x.Entries()[0] != "/" {
		t.Fatal("Entries exposed internal state")
	}
}

func TestDirStackChdirKeepsHistory(t *testing.T) {
	s := NewDirStack().Push("/a").Chdir("/c")
	if s.Cwd() != "/c" || !slices.Equal(s.Entries(), []string{"/"}) {
		t.Fatalf("unexpected stack: %q %v", s.Cwd(), s.Entries())
	}
}
