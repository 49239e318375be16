package vfs

import (
	"slices"

	"tractor.dev/assetvfs/fs/vpath"
)

// DirStack is a working directory plus the pushd history. It is a value:
// Chdir, Push and Pop return new stacks and never modify the receiver, so
// a stack handed out can't change under its holder.
type DirStack struct {
	cwd   string
	stack []string
}

// NewDirStack returns a stack positioned at the root with no history.
func NewDirStack() DirStack {
	return DirStack{cwd: vpath.Root}
}

func (d DirStack) Cwd() string {
	if d.cwd == "" {
		return vpath.Root
	}
	return d.cwd
}

// Depth is the number of saved directories.
func (d DirStack) Depth() int {
	return len(d.stack)
}

// Entries returns the saved directories, oldest first.
func (d DirStack) Entries() []string {
	return slices.Clone(d.stack)
}

// Chdir returns a stack with dir as the working directory and the same
// history.
func (d DirStack) Chdir(dir string) DirStack {
	return DirStack{cwd: dir, stack: d.stack}
}

// Push saves the current directory and switches to dir.
func (d DirStack) Push(dir string) DirStack {
	stack := make([]string, len(d.stack), len(d.stack)+1)
	copy(stack, d.stack)
	return DirStack{cwd: dir, stack: append(stack, d.Cwd())}
}

// Pop switches back to the most recently saved directory, returning the
// new stack and that directory. ok is false when nothing was saved.
func (d DirStack) Pop() (next DirStack, dir string, ok bool) {
	n := len(d.stack)
	if n == 0 {
		return d, "", false
	}
	dir = d.stack[n-1]
	return DirStack{cwd: dir, stack: d.stack[:n-1:n-1]}, dir, true
}
