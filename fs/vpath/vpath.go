// Package vpath canonicalizes slash separated virtual paths.
//
// A canonical path is absolute, rooted at "/", and contains no ".", ".."
// or empty segments and no trailing slash except for the root itself.
// Nothing in this package touches storage and nothing in it fails: ".."
// above the root is clamped to the root.
package vpath

import "strings"

const Root = "/"

// Normalize returns the canonical form of p. Relative paths, including ""
// and ".", are resolved against cwd, which is itself normalized against the
// root first.
func Normalize(p, cwd string) string {
	if strings.HasPrefix(p, "/") {
		return clean(p)
	}
	base := Root
	if cwd != "" {
		base = clean("/" + cwd)
	}
	if p == "" {
		return base
	}
	return clean(base + "/" + p)
}

// Join joins segments onto cwd and normalizes the result. An absolute
// segment resets the path to the root, as in a shell.
func Join(cwd string, segments ...string) string {
	p := Normalize("", cwd)
	for _, s := range segments {
		p = Normalize(s, p)
	}
	return p
}

// Relative returns the shortest path leading from cwd to target, using
// ".." to climb. A relative target is resolved against cwd first. It
// returns "." when both name the same directory.
func Relative(cwd, target string) string {
	cwd = Normalize("", cwd)
	from := Split(cwd)
	to := Split(Normalize(target, cwd))
	i := 0
	for i < len(from) && i < len(to) && from[i] == to[i] {
		i++
	}
	parts := make([]string, 0, len(from)-i+len(to)-i)
	for range from[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[i:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

// Split returns the segments of a canonical path. The root has none.
func Split(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Depth is the number of segments in a canonical path.
func Depth(p string) int {
	if p == Root || p == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(p, "/"), "/")
}

// Dir returns the parent of a canonical path. The parent of the root is
// the root.
func Dir(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i <= 0 {
		return Root
	}
	return p[:i]
}

// Base returns the last segment of a canonical path, or "/" for the root.
func Base(p string) string {
	if p == Root {
		return Root
	}
	return p[strings.LastIndexByte(p, '/')+1:]
}

// HasPrefix reports whether prefix is p or an ancestor of p, comparing on
// segment boundaries: "/mnt" is a prefix of "/mnt/a" but not of "/mntx".
func HasPrefix(p, prefix string) bool {
	if prefix == Root || p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix) && len(p) > len(prefix) && p[len(prefix)] == '/'
}

// TrimPrefix returns p relative to prefix as a canonical path, "/" when
// they are equal. prefix must satisfy HasPrefix.
func TrimPrefix(p, prefix string) string {
	if prefix == Root {
		return p
	}
	rest := strings.TrimPrefix(p, prefix)
	if rest == "" {
		return Root
	}
	return rest
}

// IsHidden reports whether a name is a dotfile.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func clean(p string) string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/")
}
