package vfs

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/vpath"
	"tractor.dev/assetvfs/internal/glob"
)

// walkConcurrency bounds the directories listed at once by one Glob call.
const walkConcurrency = 8

// GlobOptions adjusts a Glob call. The zero value walks the working
// directory recursively, case sensitively, skipping hidden entries and
// returning both files and directories.
type GlobOptions struct {
	// Cwd is the directory patterns are relative to. Empty means the
	// working directory.
	Cwd string

	// Shallow only considers the direct children of Cwd.
	Shallow bool

	IgnoreCase    bool
	IncludeHidden bool
	ExcludeFiles  bool
	ExcludeDirs   bool

	// Ignore drops any entry matching one of these patterns, even if an
	// include pattern matches it too.
	Ignore []string

	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// GlobResult is one entry matched by Glob.
type GlobResult struct {
	Name    string
	Path    string // relative to the glob cwd
	Abs     string
	Type    fs.EntryType
	Pattern string // the pattern that matched, as passed to Glob
}

// Glob walks the tree below the glob cwd, crossing mount points, and
// returns the entries matching any of patterns sorted by relative path.
// Patterns starting with "/" match the absolute path of an entry; other
// patterns match the path relative to the glob cwd.
func (v *VFS) Glob(ctx context.Context, patterns []string, opts GlobOptions) ([]GlobResult, error) {
	results := []GlobResult{}
	include := v.globs.compile(patterns, opts.IgnoreCase)
	if include.Len() == 0 {
		return results, nil
	}
	ignore := v.globs.compile(opts.Ignore, opts.IgnoreCase)

	cwd := v.dirs.Cwd()
	if opts.Cwd != "" {
		cwd = v.Abs(opts.Cwd)
	}
	st, err := v.stat(ctx, cwd)
	if fs.IsCode(err, fs.ENOENT) || (err == nil && !st.IsDir) {
		return results, nil
	}
	if err != nil {
		return nil, fs.Wrap("glob", cwd, err)
	}

	maxDepth := include.MaxDepth()
	if opts.Shallow {
		maxDepth = 1
	}
	if maxDepth == 0 {
		return results, nil
	}

	w := &globWalk{
		vfs:      v,
		opts:     opts,
		include:  include,
		ignore:   ignore,
		maxDepth: maxDepth,
	}
	w.g, ctx = errgroup.WithContext(ctx)
	w.g.SetLimit(walkConcurrency)
	w.g.Go(func() error {
		return w.walk(ctx, cwd, "", 0)
	})
	if err := w.g.Wait(); err != nil {
		return nil, fs.Wrap("glob", cwd, err)
	}

	results = w.results
	if results == nil {
		results = []GlobResult{}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	v.log.Debug("glob", "cwd", cwd, "patterns", patterns, "matches", len(results))
	return results, nil
}

type globWalk struct {
	vfs      *VFS
	opts     GlobOptions
	include  *glob.Set
	ignore   *glob.Set
	maxDepth int
	g        *errgroup.Group

	mu      sync.Mutex
	results []GlobResult
}

// walk visits the children of dir, which sits depth segments below the
// glob cwd at the relative path rel.
func (w *globWalk) walk(ctx context.Context, dir, rel string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := w.vfs.ReadDir(ctx, dir)
	if err != nil {
		if depth > 0 && fs.IsCode(err, fs.ENOENT) {
			// removed while walking
			return nil
		}
		return err
	}
	for _, e := range entries {
		if !w.opts.IncludeHidden && vpath.IsHidden(e.Name) {
			continue
		}
		childRel := e.Name
		if rel != "" {
			childRel = rel + "/" + e.Name
		}
		childAbs := vpath.Join(dir, e.Name)
		w.visit(e, childRel, childAbs)

		if !e.IsDir || (w.maxDepth > 0 && depth+1 >= w.maxDepth) {
			continue
		}
		next := func() error {
			return w.walk(ctx, childAbs, childRel, depth+1)
		}
		if !w.g.TryGo(next) {
			if err := next(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *globWalk) visit(e fs.DirEntry, rel, abs string) {
	if (e.IsDir && w.opts.ExcludeDirs) || (!e.IsDir && w.opts.ExcludeFiles) {
		return
	}
	source, ok := w.include.Match(rel, abs)
	if !ok {
		return
	}
	if _, ignored := w.ignore.Match(rel, abs); ignored {
		return
	}
	typ := fs.TypeFile
	if e.IsDir {
		typ = fs.TypeDir
	}
	w.mu.Lock()
	w.results = append(w.results, GlobResult{
		Name:    e.Name,
		Path:    rel,
		Abs:     abs,
		Type:    typ,
		Pattern: source,
	})
	w.mu.Unlock()
}

type globKey struct {
	pattern    string
	ignoreCase bool
}

// globCache keeps compiled patterns for one VFS. It is cleared whenever it
// grows past max.
type globCache struct {
	mu   sync.Mutex
	max  int
	sets map[globKey]*glob.Set
}

func newGlobCache(max int) *globCache {
	if max < 1 {
		max = 1
	}
	return &globCache{max: max, sets: make(map[globKey]*glob.Set)}
}

// compile returns the union of patterns, skipping empty ones.
func (c *globCache) compile(patterns []string, ignoreCase bool) *glob.Set {
	var sets []*glob.Set
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		sets = append(sets, c.get(p, ignoreCase))
	}
	return glob.Union(sets...)
}

func (c *globCache) get(pattern string, ignoreCase bool) *glob.Set {
	k := globKey{pattern, ignoreCase}
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sets[k]; ok {
		return s
	}
	if len(c.sets) >= c.max {
		clear(c.sets)
	}
	s := glob.Compile(pattern, ignoreCase)
	c.sets[k] = s
	return s
}

// Len returns the number of cached patterns.
func (c *globCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sets)
}
