package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/adrg/xdg"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/boltfs"
	"tractor.dev/assetvfs/fs/memfs"
	"tractor.dev/assetvfs/fs/remotefs"
	"tractor.dev/assetvfs/fs/tarfs"
)

// mountSpec is one --mount value, "/point=kind:arg".
type mountSpec struct {
	point string
	spec  string
}

type mountFlags []mountSpec

func (m *mountFlags) String() string {
	var parts []string
	for _, s := range *m {
		parts = append(parts, s.point+"="+s.spec)
	}
	return strings.Join(parts, ",")
}

func (m *mountFlags) Set(v string) error {
	point, spec, ok := strings.Cut(v, "=")
	if !ok || point == "" {
		return fmt.Errorf("mount %q: expected /point=kind:arg", v)
	}
	*m = append(*m, mountSpec{point: point, spec: spec})
	return nil
}

func (m *mountFlags) Type() string {
	return "mount"
}

// defaultBoltPath is where "bolt:" with no path keeps its database.
func defaultBoltPath() (string, error) {
	return xdg.DataFile("assetvfs/assets.db")
}

// openBackend builds a backend from "kind:arg". Kinds are mem, dir, bolt,
// tar and ws.
func openBackend(ctx context.Context, spec string) (fs.Backend, error) {
	kind, arg, _ := strings.Cut(spec, ":")
	switch kind {
	case "mem":
		return memfs.New(), nil
	case "dir":
		if arg == "" {
			return nil, fmt.Errorf("%s: dir needs a path", spec)
		}
		return memfs.NewDir(arg)
	case "bolt":
		if arg == "" {
			p, err := defaultBoltPath()
			if err != nil {
				return nil, err
			}
			arg = p
		}
		return boltfs.Open(arg, nil)
	case "tar":
		f, err := os.Open(arg)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return tarfs.New(f)
	case "ws":
		return remotefs.Dial(ctx, arg)
	}
	return nil, fmt.Errorf("%s: unknown backend kind %q", spec, kind)
}

func closeBackend(b fs.Backend) {
	if c, ok := b.(fs.Closer); ok {
		c.Close()
	}
}
