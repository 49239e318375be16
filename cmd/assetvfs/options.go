package main

import (
	"context"
	"log/slog"
	"os"

	"tractor.dev/toolkit-go/engine/cli"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/internal/slogger"
	"tractor.dev/assetvfs/vfs"
)

// options are the flags every command accepts to assemble its VFS.
type options struct {
	root     string
	mounts   mountFlags
	cwd      string
	logLevel string
	readOnly bool
}

func (o *options) register(cmd *cli.Command) {
	cmd.Flags().StringVar(&o.root, "root", "mem:", "backend mounted at /, as kind:arg")
	cmd.Flags().Var(&o.mounts, "mount", "mount a backend, as /point=kind:arg (repeatable)")
	cmd.Flags().StringVar(&o.cwd, "cwd", "/", "working directory")
	cmd.Flags().StringVar(&o.logLevel, "log-level", os.Getenv("ASSETVFS_LOG"), "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&o.readOnly, "read-only", false, "reject every mutation")
}

func (o *options) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.logLevel != "" {
		l, err := slogger.ParseLevel(o.logLevel)
		fatal(err)
		level = l
	}
	return slogger.New(level)
}

// open builds the VFS described by the flags. The returned function
// releases every backend.
func (o *options) open(ctx context.Context) (*vfs.VFS, func()) {
	logger := o.logger()
	root, err := openBackend(ctx, o.root)
	fatal(err)
	backends := []fs.Backend{root}

	opts := []vfs.Option{vfs.WithName("assetvfs"), vfs.WithLogger(logger)}
	if o.readOnly {
		opts = append(opts, vfs.WithReadOnly())
	}
	v := vfs.New(root, opts...)
	for _, m := range o.mounts {
		b, err := openBackend(ctx, m.spec)
		fatal(err)
		backends = append(backends, b)
		fatal(v.Mount(m.point, b))
	}
	fatal(v.Chdir(ctx, o.cwd))

	for _, b := range backends {
		if l, ok := b.(interface{ SetLogger(*slog.Logger) }); ok {
			l.SetLogger(logger)
		}
	}
	return v, func() {
		for _, b := range backends {
			closeBackend(b)
		}
	}
}
