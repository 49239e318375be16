package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"tractor.dev/toolkit-go/engine/cli"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/remotefs"
	"tractor.dev/assetvfs/fs/tarfs"
	"tractor.dev/assetvfs/vfs"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func lsCmd() *cli.Command {
	var opts options
	cmd := &cli.Command{
		Usage: "ls [path]",
		Short: "list a directory",
		Args:  cli.MaxArgs(1),
		Run: func(_ *cli.Context, args []string) {
			ctx, cancel := signalContext()
			defer cancel()
			v, done := opts.open(ctx)
			defer done()

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			entries, err := v.ReadDir(ctx, dir)
			fatal(err)
			var rows [][]string
			for _, e := range entries {
				st, err := v.Stat(ctx, v.Abs(dir)+"/"+e.Name)
				fatal(err)
				size := "-"
				name := e.Name
				if e.IsDir {
					name += "/"
				} else {
					size = humanize.Bytes(uint64(st.Size))
				}
				modified := "-"
				if !st.Modified.IsZero() {
					modified = humanize.Time(st.Modified)
				}
				rows = append(rows, []string{name, size, modified})
			}
			printTable(rows)
		},
	}
	opts.register(cmd)
	return cmd
}

func catCmd() *cli.Command {
	var opts options
	cmd := &cli.Command{
		Usage: "cat <path>",
		Short: "print a file",
		Args:  cli.ExactArgs(1),
		Run: func(_ *cli.Context, args []string) {
			ctx, cancel := signalContext()
			defer cancel()
			v, done := opts.open(ctx)
			defer done()

			d, err := v.ReadFile(ctx, args[0])
			fatal(err)
			os.Stdout.Write(d.Bytes())
		},
	}
	opts.register(cmd)
	return cmd
}

func statCmd() *cli.Command {
	var opts options
	cmd := &cli.Command{
		Usage: "stat <path>",
		Short: "describe a file or directory",
		Args:  cli.ExactArgs(1),
		Run: func(_ *cli.Context, args []string) {
			ctx, cancel := signalContext()
			defer cancel()
			v, done := opts.open(ctx)
			defer done()

			st, err := v.Stat(ctx, args[0])
			fatal(err)
			r := v.Resolve(args[0])
			printTable([][]string{
				{"path", v.Abs(args[0])},
				{"type", st.Type().String()},
				{"size", fmt.Sprintf("%s (%d bytes)", humanize.Bytes(uint64(st.Size)), st.Size)},
				{"created", st.Created.Format(time.RFC3339)},
				{"modified", st.Modified.Format(time.RFC3339)},
				{"mount", r.MountPoint},
				{"local", r.Local},
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func globCmd() *cli.Command {
	var (
		opts     options
		globOpts vfs.GlobOptions
		ignore   string
	)
	cmd := &cli.Command{
		Usage: "glob <pattern>...",
		Short: "find entries matching glob patterns",
		Args:  cli.MinArgs(1),
		Run: func(_ *cli.Context, args []string) {
			ctx, cancel := signalContext()
			defer cancel()
			v, done := opts.open(ctx)
			defer done()

			if ignore != "" {
				globOpts.Ignore = strings.Split(ignore, ",")
			}
			results, err := v.Glob(ctx, args, globOpts)
			fatal(err)
			for _, r := range results {
				if r.Type == fs.TypeDir {
					fmt.Println(r.Path + "/")
					continue
				}
				fmt.Println(r.Path)
			}
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&ignore, "ignore", "", "comma separated patterns to leave out")
	cmd.Flags().IntVar(&globOpts.Limit, "limit", 0, "stop after this many results")
	cmd.Flags().BoolVar(&globOpts.IncludeHidden, "hidden", false, "include dotfiles")
	cmd.Flags().BoolVar(&globOpts.Shallow, "shallow", false, "only match direct children")
	cmd.Flags().BoolVar(&globOpts.IgnoreCase, "icase", false, "match case insensitively")
	cmd.Flags().BoolVar(&globOpts.ExcludeDirs, "files", false, "only match files")
	cmd.Flags().BoolVar(&globOpts.ExcludeFiles, "dirs", false, "only match directories")
	return cmd
}

func mountsCmd() *cli.Command {
	var opts options
	cmd := &cli.Command{
		Usage: "mounts",
		Short: "show the mount table",
		Args:  cli.MaxArgs(0),
		Run: func(_ *cli.Context, args []string) {
			ctx, cancel := signalContext()
			defer cancel()
			v, done := opts.open(ctx)
			defer done()

			rows := [][]string{{"MOUNT", "BACKEND", "MODE"}}
			for _, m := range v.Mounts() {
				rows = append(rows, []string{m.MountPoint, fmt.Sprintf("%T", m.Backend), mode(m.Backend)})
			}
			rows = append(rows, []string{"/", opts.root, mode(v.Resolve("/").Backend)})
			printTable(rows)
		},
	}
	opts.register(cmd)
	return cmd
}

func mode(b fs.Backend) string {
	if b.IsReadOnly() {
		return "ro"
	}
	return "rw"
}

func packCmd() *cli.Command {
	var opts options
	cmd := &cli.Command{
		Usage: "pack <dir> <out.tar>",
		Short: "archive a directory of one mount as a tar file",
		Args:  cli.ExactArgs(2),
		Run: func(_ *cli.Context, args []string) {
			ctx, cancel := signalContext()
			defer cancel()
			v, done := opts.open(ctx)
			defer done()

			f, err := os.Create(args[1])
			fatal(err)
			defer f.Close()
			r := v.Resolve(args[0])
			fatal(tarfs.Archive(ctx, r.Backend, r.Local, f))
			st, err := f.Stat()
			fatal(err)
			log.Printf("wrote %s (%s)", args[1], humanize.Bytes(uint64(st.Size())))
		},
	}
	opts.register(cmd)
	return cmd
}

func serveCmd() *cli.Command {
	var (
		opts options
		addr string
	)
	cmd := &cli.Command{
		Usage: "serve",
		Short: "export the root backend over a websocket",
		Args:  cli.MaxArgs(0),
		Run: func(_ *cli.Context, args []string) {
			ctx, cancel := signalContext()
			defer cancel()
			v, done := opts.open(ctx)
			defer done()

			b := v.Resolve("/").Backend
			if opts.readOnly {
				b = fs.ReadOnly(b)
			}
			srv := &http.Server{
				Addr:    addr,
				Handler: remotefs.Handler(b, opts.logger()),
			}
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdown)
			}()
			log.Printf("serving on ws://%s", addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				fatal(err)
			}
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "localhost:7070", "address to listen on")
	return cmd
}

func printTable(data [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(data)
	table.Render()
}
