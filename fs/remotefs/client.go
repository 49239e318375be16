package remotefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"

	"tractor.dev/assetvfs/fs"
	"tractor.dev/assetvfs/fs/vpath"
)

// Client is a backend whose entries live in a backend served by Handler.
// Requests are serialized over one connection.
type Client struct {
	conn     *websocket.Conn
	mu       sync.Mutex
	nextID   uint64
	readOnly bool
	renamer  bool
	broken   error
	log      *slog.Logger
}

var (
	_ fs.Backend = (*Client)(nil)
	_ fs.Renamer = (*Client)(nil)
	_ fs.Closer  = (*Client)(nil)
)

var errClosed = errors.New("remotefs: client closed")

// Dial connects to a Handler at url, a ws:// or wss:// address.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("remotefs: dial %s: %w", url, err)
	}
	c := &Client{
		conn: conn,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	resp, err := c.call(ctx, request{Op: opHello})
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.readOnly, c.renamer = resp.ReadOnly, resp.Renamer
	return c, nil
}

func (c *Client) SetLogger(logger *slog.Logger) {
	c.log = logger
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken != nil {
		return nil
	}
	c.broken = errClosed
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

// IsReadOnly reports what the served backend reported when the client
// connected.
func (c *Client) IsReadOnly() bool {
	return c.readOnly
}

// call sends req and waits for its response. A transport failure is
// returned as EIO; failures of the remote backend come back in the
// response. Once the connection fails or falls out of step, the client is
// broken and every later call fails with EIO without touching the wire.
func (c *Client) call(ctx context.Context, req request) (*response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken != nil {
		return nil, &fs.Error{Code: fs.EIO, Op: req.Op, Path: req.Path, Err: c.broken}
	}

	c.nextID++
	req.ID = c.nextID
	deadline, _ := ctx.Deadline()
	c.conn.SetWriteDeadline(deadline)
	c.conn.SetReadDeadline(deadline)

	out, err := cbor.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("remotefs: encode: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, out); err != nil {
		return nil, c.fail(req, err)
	}
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return nil, c.fail(req, err)
	}
	var resp response
	if err := cbor.Unmarshal(msg, &resp); err != nil {
		return nil, c.fail(req, fmt.Errorf("remotefs: decode: %w", err))
	}
	if resp.ID != req.ID {
		return nil, c.fail(req, fmt.Errorf("remotefs: response %d for request %d", resp.ID, req.ID))
	}
	c.log.Debug("call", "op", req.Op, "path", req.Path, "code", resp.Code)
	return &resp, nil
}

// fail marks the client broken and drops the connection. c.mu is held.
func (c *Client) fail(req request, err error) error {
	c.broken = err
	c.conn.Close()
	c.log.Debug("call", "op", req.Op, "path", req.Path, "err", err)
	return &fs.Error{Code: fs.EIO, Op: req.Op, Path: req.Path, Err: err}
}

// do runs a call whose only result is success or failure.
func (c *Client) do(ctx context.Context, req request) error {
	resp, err := c.call(ctx, req)
	if err != nil {
		return err
	}
	return resp.err(req.Op, req.Path)
}

func (c *Client) ReadEntry(ctx context.Context, name string) (fs.Data, error) {
	name = vpath.Normalize(name, vpath.Root)
	resp, err := c.call(ctx, request{Op: opRead, Path: name})
	if err != nil {
		return fs.Data{}, err
	}
	if err := resp.err(opRead, name); err != nil {
		return fs.Data{}, err
	}
	return fs.Raw(resp.Data, resp.Text), nil
}

func (c *Client) WriteEntry(ctx context.Context, name string, data fs.Data) error {
	if c.readOnly {
		return fs.NewError(fs.EROFS, opWrite, name)
	}
	name = vpath.Normalize(name, vpath.Root)
	return c.do(ctx, request{Op: opWrite, Path: name, Data: data.Bytes(), Text: data.IsText()})
}

func (c *Client) DeleteEntry(ctx context.Context, name string) error {
	if c.readOnly {
		return fs.NewError(fs.EROFS, opDelete, name)
	}
	return c.do(ctx, request{Op: opDelete, Path: vpath.Normalize(name, vpath.Root)})
}

func (c *Client) ListEntries(ctx context.Context, dir string) ([]fs.DirEntry, error) {
	dir = vpath.Normalize(dir, vpath.Root)
	resp, err := c.call(ctx, request{Op: opList, Path: dir})
	if err != nil {
		return nil, err
	}
	if err := resp.err(opList, dir); err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, fs.DirEntry{Name: e.Name, IsDir: e.Dir})
	}
	return entries, nil
}

func (c *Client) StatEntry(ctx context.Context, name string) (fs.Stat, error) {
	name = vpath.Normalize(name, vpath.Root)
	resp, err := c.call(ctx, request{Op: opStat, Path: name})
	if err != nil {
		return fs.Stat{}, err
	}
	if err := resp.err(opStat, name); err != nil {
		return fs.Stat{}, err
	}
	if resp.Stat == nil {
		return fs.Stat{}, fs.NewError(fs.EIO, opStat, name)
	}
	return fs.Stat{
		IsFile:   !resp.Stat.Dir,
		IsDir:    resp.Stat.Dir,
		Size:     resp.Stat.Size,
		Created:  resp.Stat.Created,
		Modified: resp.Stat.Modified,
	}, nil
}

func (c *Client) MakeDirectory(ctx context.Context, name string) error {
	if c.readOnly {
		return fs.NewError(fs.EROFS, opMkdir, name)
	}
	return c.do(ctx, request{Op: opMkdir, Path: vpath.Normalize(name, vpath.Root)})
}

// RenameEntry renames on the server. It fails with EINVAL wrapping
// errors.ErrUnsupported when the served backend has no native rename.
func (c *Client) RenameEntry(ctx context.Context, oldname, newname string) error {
	if c.readOnly {
		return fs.NewError(fs.EROFS, opRename, oldname)
	}
	if !c.renamer {
		err := fs.NewError(fs.EINVAL, opRename, oldname)
		err.Err = errors.ErrUnsupported
		return err
	}
	return c.do(ctx, request{
		Op:      opRename,
		Path:    vpath.Normalize(oldname, vpath.Root),
		NewPath: vpath.Normalize(newname, vpath.Root),
	})
}

func (c *Client) Wipe(ctx context.Context) error {
	if c.readOnly {
		return fs.NewError(fs.EROFS, opWipe, vpath.Root)
	}
	return c.do(ctx, request{Op: opWipe, Path: vpath.Root})
}
