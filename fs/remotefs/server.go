package remotefs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"

	"tractor.dev/assetvfs/fs"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Handler serves b to websocket clients created with Dial. logger may be
// nil.
func Handler(b fs.Backend, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("upgrade", "remote", r.RemoteAddr, "err", err)
			return
		}
		defer conn.Close()
		logger.Debug("connected", "remote", r.RemoteAddr)
		serveConn(r.Context(), conn, b, logger)
		logger.Debug("disconnected", "remote", r.RemoteAddr)
	})
}

func serveConn(ctx context.Context, conn *websocket.Conn, b fs.Backend, logger *slog.Logger) {
	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("read", "err", err)
			}
			return
		}
		if typ != websocket.BinaryMessage {
			continue
		}
		var req request
		if err := cbor.Unmarshal(msg, &req); err != nil {
			logger.Warn("decode request", "err", err)
			return
		}
		resp := dispatch(ctx, b, req)
		logger.Debug("request", "op", req.Op, "path", req.Path, "code", resp.Code)
		out, err := cbor.Marshal(resp)
		if err != nil {
			logger.Warn("encode response", "err", err)
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, out); err != nil {
			logger.Debug("write", "err", err)
			return
		}
	}
}

func dispatch(ctx context.Context, b fs.Backend, req request) *response {
	resp := &response{ID: req.ID}
	var err error
	switch req.Op {
	case opHello:
		resp.ReadOnly = b.IsReadOnly()
		_, resp.Renamer = b.(fs.Renamer)
	case opRead:
		var d fs.Data
		if d, err = b.ReadEntry(ctx, req.Path); err == nil {
			resp.Data, resp.Text = d.Bytes(), d.IsText()
		}
	case opWrite:
		err = b.WriteEntry(ctx, req.Path, fs.Raw(req.Data, req.Text))
	case opDelete:
		err = b.DeleteEntry(ctx, req.Path)
	case opList:
		var entries []fs.DirEntry
		if entries, err = b.ListEntries(ctx, req.Path); err == nil {
			resp.Entries = make([]entry, 0, len(entries))
			for _, e := range entries {
				resp.Entries = append(resp.Entries, entry{Name: e.Name, Dir: e.IsDir})
			}
		}
	case opStat:
		var st fs.Stat
		if st, err = b.StatEntry(ctx, req.Path); err == nil {
			resp.Stat = &stat{Dir: st.IsDir, Size: st.Size, Created: st.Created, Modified: st.Modified}
		}
	case opMkdir:
		err = b.MakeDirectory(ctx, req.Path)
	case opRename:
		rn, ok := b.(fs.Renamer)
		if !ok {
			err = fs.NewError(fs.EINVAL, "rename", req.Path)
			break
		}
		err = rn.RenameEntry(ctx, req.Path, req.NewPath)
	case opWipe:
		err = b.Wipe(ctx)
	default:
		err = &fs.Error{Code: fs.EINVAL, Op: req.Op, Path: req.Path, Err: errors.New("unknown operation")}
	}
	if err != nil {
		resp.Code = fs.CodeOf(err)
		// the client adds its own op and path
		var ferr *fs.Error
		if !errors.As(err, &ferr) {
			resp.Error = err.Error()
		} else if ferr.Err != nil {
			resp.Error = ferr.Err.Error()
		}
	}
	return resp
}
