// Package remotefs exports a backend over a websocket and provides a client
// backend that talks to it.
//
// Each websocket binary message carries one cbor encoded request or
// response. A client has at most one request in flight, so responses are
// matched to requests by order; the ID is echoed as a consistency check.
package remotefs

import (
	"time"

	"tractor.dev/assetvfs/fs"
)

const (
	opHello  = "hello"
	opRead   = "read"
	opWrite  = "write"
	opDelete = "delete"
	opList   = "list"
	opStat   = "stat"
	opMkdir  = "mkdir"
	opRename = "rename"
	opWipe   = "wipe"
)

type request struct {
	ID      uint64 `cbor:"id"`
	Op      string `cbor:"op"`
	Path    string `cbor:"path,omitempty"`
	NewPath string `cbor:"newpath,omitempty"`
	Data    []byte `cbor:"data,omitempty"`
	Text    bool   `cbor:"text,omitempty"`
}

type entry struct {
	Name string `cbor:"name"`
	Dir  bool   `cbor:"dir,omitempty"`
}

type stat struct {
	Dir      bool      `cbor:"dir,omitempty"`
	Size     int64     `cbor:"size,omitempty"`
	Created  time.Time `cbor:"created"`
	Modified time.Time `cbor:"modified"`
}

type response struct {
	ID       uint64  `cbor:"id"`
	Code     fs.Code `cbor:"code,omitempty"`
	Error    string  `cbor:"error,omitempty"`
	Data     []byte  `cbor:"data,omitempty"`
	Text     bool    `cbor:"text,omitempty"`
	Entries  []entry `cbor:"entries,omitempty"`
	Stat     *stat   `cbor:"stat,omitempty"`
	ReadOnly bool    `cbor:"readonly,omitempty"`
	Renamer  bool    `cbor:"renamer,omitempty"`
}

// remoteError is the message of a failure that happened on the server.
type remoteError string

func (e remoteError) Error() string {
	return string(e)
}

// err rebuilds the server side failure, keeping its code.
func (r *response) err(op, path string) error {
	if r.Code == "" {
		return nil
	}
	e := fs.NewError(r.Code, op, path)
	if r.Error != "" {
		e.Err = remoteError(r.Error)
	}
	return e
}
