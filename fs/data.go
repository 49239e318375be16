package fs

import "bytes"

// Data is a file payload. It carries the bytes along with whether the
// content was written as text, so that backends can hand back what they
// were given.
type Data struct {
	b    []byte
	text bool
}

// Bytes returns binary Data holding b. The slice is not copied.
func Bytes(b []byte) Data {
	return Data{b: b}
}

// Text returns textual Data holding s.
func Text(s string) Data {
	return Data{b: []byte(s), text: true}
}

// Raw returns Data with an explicit kind, for backends restoring a stored
// payload.
func Raw(b []byte, text bool) Data {
	return Data{b: b, text: text}
}

func (d Data) IsText() bool {
	return d.text
}

// Bytes returns the underlying bytes. Callers must not modify them.
func (d Data) Bytes() []byte {
	return d.b
}

func (d Data) String() string {
	return string(d.b)
}

func (d Data) Len() int {
	return len(d.b)
}

// Clone returns a copy of d that shares no memory with it.
func (d Data) Clone() Data {
	return Data{b: bytes.Clone(d.b), text: d.text}
}

// Equal reports whether d and o have the same kind and content.
func (d Data) Equal(o Data) bool {
	return d.text == o.text && bytes.Equal(d.b, o.b)
}

// Concat appends b to a. Binary plus binary stays binary byte for byte; if
// either side is text the result is text.
func Concat(a, b Data) Data {
	out := make([]byte, 0, len(a.b)+len(b.b))
	out = append(out, a.b...)
	out = append(out, b.b...)
	return Data{b: out, text: a.text || b.text}
}
