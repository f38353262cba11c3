// Package secure holds secrets in buffers that are wiped on release and
// prepares the process for handling key material.
package secure

import (
	"crypto/subtle"
	"runtime"
)

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// Buffer is a fixed-size byte buffer for passphrases and keys. Call Zero
// when done with it, on every path.
type Buffer struct {
	b      []byte
	locked bool
}

// NewBuffer allocates a zeroed buffer of n bytes.
func NewBuffer(n int) *Buffer {
	buf := &Buffer{b: make([]byte, n)}
	buf.locked = lock(buf.b)
	return buf
}

// BufferFrom copies src into a new buffer and wipes src.
func BufferFrom(src []byte) *Buffer {
	buf := NewBuffer(len(src))
	copy(buf.b, src)
	Zero(src)
	return buf
}

// Bytes returns the underlying storage. The slice is only valid until Zero.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.b
}

// Len returns the buffer size.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.b)
}

// Equal compares two buffers in constant time.
func (b *Buffer) Equal(other *Buffer) bool {
	return subtle.ConstantTimeCompare(b.Bytes(), other.Bytes()) == 1
}

// Zero wipes the buffer. It is safe to call more than once.
func (b *Buffer) Zero() {
	if b == nil || b.b == nil {
		return
	}
	Zero(b.b)
	if b.locked {
		unlock(b.b)
		b.locked = false
	}
	b.b = nil
}
