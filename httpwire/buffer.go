package httpwire

// Buffer is an append-only byte region owned by a Context. Its contents are
// only valid until the next parse or Reset.
type Buffer struct {
	b []byte
}

func (b *Buffer) Len() int      { return len(b.b) }
func (b *Buffer) Cap() int      { return cap(b.b) }
func (b *Buffer) Bytes() []byte { return b.b }
func (b *Buffer) String() string {
	return string(b.b)
}

func (b *Buffer) Append(p ...byte) {
	b.b = append(b.b, p...)
}

func (b *Buffer) AppendString(s string) {
	b.b = append(b.b, s...)
}

// Write implements io.Writer so a Buffer can be filled with fmt or io.Copy.
func (b *Buffer) Write(p []byte) (int, error) {
	b.b = append(b.b, p...)
	return len(p), nil
}

// CopyAt overwrites from offset off, growing the buffer when p runs past
// its end. Offsets beyond Len are rejected.
func (b *Buffer) CopyAt(off int, p []byte) bool {
	if off < 0 || off > len(b.b) {
		return false
	}
	n := copy(b.b[off:], p)
	b.b = append(b.b, p[n:]...)
	return true
}

// grow makes room for n more bytes and returns the writable tail.
func (b *Buffer) grow(n int) []byte {
	if cap(b.b)-len(b.b) < n {
		nb := make([]byte, len(b.b), len(b.b)+n)
		copy(nb, b.b)
		b.b = nb
	}
	return b.b[len(b.b) : len(b.b)+n]
}

// commit extends the length over n bytes written into the tail from grow.
func (b *Buffer) commit(n int) {
	b.b = b.b[:len(b.b)+n]
}

// Reset empties the buffer, keeping its storage.
func (b *Buffer) Reset() {
	b.b = b.b[:0]
}

// Free drops the storage.
func (b *Buffer) Free() {
	b.b = nil
}
