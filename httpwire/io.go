package httpwire

import "io"

// ReadFunc adapts a plain read callback to io.Reader.
type ReadFunc func(p []byte) (int, error)

func (f ReadFunc) Read(p []byte) (int, error) { return f(p) }

// WriteFunc adapts a plain write callback to io.Writer.
type WriteFunc func(p []byte) (int, error)

func (f WriteFunc) Write(p []byte) (int, error) { return f(p) }

// writeAll keeps writing until p is gone, so short writes from raw
// descriptors are not mistaken for failures.
func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		p = p[n:]
		if err != nil {
			return wrap(ErrTransport, "", err)
		}
		if n == 0 {
			return wrap(ErrTransport, "", io.ErrShortWrite)
		}
	}
	return nil
}
