package httpwire

import (
	"fmt"
	"io"
)

type chunkState int

const (
	csSize chunkState = iota
	csSizeMore
	csSizeWS
	csExtName
	csExtValue
	csSizeLF
	csData
	csDataCR
	csDataLF
	csTrailerStart
	csTrailerName
	csTrailerValue
	csTrailerLF
	csEndLF
	csDone
)

// 15 hex digits keep the size inside an int64
const maxChunkDigits = 15

// chunkDecoder decodes a chunked body incrementally; feed may be called with
// any split of the input.
type chunkDecoder struct {
	state  chunkState
	size   int64
	seen   int64
	digits int
	meta   int
	name   []byte
	value  []byte
}

func (d *chunkDecoder) done() bool { return d.state == csDone }

func badChunk(msg string) *Error { return wrap(ErrBadChunkData, msg, nil) }

// feed decodes from p, appending data to body and trailer fields to
// trailers. The decoded body is bounded by bodyMax. The extensions of one
// size line, and the trailer section as a whole, are each bounded by
// metaMax. It returns how many bytes of p it consumed; it stops early only
// at the end of the body or on error.
func (d *chunkDecoder) feed(p []byte, body *Buffer, trailers *Headers, bodyMax, metaMax int) (int, error) {
	i := 0
	for i < len(p) && d.state != csDone {
		ch := p[i]
		if d.state.isMeta() {
			d.meta++
			if d.meta > metaMax {
				return i, wrap(ErrHeaderTooLarge, "chunk extensions or trailers exceed limit", nil)
			}
		}
		switch d.state {
		case csSize:
			h, ok := unhex(ch)
			if !ok {
				return i, badChunk("invalid chunk size")
			}
			d.size, d.digits, d.meta = int64(h), 1, 0
			d.state = csSizeMore

		case csSizeMore:
			if h, ok := unhex(ch); ok {
				if d.digits == maxChunkDigits {
					return i, badChunk("chunk size overflow")
				}
				d.size = d.size<<4 | int64(h)
				d.digits++
				break
			}
			switch ch {
			case ';':
				d.state = csExtName
			case '\r':
				d.state = csSizeLF
			case ' ', '\t':
				d.state = csSizeWS
			default:
				return i, badChunk("invalid chunk size")
			}

		case csSizeWS:
			switch ch {
			case ';':
				d.state = csExtName
			case '\r':
				d.state = csSizeLF
			case ' ', '\t':
			default:
				return i, badChunk("invalid chunk size")
			}

		case csExtName:
			switch {
			case ch == '=':
				d.state = csExtValue
			case ch == '\r':
				d.state = csSizeLF
			case ch == ';' || ch == ' ' || ch == '\t' || isTchar(ch):
			default:
				return i, badChunk("invalid chunk extension")
			}

		case csExtValue:
			switch {
			case ch == ';':
				d.state = csExtName
			case ch == '\r':
				d.state = csSizeLF
			case isCtl(ch) && ch != '\t':
				return i, badChunk("invalid chunk extension")
			}

		case csSizeLF:
			if ch != '\n' {
				return i, badChunk("expected LF after chunk size")
			}
			if d.size == 0 {
				d.meta = 0
				d.state = csTrailerStart
				break
			}
			if int64(body.Len())+d.size > int64(bodyMax) {
				return i, wrap(ErrPayloadTooLarge, "chunked body exceeds limit", nil)
			}
			d.seen = 0
			d.state = csData

		case csData:
			k := d.size - d.seen
			if rest := int64(len(p) - i); k > rest {
				k = rest
			}
			body.Append(p[i : i+int(k)]...)
			d.seen += k
			i += int(k)
			if d.seen == d.size {
				d.state = csDataCR
			}
			continue

		case csDataCR:
			if ch != '\r' {
				return i, badChunk("chunk longer than its size")
			}
			d.state = csDataLF

		case csDataLF:
			if ch != '\n' {
				return i, badChunk("expected LF after chunk data")
			}
			d.state = csSize

		case csTrailerStart:
			switch {
			case ch == '\r':
				d.state = csEndLF
			case isTchar(ch):
				d.name = append(d.name[:0], ch)
				d.state = csTrailerName
			default:
				return i, badChunk("invalid trailer")
			}

		case csTrailerName:
			switch {
			case ch == ':':
				d.value = d.value[:0]
				d.state = csTrailerValue
			case isTchar(ch):
				d.name = append(d.name, ch)
			default:
				return i, badChunk("invalid trailer name")
			}

		case csTrailerValue:
			switch {
			case ch == '\r':
				trailers.Add(string(d.name), trimOWS(string(d.value)))
				d.state = csTrailerLF
			case isCtl(ch) && ch != '\t':
				return i, badChunk("invalid trailer value")
			default:
				d.value = append(d.value, ch)
			}

		case csTrailerLF:
			if ch != '\n' {
				return i, badChunk("expected LF after trailer")
			}
			d.state = csTrailerStart

		case csEndLF:
			if ch != '\n' {
				return i, badChunk("expected LF after last chunk")
			}
			d.state = csDone
		}
		i++
	}
	return i, nil
}

// isMeta reports the states whose bytes count against the extension and
// trailer limit.
func (s chunkState) isMeta() bool {
	switch s {
	case csSizeWS, csExtName, csExtValue, csTrailerStart, csTrailerName, csTrailerValue, csTrailerLF, csEndLF:
		return true
	}
	return false
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// WriteChunked writes body to w as chunks of at most chunkSize bytes,
// followed by the terminal zero chunk and an empty trailer section.
func WriteChunked(w io.Writer, body []byte, chunkSize int) error {
	if w == nil || chunkSize <= 0 {
		return wrap(ErrInvalidInput, "chunked writer needs a writer and a positive chunk size", nil)
	}
	for len(body) > 0 {
		n := chunkSize
		if n > len(body) {
			n = len(body)
		}
		if _, err := fmt.Fprintf(w, "%x\r\n", n); err != nil {
			return wrap(ErrTransport, "", err)
		}
		if err := writeAll(w, body[:n]); err != nil {
			return err
		}
		if err := writeAll(w, crlf); err != nil {
			return err
		}
		body = body[n:]
	}
	return writeAll(w, lastChunk)
}
