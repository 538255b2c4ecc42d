package ipc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Delimiter terminates every frame on the wire. A multi-character sentinel is
// used instead of a single byte so serialized payload content can never be
// mistaken for a frame boundary.
const Delimiter = "<--- END OF DATA --->"

const (
	// DefaultMaxFrameSize bounds how many bytes the decoder buffers for a
	// single frame before giving up on it.
	DefaultMaxFrameSize = 16 << 20

	readChunkSize = 32 << 10
)

var delimiterBytes = []byte(Delimiter)

// Encoder writes delimiter-framed payloads to an underlying stream. Each
// Encode call buffers the serialized payload, delimiter, and trailing newline,
// then flushes once, so a frame reaches the stream in a single coalesced
// write. Encoder is safe for concurrent use.
type Encoder struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewEncoder returns an Encoder framing payloads onto w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode serializes p and writes one complete frame.
func (e *Encoder) Encode(p *Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.w.Write(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if _, err := e.w.Write(delimiterBytes); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}
	return nil
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithMaxFrameSize overrides the per-frame buffering limit.
func WithMaxFrameSize(limit int) DecoderOption {
	return func(d *Decoder) {
		if limit > 0 {
			d.maxFrameSize = limit
		}
	}
}

// Decoder parses a byte stream into a lazy sequence of payloads. Partial
// frames are buffered across reads; leading bytes are never discarded, so the
// decoder tolerates arbitrary chunking of the underlying stream.
type Decoder struct {
	r            io.Reader
	buf          []byte
	chunk        []byte
	maxFrameSize int
	readErr      error
}

// NewDecoder returns a Decoder reading frames from r.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		r:            r,
		chunk:        make([]byte, readChunkSize),
		maxFrameSize: DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode returns the next fully delimited payload, blocking on the underlying
// reader until one is available. It returns io.EOF at a clean end of stream
// and io.ErrUnexpectedEOF if the stream ends mid-frame. A complete frame with
// unparsable content returns an error wrapping ErrFrameDecode; the decoder
// has advanced past the delimiter and the next Decode call parses the
// following frame.
func (d *Decoder) Decode() (*Payload, error) {
	for {
		if frame, ok := d.nextFrame(); ok {
			payload, err := parseFrame(frame)
			if payload == nil && err == nil {
				continue // blank run between delimiters
			}
			return payload, err
		}

		if buffered := len(d.buf); buffered > d.maxFrameSize {
			d.buf = nil
			return nil, fmt.Errorf("%w: buffered %d bytes without delimiter", ErrFrameTooLarge, buffered)
		}

		if d.readErr != nil {
			if d.readErr == io.EOF && len(bytes.TrimSpace(d.buf)) == 0 {
				return nil, io.EOF
			}
			if d.readErr == io.EOF {
				d.buf = nil
				return nil, io.ErrUnexpectedEOF
			}
			return nil, d.readErr
		}

		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.buf = append(d.buf, d.chunk[:n]...)
		}
		if err != nil {
			d.readErr = err
		}
	}
}

// nextFrame slices the next delimited frame off the buffer, consuming the
// delimiter and the trailing newline.
func (d *Decoder) nextFrame() ([]byte, bool) {
	i := bytes.Index(d.buf, delimiterBytes)
	if i < 0 {
		return nil, false
	}
	frame := append([]byte(nil), d.buf[:i]...)
	rest := d.buf[i+len(delimiterBytes):]
	if len(rest) > 0 && rest[0] == '\n' {
		rest = rest[1:]
	}
	d.buf = append(d.buf[:0], rest...)
	return frame, true
}

// parseFrame decodes one frame's bytes. A blank frame yields (nil, nil) and
// is skipped by the caller.
func parseFrame(frame []byte) (*Payload, error) {
	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 {
		return nil, nil
	}
	var payload Payload
	if err := json.Unmarshal(frame, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameDecode, err)
	}
	return &payload, nil
}
