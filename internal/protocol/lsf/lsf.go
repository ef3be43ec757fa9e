// Package lsf reads LSF logs: files of back-to-back frames as written by
// onboard loggers.
package lsf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/danmuck/imcctl/internal/protocol"
	"github.com/danmuck/imcctl/internal/protocol/parser"
	"github.com/rs/zerolog/log"
)

var (
	ErrTruncatedLog = errors.New("lsf: log ended inside a frame")
	ErrCorruptFrame = errors.New("lsf: corrupt frame")
)

// Reader iterates the frames of a log. Frames are located through their
// header and decoded one at a time by a parser reset before each frame.
type Reader struct {
	br     *bufio.Reader
	parser *parser.Parser
	popts  []parser.Option
	types  map[uint16]struct{}
	frame  []byte
	offset int64
	err    error
}

type Option func(*Reader)

// WithTypes restricts iteration to the given type ids. Other frames are
// skipped without being decoded.
func WithTypes(ids ...uint16) Option {
	return func(r *Reader) {
		if len(ids) == 0 {
			return
		}
		r.types = make(map[uint16]struct{}, len(ids))
		for _, id := range ids {
			r.types[id] = struct{}{}
		}
	}
}

// WithParserOptions forwards options to the frame parser.
func WithParserOptions(opts ...parser.Option) Option {
	return func(r *Reader) {
		r.popts = append(r.popts, opts...)
	}
}

func NewReader(src io.Reader, codec *protocol.Codec, opts ...Option) *Reader {
	r := &Reader{br: bufio.NewReaderSize(src, 64*1024)}
	for _, opt := range opts {
		opt(r)
	}
	r.parser = parser.New(codec, r.popts...)
	return r
}

// Offset is the file offset of the next frame.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Stats exposes the counters of the underlying parser.
func (r *Reader) Stats() parser.Stats {
	return r.parser.Stats()
}

// Next returns the next message, io.EOF at the clean end of the log or
// ErrTruncatedLog when the log stops inside a frame. A frame that fails to
// decode is reported with ErrCorruptFrame and skipped; the following call
// continues with the next frame. Other errors are terminal.
func (r *Reader) Next() (protocol.Message, error) {
	for {
		if r.err != nil {
			return nil, r.err
		}
		h, err := r.peekHeader()
		if err != nil {
			r.err = err
			return nil, err
		}
		size := int(h.Size)
		if size < protocol.HeaderSize+protocol.FooterSize {
			r.err = fmt.Errorf("%w: offset=%d declared size=%d", ErrCorruptFrame, r.offset, size)
			return nil, r.err
		}
		if cap(r.frame) < size {
			r.frame = make([]byte, size)
		}
		frame := r.frame[:size]
		start := r.offset
		n, err := io.ReadFull(r.br, frame)
		r.offset += int64(n)
		if err != nil {
			r.err = fmt.Errorf("%w: offset=%d want=%d have=%d", ErrTruncatedLog, start, size, n)
			return nil, r.err
		}
		if r.types != nil {
			if _, ok := r.types[h.TypeID]; !ok {
				continue
			}
		}

		r.parser.Reset()
		m, perr := r.parser.Parse(frame)
		if m == nil {
			if perr == nil {
				perr = protocol.ErrTruncatedPayload
			}
			log.Debug().Err(perr).Int64("offset", start).Uint16("type", h.TypeID).Msg("lsf.skip")
			return nil, fmt.Errorf("%w: offset=%d: %w", ErrCorruptFrame, start, perr)
		}
		return m, nil
	}
}

func (r *Reader) peekHeader() (protocol.Header, error) {
	b, err := r.br.Peek(protocol.HeaderSize)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && len(b) == 0:
		return protocol.Header{}, io.EOF
	case errors.Is(err, io.EOF):
		return protocol.Header{}, fmt.Errorf("%w: offset=%d partial header (%d bytes)", ErrTruncatedLog, r.offset, len(b))
	default:
		return protocol.Header{}, err
	}
	h, _, err := protocol.DeserializeHeader(b)
	if err != nil {
		return protocol.Header{}, fmt.Errorf("%w: offset=%d: %w", ErrCorruptFrame, r.offset, err)
	}
	return h, nil
}

// All iterates the remaining messages. Corrupt frames are yielded with a
// nil message and iteration continues; it stops at the end of the log or on
// a terminal error, which is yielded unless it is io.EOF.
func (r *Reader) All() iter.Seq2[protocol.Message, error] {
	return func(yield func(protocol.Message, error) bool) {
		for {
			m, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(m, err) {
				return
			}
			if err != nil && r.err != nil {
				return
			}
		}
	}
}
