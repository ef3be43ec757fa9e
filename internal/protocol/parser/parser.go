// Package parser reconstructs frames from a byte stream of unknown
// boundaries. A Parser is owned by exactly one stream and is not safe for
// concurrent use.
package parser

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/danmuck/imcctl/internal/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type state uint8

const (
	stateSeekSync state = iota
	stateReadHeader
	stateReadPayload
	stateReadFooter
)

func (s state) String() string {
	switch s {
	case stateSeekSync:
		return "seek_sync"
	case stateReadHeader:
		return "read_header"
	case stateReadPayload:
		return "read_payload"
	case stateReadFooter:
		return "read_footer"
	default:
		return "unknown"
	}
}

// Sync marker bytes as they appear on the wire in each byte order.
var (
	syncFirst = byte(protocol.Sync & 0xFF)
	syncLast  = byte(protocol.Sync >> 8)
)

func isSyncByte(b byte) bool {
	return b == syncFirst || b == syncLast
}

// Parser is the incremental frame state machine.
type Parser struct {
	codec    *protocol.Codec
	maxFrame int
	observer Observer
	logger   zerolog.Logger

	state  state
	buf    []byte
	header protocol.Header
	order  binary.ByteOrder
	crc    *protocol.CRC16
	stats  Stats

	// pending holds bytes of rejected candidates queued for rescan ahead
	// of new input.
	pending []byte
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxFrameSize lowers the largest declared frame size accepted. Values
// outside (0, codec limit] are ignored.
func WithMaxFrameSize(n int) Option {
	return func(p *Parser) {
		if n > 0 && n <= p.maxFrame {
			p.maxFrame = n
		}
	}
}

// WithObserver installs the side channel notified of every decoded and
// rejected frame.
func WithObserver(o Observer) Option {
	return func(p *Parser) {
		if o != nil {
			p.observer = o
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Parser) {
		p.logger = l
	}
}

// New returns a parser decoding through codec. A nil codec selects
// protocol.DefaultCodec.
func New(codec *protocol.Codec, opts ...Option) *Parser {
	if codec == nil {
		codec = protocol.DefaultCodec()
	}
	p := &Parser{
		codec:    codec,
		maxFrame: codec.Limits().MaxFrameSize,
		observer: nopObserver{},
		logger:   log.Logger.With().Str("component", "parser").Logger(),
		crc:      protocol.NewCRC16(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.buf = make([]byte, 0, min(p.maxFrame, 1024))
	return p
}

// Reset drops any partially accumulated frame and queued rescan bytes and
// returns to sync search. Counters and the registry are kept.
func (p *Parser) Reset() {
	p.pending = nil
	p.resetFrame()
}

func (p *Parser) resetFrame() {
	p.state = stateSeekSync
	p.buf = p.buf[:0]
	p.header = protocol.Header{}
	p.order = nil
	p.crc.Reset()
}

// Stats returns a snapshot of the parser counters.
func (p *Parser) Stats() Stats {
	return p.stats
}

func (p *Parser) MaxFrameSize() int {
	return p.maxFrame
}

// Feed advances the state machine by one byte. It returns the message
// completed by this byte, if any. A non-nil error reports a candidate frame
// rejected while processing the byte; the parser has already resynced and
// the error is not fatal.
//
// A rejected candidate is rescanned from its second byte. At most one
// message is returned per call; bytes still queued for rescan are processed
// by the next Feed before b, or by Flush at the end of input.
func (p *Parser) Feed(b byte) (protocol.Message, error) {
	p.stats.Bytes++
	if len(p.pending) > 0 {
		p.pending = append(p.pending, b)
		return p.drain(nil)
	}
	m, replay, err := p.step(b)
	if len(replay) == 0 {
		return m, err
	}
	p.pending = replay
	return p.drain(err)
}

// Flush processes queued rescan bytes until one completes a message or the
// queue is empty.
func (p *Parser) Flush() (protocol.Message, error) {
	return p.drain(nil)
}

// Buffered is the number of bytes queued for rescan.
func (p *Parser) Buffered() int {
	return len(p.pending)
}

func (p *Parser) drain(lastErr error) (protocol.Message, error) {
	for len(p.pending) > 0 {
		c := p.pending[0]
		p.pending = p.pending[1:]
		m, replay, err := p.step(c)
		if err != nil {
			lastErr = err
		}
		if len(replay) > 0 {
			p.pending = append(replay, p.pending...)
		}
		if m != nil {
			return m, lastErr
		}
	}
	p.pending = nil
	return nil, lastErr
}

// Parse feeds every byte of b, drains the rescan queue and returns the
// last completed message (nil if none) together with the last rejection
// reported (nil if none).
func (p *Parser) Parse(b []byte) (protocol.Message, error) {
	var (
		msg     protocol.Message
		lastErr error
	)
	keep := func(m protocol.Message, err error) {
		if m != nil {
			msg = m
		}
		if err != nil {
			lastErr = err
		}
	}
	for _, c := range b {
		keep(p.Feed(c))
	}
	for p.Buffered() > 0 {
		keep(p.Flush())
	}
	return msg, lastErr
}

// ParseAll feeds every byte of b and collects each completed message in
// stream order. Rejections are only visible through Stats and the observer.
func (p *Parser) ParseAll(b []byte) []protocol.Message {
	var out []protocol.Message
	for _, c := range b {
		if m, _ := p.Feed(c); m != nil {
			out = append(out, m)
		}
	}
	for p.Buffered() > 0 {
		if m, _ := p.Flush(); m != nil {
			out = append(out, m)
		}
	}
	return out
}

// step consumes one byte. replay holds bytes to be rescanned ahead of the
// rest of the input after a rejected candidate.
func (p *Parser) step(b byte) (protocol.Message, []byte, error) {
	switch p.state {
	case stateSeekSync:
		p.seek(b)
		return nil, nil, nil

	case stateReadHeader:
		p.buf = append(p.buf, b)
		if len(p.buf) < protocol.HeaderSize {
			return nil, nil, nil
		}
		if err := p.acceptHeader(); err != nil {
			return nil, p.reject(err, true), err
		}
		return nil, nil, nil

	case stateReadPayload:
		p.buf = append(p.buf, b)
		p.crc.Write(p.buf[len(p.buf)-1:])
		if len(p.buf) == int(p.header.Size)-protocol.FooterSize {
			p.state = stateReadFooter
		}
		return nil, nil, nil

	case stateReadFooter:
		p.buf = append(p.buf, b)
		if len(p.buf) < int(p.header.Size) {
			return nil, nil, nil
		}
		return p.finish()
	}
	return nil, nil, nil
}

func (p *Parser) seek(b byte) {
	if len(p.buf) == 0 {
		if isSyncByte(b) {
			p.buf = append(p.buf, b)
			return
		}
		p.stats.DiscardedBytes++
		return
	}
	first := p.buf[0]
	if (first == syncFirst && b == syncLast) || (first == syncLast && b == syncFirst) {
		p.buf = append(p.buf, b)
		p.state = stateReadHeader
		return
	}
	p.stats.DiscardedBytes++
	p.buf = p.buf[:0]
	if isSyncByte(b) {
		p.buf = append(p.buf, b)
		return
	}
	p.stats.DiscardedBytes++
}

func (p *Parser) acceptHeader() error {
	h, order, err := protocol.DeserializeHeader(p.buf)
	if err != nil {
		return err
	}
	total := int(h.Size)
	switch {
	case total < protocol.HeaderSize+protocol.FooterSize:
		p.stats.Truncated++
		return fmt.Errorf("%w: declared size=%d", protocol.ErrTruncatedPayload, total)
	case total > p.maxFrame:
		p.stats.Oversized++
		return fmt.Errorf("%w: declared size=%d max=%d", protocol.ErrOversizedFrame, total, p.maxFrame)
	case !p.codec.Registry().Has(h.TypeID):
		p.stats.UnknownTypes++
		return fmt.Errorf("%w: id=%d", protocol.ErrUnknownType, h.TypeID)
	}
	p.header, p.order = h, order
	p.crc.Reset()
	p.crc.Write(p.buf)
	if h.PayloadSize() == 0 {
		p.state = stateReadFooter
	} else {
		p.state = stateReadPayload
	}
	return nil
}

func (p *Parser) finish() (protocol.Message, []byte, error) {
	total := int(p.header.Size)
	end := total - protocol.FooterSize
	if want, got := p.order.Uint16(p.buf[end:total]), p.crc.Sum16(); want != got {
		p.stats.ChecksumFailures++
		err := fmt.Errorf("%w: want=%#04x got=%#04x", protocol.ErrChecksumMismatch, want, got)
		return nil, p.reject(err, true), err
	}
	m, err := p.codec.DeserializePayload(p.header, p.order, p.buf[protocol.HeaderSize:end], nil)
	if err != nil {
		p.stats.DecodeFailures++
		return nil, p.reject(err, false), err
	}
	p.stats.Frames++
	p.logger.Debug().
		Str("type", m.Name()).
		Int("size", total).
		Msg("parser.frame")
	p.observer.FrameDecoded(m)
	p.resetFrame()
	return m, nil, nil
}

// reject resyncs after a failed candidate. With rescan set, every byte
// after the candidate's first byte is returned for replay so a sync marker
// inside the discarded frame can still be found.
func (p *Parser) reject(err error, rescan bool) []byte {
	p.stats.Resyncs++
	var replay []byte
	if rescan && len(p.buf) > 1 {
		replay = append([]byte(nil), p.buf[1:]...)
	}
	if !rescan {
		p.stats.DiscardedBytes += uint64(len(p.buf))
	} else {
		p.stats.DiscardedBytes++
	}
	p.logger.Debug().
		Err(err).
		Str("state", p.state.String()).
		Int("buffered", len(p.buf)).
		Msg("parser.resync")
	p.observer.FrameRejected(err)
	p.resetFrame()
	return replay
}

// Reason classifies a rejection error into a short label for counters.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, protocol.ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, protocol.ErrOversizedFrame):
		return "oversized"
	case errors.Is(err, protocol.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, protocol.ErrTruncatedPayload):
		return "truncated"
	default:
		return "decode"
	}
}
