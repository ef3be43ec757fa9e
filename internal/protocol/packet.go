package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danmuck/imcctl/internal/protocol/wire"
)

// Header is the fixed frame header.
type Header struct {
	Sync              uint16
	TypeID            uint16
	Size              uint16
	Timestamp         float64
	Source            uint16
	SourceEntity      uint8
	Destination       uint16
	DestinationEntity uint8
}

// PayloadSize returns the payload length implied by the declared frame size.
func (h Header) PayloadSize() int {
	return int(h.Size) - HeaderSize - FooterSize
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxFrameSize int
}

func DefaultLimits() Limits {
	return Limits{MaxFrameSize: MaxFrameSize}
}

// Codec serializes and deserializes frames. A Codec holds no mutable state
// and is safe for concurrent use.
type Codec struct {
	registry *Registry
	limits   Limits
}

func NewCodec(reg *Registry, limits Limits) *Codec {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if limits.MaxFrameSize <= 0 || limits.MaxFrameSize > MaxFrameSize {
		limits.MaxFrameSize = MaxFrameSize
	}
	return &Codec{registry: reg, limits: limits}
}

var defaultCodec = NewCodec(nil, DefaultLimits())

// DefaultCodec uses the process-wide registry and default limits.
func DefaultCodec() *Codec {
	return defaultCodec
}

func (c *Codec) Registry() *Registry { return c.registry }

func (c *Codec) Limits() Limits { return c.limits }

// Serialize encodes m with the default codec.
func Serialize(m Message) ([]byte, error) {
	return defaultCodec.Serialize(m)
}

// Deserialize decodes one frame with the default codec.
func Deserialize(b []byte, target Message) (Message, error) {
	return defaultCodec.Deserialize(b, target)
}

// SerializeHeader writes h in the native byte order into dst.
func SerializeHeader(h Header, dst []byte) (int, error) {
	return encodeHeader(h, ByteOrder, dst)
}

func encodeHeader(h Header, order binary.ByteOrder, dst []byte) (int, error) {
	if len(dst) < HeaderSize {
		return 0, ErrBufferTooSmall
	}
	order.PutUint16(dst[0:2], Sync)
	order.PutUint16(dst[2:4], h.TypeID)
	order.PutUint16(dst[4:6], h.Size)
	order.PutUint64(dst[6:14], math.Float64bits(h.Timestamp))
	order.PutUint16(dst[14:16], h.Source)
	dst[16] = h.SourceEntity
	order.PutUint16(dst[17:19], h.Destination)
	dst[19] = h.DestinationEntity
	return HeaderSize, nil
}

// DeserializeHeader decodes the fixed header at the start of b. The byte
// order of the frame is detected from the sync marker and returned.
func DeserializeHeader(b []byte) (Header, binary.ByteOrder, error) {
	if len(b) < HeaderSize {
		return Header{}, nil, fmt.Errorf("%w: short header (%d bytes)", ErrTruncatedPayload, len(b))
	}
	var order binary.ByteOrder
	switch ByteOrder.Uint16(b[0:2]) {
	case Sync:
		order = ByteOrder
	case SyncReversed:
		order = reversedOrder
	default:
		return Header{}, nil, ErrInvalidSync
	}
	return Header{
		Sync:              Sync,
		TypeID:            order.Uint16(b[2:4]),
		Size:              order.Uint16(b[4:6]),
		Timestamp:         math.Float64frombits(order.Uint64(b[6:14])),
		Source:            order.Uint16(b[14:16]),
		SourceEntity:      b[16],
		Destination:       order.Uint16(b[17:19]),
		DestinationEntity: b[19],
	}, order, nil
}

// Serialize encodes m into a newly allocated frame.
func (c *Codec) Serialize(m Message) ([]byte, error) {
	if isNil(m) {
		return nil, ErrNilMessage
	}
	buf := make([]byte, SerializationSize(m))
	n, err := c.serialize(m, buf, ByteOrder)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// SerializeTo encodes m into dst and returns the frame size.
func (c *Codec) SerializeTo(m Message, dst []byte) (int, error) {
	if isNil(m) {
		return 0, ErrNilMessage
	}
	return c.serialize(m, dst, ByteOrder)
}

func (c *Codec) serialize(m Message, dst []byte, order binary.ByteOrder) (int, error) {
	payload := PayloadSize(m)
	total := HeaderSize + payload + FooterSize
	if total > c.limits.MaxFrameSize {
		return 0, fmt.Errorf("%w: %s size=%d max=%d", ErrOversizedFrame, m.Name(), total, c.limits.MaxFrameSize)
	}
	if len(dst) < total {
		return 0, fmt.Errorf("%w: need=%d have=%d", ErrBufferTooSmall, total, len(dst))
	}

	env := m.Meta()
	h := Header{
		Sync:              Sync,
		TypeID:            m.ID(),
		Size:              uint16(total),
		Timestamp:         env.Timestamp,
		Source:            env.Source,
		SourceEntity:      env.SourceEntity,
		Destination:       env.Destination,
		DestinationEntity: env.DestinationEntity,
	}
	if _, err := encodeHeader(h, order, dst); err != nil {
		return 0, err
	}

	w := wire.NewWriter(dst[HeaderSize:HeaderSize+payload], order)
	n := m.SerializeFields(w)
	if err := w.Err(); err != nil {
		return 0, fmt.Errorf("protocol: serialize %s: %w", m.Name(), err)
	}
	if n != payload {
		return 0, fmt.Errorf("%w: %s wrote=%d declared=%d", ErrSizeMismatch, m.Name(), n, payload)
	}

	end := HeaderSize + payload
	order.PutUint16(dst[end:end+FooterSize], Checksum(dst[:end]))
	return total, nil
}

// Deserialize decodes the frame at the start of b. When target is non-nil
// the frame must carry the same type id and is decoded into target;
// otherwise the registry produces a fresh instance.
func (c *Codec) Deserialize(b []byte, target Message) (Message, error) {
	h, order, err := DeserializeHeader(b)
	if err != nil {
		return nil, err
	}
	total := int(h.Size)
	if total < HeaderSize+FooterSize {
		return nil, fmt.Errorf("%w: declared size=%d", ErrTruncatedPayload, total)
	}
	if total > c.limits.MaxFrameSize {
		return nil, fmt.Errorf("%w: declared size=%d max=%d", ErrOversizedFrame, total, c.limits.MaxFrameSize)
	}
	if total > len(b) {
		return nil, fmt.Errorf("%w: declared size=%d have=%d", ErrTruncatedPayload, total, len(b))
	}

	m, err := c.instance(h.TypeID, target)
	if err != nil {
		return nil, err
	}

	end := total - FooterSize
	if want, got := order.Uint16(b[end:total]), Checksum(b[:end]); want != got {
		return nil, fmt.Errorf("%w: want=%#04x got=%#04x", ErrChecksumMismatch, want, got)
	}
	return c.DeserializePayload(h, order, b[HeaderSize:end], m)
}

func (c *Codec) instance(id uint16, target Message) (Message, error) {
	if isNil(target) {
		return c.registry.Produce(id)
	}
	if target.ID() != id {
		return nil, fmt.Errorf("%w: frame=%d target=%s(%d)", ErrTypeMismatch, id, target.Name(), target.ID())
	}
	return target, nil
}

// DeserializePayload decodes payload for an already validated header. It
// is the second half of Deserialize, exposed for the stream parser which
// verifies the checksum incrementally.
func (c *Codec) DeserializePayload(h Header, order binary.ByteOrder, payload []byte, target Message) (Message, error) {
	m, err := c.instance(h.TypeID, target)
	if err != nil {
		return nil, err
	}
	m.Clear()
	env := m.Meta()
	env.Timestamp = h.Timestamp
	env.Source = h.Source
	env.SourceEntity = h.SourceEntity
	env.Destination = h.Destination
	env.DestinationEntity = h.DestinationEntity

	r := NewReader(payload, order, c.registry)
	n, err := decodeFields(m, r, order != ByteOrder)
	if err == nil && n != len(payload) {
		err = fmt.Errorf("%w: %s consumed=%d declared=%d", ErrTruncatedPayload, m.Name(), n, len(payload))
	}
	if err != nil {
		m.Clear()
		return nil, fmt.Errorf("protocol: deserialize %s: %w", m.Name(), err)
	}
	if cm, ok := m.(Composite); ok {
		cm.SyncNested()
	}
	return m, nil
}
