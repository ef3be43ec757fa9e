package protocol

import (
	"math"
	"reflect"
	"time"

	"github.com/danmuck/imcctl/internal/protocol/wire"
)

// Message is the contract every concrete message type implements. Concrete
// types are generated; the protocol package only relies on this surface.
type Message interface {
	ID() uint16
	Name() string
	// Meta returns the envelope carried in every frame header.
	Meta() *Envelope

	Clone() Message
	// Clear resets type-specific fields; identity and envelope are kept.
	Clear()
	// Validate returns nil or a *ValidationError for the first violated constraint.
	Validate() error
	// FieldsEqual compares type-specific fields only.
	FieldsEqual(other Message) bool

	FixedSerializationSize() int
	VariableSerializationSize() int

	SerializeFields(w *wire.Writer) int
	DeserializeFields(r *Reader) (int, error)
	// ReverseDeserializeFields decodes fields of a byte-swapped frame.
	ReverseDeserializeFields(r *Reader) (int, error)
}

// SubIDer is implemented by message families sharing a secondary discriminator.
type SubIDer interface {
	SubID() uint16
	SetSubID(uint16)
}

// FPValuer is implemented by single-value messages.
type FPValuer interface {
	ValueFP() float64
	SetValueFP(float64)
}

// Composite is implemented by messages that embed other messages. SyncNested
// copies the envelope of the message onto every nested message.
type Composite interface {
	SyncNested()
}

// Envelope is the header block shared by all messages.
type Envelope struct {
	Timestamp         float64
	Source            uint16
	SourceEntity      uint8
	Destination       uint16
	DestinationEntity uint8
}

// NewEnvelope returns an envelope with the unknown/broadcast defaults.
func NewEnvelope() Envelope {
	return Envelope{
		Source:            NullID,
		SourceEntity:      UnknownEntity,
		Destination:       NullID,
		DestinationEntity: UnknownEntity,
	}
}

func (e *Envelope) Meta() *Envelope { return e }

// SetTimestampNow stamps the envelope with the current time and returns it.
func (e *Envelope) SetTimestampNow() float64 {
	now := time.Now()
	e.Timestamp = float64(now.UnixNano()) / float64(time.Second)
	return e.Timestamp
}

// Time converts the timestamp to a time.Time; zero when unset.
func (e *Envelope) Time() time.Time {
	if e.Timestamp == 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(e.Timestamp)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// CopyFrom copies every envelope field from src.
func (e *Envelope) CopyFrom(src *Envelope) {
	*e = *src
}

// Equal reports protocol equality: same type and equal fields.
func Equal(a, b Message) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	return a.ID() == b.ID() && a.FieldsEqual(b)
}

// PayloadSize returns the encoded size of the fields of m.
func PayloadSize(m Message) int {
	return m.FixedSerializationSize() + m.VariableSerializationSize()
}

// SerializationSize returns the total frame size of m.
func SerializationSize(m Message) int {
	return HeaderSize + PayloadSize(m) + FooterSize
}

func isNil(m Message) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
