package protocol

import (
	"math"
	"testing"

	"github.com/danmuck/imcctl/internal/protocol/wire"
)

// shape is a message group used to constrain lists in tests.
type shape interface {
	Message
	isShape()
}

type msgA struct {
	Envelope
	Value uint32
	Label string
}

func newMsgA() *msgA { return &msgA{Envelope: NewEnvelope()} }

func (m *msgA) ID() uint16      { return 1 }
func (m *msgA) Name() string    { return "A" }
func (m *msgA) isShape()        {}
func (m *msgA) Validate() error { return nil }

func (m *msgA) Clone() Message {
	c := *m
	return &c
}

func (m *msgA) Clear() {
	m.Value = 0
	m.Label = ""
}

func (m *msgA) FieldsEqual(other Message) bool {
	o, ok := other.(*msgA)
	return ok && m.Value == o.Value && m.Label == o.Label
}

func (m *msgA) FixedSerializationSize() int    { return 4 }
func (m *msgA) VariableSerializationSize() int { return wire.TextSize(m.Label) }

func (m *msgA) SerializeFields(w *wire.Writer) int {
	start := w.Len()
	w.U32(m.Value)
	w.Text(m.Label)
	return w.Len() - start
}

func (m *msgA) DeserializeFields(r *Reader) (int, error) {
	start := r.Offset()
	m.Value = r.U32()
	m.Label = r.Text()
	return r.Offset() - start, r.Err()
}

func (m *msgA) ReverseDeserializeFields(r *Reader) (int, error) {
	start := r.Offset()
	m.Value = r.U32()
	m.Label = r.Text()
	return r.Offset() - start, r.Err()
}

type msgB struct {
	Envelope
	Speed float64
	Units uint8
}

func newMsgB() *msgB { return &msgB{Envelope: NewEnvelope()} }

func (m *msgB) ID() uint16   { return 2 }
func (m *msgB) Name() string { return "B" }

func (m *msgB) Validate() error {
	if m.Units > 2 {
		return &ValidationError{Message: m.Name(), Field: "units", Reason: "out of range"}
	}
	return nil
}

func (m *msgB) Clone() Message {
	c := *m
	return &c
}

func (m *msgB) Clear() {
	m.Speed = 0
	m.Units = 0
}

func (m *msgB) FieldsEqual(other Message) bool {
	o, ok := other.(*msgB)
	return ok && m.Speed == o.Speed && m.Units == o.Units
}

func (m *msgB) FixedSerializationSize() int    { return 9 }
func (m *msgB) VariableSerializationSize() int { return 0 }

func (m *msgB) SerializeFields(w *wire.Writer) int {
	start := w.Len()
	w.F64(m.Speed)
	w.U8(m.Units)
	return w.Len() - start
}

func (m *msgB) DeserializeFields(r *Reader) (int, error) {
	start := r.Offset()
	m.Speed = r.F64()
	m.Units = r.U8()
	return r.Offset() - start, r.Err()
}

func (m *msgB) ReverseDeserializeFields(r *Reader) (int, error) {
	start := r.Offset()
	m.Speed = r.F64()
	m.Units = r.U8()
	return r.Offset() - start, r.Err()
}

// msgC nests the other test messages.
type msgC struct {
	Envelope
	Items  MessageList[Message]
	Shapes MessageList[shape]
	Inner  InlineMessage[shape]
}

func newMsgC() *msgC { return &msgC{Envelope: NewEnvelope()} }

func (m *msgC) ID() uint16      { return 3 }
func (m *msgC) Name() string    { return "C" }
func (m *msgC) Validate() error { return nil }

func (m *msgC) Clone() Message {
	c := &msgC{Envelope: m.Envelope}
	m.Items.CloneInto(&c.Items)
	m.Shapes.CloneInto(&c.Shapes)
	m.Inner.CloneInto(&c.Inner)
	return c
}

func (m *msgC) Clear() {
	m.Items.Clear()
	m.Shapes.Clear()
	m.Inner.Clear()
}

func (m *msgC) SyncNested() {
	m.Items.SetParent(m)
	m.Shapes.SetParent(m)
	m.Inner.SetParent(m)
}

func (m *msgC) FieldsEqual(other Message) bool {
	o, ok := other.(*msgC)
	return ok && m.Items.Equal(&o.Items) && m.Shapes.Equal(&o.Shapes) && m.Inner.Equal(&o.Inner)
}

func (m *msgC) FixedSerializationSize() int { return 0 }

func (m *msgC) VariableSerializationSize() int {
	return m.Items.SerializationSize() + m.Shapes.SerializationSize() + m.Inner.SerializationSize()
}

func (m *msgC) SerializeFields(w *wire.Writer) int {
	start := w.Len()
	m.Items.Serialize(w)
	m.Shapes.Serialize(w)
	m.Inner.Serialize(w)
	return w.Len() - start
}

func (m *msgC) DeserializeFields(r *Reader) (int, error) {
	start := r.Offset()
	if _, err := m.Items.Deserialize(r); err != nil {
		return r.Offset() - start, err
	}
	if _, err := m.Shapes.Deserialize(r); err != nil {
		return r.Offset() - start, err
	}
	if _, err := m.Inner.Deserialize(r); err != nil {
		return r.Offset() - start, err
	}
	return r.Offset() - start, r.Err()
}

func (m *msgC) ReverseDeserializeFields(r *Reader) (int, error) {
	start := r.Offset()
	if _, err := m.Items.ReverseDeserialize(r); err != nil {
		return r.Offset() - start, err
	}
	if _, err := m.Shapes.ReverseDeserialize(r); err != nil {
		return r.Offset() - start, err
	}
	if _, err := m.Inner.ReverseDeserialize(r); err != nil {
		return r.Offset() - start, err
	}
	return r.Offset() - start, r.Err()
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister(1, "A", func() Message { return newMsgA() })
	reg.MustRegister(2, "B", func() Message { return newMsgB() })
	reg.MustRegister(3, "C", func() Message { return newMsgC() })
	return reg
}

func testCodec(t *testing.T) *Codec {
	t.Helper()
	return NewCodec(testRegistry(t), DefaultLimits())
}

// buildFrame wraps payload in a native-order header and footer.
func buildFrame(id uint16, payload []byte) []byte {
	total := HeaderSize + len(payload) + FooterSize
	buf := make([]byte, total)
	_, _ = SerializeHeader(Header{
		TypeID:            id,
		Size:              uint16(total),
		Source:            NullID,
		SourceEntity:      UnknownEntity,
		Destination:       NullID,
		DestinationEntity: UnknownEntity,
	}, buf)
	copy(buf[HeaderSize:], payload)
	end := HeaderSize + len(payload)
	ByteOrder.PutUint16(buf[end:], Checksum(buf[:end]))
	return buf
}

func sampleC(t *testing.T) *msgC {
	t.Helper()
	c := newMsgC()
	a := newMsgA()
	a.Value, a.Label = 7, "first"
	b := newMsgB()
	b.Speed, b.Units = 1.25, 1
	a2 := newMsgA()
	a2.Value, a2.Label = math.MaxUint32, ""
	if err := c.Items.Append(a, b); err != nil {
		t.Fatalf("append items: %v", err)
	}
	if err := c.Shapes.Append(a2); err != nil {
		t.Fatalf("append shapes: %v", err)
	}
	inner := newMsgA()
	inner.Value, inner.Label = 99, "inner"
	c.Inner.Set(inner)
	return c
}
