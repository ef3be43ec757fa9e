package messages

import (
	"github.com/danmuck/imcctl/internal/protocol"
	"github.com/danmuck/imcctl/internal/protocol/wire"
)

// Temperature is a temperature reading in degrees Celsius.
type Temperature struct {
	protocol.Envelope
	Value float32
}

func NewTemperature() *Temperature { return &Temperature{Envelope: protocol.NewEnvelope()} }

func (m *Temperature) ID() uint16                     { return TemperatureID }
func (m *Temperature) Name() string                   { return "Temperature" }
func (m *Temperature) Clear()                         { m.Value = 0 }
func (m *Temperature) Validate() error                { return nil }
func (m *Temperature) ValueFP() float64               { return float64(m.Value) }
func (m *Temperature) SetValueFP(v float64)           { m.Value = float32(v) }
func (m *Temperature) FixedSerializationSize() int    { return 4 }
func (m *Temperature) VariableSerializationSize() int { return 0 }

func (m *Temperature) Clone() protocol.Message {
	c := *m
	return &c
}

func (m *Temperature) FieldsEqual(other protocol.Message) bool {
	o, ok := other.(*Temperature)
	return ok && m.Value == o.Value
}

func (m *Temperature) SerializeFields(w *wire.Writer) int {
	w.F32(m.Value)
	return 4
}

func (m *Temperature) DeserializeFields(r *protocol.Reader) (int, error) {
	start := r.Offset()
	m.Value = r.F32()
	return r.Offset() - start, r.Err()
}

func (m *Temperature) ReverseDeserializeFields(r *protocol.Reader) (int, error) {
	return m.DeserializeFields(r)
}
