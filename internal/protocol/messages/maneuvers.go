package messages

import (
	"github.com/danmuck/imcctl/internal/protocol"
	"github.com/danmuck/imcctl/internal/protocol/wire"
)

// ZUnits qualifies a vertical reference.
type ZUnits uint8

const (
	ZNone ZUnits = iota
	ZDepth
	ZAltitude
	ZHeight
)

// SpeedUnits qualifies a speed reference.
type SpeedUnits uint8

const (
	SpeedMetersPS SpeedUnits = iota
	SpeedRPM
	SpeedPercentage
)

func validateRefs(m protocol.Message, z ZUnits, speed SpeedUnits) error {
	if z > ZHeight {
		return invalid(m, "z_units", "unknown z units")
	}
	if speed > SpeedPercentage {
		return invalid(m, "speed_units", "unknown speed units")
	}
	return nil
}

// Goto drives the vehicle to a waypoint.
type Goto struct {
	protocol.Envelope
	Timeout    uint16
	Lat        float64
	Lon        float64
	Z          float32
	ZUnits     ZUnits
	Speed      float32
	SpeedUnits SpeedUnits
	Roll       float64
	Pitch      float64
	Yaw        float64
	Custom     string
}

func NewGoto() *Goto { return &Goto{Envelope: protocol.NewEnvelope()} }

func (m *Goto) ID() uint16   { return GotoID }
func (m *Goto) Name() string { return "Goto" }
func (m *Goto) isManeuver()  {}

func (m *Goto) Clone() protocol.Message {
	c := *m
	return &c
}

func (m *Goto) Clear() {
	*m = Goto{Envelope: m.Envelope}
}

func (m *Goto) Validate() error {
	return validateRefs(m, m.ZUnits, m.SpeedUnits)
}

func (m *Goto) FieldsEqual(other protocol.Message) bool {
	o, ok := other.(*Goto)
	if !ok {
		return false
	}
	a, b := *m, *o
	a.Envelope, b.Envelope = protocol.Envelope{}, protocol.Envelope{}
	return a == b
}

func (m *Goto) FixedSerializationSize() int    { return 2 + 8 + 8 + 4 + 1 + 4 + 1 + 8 + 8 + 8 }
func (m *Goto) VariableSerializationSize() int { return wire.TextSize(m.Custom) }

func (m *Goto) SerializeFields(w *wire.Writer) int {
	start := w.Len()
	w.U16(m.Timeout)
	w.F64(m.Lat)
	w.F64(m.Lon)
	w.F32(m.Z)
	w.U8(uint8(m.ZUnits))
	w.F32(m.Speed)
	w.U8(uint8(m.SpeedUnits))
	w.F64(m.Roll)
	w.F64(m.Pitch)
	w.F64(m.Yaw)
	w.Text(m.Custom)
	return w.Len() - start
}

func (m *Goto) DeserializeFields(r *protocol.Reader) (int, error) {
	start := r.Offset()
	m.Timeout = r.U16()
	m.Lat = r.F64()
	m.Lon = r.F64()
	m.Z = r.F32()
	m.ZUnits = ZUnits(r.U8())
	m.Speed = r.F32()
	m.SpeedUnits = SpeedUnits(r.U8())
	m.Roll = r.F64()
	m.Pitch = r.F64()
	m.Yaw = r.F64()
	m.Custom = r.Text()
	return r.Offset() - start, r.Err()
}

func (m *Goto) ReverseDeserializeFields(r *protocol.Reader) (int, error) {
	return m.DeserializeFields(r)
}

// StationKeeping holds the vehicle within a radius of a point.
type StationKeeping struct {
	protocol.Envelope
	Lat        float64
	Lon        float64
	Z          float32
	ZUnits     ZUnits
	Radius     float32
	Duration   uint16
	Speed      float32
	SpeedUnits SpeedUnits
	Custom     string
}

func NewStationKeeping() *StationKeeping {
	return &StationKeeping{Envelope: protocol.NewEnvelope()}
}

func (m *StationKeeping) ID() uint16   { return StationKeepingID }
func (m *StationKeeping) Name() string { return "StationKeeping" }
func (m *StationKeeping) isManeuver()  {}

func (m *StationKeeping) Clone() protocol.Message {
	c := *m
	return &c
}

func (m *StationKeeping) Clear() {
	*m = StationKeeping{Envelope: m.Envelope}
}

func (m *StationKeeping) Validate() error {
	if m.Radius < 0 {
		return invalid(m, "radius", "negative radius")
	}
	return validateRefs(m, m.ZUnits, m.SpeedUnits)
}

func (m *StationKeeping) FieldsEqual(other protocol.Message) bool {
	o, ok := other.(*StationKeeping)
	if !ok {
		return false
	}
	a, b := *m, *o
	a.Envelope, b.Envelope = protocol.Envelope{}, protocol.Envelope{}
	return a == b
}

func (m *StationKeeping) FixedSerializationSize() int    { return 8 + 8 + 4 + 1 + 4 + 2 + 4 + 1 }
func (m *StationKeeping) VariableSerializationSize() int { return wire.TextSize(m.Custom) }

func (m *StationKeeping) SerializeFields(w *wire.Writer) int {
	start := w.Len()
	w.F64(m.Lat)
	w.F64(m.Lon)
	w.F32(m.Z)
	w.U8(uint8(m.ZUnits))
	w.F32(m.Radius)
	w.U16(m.Duration)
	w.F32(m.Speed)
	w.U8(uint8(m.SpeedUnits))
	w.Text(m.Custom)
	return w.Len() - start
}

func (m *StationKeeping) DeserializeFields(r *protocol.Reader) (int, error) {
	start := r.Offset()
	m.Lat = r.F64()
	m.Lon = r.F64()
	m.Z = r.F32()
	m.ZUnits = ZUnits(r.U8())
	m.Radius = r.F32()
	m.Duration = r.U16()
	m.Speed = r.F32()
	m.SpeedUnits = SpeedUnits(r.U8())
	m.Custom = r.Text()
	return r.Offset() - start, r.Err()
}

func (m *StationKeeping) ReverseDeserializeFields(r *protocol.Reader) (int, error) {
	return m.DeserializeFields(r)
}

// PlanManeuver is one step of a plan: a maneuver with the actions run when
// it starts and ends.
type PlanManeuver struct {
	protocol.Envelope
	ManeuverID   string
	Data         protocol.InlineMessage[Maneuver]
	StartActions protocol.MessageList[protocol.Message]
	EndActions   protocol.MessageList[protocol.Message]
}

func NewPlanManeuver() *PlanManeuver { return &PlanManeuver{Envelope: protocol.NewEnvelope()} }

func (m *PlanManeuver) ID() uint16   { return PlanManeuverID }
func (m *PlanManeuver) Name() string { return "PlanManeuver" }

func (m *PlanManeuver) Clone() protocol.Message {
	c := &PlanManeuver{Envelope: m.Envelope, ManeuverID: m.ManeuverID}
	m.Data.CloneInto(&c.Data)
	m.StartActions.CloneInto(&c.StartActions)
	m.EndActions.CloneInto(&c.EndActions)
	return c
}

func (m *PlanManeuver) Clear() {
	m.ManeuverID = ""
	m.Data.Clear()
	m.StartActions.Clear()
	m.EndActions.Clear()
}

func (m *PlanManeuver) Validate() error {
	if m.ManeuverID == "" {
		return invalid(m, "maneuver_id", "empty")
	}
	if data, ok := m.Data.Get(); ok {
		if err := data.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m *PlanManeuver) SyncNested() {
	m.Data.SetParent(m)
	m.StartActions.SetParent(m)
	m.EndActions.SetParent(m)
}

func (m *PlanManeuver) FieldsEqual(other protocol.Message) bool {
	o, ok := other.(*PlanManeuver)
	return ok && m.ManeuverID == o.ManeuverID && m.Data.Equal(&o.Data) &&
		m.StartActions.Equal(&o.StartActions) && m.EndActions.Equal(&o.EndActions)
}

func (m *PlanManeuver) FixedSerializationSize() int { return 0 }

func (m *PlanManeuver) VariableSerializationSize() int {
	return wire.TextSize(m.ManeuverID) + m.Data.SerializationSize() +
		m.StartActions.SerializationSize() + m.EndActions.SerializationSize()
}

func (m *PlanManeuver) SerializeFields(w *wire.Writer) int {
	start := w.Len()
	w.Text(m.ManeuverID)
	m.Data.Serialize(w)
	m.StartActions.Serialize(w)
	m.EndActions.Serialize(w)
	return w.Len() - start
}

func (m *PlanManeuver) DeserializeFields(r *protocol.Reader) (int, error) {
	return m.decode(r, false)
}

func (m *PlanManeuver) ReverseDeserializeFields(r *protocol.Reader) (int, error) {
	return m.decode(r, true)
}

func (m *PlanManeuver) decode(r *protocol.Reader, reverse bool) (int, error) {
	start := r.Offset()
	m.ManeuverID = r.Text()
	if err := r.Err(); err != nil {
		return r.Offset() - start, err
	}
	steps := []func(*protocol.Reader) (int, error){
		m.Data.Deserialize, m.StartActions.Deserialize, m.EndActions.Deserialize,
	}
	if reverse {
		steps = []func(*protocol.Reader) (int, error){
			m.Data.ReverseDeserialize, m.StartActions.ReverseDeserialize, m.EndActions.ReverseDeserialize,
		}
	}
	for _, step := range steps {
		if _, err := step(r); err != nil {
			return r.Offset() - start, err
		}
	}
	return r.Offset() - start, nil
}
