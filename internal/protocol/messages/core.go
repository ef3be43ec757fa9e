package messages

import (
	"fmt"

	"github.com/danmuck/imcctl/internal/protocol"
	"github.com/danmuck/imcctl/internal/protocol/wire"
)

// Abort stops any executing activity on the destination.
type Abort struct {
	protocol.Envelope
}

func NewAbort() *Abort { return &Abort{Envelope: protocol.NewEnvelope()} }

func (m *Abort) ID() uint16                       { return AbortID }
func (m *Abort) Name() string                     { return "Abort" }
func (m *Abort) Clear()                           {}
func (m *Abort) Validate() error                  { return nil }
func (m *Abort) FixedSerializationSize() int      { return 0 }
func (m *Abort) VariableSerializationSize() int   { return 0 }
func (m *Abort) SerializeFields(*wire.Writer) int { return 0 }

func (m *Abort) Clone() protocol.Message {
	c := *m
	return &c
}

func (m *Abort) FieldsEqual(other protocol.Message) bool {
	_, ok := other.(*Abort)
	return ok
}

func (m *Abort) DeserializeFields(*protocol.Reader) (int, error)        { return 0, nil }
func (m *Abort) ReverseDeserializeFields(*protocol.Reader) (int, error) { return 0, nil }

// Heartbeat signals that the source system is alive.
type Heartbeat struct {
	protocol.Envelope
}

func NewHeartbeat() *Heartbeat { return &Heartbeat{Envelope: protocol.NewEnvelope()} }

func (m *Heartbeat) ID() uint16                       { return HeartbeatID }
func (m *Heartbeat) Name() string                     { return "Heartbeat" }
func (m *Heartbeat) Clear()                           {}
func (m *Heartbeat) Validate() error                  { return nil }
func (m *Heartbeat) FixedSerializationSize() int      { return 0 }
func (m *Heartbeat) VariableSerializationSize() int   { return 0 }
func (m *Heartbeat) SerializeFields(*wire.Writer) int { return 0 }

func (m *Heartbeat) Clone() protocol.Message {
	c := *m
	return &c
}

func (m *Heartbeat) FieldsEqual(other protocol.Message) bool {
	_, ok := other.(*Heartbeat)
	return ok
}

func (m *Heartbeat) DeserializeFields(*protocol.Reader) (int, error)        { return 0, nil }
func (m *Heartbeat) ReverseDeserializeFields(*protocol.Reader) (int, error) { return 0, nil }

// SystemType classifies an announcing system.
type SystemType uint8

const (
	SystemCCU SystemType = iota
	SystemHumanSensor
	SystemUUV
	SystemUSV
	SystemUAV
	SystemUGV
	SystemStaticSensor
	SystemMobileSensor
	SystemWSN
)

// Announce advertises a system and its services on the network.
type Announce struct {
	protocol.Envelope
	SysName  string
	SysType  SystemType
	Owner    uint16
	Lat      float64
	Lon      float64
	Height   float32
	Services string
}

func NewAnnounce() *Announce {
	return &Announce{Envelope: protocol.NewEnvelope(), Owner: protocol.NullID}
}

func (m *Announce) ID() uint16   { return AnnounceID }
func (m *Announce) Name() string { return "Announce" }

func (m *Announce) Clone() protocol.Message {
	c := *m
	return &c
}

func (m *Announce) Clear() {
	m.SysName = ""
	m.SysType = 0
	m.Owner = protocol.NullID
	m.Lat, m.Lon, m.Height = 0, 0, 0
	m.Services = ""
}

func (m *Announce) Validate() error {
	if m.SysType > SystemWSN {
		return invalid(m, "sys_type", "unknown system type")
	}
	return nil
}

func (m *Announce) FieldsEqual(other protocol.Message) bool {
	o, ok := other.(*Announce)
	if !ok {
		return false
	}
	return m.SysName == o.SysName && m.SysType == o.SysType && m.Owner == o.Owner &&
		m.Lat == o.Lat && m.Lon == o.Lon && m.Height == o.Height && m.Services == o.Services
}

func (m *Announce) FixedSerializationSize() int { return 1 + 2 + 8 + 8 + 4 }

func (m *Announce) VariableSerializationSize() int {
	return wire.TextSize(m.SysName) + wire.TextSize(m.Services)
}

func (m *Announce) SerializeFields(w *wire.Writer) int {
	start := w.Len()
	w.Text(m.SysName)
	w.U8(uint8(m.SysType))
	w.U16(m.Owner)
	w.F64(m.Lat)
	w.F64(m.Lon)
	w.F32(m.Height)
	w.Text(m.Services)
	return w.Len() - start
}

func (m *Announce) DeserializeFields(r *protocol.Reader) (int, error) {
	start := r.Offset()
	m.SysName = r.Text()
	m.SysType = SystemType(r.U8())
	m.Owner = r.U16()
	m.Lat = r.F64()
	m.Lon = r.F64()
	m.Height = r.F32()
	m.Services = r.Text()
	return r.Offset() - start, r.Err()
}

func (m *Announce) ReverseDeserializeFields(r *protocol.Reader) (int, error) {
	return m.DeserializeFields(r)
}

// EntityInfo describes one entity of the source system. Its sub id is the
// entity id.
type EntityInfo struct {
	protocol.Envelope
	EntityID  uint8
	Label     string
	Component string
	ActTime   uint16
	DeactTime uint16
}

func NewEntityInfo() *EntityInfo { return &EntityInfo{Envelope: protocol.NewEnvelope()} }

func (m *EntityInfo) ID() uint16         { return EntityInfoID }
func (m *EntityInfo) Name() string       { return "EntityInfo" }
func (m *EntityInfo) SubID() uint16      { return uint16(m.EntityID) }
func (m *EntityInfo) SetSubID(id uint16) { m.EntityID = uint8(id) }
func (m *EntityInfo) Validate() error    { return nil }

func (m *EntityInfo) Clone() protocol.Message {
	c := *m
	return &c
}

func (m *EntityInfo) Clear() {
	m.EntityID = 0
	m.Label, m.Component = "", ""
	m.ActTime, m.DeactTime = 0, 0
}

func (m *EntityInfo) FieldsEqual(other protocol.Message) bool {
	o, ok := other.(*EntityInfo)
	if !ok {
		return false
	}
	return m.EntityID == o.EntityID && m.Label == o.Label && m.Component == o.Component &&
		m.ActTime == o.ActTime && m.DeactTime == o.DeactTime
}

func (m *EntityInfo) FixedSerializationSize() int { return 1 + 2 + 2 }

func (m *EntityInfo) VariableSerializationSize() int {
	return wire.TextSize(m.Label) + wire.TextSize(m.Component)
}

func (m *EntityInfo) SerializeFields(w *wire.Writer) int {
	start := w.Len()
	w.U8(m.EntityID)
	w.Text(m.Label)
	w.Text(m.Component)
	w.U16(m.ActTime)
	w.U16(m.DeactTime)
	return w.Len() - start
}

func (m *EntityInfo) DeserializeFields(r *protocol.Reader) (int, error) {
	start := r.Offset()
	m.EntityID = r.U8()
	m.Label = r.Text()
	m.Component = r.Text()
	m.ActTime = r.U16()
	m.DeactTime = r.U16()
	return r.Offset() - start, r.Err()
}

func (m *EntityInfo) ReverseDeserializeFields(r *protocol.Reader) (int, error) {
	return m.DeserializeFields(r)
}

// EntityParameter is a named parameter value of an entity.
type EntityParameter struct {
	protocol.Envelope
	ParamName string
	Value     string
}

func NewEntityParameter() *EntityParameter {
	return &EntityParameter{Envelope: protocol.NewEnvelope()}
}

func (m *EntityParameter) ID() uint16      { return EntityParameterID }
func (m *EntityParameter) Name() string    { return "EntityParameter" }
func (m *EntityParameter) Validate() error { return nil }

func (m *EntityParameter) Clone() protocol.Message {
	c := *m
	return &c
}

func (m *EntityParameter) Clear() {
	m.ParamName, m.Value = "", ""
}

func (m *EntityParameter) FieldsEqual(other protocol.Message) bool {
	o, ok := other.(*EntityParameter)
	return ok && m.ParamName == o.ParamName && m.Value == o.Value
}

func (m *EntityParameter) FixedSerializationSize() int { return 0 }

func (m *EntityParameter) VariableSerializationSize() int {
	return wire.TextSize(m.ParamName) + wire.TextSize(m.Value)
}

func (m *EntityParameter) SerializeFields(w *wire.Writer) int {
	start := w.Len()
	w.Text(m.ParamName)
	w.Text(m.Value)
	return w.Len() - start
}

func (m *EntityParameter) DeserializeFields(r *protocol.Reader) (int, error) {
	start := r.Offset()
	m.ParamName = r.Text()
	m.Value = r.Text()
	return r.Offset() - start, r.Err()
}

func (m *EntityParameter) ReverseDeserializeFields(r *protocol.Reader) (int, error) {
	return m.DeserializeFields(r)
}

// SetEntityParameters assigns a batch of parameters to the named entity.
type SetEntityParameters struct {
	protocol.Envelope
	EntityName string
	Params     protocol.MessageList[*EntityParameter]
}

func NewSetEntityParameters() *SetEntityParameters {
	return &SetEntityParameters{Envelope: protocol.NewEnvelope()}
}

func (m *SetEntityParameters) ID() uint16   { return SetEntityParametersID }
func (m *SetEntityParameters) Name() string { return "SetEntityParameters" }

func (m *SetEntityParameters) Clone() protocol.Message {
	c := &SetEntityParameters{Envelope: m.Envelope, EntityName: m.EntityName}
	m.Params.CloneInto(&c.Params)
	return c
}

func (m *SetEntityParameters) Clear() {
	m.EntityName = ""
	m.Params.Clear()
}

func (m *SetEntityParameters) Validate() error {
	for i, p := range m.Params.All() {
		if p.ParamName == "" {
			return invalid(m, "params", fmt.Sprintf("parameter %d has no name", i))
		}
	}
	return nil
}

func (m *SetEntityParameters) SyncNested() {
	m.Params.SetParent(m)
}

func (m *SetEntityParameters) FieldsEqual(other protocol.Message) bool {
	o, ok := other.(*SetEntityParameters)
	return ok && m.EntityName == o.EntityName && m.Params.Equal(&o.Params)
}

func (m *SetEntityParameters) FixedSerializationSize() int { return 0 }

func (m *SetEntityParameters) VariableSerializationSize() int {
	return wire.TextSize(m.EntityName) + m.Params.SerializationSize()
}

func (m *SetEntityParameters) SerializeFields(w *wire.Writer) int {
	start := w.Len()
	w.Text(m.EntityName)
	m.Params.Serialize(w)
	return w.Len() - start
}

func (m *SetEntityParameters) DeserializeFields(r *protocol.Reader) (int, error) {
	return m.decode(r, false)
}

func (m *SetEntityParameters) ReverseDeserializeFields(r *protocol.Reader) (int, error) {
	return m.decode(r, true)
}

func (m *SetEntityParameters) decode(r *protocol.Reader, reverse bool) (int, error) {
	start := r.Offset()
	m.EntityName = r.Text()
	if err := r.Err(); err != nil {
		return r.Offset() - start, err
	}
	var err error
	if reverse {
		_, err = m.Params.ReverseDeserialize(r)
	} else {
		_, err = m.Params.Deserialize(r)
	}
	return r.Offset() - start, err
}
