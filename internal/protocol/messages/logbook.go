package messages

import (
	"github.com/danmuck/imcctl/internal/protocol"
	"github.com/danmuck/imcctl/internal/protocol/wire"
)

// LogBookEntryType is the severity of a log book entry.
type LogBookEntryType uint8

const (
	LogBookInfo LogBookEntryType = iota
	LogBookWarning
	LogBookError
	LogBookCritical
	LogBookDebug
)

// LogBookEntry is one human readable entry of a system log book.
type LogBookEntry struct {
	protocol.Envelope
	Type    LogBookEntryType
	HTime   float64
	Context string
	Text    string
}

func NewLogBookEntry() *LogBookEntry { return &LogBookEntry{Envelope: protocol.NewEnvelope()} }

func (m *LogBookEntry) ID() uint16   { return LogBookEntryID }
func (m *LogBookEntry) Name() string { return "LogBookEntry" }

func (m *LogBookEntry) Clone() protocol.Message {
	c := *m
	return &c
}

func (m *LogBookEntry) Clear() {
	m.Type = 0
	m.HTime = 0
	m.Context, m.Text = "", ""
}

func (m *LogBookEntry) Validate() error {
	if m.Type > LogBookDebug {
		return invalid(m, "type", "unknown entry type")
	}
	return nil
}

func (m *LogBookEntry) FieldsEqual(other protocol.Message) bool {
	o, ok := other.(*LogBookEntry)
	return ok && m.Type == o.Type && m.HTime == o.HTime && m.Context == o.Context && m.Text == o.Text
}

func (m *LogBookEntry) FixedSerializationSize() int { return 1 + 8 }

func (m *LogBookEntry) VariableSerializationSize() int {
	return wire.TextSize(m.Context) + wire.TextSize(m.Text)
}

func (m *LogBookEntry) SerializeFields(w *wire.Writer) int {
	start := w.Len()
	w.U8(uint8(m.Type))
	w.F64(m.HTime)
	w.Text(m.Context)
	w.Text(m.Text)
	return w.Len() - start
}

func (m *LogBookEntry) DeserializeFields(r *protocol.Reader) (int, error) {
	start := r.Offset()
	m.Type = LogBookEntryType(r.U8())
	m.HTime = r.F64()
	m.Context = r.Text()
	m.Text = r.Text()
	return r.Offset() - start, r.Err()
}

func (m *LogBookEntry) ReverseDeserializeFields(r *protocol.Reader) (int, error) {
	return m.DeserializeFields(r)
}

// LogBookCommand selects the log book operation.
type LogBookCommand uint8

const (
	LogBookGet LogBookCommand = iota
	LogBookClear
	LogBookGetErr
	LogBookReply
)

// LogBookControl queries or clears the log book; replies carry entries.
type LogBookControl struct {
	protocol.Envelope
	Command LogBookCommand
	HTime   float64
	Entries protocol.MessageList[*LogBookEntry]
}

func NewLogBookControl() *LogBookControl {
	return &LogBookControl{Envelope: protocol.NewEnvelope()}
}

func (m *LogBookControl) ID() uint16   { return LogBookControlID }
func (m *LogBookControl) Name() string { return "LogBookControl" }

func (m *LogBookControl) Clone() protocol.Message {
	c := &LogBookControl{Envelope: m.Envelope, Command: m.Command, HTime: m.HTime}
	m.Entries.CloneInto(&c.Entries)
	return c
}

func (m *LogBookControl) Clear() {
	m.Command = 0
	m.HTime = 0
	m.Entries.Clear()
}

func (m *LogBookControl) Validate() error {
	if m.Command > LogBookReply {
		return invalid(m, "command", "unknown command")
	}
	for _, e := range m.Entries.All() {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m *LogBookControl) SyncNested() {
	m.Entries.SetParent(m)
}

func (m *LogBookControl) FieldsEqual(other protocol.Message) bool {
	o, ok := other.(*LogBookControl)
	return ok && m.Command == o.Command && m.HTime == o.HTime && m.Entries.Equal(&o.Entries)
}

func (m *LogBookControl) FixedSerializationSize() int    { return 1 + 8 }
func (m *LogBookControl) VariableSerializationSize() int { return m.Entries.SerializationSize() }

func (m *LogBookControl) SerializeFields(w *wire.Writer) int {
	start := w.Len()
	w.U8(uint8(m.Command))
	w.F64(m.HTime)
	m.Entries.Serialize(w)
	return w.Len() - start
}

func (m *LogBookControl) DeserializeFields(r *protocol.Reader) (int, error) {
	return m.decode(r, false)
}

func (m *LogBookControl) ReverseDeserializeFields(r *protocol.Reader) (int, error) {
	return m.decode(r, true)
}

func (m *LogBookControl) decode(r *protocol.Reader, reverse bool) (int, error) {
	start := r.Offset()
	m.Command = LogBookCommand(r.U8())
	m.HTime = r.F64()
	if err := r.Err(); err != nil {
		return r.Offset() - start, err
	}
	var err error
	if reverse {
		_, err = m.Entries.ReverseDeserialize(r)
	} else {
		_, err = m.Entries.Deserialize(r)
	}
	return r.Offset() - start, err
}
