package observability

import (
	"fmt"
	"time"

	"github.com/danmuck/imcctl/internal/protocol"
)

// Summary is the one-line view of a decoded message used by the CLI and
// the monitor.
type Summary struct {
	Name              string    `json:"name"`
	ID                uint16    `json:"id"`
	Size              int       `json:"size"`
	Time              time.Time `json:"time"`
	Source            uint16    `json:"src"`
	SourceEntity      uint8     `json:"src_ent"`
	Destination       uint16    `json:"dst"`
	DestinationEntity uint8     `json:"dst_ent"`
}

func Summarize(m protocol.Message) Summary {
	env := m.Meta()
	return Summary{
		Name:              m.Name(),
		ID:                m.ID(),
		Size:              protocol.SerializationSize(m),
		Time:              env.Time().UTC(),
		Source:            env.Source,
		SourceEntity:      env.SourceEntity,
		Destination:       env.Destination,
		DestinationEntity: env.DestinationEntity,
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%s %s(%d) %d bytes %#04x/%d -> %#04x/%d",
		s.Time.Format(time.RFC3339Nano), s.Name, s.ID, s.Size,
		s.Source, s.SourceEntity, s.Destination, s.DestinationEntity)
}

// Namer resolves addresses to display names.
type Namer interface {
	System(id uint16) string
	Entity(id uint16, ent uint8) string
}

// Format renders the summary with addresses resolved through n.
func (s Summary) Format(n Namer) string {
	if n == nil {
		return s.String()
	}
	return fmt.Sprintf("%s %s(%d) %d bytes %s/%s -> %s/%s",
		s.Time.Format(time.RFC3339Nano), s.Name, s.ID, s.Size,
		n.System(s.Source), n.Entity(s.Source, s.SourceEntity),
		n.System(s.Destination), n.Entity(s.Destination, s.DestinationEntity))
}
