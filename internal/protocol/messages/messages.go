// Package messages holds the concrete message types known to imcctl. Each
// type follows the same layout: an embedded protocol.Envelope, exported
// fields in wire order and the protocol.Message methods.
package messages

import (
	"github.com/danmuck/imcctl/internal/protocol"
)

// Maneuver is the group of messages that can be executed as a plan step.
type Maneuver interface {
	protocol.Message
	isManeuver()
}

// Message ids.
const (
	EntityInfoID          uint16 = 3
	LogBookControlID      uint16 = 103
	LogBookEntryID        uint16 = 104
	HeartbeatID           uint16 = 150
	AnnounceID            uint16 = 151
	TemperatureID         uint16 = 263
	GotoID                uint16 = 450
	StationKeepingID      uint16 = 461
	AbortID               uint16 = 550
	PlanManeuverID        uint16 = 552
	EntityParameterID     uint16 = 802
	SetEntityParametersID uint16 = 804
)

// Register adds every message type of this package to reg.
func Register(reg *protocol.Registry) error {
	for _, e := range catalog() {
		if err := reg.Register(e.ID, e.Name, e.New); err != nil {
			return err
		}
	}
	return nil
}

func catalog() []protocol.Entry {
	return []protocol.Entry{
		{ID: EntityInfoID, Name: "EntityInfo", New: func() protocol.Message { return NewEntityInfo() }},
		{ID: LogBookControlID, Name: "LogBookControl", New: func() protocol.Message { return NewLogBookControl() }},
		{ID: LogBookEntryID, Name: "LogBookEntry", New: func() protocol.Message { return NewLogBookEntry() }},
		{ID: HeartbeatID, Name: "Heartbeat", New: func() protocol.Message { return NewHeartbeat() }},
		{ID: AnnounceID, Name: "Announce", New: func() protocol.Message { return NewAnnounce() }},
		{ID: TemperatureID, Name: "Temperature", New: func() protocol.Message { return NewTemperature() }},
		{ID: GotoID, Name: "Goto", New: func() protocol.Message { return NewGoto() }},
		{ID: StationKeepingID, Name: "StationKeeping", New: func() protocol.Message { return NewStationKeeping() }},
		{ID: AbortID, Name: "Abort", New: func() protocol.Message { return NewAbort() }},
		{ID: PlanManeuverID, Name: "PlanManeuver", New: func() protocol.Message { return NewPlanManeuver() }},
		{ID: EntityParameterID, Name: "EntityParameter", New: func() protocol.Message { return NewEntityParameter() }},
		{ID: SetEntityParametersID, Name: "SetEntityParameters", New: func() protocol.Message { return NewSetEntityParameters() }},
	}
}

func init() {
	if err := Register(protocol.DefaultRegistry()); err != nil {
		panic(err)
	}
}

func invalid(m protocol.Message, field, reason string) error {
	return &protocol.ValidationError{Message: m.Name(), Field: field, Reason: reason}
}
