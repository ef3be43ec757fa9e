package protocol

import "encoding/binary"

// Wire constants of the IMC v5 frame layout.
const (
	Sync         uint16 = 0xFE54
	SyncReversed uint16 = 0x54FE

	HeaderSize   = 20
	FooterSize   = 2
	MaxFrameSize = 65535

	// NullID marks an absent inline message and the unset system address.
	NullID uint16 = 0xFFFF

	UnknownEntity uint8 = 0xFF
	SystemEntity  uint8 = 0

	MaxListLen = 65535
)

// ByteOrder is the native byte order of the wire format. Frames whose sync
// marker reads as SyncReversed were written in the opposite order.
var ByteOrder binary.ByteOrder = binary.LittleEndian

// reversedOrder is the byte order of a frame carrying SyncReversed.
var reversedOrder binary.ByteOrder = binary.BigEndian
