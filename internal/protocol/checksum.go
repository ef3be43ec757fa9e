package protocol

import "github.com/sigurn/crc16"

// The footer is a CRC16-IBM (ARC) over header and payload.
var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

// Checksum computes the footer value for b.
func Checksum(b []byte) uint16 {
	return crc16.Checksum(b, crcTable)
}

// CRC16 is a running footer checksum for callers that see a frame in pieces.
type CRC16 struct {
	crc uint16
}

func NewCRC16() *CRC16 {
	return &CRC16{crc: crc16.Init(crcTable)}
}

func (c *CRC16) Write(p []byte) {
	c.crc = crc16.Update(c.crc, p, crcTable)
}

func (c *CRC16) Sum16() uint16 {
	return crc16.Complete(c.crc, crcTable)
}

func (c *CRC16) Reset() {
	c.crc = crc16.Init(crcTable)
}
