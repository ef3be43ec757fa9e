// Package crc8 computes MSB-first CRC8 checksums with a configurable
// polynomial and seed and no output reflection or final xor.
package crc8

import (
	"sync"

	"github.com/sigurn/crc8"
)

var tables sync.Map // uint8 -> *crc8.Table

func table(poly uint8) *crc8.Table {
	if t, ok := tables.Load(poly); ok {
		return t.(*crc8.Table)
	}
	t, _ := tables.LoadOrStore(poly, crc8.MakeTable(crc8.Params{
		Poly: poly,
		Name: "CRC-8",
	}))
	return t.(*crc8.Table)
}

// CRC8 is a running checksum.
type CRC8 struct {
	table *crc8.Table
	value uint8
}

func New(poly, seed uint8) *CRC8 {
	return &CRC8{table: table(poly), value: seed}
}

// PutByte folds b into the checksum and returns the new value.
func (c *CRC8) PutByte(b byte) uint8 {
	c.value = crc8.Update(c.value, []byte{b}, c.table)
	return c.value
}

// PutArray folds data into the checksum and returns the new value.
func (c *CRC8) PutArray(data []byte) uint8 {
	c.value = crc8.Update(c.value, data, c.table)
	return c.value
}

func (c *CRC8) Value() uint8 { return c.value }

func (c *CRC8) Set(v uint8) { c.value = v }

// Checksum returns the CRC8 of data.
func Checksum(poly, seed uint8, data []byte) uint8 {
	return crc8.Update(seed, data, table(poly))
}
