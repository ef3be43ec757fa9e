// Package protocol owns the IMC wire contract.
//
// Ownership boundary:
// - message contract and envelope (identity, addressing, timestamp)
// - type registry (id/name to constructor)
// - packet framing (header, payload, checksum footer)
// - nested message containers (MessageList, InlineMessage)
//
// Field primitives live in protocol/wire and the incremental stream
// parser lives in protocol/parser.
package protocol
