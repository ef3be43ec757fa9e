package parser

import "github.com/danmuck/imcctl/internal/protocol"

// Stats counts parser activity since construction.
type Stats struct {
	Frames           uint64 `json:"frames"`
	Bytes            uint64 `json:"bytes"`
	DiscardedBytes   uint64 `json:"discarded_bytes"`
	Resyncs          uint64 `json:"resyncs"`
	ChecksumFailures uint64 `json:"checksum_failures"`
	Oversized        uint64 `json:"oversized"`
	UnknownTypes     uint64 `json:"unknown_types"`
	Truncated        uint64 `json:"truncated"`
	DecodeFailures   uint64 `json:"decode_failures"`
}

// Observer receives every parser outcome. Calls happen synchronously on
// the goroutine feeding the parser.
type Observer interface {
	FrameDecoded(m protocol.Message)
	FrameRejected(reason error)
}

type nopObserver struct{}

func (nopObserver) FrameDecoded(protocol.Message) {}
func (nopObserver) FrameRejected(error)           {}

// Observers fans out to several observers in order.
type Observers []Observer

func (obs Observers) FrameDecoded(m protocol.Message) {
	for _, o := range obs {
		o.FrameDecoded(m)
	}
}

func (obs Observers) FrameRejected(reason error) {
	for _, o := range obs {
		o.FrameRejected(reason)
	}
}
