package parser

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/danmuck/imcctl/internal/protocol"
	"github.com/danmuck/imcctl/internal/protocol/messages"
	"github.com/danmuck/imcctl/internal/testutil/testlog"
)

type recorder struct {
	decoded  []protocol.Message
	rejected []error
}

func (r *recorder) FrameDecoded(m protocol.Message) { r.decoded = append(r.decoded, m) }
func (r *recorder) FrameRejected(err error)         { r.rejected = append(r.rejected, err) }

func (r *recorder) rejectedWith(target error) bool {
	for _, err := range r.rejected {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func testCodec(t *testing.T) *protocol.Codec {
	t.Helper()
	reg := protocol.NewRegistry()
	if err := messages.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	return protocol.NewCodec(reg, protocol.DefaultLimits())
}

func sampleGoto() *messages.Goto {
	m := messages.NewGoto()
	m.Timeout, m.Lat, m.Lon = 120, 0.5, -0.25
	m.Speed, m.SpeedUnits = 1.5, messages.SpeedMetersPS
	m.Custom = "a=b"
	m.Source, m.Timestamp = 0x21, 3
	return m
}

func sampleTemperature(v float32) *messages.Temperature {
	m := messages.NewTemperature()
	m.Value = v
	return m
}

func frame(t *testing.T, c *protocol.Codec, m protocol.Message) []byte {
	t.Helper()
	b, err := c.Serialize(m)
	if err != nil {
		t.Fatalf("serialize %s: %v", m.Name(), err)
	}
	return b
}

func TestFeedByteAtATime(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	m := sampleGoto()
	b := frame(t, codec, m)

	p := New(codec)
	var got []protocol.Message
	for i, c := range b {
		out, err := p.Feed(c)
		if err != nil {
			t.Fatalf("byte %d: unexpected error %v", i, err)
		}
		if out != nil {
			if i != len(b)-1 {
				t.Fatalf("message completed early at byte %d", i)
			}
			got = append(got, out)
		}
	}
	if len(got) != 1 || !protocol.Equal(m, got[0]) {
		t.Fatalf("expected one equal message, got %d", len(got))
	}
	if *got[0].Meta() != m.Envelope {
		t.Fatalf("envelope mismatch: %+v", *got[0].Meta())
	}

	batch, err := New(codec).Parse(b)
	if err != nil || !protocol.Equal(m, batch) {
		t.Fatalf("batch parse mismatch: err=%v", err)
	}
}

func TestParseReturnsLastMessage(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	stream := append(frame(t, codec, sampleTemperature(1)), frame(t, codec, sampleTemperature(2))...)

	p := New(codec)
	out, err := p.Parse(stream)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.(*messages.Temperature).Value != 2 {
		t.Fatalf("expected last message, got %+v", out)
	}

	all := New(codec).ParseAll(stream)
	if len(all) != 2 || all[0].(*messages.Temperature).Value != 1 {
		t.Fatalf("ParseAll mismatch: %d messages", len(all))
	}

	none, err := New(codec).Parse(stream[:10])
	if none != nil || err != nil {
		t.Fatalf("partial input must yield nothing, got %v %v", none, err)
	}
}

func TestCorruptionResilience(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	good := sampleTemperature(21.5)
	valid := frame(t, codec, good)
	base := frame(t, codec, sampleTemperature(1.5))

	for i := protocol.HeaderSize; i < len(base)-protocol.FooterSize; i++ {
		for bit := 0; bit < 8; bit++ {
			corrupt := bytes.Clone(base)
			corrupt[i] ^= 1 << bit

			rec := &recorder{}
			p := New(codec, WithObserver(rec))
			if out, _ := p.Parse(corrupt); out != nil {
				t.Fatalf("byte=%d bit=%d: corrupt frame decoded", i, bit)
			}
			if !rec.rejectedWith(protocol.ErrChecksumMismatch) {
				t.Fatalf("byte=%d bit=%d: expected checksum rejection, got %v", i, bit, rec.rejected)
			}
			if p.state != stateSeekSync {
				t.Fatalf("byte=%d bit=%d: state=%s", i, bit, p.state)
			}

			all := p.ParseAll(valid)
			if len(all) != 1 || !protocol.Equal(good, all[0]) {
				t.Fatalf("byte=%d bit=%d: following frame lost", i, bit)
			}
		}
	}
}

func TestResyncAfterNoise(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	m := sampleGoto()
	noise := []byte{0x00, 0x13, 0x37, 0xAA, 0x54, 0x00, 0xFE, 0xFE, 0x12, 0x99}
	stream := append(bytes.Clone(noise), frame(t, codec, m)...)

	p := New(codec)
	all := p.ParseAll(stream)
	if len(all) != 1 || !protocol.Equal(m, all[0]) {
		t.Fatalf("expected frame after noise, got %d", len(all))
	}
	st := p.Stats()
	if st.DiscardedBytes != uint64(len(noise)) {
		t.Fatalf("discarded=%d want=%d", st.DiscardedBytes, len(noise))
	}
	if st.Frames != 1 || st.Bytes != uint64(len(stream)) {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestStartMidFrame(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	first := frame(t, codec, sampleGoto())
	second := sampleTemperature(4)
	stream := append(bytes.Clone(first[7:]), frame(t, codec, second)...)

	all := New(codec).ParseAll(stream)
	if len(all) != 1 || !protocol.Equal(second, all[0]) {
		t.Fatalf("expected only the complete frame, got %d", len(all))
	}
}

// header builds a native-order header declaring size and id.
func header(id uint16, size int) []byte {
	buf := make([]byte, protocol.HeaderSize)
	_, _ = protocol.SerializeHeader(protocol.Header{
		TypeID:            id,
		Size:              uint16(size),
		Source:            protocol.NullID,
		SourceEntity:      protocol.UnknownEntity,
		Destination:       protocol.NullID,
		DestinationEntity: protocol.UnknownEntity,
	}, buf)
	return buf
}

func TestOversizedFrameRejectedAtHeader(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	rec := &recorder{}
	p := New(codec, WithMaxFrameSize(64), WithObserver(rec))

	h := header(messages.TemperatureID, 4000)
	var last error
	for i, c := range h {
		_, err := p.Feed(c)
		if err != nil {
			if i != len(h)-1 {
				t.Fatalf("rejected before the header completed (byte %d)", i)
			}
			last = err
		}
	}
	if !errors.Is(last, protocol.ErrOversizedFrame) {
		t.Fatalf("expected ErrOversizedFrame, got %v", last)
	}
	if p.Stats().Oversized != 1 {
		t.Fatalf("oversized counter=%d", p.Stats().Oversized)
	}

	good := sampleTemperature(9)
	all := p.ParseAll(frame(t, codec, good))
	if len(all) != 1 || !protocol.Equal(good, all[0]) {
		t.Fatalf("frame after oversized header lost")
	}
}

// wrappedFrames builds a bogus header declaring 200 bytes that swallows two
// valid frames; the checksum fails and the rescan must recover both.
func wrappedFrames(t *testing.T, codec *protocol.Codec) []byte {
	t.Helper()
	stream := header(messages.TemperatureID, 200)
	stream = append(stream, frame(t, codec, sampleTemperature(1))...)
	stream = append(stream, frame(t, codec, sampleTemperature(2))...)
	return append(stream, make([]byte, 200-len(stream))...)
}

func TestRescanYieldsEveryWrappedFrame(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	stream := wrappedFrames(t, codec)

	rec := &recorder{}
	all := New(codec, WithObserver(rec)).ParseAll(stream)
	if len(all) != 2 || len(rec.decoded) != 2 {
		t.Fatalf("expected 2 messages, got %d (observer saw %d)", len(all), len(rec.decoded))
	}
	for i, m := range all {
		if got := m.(*messages.Temperature).Value; got != float32(i+1) {
			t.Fatalf("message %d out of order: value=%v", i, got)
		}
	}
	if !rec.rejectedWith(protocol.ErrChecksumMismatch) {
		t.Fatalf("wrapping candidate not rejected")
	}

	p := New(codec)
	var fed []protocol.Message
	for _, c := range stream {
		if m, _ := p.Feed(c); m != nil {
			fed = append(fed, m)
		}
	}
	for p.Buffered() > 0 {
		if m, _ := p.Flush(); m != nil {
			fed = append(fed, m)
		}
	}
	if len(fed) != 2 {
		t.Fatalf("byte-at-a-time collected %d messages", len(fed))
	}
	if st := p.Stats(); st.Frames != 2 || st.Bytes != uint64(len(stream)) {
		t.Fatalf("unexpected stats %+v", st)
	}

	last, err := New(codec).Parse(stream)
	if !errors.Is(err, protocol.ErrChecksumMismatch) || last.(*messages.Temperature).Value != 2 {
		t.Fatalf("Parse must return the last frame and rejection: %v %v", last, err)
	}
}

func TestResetDropsQueuedRescan(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	stream := wrappedFrames(t, codec)
	p := New(codec)
	var got protocol.Message
	for _, c := range stream {
		if m, _ := p.Feed(c); m != nil {
			got = m
			break
		}
	}
	if got == nil || p.Buffered() == 0 {
		t.Fatalf("expected a message with bytes still queued, buffered=%d", p.Buffered())
	}
	p.Reset()
	if p.Buffered() != 0 {
		t.Fatalf("reset kept %d queued bytes", p.Buffered())
	}
	if m, err := p.Flush(); m != nil || err != nil {
		t.Fatalf("flush after reset: %v %v", m, err)
	}
}

func TestUnknownTypeRejectedAtHeader(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	p := New(codec)
	_, err := p.Parse(header(999, 30))
	if !errors.Is(err, protocol.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if p.Stats().UnknownTypes != 1 || p.Stats().Resyncs == 0 {
		t.Fatalf("unexpected stats %+v", p.Stats())
	}
}

func TestDeclaredSizeBelowMinimum(t *testing.T) {
	testlog.Start(t)
	p := New(testCodec(t))
	_, err := p.Parse(header(messages.HeartbeatID, 10))
	if !errors.Is(err, protocol.ErrTruncatedPayload) {
		t.Fatalf("expected ErrTruncatedPayload, got %v", err)
	}
}

func TestDecodeFailureAfterValidChecksum(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	// Temperature needs four payload bytes; declare two.
	total := protocol.HeaderSize + 2 + protocol.FooterSize
	b := append(header(messages.TemperatureID, total), 0x01, 0x02, 0, 0)
	binary.LittleEndian.PutUint16(b[total-2:], protocol.Checksum(b[:total-2]))

	rec := &recorder{}
	p := New(codec, WithObserver(rec))
	out, err := p.Parse(b)
	if out != nil || !errors.Is(err, protocol.ErrTruncatedPayload) {
		t.Fatalf("expected decode failure, got %v %v", out, err)
	}
	if p.Stats().DecodeFailures != 1 || len(rec.rejected) != 1 {
		t.Fatalf("unexpected stats %+v", p.Stats())
	}
}

func TestReversedFrame(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	be := binary.BigEndian
	total := protocol.HeaderSize + 4 + protocol.FooterSize
	b := make([]byte, total)
	be.PutUint16(b[0:], protocol.Sync)
	be.PutUint16(b[2:], messages.TemperatureID)
	be.PutUint16(b[4:], uint16(total))
	be.PutUint64(b[6:], math.Float64bits(12.5))
	be.PutUint16(b[14:], 0x0A0B)
	b[16] = 3
	be.PutUint16(b[17:], protocol.NullID)
	b[19] = protocol.UnknownEntity
	be.PutUint32(b[20:], math.Float32bits(-2.5))
	be.PutUint16(b[24:], protocol.Checksum(b[:24]))

	out, err := New(codec).Parse(b)
	if err != nil {
		t.Fatalf("parse reversed frame: %v", err)
	}
	temp := out.(*messages.Temperature)
	if temp.Value != -2.5 || temp.Source != 0x0A0B || temp.SourceEntity != 3 || temp.Timestamp != 12.5 {
		t.Fatalf("unexpected decode %+v", temp)
	}
}

func TestResetDropsPartialFrame(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	b := frame(t, codec, sampleTemperature(3))
	p := New(codec)
	if out, _ := p.Parse(b[:len(b)-3]); out != nil {
		t.Fatalf("partial frame decoded")
	}
	p.Reset()
	if out, _ := p.Parse(b[len(b)-3:]); out != nil {
		t.Fatalf("tail decoded after reset")
	}
	if out, _ := p.Parse(b); out == nil {
		t.Fatalf("full frame after reset not decoded")
	}
}

func TestObserverSeesEveryOutcome(t *testing.T) {
	testlog.Start(t)
	codec := testCodec(t)
	a, b := &recorder{}, &recorder{}
	p := New(codec, WithObserver(Observers{a, b}))

	bad := frame(t, codec, sampleTemperature(1))
	bad[protocol.HeaderSize] ^= 0x01
	stream := append(bad, frame(t, codec, sampleGoto())...)
	p.ParseAll(stream)

	for _, rec := range []*recorder{a, b} {
		if len(rec.decoded) != 1 || rec.decoded[0].Name() != "Goto" {
			t.Fatalf("decoded=%d", len(rec.decoded))
		}
		if !rec.rejectedWith(protocol.ErrChecksumMismatch) {
			t.Fatalf("checksum rejection not observed")
		}
	}
	if Reason(a.rejected[0]) != "checksum" {
		t.Fatalf("reason=%q", Reason(a.rejected[0]))
	}
}

func TestWithMaxFrameSizeBounds(t *testing.T) {
	codec := protocol.NewCodec(nil, protocol.Limits{MaxFrameSize: 512})
	if got := New(codec, WithMaxFrameSize(4096)).MaxFrameSize(); got != 512 {
		t.Fatalf("max frame must not exceed codec limit, got %d", got)
	}
	if got := New(codec, WithMaxFrameSize(128)).MaxFrameSize(); got != 128 {
		t.Fatalf("max frame=%d", got)
	}
	if got := New(codec, WithMaxFrameSize(-1)).MaxFrameSize(); got != 512 {
		t.Fatalf("invalid size must be ignored, got %d", got)
	}
}

func TestReasonLabels(t *testing.T) {
	cases := map[error]string{
		nil:                          "",
		protocol.ErrChecksumMismatch: "checksum",
		protocol.ErrOversizedFrame:   "oversized",
		protocol.ErrUnknownType:      "unknown_type",
		protocol.ErrTruncatedPayload: "truncated",
		protocol.ErrTypeMismatch:     "decode",
	}
	for err, want := range cases {
		if got := Reason(err); got != want {
			t.Fatalf("Reason(%v)=%q want %q", err, got, want)
		}
	}
}

func TestFeedWithoutRescanDoesNotAllocate(t *testing.T) {
	testlog.Start(t)
	p := New(testCodec(t))
	h := header(messages.TemperatureID, 26)
	allocs := testing.AllocsPerRun(100, func() {
		p.Feed(0x00)
		for _, c := range h {
			p.Feed(c)
		}
		p.Reset()
	})
	if allocs != 0 {
		t.Fatalf("expected no allocations, got %v", allocs)
	}
}
