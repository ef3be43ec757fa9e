package protocol

import (
	"errors"
	"slices"
	"testing"
)

func listOfA(t *testing.T, values ...uint32) *MessageList[Message] {
	t.Helper()
	l := &MessageList[Message]{}
	for _, v := range values {
		a := newMsgA()
		a.Value = v
		if err := l.Append(a); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return l
}

func values(l *MessageList[Message]) []uint32 {
	out := make([]uint32, 0, l.Len())
	for _, m := range l.All() {
		out = append(out, m.(*msgA).Value)
	}
	return out
}

func TestMessageListAppendAndIterate(t *testing.T) {
	l := listOfA(t, 1, 2, 3)
	if l.Len() != 3 {
		t.Fatalf("len=%d", l.Len())
	}
	if got := values(l); !slices.Equal(got, []uint32{1, 2, 3}) {
		t.Fatalf("order mismatch: %v", got)
	}
	if err := l.Append(nil); !errors.Is(err, ErrNilMessage) {
		t.Fatalf("expected ErrNilMessage, got %v", err)
	}
	var typedNil *msgA
	if err := l.Append(typedNil); !errors.Is(err, ErrNilMessage) {
		t.Fatalf("expected ErrNilMessage for typed nil, got %v", err)
	}
	l.Clear()
	if l.Len() != 0 {
		t.Fatalf("clear left %d items", l.Len())
	}
}

func TestMessageListExtend(t *testing.T) {
	a, b := newMsgA(), newMsgB()
	l := &MessageList[Message]{}
	if err := l.Extend(slices.Values([]Message{a, b})); err != nil {
		t.Fatalf("extend: %v", err)
	}
	if l.Len() != 2 || l.At(0) != Message(a) || l.At(1) != Message(b) {
		t.Fatalf("extend did not keep order")
	}
}

func TestMessageListTooLong(t *testing.T) {
	l := &MessageList[Message]{}
	l.items = make([]Message, MaxListLen)
	if err := l.Append(newMsgA()); !errors.Is(err, ErrListTooLong) {
		t.Fatalf("expected ErrListTooLong, got %v", err)
	}
}

func TestMessageListSlice(t *testing.T) {
	l := listOfA(t, 0, 1, 2, 3, 4)
	cases := []struct {
		name        string
		start, stop int
		want        []uint32
	}{
		{name: "middle", start: 1, stop: 3, want: []uint32{1, 2}},
		{name: "negative start", start: -2, stop: 5, want: []uint32{3, 4}},
		{name: "negative stop", start: 0, stop: -3, want: []uint32{0, 1}},
		{name: "clamped", start: -10, stop: 10, want: []uint32{0, 1, 2, 3, 4}},
		{name: "empty", start: 4, stop: 2, want: []uint32{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := l.Slice(tc.start, tc.stop, 1)
			if err != nil {
				t.Fatalf("slice: %v", err)
			}
			if got := values(out); !slices.Equal(got, tc.want) {
				t.Fatalf("got=%v want=%v", got, tc.want)
			}
		})
	}

	out, err := l.Slice(0, 2, 1)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	out.At(0).(*msgA).Value = 100
	if l.At(0).(*msgA).Value != 0 {
		t.Fatalf("slice must copy elements")
	}

	if _, err := l.Slice(0, 5, 2); !errors.Is(err, ErrUnsupportedStep) {
		t.Fatalf("expected ErrUnsupportedStep, got %v", err)
	}
}

func TestMessageListContains(t *testing.T) {
	l := listOfA(t, 1, 2)
	needle := newMsgA()
	needle.Value = 2
	if !l.Contains(needle) {
		t.Fatalf("expected list to contain value 2")
	}
	needle.Source = 0x21
	if l.Contains(needle) {
		t.Fatalf("different envelope must not match")
	}
	l.SetSource(0x21)
	if !l.Contains(needle) {
		t.Fatalf("expected match once envelopes agree")
	}
	needle.Value = 3
	if l.Contains(needle) {
		t.Fatalf("unexpected match for value 3")
	}
	if l.Contains(newMsgB()) {
		t.Fatalf("different type must not match")
	}
	if l.Contains(nil) {
		t.Fatalf("nil must not match")
	}
}

func TestMessageListEqualAndClone(t *testing.T) {
	l := listOfA(t, 1, 2)
	clone := l.Clone()
	if !l.Equal(clone) {
		t.Fatalf("clone must be equal")
	}
	clone.At(1).(*msgA).Value = 7
	if l.Equal(clone) {
		t.Fatalf("clone must not share elements")
	}
	if l.Equal(listOfA(t, 2, 1)) {
		t.Fatalf("order must matter")
	}
	if l.Equal(listOfA(t, 1)) {
		t.Fatalf("length must matter")
	}

	var dst MessageList[Message]
	_ = dst.Append(newMsgB())
	l.CloneInto(&dst)
	if !l.Equal(&dst) {
		t.Fatalf("CloneInto must replace contents")
	}
}

func TestMessageListEnvelopePropagation(t *testing.T) {
	l := listOfA(t, 1, 2)
	l.SetTimestamp(9.5)
	l.SetSource(0x10)
	l.SetSourceEntity(4)
	l.SetDestination(0x20)
	l.SetDestinationEntity(5)
	want := Envelope{Timestamp: 9.5, Source: 0x10, SourceEntity: 4, Destination: 0x20, DestinationEntity: 5}
	for i, m := range l.All() {
		if *m.Meta() != want {
			t.Fatalf("item %d envelope=%+v", i, *m.Meta())
		}
	}

	parent := newMsgB()
	parent.Timestamp, parent.Source = 1.5, 0x77
	l.SetParent(parent)
	for i, m := range l.All() {
		if *m.Meta() != parent.Envelope {
			t.Fatalf("item %d not synced to parent: %+v", i, *m.Meta())
		}
	}
}

func TestMessageListSetParentRecursesIntoComposites(t *testing.T) {
	l := &MessageList[Message]{}
	c := sampleC(t)
	if err := l.Append(c); err != nil {
		t.Fatalf("append: %v", err)
	}
	parent := newMsgA()
	parent.Source = 0x42
	l.SetParent(parent)

	inner, ok := c.Inner.Get()
	if !ok || inner.Meta().Source != 0x42 {
		t.Fatalf("inline message not synced")
	}
	if c.Shapes.At(0).Meta().Source != 0x42 {
		t.Fatalf("nested list not synced")
	}
}

func TestMessageListSerializationSize(t *testing.T) {
	l := listOfA(t, 1)
	l.At(0).(*msgA).Label = "xy"
	// count + id + u32 + text(2+2)
	if got := l.SerializationSize(); got != 2+2+4+4 {
		t.Fatalf("size=%d", got)
	}
	empty := &MessageList[Message]{}
	if empty.SerializationSize() != 2 {
		t.Fatalf("empty list size=%d", empty.SerializationSize())
	}
}
