package protocol

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/danmuck/imcctl/internal/protocol/wire"
)

// MessageList is an ordered list of messages constrained to T, which is
// either Message or a message-group interface. The list owns its elements:
// appended messages must not be shared with other owners and Clone copies
// every element. The zero value is an empty list.
type MessageList[T Message] struct {
	items []T
}

func NewMessageList[T Message](items ...T) (*MessageList[T], error) {
	l := &MessageList[T]{}
	if err := l.Append(items...); err != nil {
		return nil, err
	}
	return l, nil
}

// Append transfers ownership of items to the list.
func (l *MessageList[T]) Append(items ...T) error {
	if len(l.items)+len(items) > MaxListLen {
		return fmt.Errorf("%w: len=%d", ErrListTooLong, len(l.items)+len(items))
	}
	for _, item := range items {
		if isNil(item) {
			return ErrNilMessage
		}
	}
	l.items = append(l.items, items...)
	return nil
}

// Extend appends every element of seq. On error the list keeps the
// elements appended before the failure.
func (l *MessageList[T]) Extend(seq iter.Seq[T]) error {
	for item := range seq {
		if err := l.Append(item); err != nil {
			return err
		}
	}
	return nil
}

func (l *MessageList[T]) Clear() {
	clear(l.items)
	l.items = l.items[:0]
}

func (l *MessageList[T]) Len() int {
	return len(l.items)
}

// At returns the element at i; it panics when i is out of range.
func (l *MessageList[T]) At(i int) T {
	return l.items[i]
}

// All iterates the elements in order.
func (l *MessageList[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range l.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// Items returns the elements; the returned slice is a copy but the
// elements remain owned by the list.
func (l *MessageList[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Slice returns a new list holding copies of the elements in
// [start, stop). Negative bounds count from the end and out-of-range
// bounds are clamped. Only a step of 1 is supported.
func (l *MessageList[T]) Slice(start, stop, step int) (*MessageList[T], error) {
	if step != 1 {
		return nil, fmt.Errorf("%w: step=%d", ErrUnsupportedStep, step)
	}
	n := len(l.items)
	start, stop = clampIndex(start, n), clampIndex(stop, n)
	out := &MessageList[T]{}
	for i := start; i < stop; i++ {
		out.items = append(out.items, l.items[i].Clone().(T))
	}
	return out, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// Contains reports whether an element with the identity, fields and
// envelope of m is in the list.
func (l *MessageList[T]) Contains(m T) bool {
	if isNil(m) {
		return false
	}
	for _, item := range l.items {
		if item.Name() == m.Name() && Equal(item, m) && *item.Meta() == *m.Meta() {
			return true
		}
	}
	return false
}

// Equal compares two lists elementwise in order.
func (l *MessageList[T]) Equal(other *MessageList[T]) bool {
	if len(l.items) != len(other.items) {
		return false
	}
	for i := range l.items {
		if !Equal(l.items[i], other.items[i]) {
			return false
		}
	}
	return true
}

// Clone deep-copies every element.
func (l *MessageList[T]) Clone() *MessageList[T] {
	out := &MessageList[T]{}
	l.CloneInto(out)
	return out
}

// CloneInto replaces the contents of dst with deep copies of the elements.
func (l *MessageList[T]) CloneInto(dst *MessageList[T]) {
	dst.items = make([]T, 0, len(l.items))
	for _, item := range l.items {
		dst.items = append(dst.items, item.Clone().(T))
	}
}

// SetParent copies the envelope of parent onto every element.
func (l *MessageList[T]) SetParent(parent Message) {
	env := parent.Meta()
	for _, item := range l.items {
		item.Meta().CopyFrom(env)
		if cm, ok := any(item).(Composite); ok {
			cm.SyncNested()
		}
	}
}

func (l *MessageList[T]) SetTimestamp(ts float64) {
	for _, item := range l.items {
		item.Meta().Timestamp = ts
	}
}

func (l *MessageList[T]) SetSource(src uint16) {
	for _, item := range l.items {
		item.Meta().Source = src
	}
}

func (l *MessageList[T]) SetSourceEntity(ent uint8) {
	for _, item := range l.items {
		item.Meta().SourceEntity = ent
	}
}

func (l *MessageList[T]) SetDestination(dst uint16) {
	for _, item := range l.items {
		item.Meta().Destination = dst
	}
}

func (l *MessageList[T]) SetDestinationEntity(ent uint8) {
	for _, item := range l.items {
		item.Meta().DestinationEntity = ent
	}
}

// SerializationSize is the encoded size: a uint16 count and, per element,
// a uint16 type id followed by its fields.
func (l *MessageList[T]) SerializationSize() int {
	n := 2
	for _, item := range l.items {
		n += 2 + PayloadSize(item)
	}
	return n
}

func (l *MessageList[T]) Serialize(w *wire.Writer) int {
	start := w.Len()
	w.U16(uint16(len(l.items)))
	for _, item := range l.items {
		w.U16(item.ID())
		item.SerializeFields(w)
	}
	return w.Len() - start
}

func (l *MessageList[T]) Deserialize(r *Reader) (int, error) {
	return l.decode(r, false)
}

// ReverseDeserialize decodes a list from a byte-swapped frame; every
// element goes through its own reverse path.
func (l *MessageList[T]) ReverseDeserialize(r *Reader) (int, error) {
	return l.decode(r, true)
}

func (l *MessageList[T]) decode(r *Reader, reverse bool) (int, error) {
	start := r.Offset()
	l.Clear()
	count := r.U16()
	if err := r.Err(); err != nil {
		return r.Offset() - start, err
	}
	for i := 0; i < int(count); i++ {
		id := r.U16()
		if err := r.Err(); err != nil {
			return r.Offset() - start, err
		}
		item, err := produceAs[T](r, id)
		if err != nil {
			return r.Offset() - start, fmt.Errorf("list element %d: %w", i, err)
		}
		if _, err := decodeFields(item, r, reverse); err != nil {
			return r.Offset() - start, fmt.Errorf("list element %d: %w", i, err)
		}
		l.items = append(l.items, item)
	}
	return r.Offset() - start, nil
}

func produceAs[T Message](r *Reader, id uint16) (T, error) {
	var zero T
	m, err := r.produce(id)
	if err != nil {
		return zero, err
	}
	t, ok := m.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s does not satisfy %v", ErrTypeMismatch, m.Name(), reflect.TypeFor[T]())
	}
	return t, nil
}
