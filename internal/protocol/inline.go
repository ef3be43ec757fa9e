package protocol

import "github.com/danmuck/imcctl/internal/protocol/wire"

// InlineMessage is an optional embedded message constrained to T. On the
// wire it is the uint16 type id of the message (NullID when empty)
// followed by its fields.
type InlineMessage[T Message] struct {
	msg T
	set bool
}

// Get returns the embedded message and whether one is set.
func (im *InlineMessage[T]) Get() (T, bool) {
	return im.msg, im.set
}

// Set transfers ownership of m to the inline field. A nil m clears it.
func (im *InlineMessage[T]) Set(m T) {
	if isNil(m) {
		im.Clear()
		return
	}
	im.msg, im.set = m, true
}

func (im *InlineMessage[T]) Clear() {
	var zero T
	im.msg, im.set = zero, false
}

func (im *InlineMessage[T]) IsNull() bool {
	return !im.set
}

func (im *InlineMessage[T]) Equal(other *InlineMessage[T]) bool {
	if im.set != other.set {
		return false
	}
	return !im.set || Equal(im.msg, other.msg)
}

// CloneInto replaces dst with a deep copy of im.
func (im *InlineMessage[T]) CloneInto(dst *InlineMessage[T]) {
	dst.Clear()
	if im.set {
		dst.msg, dst.set = im.msg.Clone().(T), true
	}
}

// SetParent copies the envelope of parent onto the embedded message.
func (im *InlineMessage[T]) SetParent(parent Message) {
	if !im.set {
		return
	}
	im.msg.Meta().CopyFrom(parent.Meta())
	if cm, ok := any(im.msg).(Composite); ok {
		cm.SyncNested()
	}
}

func (im *InlineMessage[T]) SerializationSize() int {
	if !im.set {
		return 2
	}
	return 2 + PayloadSize(im.msg)
}

func (im *InlineMessage[T]) Serialize(w *wire.Writer) int {
	start := w.Len()
	if !im.set {
		w.U16(NullID)
		return w.Len() - start
	}
	w.U16(im.msg.ID())
	im.msg.SerializeFields(w)
	return w.Len() - start
}

func (im *InlineMessage[T]) Deserialize(r *Reader) (int, error) {
	return im.decode(r, false)
}

func (im *InlineMessage[T]) ReverseDeserialize(r *Reader) (int, error) {
	return im.decode(r, true)
}

func (im *InlineMessage[T]) decode(r *Reader, reverse bool) (int, error) {
	start := r.Offset()
	im.Clear()
	id := r.U16()
	if err := r.Err(); err != nil {
		return r.Offset() - start, err
	}
	if id == NullID {
		return r.Offset() - start, nil
	}
	m, err := produceAs[T](r, id)
	if err != nil {
		return r.Offset() - start, err
	}
	if _, err := decodeFields(m, r, reverse); err != nil {
		return r.Offset() - start, err
	}
	im.msg, im.set = m, true
	return r.Offset() - start, nil
}
