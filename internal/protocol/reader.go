package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/danmuck/imcctl/internal/protocol/wire"
)

// Reader is the payload reader handed to DeserializeFields. It adds the
// registry used to instantiate nested messages.
type Reader struct {
	*wire.Reader
	registry *Registry
}

func NewReader(payload []byte, order binary.ByteOrder, reg *Registry) *Reader {
	return &Reader{Reader: wire.NewReader(payload, order), registry: reg}
}

func (r *Reader) Registry() *Registry { return r.registry }

// Err reports the first decode failure, mapping short reads to ErrTruncatedPayload.
func (r *Reader) Err() error {
	err := r.Reader.Err()
	if errors.Is(err, wire.ErrShortValue) {
		return fmt.Errorf("%w: %w", ErrTruncatedPayload, err)
	}
	return err
}

func (r *Reader) produce(id uint16) (Message, error) {
	if r.registry == nil {
		return nil, fmt.Errorf("%w: id=%d (no registry)", ErrUnknownType, id)
	}
	return r.registry.Produce(id)
}

func decodeFields(m Message, r *Reader, reverse bool) (int, error) {
	if reverse {
		return m.ReverseDeserializeFields(r)
	}
	return m.DeserializeFields(r)
}
