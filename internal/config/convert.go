package config

import (
	"fmt"
	"strconv"

	"github.com/danmuck/imcctl/internal/protocol"
)

func (p CodecProfile) Limits() protocol.Limits {
	return protocol.Limits{MaxFrameSize: p.MaxFrameSize}
}

// Registry returns the registry the profile decodes with. Without a type
// list it is base itself; otherwise a new registry holding only the listed
// types of base.
func (p CodecProfile) Registry(base *protocol.Registry) (*protocol.Registry, error) {
	if base == nil {
		base = protocol.DefaultRegistry()
	}
	if len(p.Types) == 0 {
		return base, nil
	}
	byName := make(map[string]protocol.Entry)
	for _, e := range base.Entries() {
		byName[e.Name] = e
	}
	reg := protocol.NewRegistry()
	for _, name := range p.Types {
		e, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("profile %s: %w: name=%q", p.Name, protocol.ErrUnknownType, name)
		}
		if err := reg.Register(e.ID, e.Name, e.New); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Name, err)
		}
	}
	return reg, nil
}

// Codec builds the codec described by the profile.
func (p CodecProfile) Codec(base *protocol.Registry) (*protocol.Codec, error) {
	reg, err := p.Registry(base)
	if err != nil {
		return nil, err
	}
	return protocol.NewCodec(reg, p.Limits()), nil
}

// AddressBook resolves system and entity ids to names.
type AddressBook struct {
	systems  map[uint16]string
	entities map[uint16]map[uint8]string
}

func (p CodecProfile) AddressBook() AddressBook {
	book := AddressBook{
		systems:  make(map[uint16]string, len(p.Systems)),
		entities: make(map[uint16]map[uint8]string, len(p.Systems)),
	}
	for _, sys := range p.Systems {
		book.systems[sys.ID] = sys.Name
		ents := make(map[uint8]string, len(sys.Entities))
		for _, ent := range sys.Entities {
			ents[ent.ID] = ent.Name
		}
		book.entities[sys.ID] = ents
	}
	return book
}

// System returns the name of id, or its hex form when unknown.
func (b AddressBook) System(id uint16) string {
	if id == protocol.NullID {
		return "*"
	}
	if name, ok := b.systems[id]; ok {
		return name
	}
	return "0x" + strconv.FormatUint(uint64(id), 16)
}

// Entity returns the name of entity ent of system id, or its number.
func (b AddressBook) Entity(id uint16, ent uint8) string {
	if ent == protocol.UnknownEntity {
		return "*"
	}
	if name, ok := b.entities[id][ent]; ok {
		return name
	}
	return strconv.Itoa(int(ent))
}
