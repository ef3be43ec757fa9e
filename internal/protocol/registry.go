package protocol

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Constructor allocates a default-constructed message.
type Constructor func() Message

// Entry is one registered message type.
type Entry struct {
	ID   uint16
	Name string
	New  Constructor
}

// Registry maps type ids and names to constructors. It is written during
// initialization and sealed on first lookup; lookups after sealing take no
// locks.
type Registry struct {
	mu     sync.Mutex
	sealed atomic.Bool
	byID   map[uint16]Entry
	byName map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[uint16]Entry),
		byName: make(map[string]Entry),
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a message type. It fails on a duplicate id or name, on the
// reserved NullID and once the registry is sealed.
func (r *Registry) Register(id uint16, name string, ctor Constructor) error {
	name = strings.TrimSpace(name)
	if name == "" || ctor == nil {
		return fmt.Errorf("protocol: invalid registration id=%d name=%q", id, name)
	}
	if id == NullID {
		return fmt.Errorf("protocol: id %#x is reserved", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed.Load() {
		return fmt.Errorf("%w: register id=%d name=%s", ErrRegistrySealed, id, name)
	}
	if prev, ok := r.byID[id]; ok {
		return fmt.Errorf("%w: id=%d already bound to %s", ErrDuplicateType, id, prev.Name)
	}
	if prev, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: name=%s already bound to id=%d", ErrDuplicateType, name, prev.ID)
	}
	e := Entry{ID: id, Name: name, New: ctor}
	r.byID[id] = e
	r.byName[name] = e
	log.Debug().Uint16("id", id).Str("name", name).Msg("protocol.Register")
	return nil
}

// MustRegister is Register for initialization code; a registration fault
// is a configuration error and panics.
func (r *Registry) MustRegister(id uint16, name string, ctor Constructor) {
	if err := r.Register(id, name, ctor); err != nil {
		panic(err)
	}
}

// Seal ends the registration phase.
func (r *Registry) Seal() {
	if r.sealed.Load() {
		return
	}
	r.mu.Lock()
	r.sealed.Store(true)
	r.mu.Unlock()
}

func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// Produce allocates a new instance of the type registered under id.
func (r *Registry) Produce(id uint16) (Message, error) {
	r.Seal()
	e, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrUnknownType, id)
	}
	return e.New(), nil
}

// ProduceByName allocates a new instance of the type registered under name.
func (r *Registry) ProduceByName(name string) (Message, error) {
	r.Seal()
	e, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: name=%q", ErrUnknownType, name)
	}
	return e.New(), nil
}

func (r *Registry) NameForID(id uint16) (string, error) {
	r.Seal()
	e, ok := r.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: id=%d", ErrUnknownType, id)
	}
	return e.Name, nil
}

func (r *Registry) IDForName(name string) (uint16, error) {
	r.Seal()
	e, ok := r.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: name=%q", ErrUnknownType, name)
	}
	return e.ID, nil
}

func (r *Registry) Has(id uint16) bool {
	r.Seal()
	_, ok := r.byID[id]
	return ok
}

// Entries returns every registered type ordered by id.
func (r *Registry) Entries() []Entry {
	r.Seal()
	out := make([]Entry, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Registry) Len() int {
	r.Seal()
	return len(r.byID)
}
