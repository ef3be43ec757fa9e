package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/imcctl/internal/protocol"
)

// CodecProfile selects the message set, frame limit and address book used
// when decoding a stream.
type CodecProfile struct {
	Name         string        `toml:"name"`
	MaxFrameSize int           `toml:"max_frame_size"`
	Types        []string      `toml:"types"`
	Systems      []SystemEntry `toml:"systems"`
}

// SystemEntry names a system address and its entities.
type SystemEntry struct {
	Name     string        `toml:"name"`
	ID       uint16        `toml:"id"`
	Entities []EntityEntry `toml:"entities"`
}

type EntityEntry struct {
	Name string `toml:"name"`
	ID   uint8  `toml:"id"`
}

func DefaultCodecProfile() CodecProfile {
	return CodecProfile{Name: "default", MaxFrameSize: protocol.MaxFrameSize}
}

func LoadCodecProfile(path string) (CodecProfile, error) {
	cfg := DefaultCodecProfile()
	if err := loadToml(path, &cfg); err != nil {
		return CodecProfile{}, err
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.MaxFrameSize == 0 {
		cfg.MaxFrameSize = protocol.MaxFrameSize
	}
	if err := ValidateCodecProfile(cfg); err != nil {
		return CodecProfile{}, err
	}
	return cfg, nil
}

// loadToml decodes strictly: keys that do not map onto out are an error.
func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateCodecProfile(cfg CodecProfile) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("codec profile missing name")
	}
	minSize := protocol.HeaderSize + protocol.FooterSize
	if cfg.MaxFrameSize < minSize || cfg.MaxFrameSize > protocol.MaxFrameSize {
		return fmt.Errorf("max_frame_size %d outside [%d, %d]", cfg.MaxFrameSize, minSize, protocol.MaxFrameSize)
	}
	seenType := make(map[string]struct{}, len(cfg.Types))
	for i, name := range cfg.Types {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("types[%d] is empty", i)
		}
		if _, dup := seenType[name]; dup {
			return fmt.Errorf("types[%d] duplicates %s", i, name)
		}
		seenType[name] = struct{}{}
	}
	seenSys := make(map[uint16]string, len(cfg.Systems))
	for i, sys := range cfg.Systems {
		if err := ValidateSystemEntry(sys); err != nil {
			return fmt.Errorf("system[%d] invalid: %w", i, err)
		}
		if prev, dup := seenSys[sys.ID]; dup {
			return fmt.Errorf("system[%d] id %#04x already used by %s", i, sys.ID, prev)
		}
		seenSys[sys.ID] = sys.Name
	}
	return nil
}

func ValidateSystemEntry(sys SystemEntry) error {
	if strings.TrimSpace(sys.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if sys.ID == protocol.NullID {
		return fmt.Errorf("id %#04x is reserved", sys.ID)
	}
	seen := make(map[uint8]struct{}, len(sys.Entities))
	for i, ent := range sys.Entities {
		if strings.TrimSpace(ent.Name) == "" {
			return fmt.Errorf("entity[%d] name is required", i)
		}
		if ent.ID == protocol.UnknownEntity {
			return fmt.Errorf("entity[%d] id %#02x is reserved", i, ent.ID)
		}
		if _, dup := seen[ent.ID]; dup {
			return fmt.Errorf("entity[%d] id %d duplicated", i, ent.ID)
		}
		seen[ent.ID] = struct{}{}
	}
	return nil
}
