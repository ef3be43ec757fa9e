package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/imcctl/internal/config"
	"github.com/danmuck/imcctl/internal/protocol"
)

type cliConfig struct {
	MaxFrameSize int
	LogLevel     string
	MonitorAddr  string
	CorsOrigins  []string
	Types        []string
	CodecProfile string
}

type fileConfig struct {
	MaxFrameSize int      `toml:"max_frame_size"`
	LogLevel     string   `toml:"log_level"`
	MonitorAddr  string   `toml:"monitor_addr"`
	CorsOrigins  []string `toml:"cors_origins"`
	Types        []string `toml:"types"`
	CodecProfile string   `toml:"codec_profile"`
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		MaxFrameSize: protocol.MaxFrameSize,
		LogLevel:     "info",
		MonitorAddr:  ":9400",
	}
}

func loadCLIConfig(path string) (cliConfig, error) {
	cfg := defaultCLIConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load imcctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cliConfig{}, fmt.Errorf("load imcctl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("max_frame_size") {
		if raw.MaxFrameSize < protocol.HeaderSize+protocol.FooterSize || raw.MaxFrameSize > protocol.MaxFrameSize {
			return cliConfig{}, fmt.Errorf("max_frame_size %d out of range", raw.MaxFrameSize)
		}
		cfg.MaxFrameSize = raw.MaxFrameSize
	}

	if meta.IsDefined("log_level") {
		if v := strings.TrimSpace(raw.LogLevel); v != "" {
			cfg.LogLevel = v
		}
	}

	if meta.IsDefined("monitor_addr") {
		if v := strings.TrimSpace(raw.MonitorAddr); v != "" {
			cfg.MonitorAddr = v
		}
	}

	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}

	if meta.IsDefined("types") {
		cfg.Types = normalizeList(raw.Types)
	}

	if meta.IsDefined("codec_profile") {
		cfg.CodecProfile = strings.TrimSpace(raw.CodecProfile)
	}

	return cfg, nil
}

// codecProfile resolves the profile the CLI decodes with. Types and the
// frame limit from the CLI config narrow the profile.
func (c cliConfig) codecProfile() (config.CodecProfile, error) {
	profile := config.DefaultCodecProfile()
	if c.CodecProfile != "" {
		p, err := config.LoadCodecProfile(c.CodecProfile)
		if err != nil {
			return config.CodecProfile{}, err
		}
		profile = p
	}
	if len(c.Types) > 0 {
		profile.Types = c.Types
	}
	if c.MaxFrameSize > 0 && c.MaxFrameSize < profile.MaxFrameSize {
		profile.MaxFrameSize = c.MaxFrameSize
	}
	return profile, config.ValidateCodecProfile(profile)
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, item := range in {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
