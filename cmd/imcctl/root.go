package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/imcctl/internal/config"
	"github.com/danmuck/imcctl/internal/logging"
	"github.com/danmuck/imcctl/internal/protocol"
)

// app is the state shared by all commands once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg   cliConfig
	codec *protocol.Codec
	book  config.AddressBook
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "imcctl",
		Short: "Inspect, decode and monitor IMC message streams.",
		Long: "imcctl decodes IMC frames from hex, raw streams and LSF logs, " +
			"encodes default messages and serves parser statistics over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to an imcctl TOML config")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error, off)")

	root.AddCommand(
		newDecodeCmd(a),
		newLSFCmd(a),
		newTypesCmd(a),
		newEncodeCmd(a),
		newCRC8Cmd(),
		newMonitorCmd(a),
		newInitCmd(),
	)
	return root
}

func (a *app) setup() error {
	a.cfg = defaultCLIConfig()
	if a.configPath != "" {
		cfg, err := loadCLIConfig(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	level := a.cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	if !logging.SetLevel(level) {
		return fmt.Errorf("unknown log level %q", level)
	}

	profile, err := a.cfg.codecProfile()
	if err != nil {
		return err
	}
	codec, err := profile.Codec(protocol.DefaultRegistry())
	if err != nil {
		return err
	}
	a.codec = codec
	a.book = profile.AddressBook()
	log.Debug().
		Str("profile", profile.Name).
		Int("types", codec.Registry().Len()).
		Int("max_frame_size", codec.Limits().MaxFrameSize).
		Msg("imcctl.setup")
	return nil
}
