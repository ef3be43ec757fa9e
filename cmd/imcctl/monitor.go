package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/imcctl/internal/observability"
	"github.com/danmuck/imcctl/internal/protocol/parser"
	"github.com/danmuck/imcctl/internal/stream"
)

func newMonitorCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "monitor [FILE|-]",
		Short: "Parse a stream and serve its statistics over HTTP.",
		Long: "monitor parses FILE, or stdin when FILE is - or omitted, and serves " +
			"/health, /stats, /types and /metrics until interrupted.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.MonitorAddr
			}
			src, name, err := openSource(cmd, args)
			if err != nil {
				return err
			}
			defer src.Close()

			mon := observability.NewMonitor("imcctl-monitor", addr, a.codec.Registry(), a.cfg.CorsOrigins)
			p := parser.New(a.codec, parser.WithObserver(parser.Observers{
				mon,
				observability.NewParserMetrics(name),
			}))

			go func() {
				err := stream.Pump(cmd.Context(), src, p, 0, func() { mon.UpdateStats(p.Stats()) })
				if err != nil {
					log.Error().Err(err).Str("stream", name).Msg("monitor: stream failed")
					return
				}
				log.Info().Str("stream", name).Uint64("frames", p.Stats().Frames).Msg("monitor: stream ended")
			}()
			return mon.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9400", "listen address")
	return cmd
}

func openSource(cmd *cobra.Command, args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("open stream: %w", err)
	}
	return f, args[0], nil
}
