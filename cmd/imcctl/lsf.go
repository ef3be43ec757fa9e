package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/imcctl/internal/protocol/lsf"
)

func newLSFCmd(a *app) *cobra.Command {
	var (
		types  []string
		strict bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "lsf FILE",
		Short: "Print the messages stored in an LSF log.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var opts []lsf.Option
			if len(types) > 0 {
				ids := make([]uint16, 0, len(types))
				for _, name := range types {
					id, err := a.codec.Registry().IDForName(name)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
				opts = append(opts, lsf.WithTypes(ids...))
			}

			out := &printer{w: cmd.OutOrStdout(), book: a.book, json: asJSON}
			r := lsf.NewReader(f, a.codec, opts...)
			ctx := cmd.Context()
			for m, err := range r.All() {
				if ctx != nil && ctx.Err() != nil {
					break
				}
				if err != nil {
					if strict || !errors.Is(err, lsf.ErrCorruptFrame) {
						return fmt.Errorf("%s: %w", args[0], err)
					}
					log.Warn().Err(err).Msg("lsf: skipping frame")
					continue
				}
				out.FrameDecoded(m)
				if out.err != nil {
					return out.err
				}
			}

			st := r.Stats()
			log.Info().
				Str("file", args[0]).
				Uint64("frames", st.Frames).
				Uint64("checksum_failures", st.ChecksumFailures).
				Int64("bytes", r.Offset()).
				Msg("lsf.done")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "only print messages of these types")
	cmd.Flags().BoolVar(&strict, "strict", false, "stop at the first corrupt frame")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per message")
	return cmd
}
