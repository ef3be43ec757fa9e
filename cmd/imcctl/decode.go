package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/imcctl/internal/observability"
	"github.com/danmuck/imcctl/internal/protocol"
	"github.com/danmuck/imcctl/internal/protocol/parser"
	"github.com/danmuck/imcctl/internal/stream"
)

func newDecodeCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "decode [HEX...]",
		Short: "Decode frames from hex arguments or a raw stream on stdin.",
		Long: "decode feeds every hex argument, or the raw bytes read from stdin " +
			"when no argument is given, through a stream parser and prints one " +
			"line per decoded message.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &printer{w: cmd.OutOrStdout(), book: a.book, json: asJSON}
			p := parser.New(a.codec, parser.WithObserver(out))

			if len(args) > 0 {
				for _, arg := range args {
					b, err := decodeHex(arg)
					if err != nil {
						return err
					}
					p.Parse(b)
				}
			} else if err := stream.Pump(cmd.Context(), cmd.InOrStdin(), p, 0, nil); err != nil {
				return err
			}

			st := p.Stats()
			log.Debug().
				Uint64("frames", st.Frames).
				Uint64("resyncs", st.Resyncs).
				Uint64("discarded", st.DiscardedBytes).
				Msg("decode.done")
			return out.err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per message")
	return cmd
}

// decodeHex accepts hex with optional whitespace, colons and a 0x prefix.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return b, nil
}

// printer writes one line per decoded message and logs rejections.
type printer struct {
	w    io.Writer
	book observability.Namer
	json bool
	err  error
}

func (p *printer) FrameDecoded(m protocol.Message) {
	if p.err != nil {
		return
	}
	s := observability.Summarize(m)
	if p.json {
		p.err = json.NewEncoder(p.w).Encode(s)
		return
	}
	_, p.err = fmt.Fprintln(p.w, s.Format(p.book))
}

func (p *printer) FrameRejected(reason error) {
	log.Warn().Err(reason).Str("reason", parser.Reason(reason)).Msg("frame rejected")
}
