package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/imcctl/internal/algorithms/crc8"
)

func newCRC8Cmd() *cobra.Command {
	var poly, seed uint8
	cmd := &cobra.Command{
		Use:   "crc8 HEX...",
		Short: "Compute the CRC8 of hex encoded bytes.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := crc8.New(poly, seed)
			for _, arg := range args {
				b, err := decodeHex(arg)
				if err != nil {
					return err
				}
				c.PutArray(b)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%#02x\n", c.Value())
			return err
		},
	}
	cmd.Flags().Uint8Var(&poly, "poly", 0x07, "generator polynomial")
	cmd.Flags().Uint8Var(&seed, "seed", 0x00, "initial value")
	return cmd
}
