package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/imcctl/internal/protocol"
)

func newEncodeCmd(a *app) *cobra.Command {
	var (
		src, dst       uint16
		srcEnt, dstEnt uint8
		timestamp      float64
		now            bool
		value          float64
		subID          uint16
	)
	cmd := &cobra.Command{
		Use:   "encode NAME",
		Short: "Print the hex frame of a default message.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.codec.Registry().ProduceByName(args[0])
			if err != nil {
				return err
			}
			env := m.Meta()
			env.Source, env.SourceEntity = src, srcEnt
			env.Destination, env.DestinationEntity = dst, dstEnt
			env.Timestamp = timestamp
			if now {
				env.SetTimestampNow()
			}

			if cmd.Flags().Changed("value") {
				fp, ok := m.(protocol.FPValuer)
				if !ok {
					return fmt.Errorf("%s has no value field", m.Name())
				}
				fp.SetValueFP(value)
			}
			if cmd.Flags().Changed("sub-id") {
				s, ok := m.(protocol.SubIDer)
				if !ok {
					return fmt.Errorf("%s has no sub id", m.Name())
				}
				s.SetSubID(subID)
			}
			if err := m.Validate(); err != nil {
				return err
			}

			b, err := a.codec.Serialize(m)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(b))
			return err
		},
	}
	f := cmd.Flags()
	f.Uint16Var(&src, "src", protocol.NullID, "source system address")
	f.Uint8Var(&srcEnt, "src-ent", protocol.UnknownEntity, "source entity")
	f.Uint16Var(&dst, "dst", protocol.NullID, "destination system address")
	f.Uint8Var(&dstEnt, "dst-ent", protocol.UnknownEntity, "destination entity")
	f.Float64Var(&timestamp, "timestamp", 0, "timestamp in seconds since the epoch")
	f.BoolVar(&now, "now", false, "stamp the message with the current time")
	f.Float64Var(&value, "value", 0, "value of single-value messages")
	f.Uint16Var(&subID, "sub-id", 0, "sub id of message families")
	return cmd
}
