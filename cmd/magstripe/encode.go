package main

import (
	"fmt"

	"github.com/celskeggs/magstripe/sim/util"
	"github.com/celskeggs/magstripe/stripe"
	"github.com/spf13/cobra"
)

func newEncodeCommand() *cobra.Command {
	var (
		reverse bool
		grouped bool
	)
	cmd := &cobra.Command{
		Use:   "encode TEXT",
		Short: "Print the bitstream a card carrying TEXT produces",
		Long: `Encode TEXT with odd symbol parity and a trailing LRC character, padded with
clocking zeros. Sentinels are added when TEXT does not start and end with
them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, f, err := loadConfig()
			if err != nil {
				return err
			}
			bits, err := stripe.EncodeSwipe(f, frameText(f, args[0]), cfg.Sim.LeadBits, cfg.Sim.TrailBits)
			if err != nil {
				return err
			}
			if reverse {
				bits = stripe.ReverseBits(bits)
			}
			if grouped && !reverse {
				fmt.Fprintln(cmd.OutOrStdout(), util.StringBitsGrouped(bits, cfg.Sim.LeadBits, f.Width))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), util.StringBits0(bits))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "emit the bits of a backward swipe")
	cmd.Flags().BoolVarP(&grouped, "group", "g", false, "separate the symbols of a forward swipe with spaces")
	return cmd
}
