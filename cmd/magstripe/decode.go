package main

import (
	"fmt"
	"io"

	"github.com/celskeggs/magstripe/sim/component"
	"github.com/celskeggs/magstripe/stripe"
	"github.com/spf13/cobra"
)

func newDecodeCommand() *cobra.Command {
	var (
		recording string
		inspect   bool
	)
	cmd := &cobra.Command{
		Use:   "decode [BITS...]",
		Short: "Decode a bitstream or every capture in a recording",
		Long: `Decode a bitstream given as '0' and '1' characters, either as arguments or
on standard input, or every capture in a CSV recording written by --record.
Swipes in either direction are accepted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, f, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if recording == "" {
				bits, err := bitsArgument(args, cmd.InOrStdin())
				if err != nil {
					return err
				}
				return decodeBits(out, bits, f, inspect)
			}
			if len(args) > 0 {
				return fmt.Errorf("bits cannot be combined with --recording")
			}
			records, err := component.DecodeRecording(recording)
			if err != nil {
				return err
			}
			failed := 0
			for i, record := range records {
				rf, err := stripe.ParseFormat(record.Format)
				if err != nil {
					return fmt.Errorf("capture %d: %w", i, err)
				}
				fmt.Fprintf(out, "capture %d at %v: ", i, record.Timestamp)
				if err := decodeBits(out, record.Bits, rf, inspect); err != nil {
					fmt.Fprintf(out, "failed: %v\n", err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d captures failed to decode", failed, len(records))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&recording, "recording", "f", "", "CSV recording to decode")
	cmd.Flags().BoolVarP(&inspect, "inspect", "i", false, "also list every symbol after the start sentinel")
	return cmd
}

func decodeBits(out io.Writer, bits []bool, f *stripe.Format, inspect bool) error {
	c := stripe.MakeCapture(bits)
	rec, err := stripe.Decode(c, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%v %s\n", rec.Direction, rec.Chars)
	if inspect {
		if rec.Direction == stripe.DirectionBackward {
			c = stripe.MakeCapture(stripe.ReverseBits(bits))
		}
		printSymbols(out, stripe.Inspect(c, f), f)
	}
	return nil
}

func printSymbols(out io.Writer, symbols []stripe.Symbol, f *stripe.Format) {
	for _, s := range symbols {
		ch := "-"
		if s.Char != 0 {
			ch = string(s.Char)
		}
		parity := "ok"
		if !s.ParityOK {
			parity = "BAD"
		}
		fmt.Fprintf(out, "  %4d  %0*b  %s  parity %s\n", s.Offset, f.Width, s.Value, ch, parity)
	}
}
