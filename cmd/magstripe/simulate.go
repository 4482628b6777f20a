package main

import (
	"fmt"
	"io"
	"log"

	"github.com/celskeggs/magstripe/reader"
	"github.com/celskeggs/magstripe/sim/component"
	"github.com/celskeggs/magstripe/sim/swipe"
	"github.com/celskeggs/magstripe/stripe"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

func newSimulateCommand() *cobra.Command {
	var (
		reverse bool
		flips   []int
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "simulate TEXT",
		Short: "Swipe a simulated card carrying TEXT past a simulated reader head",
		Long: `Encode TEXT, replay it as clock and data edges from a simulated reader head
in virtual time, and decode it through the same reader used for hardware.
--flip corrupts individual bits to exercise the parity checks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (re error) {
			cfg, f, err := loadConfig()
			if err != nil {
				return err
			}
			bits, err := stripe.EncodeSwipe(f, frameText(f, args[0]), cfg.Sim.LeadBits, cfg.Sim.TrailBits)
			if err != nil {
				return err
			}
			for _, flip := range flips {
				if flip < 0 || flip >= len(bits) {
					return fmt.Errorf("flip offset %d outside swipe of %d bits", flip, len(bits))
				}
				bits[flip] = !bits[flip]
			}
			if reverse {
				bits = stripe.ReverseBits(bits)
			}

			sim := component.MakeSimControllerRandomized()
			if cfg.Sim.Seed != 0 {
				sim = component.MakeSimControllerSeeded(cfg.Sim.Seed)
			}
			recorder := component.MakeNullRecorder()
			if cfg.Record.Path != "" {
				recorder, err = component.AppendCaptureRecorder(sim, cfg.Record.Path)
				if err != nil {
					return err
				}
			}
			defer func() {
				if err := recorder.Close(); err != nil {
					re = multierror.Append(re, err)
				}
			}()

			head := swipe.DefaultConfig()
			head.BitPeriod = cfg.Sim.BitPeriod
			head.Jitter = cfg.Sim.Jitter
			dev := swipe.MakeDevice(sim, head)

			opts := []reader.Option{reader.WithRecorder(recorder)}
			if verbose {
				opts = append(opts, reader.WithLogger(log.New(cmd.ErrOrStderr(), "reader: ", 0)))
			} else {
				prev := log.Writer()
				log.SetOutput(io.Discard)
				defer log.SetOutput(prev)
			}
			r := reader.New(dev, opts...)
			if err := r.Begin(f); err != nil {
				return err
			}
			defer func() {
				if err := r.Stop(); err != nil {
					re = multierror.Append(re, err)
				}
			}()

			pollEvery := cfg.Reader.PollInterval
			if pollEvery <= 0 {
				pollEvery = cfg.Sim.BitPeriod
			}
			dst := make([]byte, cfg.Reader.Capacity)
			n, err := swipe.ReadSwipe(sim, dev, r, bits, dst, pollEvery)
			if err != nil {
				return fmt.Errorf("swipe of %d bits: %w", len(bits), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v %s\n", r.Direction(), dst[:n])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "swipe the card backward")
	cmd.Flags().IntSliceVar(&flips, "flip", nil, "invert the bit at this offset of the forward swipe (repeatable)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log simulator and reader events")
	return cmd
}
