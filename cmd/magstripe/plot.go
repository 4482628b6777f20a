package main

import (
	"fmt"

	"github.com/celskeggs/magstripe/ctrl/swipeplot"
	"github.com/celskeggs/magstripe/sim/component"
	"github.com/celskeggs/magstripe/stripe"
	"github.com/spf13/cobra"
)

func newPlotCommand() *cobra.Command {
	var (
		recording string
		index     int
		output    string
	)
	cmd := &cobra.Command{
		Use:   "plot [BITS...]",
		Short: "Plot a capture's bit levels and symbol boundaries",
		Long: `Plot a bitstream, or one capture from a CSV recording, with the symbols found
after the start sentinel marked underneath. With --output the plot is written
to an image file; otherwise it is shown in a window, where S saves it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, f, err := loadConfig()
			if err != nil {
				return err
			}
			var bits []bool
			if recording != "" {
				records, err := component.DecodeRecording(recording)
				if err != nil {
					return err
				}
				if index < 0 || index >= len(records) {
					return fmt.Errorf("capture %d not in recording of %d captures", index, len(records))
				}
				bits = records[index].Bits
				if f, err = stripe.ParseFormat(records[index].Format); err != nil {
					return err
				}
			} else if bits, err = bitsArgument(args, cmd.InOrStdin()); err != nil {
				return err
			}

			title := swipeplot.Describe(bits, f)
			p, err := swipeplot.NewCapturePlot(bits, f, title)
			if err != nil {
				return err
			}
			if output != "" {
				if err := swipeplot.Save(p, output); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %s\n", output, title)
				return nil
			}
			return swipeplot.DisplayPlot(p, "magstripe: "+title, "capture.png")
		},
	}
	cmd.Flags().StringVarP(&recording, "recording", "f", "", "CSV recording to take the capture from")
	cmd.Flags().IntVarP(&index, "index", "n", 0, "which capture of the recording to plot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the plot to this image file (.png, .svg, .pdf)")
	return cmd
}
