package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/celskeggs/magstripe/internal/config"
	"github.com/celskeggs/magstripe/sim/util"
	"github.com/celskeggs/magstripe/stripe"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCommand() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:   "magstripe",
		Short: "Decode magnetic stripe card swipes",
		Long: `magstripe turns the clock and data signals of a magnetic stripe reader
head into text. It can read from a head wired to GPIO lines, replay
recorded captures, and simulate swipes in virtual time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Init(cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/magstripe/config.yaml)")
	flags.IntP("track", "t", 2, "ISO track number: 1 is alphanumeric, 2 and 3 are numeric")
	flags.Int("lead", 30, "clocking zeros before the frame")
	flags.Int("trail", 30, "clocking zeros after the frame")
	flags.String("record", "", "append every raw capture to this CSV file")
	_ = viper.BindPFlag("format.track", flags.Lookup("track"))
	_ = viper.BindPFlag("sim.lead_bits", flags.Lookup("lead"))
	_ = viper.BindPFlag("sim.trail_bits", flags.Lookup("trail"))
	_ = viper.BindPFlag("record.path", flags.Lookup("record"))

	root.AddCommand(
		newEncodeCommand(),
		newDecodeCommand(),
		newSimulateCommand(),
		newPlotCommand(),
	)
	addPlatformCommands(root)
	return root
}

func loadConfig() (*config.Config, *stripe.Format, error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, nil, err
	}
	return cfg, cfg.StripeFormat(), nil
}

// frameText adds the start and end sentinels to text when it does not already carry them.
func frameText(f *stripe.Format, text string) string {
	if !strings.HasPrefix(text, string(f.StartChar)) {
		text = string(f.StartChar) + text
	}
	if !strings.HasSuffix(text, string(f.EndChar)) {
		text += string(f.EndChar)
	}
	return text
}

// bitsArgument parses a bitstream from the arguments, or from in when there are none.
func bitsArgument(args []string, in io.Reader) ([]bool, error) {
	var text string
	if len(args) > 0 {
		text = strings.Join(args, "")
	} else {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	bits, err := util.ParseBits(strings.Join(strings.Fields(text), ""))
	if err != nil {
		return nil, err
	}
	if len(bits) == 0 {
		return nil, fmt.Errorf("no bits given")
	}
	return bits, nil
}
