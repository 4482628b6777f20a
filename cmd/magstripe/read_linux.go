//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/celskeggs/magstripe/hw/gpio"
	"github.com/celskeggs/magstripe/reader"
	"github.com/celskeggs/magstripe/sim/component"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

func addPlatformCommands(root *cobra.Command) {
	root.AddCommand(newReadCommand())
}

func newReadCommand() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read swipes from a reader head wired to GPIO lines",
		Long: `Wait for cards on the reader head described by the gpio section of the
configuration and print each decoded swipe. Failed swipes are reported and
reading continues. Stops after --count swipes, or on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (re error) {
			cfg, f, err := loadConfig()
			if err != nil {
				return err
			}
			head, err := gpio.Open(gpio.Config{
				Chip:        cfg.GPIO.Chip,
				DataLine:    cfg.GPIO.DataLine,
				ClockLine:   cfg.GPIO.ClockLine,
				PresentLine: cfg.GPIO.PresentLine,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := head.Close(); err != nil {
					re = multierror.Append(re, err)
				}
			}()

			recorder := component.MakeNullRecorder()
			if cfg.Record.Path != "" {
				recorder, err = component.AppendCaptureRecorder(component.WallClock{Start: time.Now()}, cfg.Record.Path)
				if err != nil {
					return err
				}
			}
			defer func() {
				if err := recorder.Close(); err != nil {
					re = multierror.Append(re, err)
				}
			}()

			r := reader.New(head,
				reader.WithPollInterval(cfg.Reader.PollInterval),
				reader.WithLogger(log.Default()),
				reader.WithRecorder(recorder),
			)
			if err := r.Begin(f); err != nil {
				return err
			}
			defer func() {
				if err := r.Stop(); err != nil {
					re = multierror.Append(re, err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			log.Printf("waiting for %v cards on %s", f, cfg.GPIO.Chip)

			dst := make([]byte, cfg.Reader.Capacity)
			for read := 0; count <= 0 || read < count; read++ {
				n, err := r.Read(ctx, dst)
				if errors.Is(err, context.Canceled) {
					return nil
				} else if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "swipe failed: %v\n", err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%v %s\n", r.Direction(), dst[:n])
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many swipes (0 reads until interrupted)")
	return cmd
}
