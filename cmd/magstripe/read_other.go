//go:build !linux

package main

import "github.com/spf13/cobra"

// reading from hardware needs the Linux GPIO character device
func addPlatformCommands(root *cobra.Command) {}
