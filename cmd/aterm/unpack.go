package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aterm"
	"aterm/stream"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack <file>",
	Short: "Decode a binary term stream and print its textual form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupColor(cmd)
		if err := configurePool(cmd); err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		tp := aterm.Register()
		defer tp.Close()

		t, err := stream.Read(f, tp)
		if err != nil {
			return err
		}
		defer t.Drop()

		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}
