package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aterm"
	"aterm/stream"
)

var (
	packFile string
	packOut  string
)

func init() {
	packCmd.Flags().StringVar(&packFile, "file", "", "read the term from a file instead of the argument")
	packCmd.Flags().StringVar(&packOut, "out", "", "output path (required)")
	_ = packCmd.MarkFlagRequired("out")
}

var packCmd = &cobra.Command{
	Use:   "pack [term]",
	Short: "Encode a textual term into the binary stream format",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupColor(cmd)
		if err := configurePool(cmd); err != nil {
			return err
		}

		text, err := inputText(args, packFile)
		if err != nil {
			return err
		}

		tp := aterm.Register()
		defer tp.Close()

		t, err := tp.Parse(text)
		if err != nil {
			return err
		}
		defer t.Drop()

		f, err := os.Create(packOut)
		if err != nil {
			return err
		}
		if err := stream.Write(f, t.Borrow()); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "packed to %s\n", packOut)
		}
		return nil
	},
}
