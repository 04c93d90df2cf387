package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aterm"
)

var (
	parseFile  string
	parseStats bool
)

func init() {
	parseCmd.Flags().StringVar(&parseFile, "file", "", "read the term from a file instead of the argument")
	parseCmd.Flags().BoolVar(&parseStats, "stats", false, "print pool statistics after parsing")
}

var parseCmd = &cobra.Command{
	Use:   "parse [term]",
	Short: "Parse a textual term and print its canonical form",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupColor(cmd)
		if err := configurePool(cmd); err != nil {
			return err
		}

		text, err := inputText(args, parseFile)
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

		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		if parseStats {
			printStats(cmd)
		}
		return nil
	},
}

// inputText resolves the term source: a positional argument, a file, or
// stdin when neither is given.
func inputText(args []string, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := os.ReadFile("/dev/stdin")
	if err != nil {
		return "", fmt.Errorf("no term given and stdin unreadable: %w", err)
	}
	return string(data), nil
}

func printStats(cmd *cobra.Command) {
	stats := aterm.Stats()
	heading := color.New(color.Bold)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, heading.Sprint("pool:"))
	fmt.Fprintf(out, "  terms       %d\n", stats.Terms)
	fmt.Fprintf(out, "  capacity    %d\n", stats.Capacity)
	fmt.Fprintf(out, "  symbols     %d\n", stats.Symbols)
	fmt.Fprintf(out, "  insertions  %d\n", stats.Insertions)
	fmt.Fprintf(out, "  hits        %d\n", stats.Hits)
	fmt.Fprintf(out, "  collections %d (%.2f ms, %d reclaimed)\n",
		stats.Collections, stats.GCTotalMS, stats.Reclaimed)
}
