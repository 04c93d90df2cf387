package main

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"aterm"
)

var (
	randomSeed       uint64
	randomIterations int
	randomSymbols    string
	randomConstants  string
)

func init() {
	randomCmd.Flags().Uint64Var(&randomSeed, "seed", 1, "random seed")
	randomCmd.Flags().IntVar(&randomIterations, "iterations", 100, "number of constructions")
	randomCmd.Flags().StringVar(&randomSymbols, "symbols", "f/2,g/1", "comma-separated name/arity pairs")
	randomCmd.Flags().StringVar(&randomConstants, "constants", "a,b,c", "comma-separated constant names")
}

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Generate a pseudo-random term",
	RunE: func(cmd *cobra.Command, args []string) error {
		setupColor(cmd)
		if err := configurePool(cmd); err != nil {
			return err
		}

		specs, err := parseSymbolSpecs(randomSymbols)
		if err != nil {
			return err
		}
		constants := splitNames(randomConstants)

		tp := aterm.Register()
		defer tp.Close()

		rng := rand.New(rand.NewPCG(randomSeed, 0))
		t, err := aterm.RandomTerm(tp, rng, specs, constants, randomIterations)
		if err != nil {
			return err
		}
		defer t.Drop()

		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

// parseSymbolSpecs parses "f/2,g/1" into symbol specs.
func parseSymbolSpecs(s string) ([]aterm.SymbolSpec, error) {
	var specs []aterm.SymbolSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, arityText, ok := strings.Cut(part, "/")
		if !ok {
			return nil, fmt.Errorf("symbol spec %q: want name/arity", part)
		}
		arity, err := strconv.ParseUint(arityText, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("symbol spec %q: bad arity: %w", part, err)
		}
		specs = append(specs, aterm.SymbolSpec{Name: name, Arity: uint32(arity)})
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no symbols given")
	}
	return specs, nil
}

func splitNames(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}
