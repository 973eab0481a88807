package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSymbolCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "symbol <term>",
		Short: "Look a term up in the symbol dictionary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			meaning, ok := a.lib.SymbolMeaning(term)
			if !ok {
				return fmt.Errorf("no meaning recorded for %q", term)
			}
			fmt.Fprintf(out, "%s: %s\n", term, meaning)

			in, ok := a.lib.Interpretation(term)
			if !ok {
				return nil
			}
			for _, c := range in.Contextual {
				fmt.Fprintf(out, "  %s: %s\n", c.Context, c.Meaning)
			}
			for _, c := range in.Cultural {
				fmt.Fprintf(out, "  (%s) %s\n", c.Culture, c.Meaning)
			}
			if in.Psychological != "" {
				fmt.Fprintf(out, "  %s\n", in.Psychological)
			}
			return nil
		},
	}
}
