package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hyper5phere/simple-c-compiler/grammar"
)

var grammarFlags = struct {
	json *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "Print the C-minus grammar with its FIRST and FOLLOW sets and its parsing table",
		Example: `  cminus grammar
  cminus grammar --json`,
		Args: cobra.NoArgs,
		RunE: runGrammar,
	}
	grammarFlags.json = cmd.Flags().Bool("json", false, "print the report in JSON format")
	rootCmd.AddCommand(cmd)
}

func runGrammar(cmd *cobra.Command, args []string) (retErr error) {
	defer recoverError(&retErr)

	g, err := grammar.NewCMinusGrammar()
	if err != nil {
		return fmt.Errorf("Cannot read the grammar: %w", err)
	}
	report := &grammar.Report{}
	_, err = grammar.Compile(g, grammar.WithReport(report))
	if err != nil {
		return fmt.Errorf("Cannot compile the grammar: %w", err)
	}

	if *grammarFlags.json {
		b, err := json.Marshal(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(b))
		return nil
	}
	return grammar.WriteReport(os.Stdout, report)
}
