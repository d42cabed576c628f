package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hyper5phere/simple-c-compiler/tac"
	"github.com/Hyper5phere/simple-c-compiler/vm"
)

var runFlags = struct {
	stepLimit *int
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "run <source file path>|<listing file path>",
		Short: "Run a C-minus program or a three-address code listing",
		Example: `  cminus run input.txt
  cminus run output.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}
	runFlags.stepLimit = cmd.Flags().Int("step-limit", vm.DefaultStepLimit, "maximum number of executed instructions (0 means no limit)")
	rootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) (retErr error) {
	defer recoverError(&retErr)

	prog, err := readListing(args[0])
	if err != nil {
		return err
	}
	if prog == nil {
		r, err := compileSource(args)
		if err != nil {
			return err
		}
		if r.Failed() {
			for _, e := range r.Errors() {
				fmt.Fprintln(os.Stderr, e.Detail())
			}
			return errCompilationFailed
		}
		prog = r.Program
	}

	m := vm.NewMachine(prog, vm.StepLimit(*runFlags.stepLimit), vm.Output(os.Stdout))
	return m.Run(context.Background())
}

// readListing reads a three-address code listing. It returns nil without an error when the file is not a listing.
func readListing(path string) (tac.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot read the file %s: %w", path, err)
	}
	prog, err := tac.ParseProgram(bytes.NewReader(src))
	if err != nil || len(prog) == 0 {
		return nil, nil
	}
	return prog, nil
}
