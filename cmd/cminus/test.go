package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hyper5phere/simple-c-compiler/tester"
	"github.com/Hyper5phere/simple-c-compiler/vm"
)

var testFlags = struct {
	stepLimit *int
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "test <test file path>|<test directory path>",
		Short:   "Test C-minus programs against their expected output",
		Example: `  cminus test testdata`,
		Args:    cobra.ExactArgs(1),
		RunE:    runTest,
	}
	testFlags.stepLimit = cmd.Flags().Int("step-limit", vm.DefaultStepLimit, "maximum number of executed instructions per test case")
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	var cs []*tester.TestCaseWithMetadata
	{
		cs = tester.ListTestCases(args[0])
		errOccurred := false
		for _, c := range cs {
			if c.Error != nil {
				fmt.Fprintf(os.Stderr, "Failed to read a test case or a directory: %v\n%v\n", c.FilePath, c.Error)
				errOccurred = true
			}
		}
		if errOccurred {
			return errors.New("Cannot run test")
		}
	}

	t := &tester.Tester{
		Cases:     cs,
		StepLimit: *testFlags.stepLimit,
	}
	rs := t.Run(context.Background())
	testFailed := false
	for _, r := range rs {
		fmt.Fprintln(os.Stdout, r)
		if r.Error != nil {
			testFailed = true
		}
	}
	if testFailed {
		return errors.New("Test failed")
	}
	return nil
}
