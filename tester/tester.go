package tester

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Hyper5phere/simple-c-compiler/compiler"
	"github.com/Hyper5phere/simple-c-compiler/vm"
)

type TestResult struct {
	TestCasePath string
	Error        error
	Expected     []int
	Actual       []int
}

func (r *TestResult) String() string {
	if r.Error != nil {
		const indent1 = "    "
		const indent2 = indent1 + indent1

		msgLines := strings.Split(r.Error.Error(), "\n")
		msg := fmt.Sprintf("Failed %v:\n%v%v", r.TestCasePath, indent1, strings.Join(msgLines, "\n"+indent1))
		if r.Expected == nil && r.Actual == nil {
			return msg
		}
		diffLines := []string{
			fmt.Sprintf("expected: %v", r.Expected),
			fmt.Sprintf("actual:   %v", r.Actual),
		}
		return fmt.Sprintf("%v\n%v%v", msg, indent2, strings.Join(diffLines, "\n"+indent2))
	}
	return fmt.Sprintf("Passed %v", r.TestCasePath)
}

type TestCaseWithMetadata struct {
	TestCase *TestCase
	FilePath string
	Error    error
}

func ListTestCases(testPath string) []*TestCaseWithMetadata {
	fi, err := os.Stat(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	if !fi.IsDir() {
		c, err := parseTestCase(testPath)
		return []*TestCaseWithMetadata{
			{
				TestCase: c,
				FilePath: testPath,
				Error:    err,
			},
		}
	}

	es, err := os.ReadDir(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	var cases []*TestCaseWithMetadata
	for _, e := range es {
		cs := ListTestCases(filepath.Join(testPath, e.Name()))
		cases = append(cases, cs...)
	}
	return cases
}

func parseTestCase(testCasePath string) (*TestCase, error) {
	f, err := os.Open(testCasePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTestCase(f)
}

type Tester struct {
	Cases []*TestCaseWithMetadata

	// StepLimit bounds every program run; zero selects vm.DefaultStepLimit.
	StepLimit int
}

func (t *Tester) Run(ctx context.Context) []*TestResult {
	var rs []*TestResult
	for _, c := range t.Cases {
		rs = append(rs, t.runTest(ctx, c))
	}
	return rs
}

func (t *Tester) runTest(ctx context.Context, c *TestCaseWithMetadata) *TestResult {
	if c.Error != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        c.Error,
		}
	}

	r, err := compiler.Compile(bytes.NewReader(c.TestCase.Source))
	if err != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        err,
		}
	}
	if r.Failed() {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("compilation failed:\n%v", r.Errors()),
		}
	}

	limit := t.StepLimit
	if limit == 0 {
		limit = vm.DefaultStepLimit
	}
	m := vm.NewMachine(r.Program, vm.StepLimit(limit))
	err = m.Run(ctx)
	if err != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("execution failed: %w", err),
			Expected:     c.TestCase.Output,
			Actual:       m.Printed(),
		}
	}

	if !equal(c.TestCase.Output, m.Printed()) {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("output mismatch"),
			Expected:     c.TestCase.Output,
			Actual:       m.Printed(),
		}
	}
	return &TestResult{
		TestCasePath: c.FilePath,
	}
}

func equal(expected, actual []int) bool {
	if len(expected) != len(actual) {
		return false
	}
	for i, v := range expected {
		if actual[i] != v {
			return false
		}
	}
	return true
}
