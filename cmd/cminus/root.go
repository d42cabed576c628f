package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/spf13/cobra"
)

// tracerKeys lists the tracers selected by the packages of the compiler.
var tracerKeys = []string{
	"cminus.parser",
	"cminus.semantic",
	"cminus.codegen",
	"cminus.compiler",
	"cminus.vm",
}

var rootFlags = struct {
	trace *string
}{}

var rootCmd = &cobra.Command{
	Use:   "cminus",
	Short: "Compile C-minus programs into three-address code",
	Long: `cminus provides the following features:
- Compiles a C-minus program into three-address code in a single pass.
- Runs the three-address code on a built-in interpreter.
- Tests programs against their expected output.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: configureTracing,
}

func init() {
	rootFlags.trace = rootCmd.PersistentFlags().String("trace", "", "log level: error, info or debug (default no logging)")
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}

func configureTracing(cmd *cobra.Command, args []string) error {
	level := *rootFlags.trace
	if level == "" {
		return nil
	}
	switch level {
	case "error", "info", "debug":
	default:
		return fmt.Errorf("Unknown log level: %v", level)
	}

	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
		"tracelevel.root": level,
	}
	for _, key := range tracerKeys {
		conf["tracelevel."+key] = level
	}
	err := trace2go.ConfigureRoot(conf, "tracelevel", trace2go.ReplaceTracers(true))
	if err != nil {
		return fmt.Errorf("Cannot configure logging: %w", err)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	tracing.Select("cminus.compiler").Debugf("log level: %v", tracing.TraceLevelFromString(level))
	return nil
}

// recoverError turns a panic into an error and prints the error with a stack trace when the panic occurred.
func recoverError(retErr *error) {
	panicked := false
	v := recover()
	if v != nil {
		err, ok := v.(error)
		if !ok {
			*retErr = fmt.Errorf("an unexpected error occurred: %v", v)
			fmt.Fprintf(os.Stderr, "%v:\n%v", *retErr, string(debug.Stack()))
			return
		}

		*retErr = err
		panicked = true
	}

	if *retErr != nil && panicked {
		fmt.Fprintf(os.Stderr, "%v:\n%v", *retErr, string(debug.Stack()))
	}
}
