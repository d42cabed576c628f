package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/Hyper5phere/simple-c-compiler/compiler"
	"github.com/Hyper5phere/simple-c-compiler/semantic"
	"github.com/Hyper5phere/simple-c-compiler/tac"
	"github.com/Hyper5phere/simple-c-compiler/vm"
)

func init() {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Compile and run C-minus declarations interactively",
		Long: `repl reads C-minus declarations line by line. A declaration is compiled as soon
as its braces balance and the session is run once it declares main. The
following commands are available:
  :tac    print the listing of the last compilation
  :reset  forget every declaration
  :quit   leave the session`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
	rootCmd.AddCommand(cmd)
}

const (
	promptFirst = "cminus> "
	promptCont  = "   ...> "
)

// session holds the declarations accepted so far.
type session struct {
	decls   []string
	pending strings.Builder
	depth   int
	last    tac.Program
}

func runREPL(cmd *cobra.Command, args []string) (retErr error) {
	defer recoverError(&retErr)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	s := &session{}
	for {
		prompt := promptFirst
		if s.pending.Len() > 0 {
			prompt = promptCont
		}
		text, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return err
		}
		line.AppendHistory(text)

		switch strings.TrimSpace(text) {
		case ":quit":
			return nil
		case ":reset":
			*s = session{}
			continue
		case ":tac":
			if s.last != nil {
				s.last.Write(os.Stdout)
			}
			continue
		}

		if !s.feed(text) {
			continue
		}
		s.eval(context.Background(), os.Stdout)
	}
}

// feed appends a line to the pending declaration and reports whether the declaration is complete.
func (s *session) feed(text string) bool {
	s.pending.WriteString(text)
	s.pending.WriteByte('\n')
	s.depth += strings.Count(text, "{") - strings.Count(text, "}")
	if s.depth > 0 {
		return false
	}
	s.depth = 0
	trimmed := strings.TrimSpace(text)
	return strings.HasSuffix(trimmed, "}") || strings.HasSuffix(trimmed, ";")
}

// eval compiles the accepted declarations followed by the pending one. The pending declaration is kept when it is
// correct, and the program is run once it declares main.
func (s *session) eval(ctx context.Context, w io.Writer) {
	decl := s.pending.String()
	s.pending.Reset()

	src := strings.Join(append(append([]string{}, s.decls...), decl), "")
	r, err := compiler.Compile(strings.NewReader(src))
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}

	var errs []string
	mainMissing := false
	for _, e := range r.Errors() {
		if e.Message == semantic.MsgMainNotFound {
			mainMissing = true
			continue
		}
		errs = append(errs, e.Error())
	}
	if len(errs) > 0 {
		fmt.Fprintln(w, strings.Join(errs, "\n"))
		return
	}
	if mainMissing {
		s.decls = append(s.decls, decl)
		return
	}

	s.last = r.Program
	err = vm.Run(ctx, r.Program, w)
	if err != nil {
		fmt.Fprintln(w, err)
	}
}
