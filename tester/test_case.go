package tester

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// TestCase is a C-minus program and the values it must print.
type TestCase struct {
	Description string
	Source      []byte
	Output      []int
}

// ParseTestCase reads a test case made of three parts separated by `---` lines: a description, a source program and
// the expected output, one value per line.
func ParseTestCase(r io.Reader) (*TestCase, error) {
	parts, err := splitIntoParts(r)
	if err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("too many or too few part delimiters: a test case consists of just three parts: %v parts found", len(parts))
	}

	lineOffset := parts[0].lineCount + parts[1].lineCount + 2
	var out []int
	for i, line := range strings.Split(string(parts[2].buf), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("%v: an output line must be an integer: %w", lineOffset+i+1, err)
		}
		out = append(out, v)
	}

	return &TestCase{
		Description: string(parts[0].buf),
		Source:      parts[1].buf,
		Output:      out,
	}, nil
}

type testCasePart struct {
	buf       []byte
	lineCount int
}

func splitIntoParts(r io.Reader) ([]*testCasePart, error) {
	var bufs []*testCasePart
	s := bufio.NewScanner(r)
	delimited := false
	for {
		buf, lineCount, closed, err := readPart(s)
		if err != nil {
			return nil, err
		}
		if buf == nil {
			// A trailing delimiter opens a last, empty part.
			if delimited {
				bufs = append(bufs, &testCasePart{
					buf: []byte{},
				})
			}
			break
		}
		bufs = append(bufs, &testCasePart{
			buf:       buf,
			lineCount: lineCount,
		})
		delimited = closed
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return bufs, nil
}

var reDelim = regexp.MustCompile(`^\s*---+\s*$`)

// readPart reads lines up to the next delimiter and reports whether a delimiter closed the part.
func readPart(s *bufio.Scanner) ([]byte, int, bool, error) {
	if !s.Scan() {
		return nil, 0, false, s.Err()
	}
	buf := &bytes.Buffer{}
	line := s.Bytes()
	if reDelim.Match(line) {
		return []byte{}, 0, true, nil
	}
	buf.Write(line)
	lineCount := 1
	for s.Scan() {
		line := s.Bytes()
		if reDelim.Match(line) {
			return buf.Bytes(), lineCount, true, nil
		}
		buf.WriteByte('\n')
		buf.Write(line)
		lineCount++
	}
	if err := s.Err(); err != nil {
		return nil, 0, false, err
	}
	return buf.Bytes(), lineCount, false, nil
}
