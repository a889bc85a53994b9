// Package repl runs the interactive read-eval-print loop over a Session.
package repl

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/peterh/liner"

	mal "github.com/rphilander/mal/core"
)

// LineReader is the subset of *liner.State the loop needs.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// Run prompts for lines until the reader reports io.EOF. Each line goes
// through s.Rep; the result is printed readably and errors are printed as
// "error: ..." without ending the loop. Ctrl-C discards the current line.
func Run(lr LineReader, out io.Writer, s *mal.Session, prompt string) error {
	for {
		line, err := lr.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return fmt.Errorf("read line: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lr.AppendHistory(line)

		val, err := s.Rep(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, mal.PrStr(val, true))
	}
}

// Completer returns a liner.WordCompleter that completes the symbol under
// the cursor against the names bound in the session's global scope.
func Completer(s *mal.Session) liner.WordCompleter {
	return func(line string, pos int) (head string, completions []string, tail string) {
		runes := []rune(line)
		if pos > len(runes) {
			pos = len(runes)
		}
		start := pos
		for start > 0 && !isBoundary(runes[start-1]) {
			start--
		}
		head, tail = string(runes[:start]), string(runes[pos:])
		word := string(runes[start:pos])
		if word == "" {
			return head, nil, tail
		}
		for _, name := range s.Symbols() {
			if strings.HasPrefix(name, word) {
				completions = append(completions, name)
			}
		}
		sort.Strings(completions)
		return head, completions, tail
	}
}

func isBoundary(ch rune) bool {
	switch ch {
	case '(', ')', '[', ']', '{', '}', '"', '\'', ',':
		return true
	}
	return unicode.IsSpace(ch)
}
