package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// plainPrompt is printed before each line in line mode.
const plainPrompt = "> "

// RunPlain runs the line-oriented REPL: one question per input line,
// results written as plain text. It returns nil at end of input.
func RunPlain(ctx context.Context, a Answerer, cfg Config) error {
	out := cfg.Output
	if out == nil {
		out = io.Discard
	}
	styles := NoColorStyles()
	k := cfg.K

	if cfg.Summary != "" {
		_, _ = fmt.Fprintln(out, cfg.Summary)
	}
	_, _ = fmt.Fprint(out, plainPrompt)

	scanner := bufio.NewScanner(cfg.Input)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		cmd := parseLine(scanner.Text())
		switch cmd.kind {
		case cmdQuit:
			return nil
		case cmdHelp:
			_, _ = fmt.Fprintln(out, helpText)
		case cmdSetK:
			k = cmd.k
			_, _ = fmt.Fprintf(out, "k = %d\n", k)
		case cmdInvalid:
			_, _ = fmt.Fprintln(out, "error: "+cmd.err)
		case cmdQuery:
			results, err := a.AnswerContext(ctx, cmd.query, k)
			if err != nil {
				_, _ = fmt.Fprintln(out, "error: "+err.Error())
				break
			}
			_, _ = fmt.Fprintln(out, renderResults(results, styles))
		}

		_, _ = fmt.Fprint(out, plainPrompt)
	}

	_, _ = fmt.Fprintln(out)
	return scanner.Err()
}
