package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/mzielinska/rarog/internal/config"
	"github.com/mzielinska/rarog/internal/dispatch"
)

// maxInputLine bounds a single chat input line.
const maxInputLine = 1 << 20

// runREPL drives the chat loop: read a line, dispatch it, print the
// outcome. Model replies carry the assistant display name; directive
// and command output prints as-is.
func runREPL(ctx context.Context, d *dispatch.Dispatcher, cfg *config.Config, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "rarog %s, model %s on %s (:help for commands)\n", Version, cfg.Model, cfg.ModelHost)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxInputLine)

	for {
		fmt.Fprintf(out, "%s> ", cfg.UserName)
		if !scanner.Scan() {
			break
		}

		outcome := d.Process(ctx, scanner.Text())
		printOutcome(out, cfg, outcome)
		if outcome.Kind == dispatch.SessionEnd {
			return nil
		}
	}
	return scanner.Err()
}

func printOutcome(out io.Writer, cfg *config.Config, outcome *dispatch.Outcome) {
	if outcome.Output == "" {
		return
	}
	switch outcome.Kind {
	case dispatch.ContextForwarded, dispatch.PlainForwarded:
		fmt.Fprintf(out, "%s: %s\n", cfg.AssistantName, outcome.Output)
	default:
		fmt.Fprintln(out, outcome.Output)
	}
}
