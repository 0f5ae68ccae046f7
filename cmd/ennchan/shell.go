package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikeboe/ennchan-rag/pkg/app"
)

const (
	bold   = "\033[1m"
	blue   = "\033[1;34m"
	grey   = "\033[90m"
	red    = "\033[31m"
	reset  = "\033[0m"
	lineUp = "\033[F\033[K"
)

func newShellCmd() *cobra.Command {
	var direct bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Ask questions interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			mode := app.ModeSearch
			if direct {
				mode = app.ModeDirect
			}

			ask := func(ctx context.Context, question string) (string, error) {
				state, err := rt.Ask(ctx, mode, question)
				return state.Answer, err
			}
			return runShell(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), ask)
		},
	}

	cmd.Flags().BoolVar(&direct, "direct", false, "Answer from the indexed documents only, without a web search")
	return cmd
}

func isExit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "close", "q":
		return true
	}
	return false
}

func printHeader(out io.Writer) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, center("EnnchanRAG Command Line Interface", 80))
	fmt.Fprintln(out, center("Type 'exit', 'quit', 'close', or 'q' to exit", 80))
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out)
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", (width-len(s))/2) + s
}

// runShell reads questions line by line until an exit word, EOF or
// cancellation. A failed question is reported and the loop continues.
func runShell(ctx context.Context, in io.Reader, out io.Writer, ask func(context.Context, string) (string, error)) error {
	printHeader(out)
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprintf(out, "%sUser:%s ", bold, reset)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			fmt.Fprintln(out, "\n\nOperation cancelled by user. Exiting...")
			return nil
		}

		input := scanner.Text()
		if isExit(input) {
			fmt.Fprintln(out, "\nThank you for using EnnchanRAG. Goodbye!")
			return nil
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		start := time.Now()
		fmt.Fprintf(out, "%sThinking...%s\n", grey, reset)

		answer, err := ask(ctx, input)
		fmt.Fprint(out, lineUp)
		if err != nil {
			fmt.Fprintf(out, "\n%sError: %v%s\n", red, err, reset)
			fmt.Fprintln(out, "Please try again or type 'exit' to quit.")
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		fmt.Fprintf(out, "%sAssistant:%s %s\n", blue, reset, app.CleanAnswer(answer))
		fmt.Fprintf(out, "%s(Response time: %.2f seconds)%s\n\n", grey, time.Since(start).Seconds(), reset)
	}
}
