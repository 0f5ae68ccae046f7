package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikeboe/ennchan-rag/pkg/app"
)

func newAskCmd() *cobra.Command {
	var direct bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question",
		Args:  cobra.MinimumNArgs(1),
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

			state, err := rt.Ask(cmd.Context(), mode, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), app.CleanAnswer(state.Answer))
			return nil
		},
	}

	cmd.Flags().BoolVar(&direct, "direct", false, "Answer from the indexed documents only, without a web search")
	return cmd
}
