package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [file-or-url...]",
		Short: "Chunk documents and add them to the vector store",
		Long: `Loads each text file or web page, splits it into chunks and indexes the
chunks. Without arguments the configured docs_source is ingested.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if len(args) == 0 {
				args = []string{rt.Config.RAG.DocsSource}
			}

			for _, source := range args {
				n, err := rt.Ingest(cmd.Context(), source)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks indexed\n", source, n)
			}
			return nil
		},
	}
}
