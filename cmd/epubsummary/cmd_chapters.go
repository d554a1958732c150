package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unalkalkan/EpubSummary/internal/parser"
)

func newChaptersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chapters <epub>",
		Short: "Print the chapter documents of an EPUB in reading order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.loadSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			paths, err := parser.NewEPUBParser(a.logger).ChapterPaths(src.data)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
