package main

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unalkalkan/EpubSummary/internal/book"
	"github.com/unalkalkan/EpubSummary/internal/packaging"
)

func newLibraryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "library [prefix]",
		Short: "List the EPUB files in storage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}

			adapter, err := a.openStorage(ctx)
			if err != nil {
				return err
			}
			defer adapter.Close()

			keys, err := adapter.List(ctx, prefix)
			if err != nil {
				return err
			}
			for _, key := range keys {
				if strings.EqualFold(path.Ext(key), ".epub") {
					fmt.Fprintln(cmd.OutOrStdout(), key)
				}
			}
			return nil
		},
	}
}

func newBooksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List the books dumped to storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			adapter, err := a.openStorage(ctx)
			if err != nil {
				return err
			}
			defer adapter.Close()

			books, err := book.NewRepository(adapter).ListBooks(ctx)
			if err != nil {
				return err
			}
			for _, b := range books {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d chapters\t%s\n", b.ID, b.TotalChapters, b.Title)
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <book-id>",
		Short: "Package a dumped book into a zip archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bookID := args[0]

			adapter, err := a.openStorage(ctx)
			if err != nil {
				return err
			}
			defer adapter.Close()

			if output == "" {
				output = bookID + ".zip"
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}

			svc := packaging.NewService(book.NewRepository(adapter), adapter)
			if err := svc.PackageBook(ctx, bookID, f); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive path (default: <book-id>.zip)")
	return cmd
}

func newPathsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the configured project folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), a.cfg.Paths.String())
			return nil
		},
	}
}
