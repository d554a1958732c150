package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unalkalkan/EpubSummary/internal/book"
	"github.com/unalkalkan/EpubSummary/internal/util"
	"github.com/unalkalkan/EpubSummary/pkg/types"
)

func newExtractCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "extract <book>",
		Short: "Print the text of every chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			render, _, err := textFormat(format)
			if err != nil {
				return err
			}

			_, chapters, err := a.parseSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, ch := range chapters {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, chapterHeading(ch))
				fmt.Fprintln(out, render(ch))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or markdown")
	return cmd
}

func newDumpCmd(a *app) *cobra.Command {
	var (
		format string
		bookID string
	)

	cmd := &cobra.Command{
		Use:   "dump <book>",
		Short: "Write the extracted chapters to storage",
		Long: `Writes books/<id>/metadata.json and, per chapter, the chapter data as
json plus its text in the chosen format. The id defaults to a slug of the
file name. An existing dump with the same id is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			render, ext, err := textFormat(format)
			if err != nil {
				return err
			}

			src, chapters, err := a.parseSource(ctx, args[0])
			if err != nil {
				return err
			}

			adapter, err := a.openStorage(ctx)
			if err != nil {
				return err
			}
			defer adapter.Close()
			repo := book.NewRepository(adapter)

			if bookID == "" {
				bookID = util.BookID(src.name)
			}
			if err := repo.DeleteBook(ctx, bookID); err != nil {
				return err
			}

			b := &types.Book{
				ID:            bookID,
				Title:         bookTitle(src.name),
				SourcePath:    src.name,
				Format:        src.format,
				ExtractedAt:   time.Now().UTC(),
				TotalChapters: len(chapters),
			}
			for _, ch := range chapters {
				ch.BookID = bookID
				b.ChapterOrder = append(b.ChapterOrder, ch.SourcePath)

				if err := repo.SaveChapter(ctx, ch); err != nil {
					return fmt.Errorf("failed to save chapter %s: %w", ch.ID, err)
				}
				if err := repo.SaveChapterText(ctx, bookID, ch, ext, render(ch)); err != nil {
					return err
				}
			}
			if err := repo.SaveBook(ctx, b); err != nil {
				return fmt.Errorf("failed to save book: %w", err)
			}

			a.logger.Info("Book dumped",
				zap.String("book_id", bookID),
				zap.Int("chapters", len(chapters)),
				zap.String("format", ext))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chapters\n", bookID, len(chapters))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Chapter text format: text or markdown")
	cmd.Flags().StringVar(&bookID, "id", "", "Book id (default: derived from the file name)")
	return cmd
}
