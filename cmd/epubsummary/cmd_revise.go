package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unalkalkan/EpubSummary/internal/provider"
	"github.com/unalkalkan/EpubSummary/internal/reviser"
	"github.com/unalkalkan/EpubSummary/pkg/types"
)

func newReviseCmd(a *app) *cobra.Command {
	var (
		chapter      int
		providerName string
	)

	cmd := &cobra.Command{
		Use:   "revise <book>",
		Short: "Shorten and summarize chapters with a language model",
		Long: `Sends chapters to the configured LLM provider, which halves each chapter,
tightens the prose and writes a short summary. Results are printed, never
stored. Without --chapter every chapter is revised.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, chapters, err := a.parseSource(ctx, args[0])
			if err != nil {
				return err
			}
			if chapter > 0 {
				if chapter > len(chapters) {
					return fmt.Errorf("chapter %d out of range: book has %d chapters", chapter, len(chapters))
				}
				chapters = chapters[chapter-1 : chapter]
			}

			registry := provider.NewRegistry()
			defer registry.Close()
			if err := registry.InitializeProviders(a.cfg.Providers, a.logger); err != nil {
				return err
			}
			if len(registry.ListLLM()) == 0 {
				return fmt.Errorf("no LLM providers configured")
			}

			name := providerName
			if name == "" {
				name = a.cfg.Reviser.Provider
			}
			llm, err := registry.GetLLM(name)
			if err != nil {
				return err
			}

			svc := reviser.NewService(llm, reviser.Options{
				Concurrency:  a.cfg.Reviser.Concurrency,
				MaxRetries:   a.cfg.Reviser.MaxRetries,
				RetryBackoff: time.Duration(a.cfg.Reviser.RetryBackoffMs) * time.Millisecond,
			}, a.logger)

			a.logger.Info("Revising chapters",
				zap.String("provider", llm.Name()),
				zap.Int("chapters", len(chapters)))

			revisions, err := svc.ReviseBook(ctx, chapters)
			if err != nil {
				return err
			}
			printRevisions(cmd, revisions)
			return nil
		},
	}

	cmd.Flags().IntVarP(&chapter, "chapter", "n", 0, "Revise only this chapter (1-based reading order)")
	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "LLM provider name (default: reviser.provider from config)")
	return cmd
}

func printRevisions(cmd *cobra.Command, revisions []*types.Revision) {
	out := cmd.OutOrStdout()
	for i, rev := range revisions {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, chapterHeading(rev.Revised))
		fmt.Fprintf(out, "Summary: %s\n\n", rev.Summary)
		fmt.Fprintln(out, rev.Revised.Text())
	}
}
