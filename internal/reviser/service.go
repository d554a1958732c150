package reviser

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unalkalkan/EpubSummary/internal/provider"
	"github.com/unalkalkan/EpubSummary/pkg/types"
)

const (
	// DefaultConcurrency is the number of chapters revised at once
	DefaultConcurrency = 3
	// DefaultRetryBackoff is the wait before the first retry; later retries wait longer
	DefaultRetryBackoff = 2 * time.Second
)

// Options tunes a Service
type Options struct {
	Concurrency  int           // Chapters revised in parallel
	MaxRetries   int           // Extra attempts after a failed call
	RetryBackoff time.Duration // Attempt n waits n*RetryBackoff before running
}

// Service revises chapters with a language model
type Service struct {
	llm    provider.LLMProvider
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new reviser service
func NewService(llm provider.LLMProvider, opts Options, logger *zap.Logger) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		llm:    llm,
		opts:   opts,
		logger: logger.Named("reviser"),
		now:    time.Now,
	}
}

// ReviseChapter asks the model for a revision of one chapter. Failed calls are
// retried up to MaxRetries times unless the context is done.
func (s *Service) ReviseChapter(ctx context.Context, ch *types.Chapter) (*types.Revision, error) {
	req := provider.ReviseRequest{
		Title: ch.Title,
		Text:  ch.Text(),
	}

	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * s.opts.RetryBackoff
			s.logger.Warn("Retrying chapter revision",
				zap.String("chapter", ch.ID),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", wait),
				zap.Error(lastErr))

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		start := time.Now()
		resp, err := s.llm.Revise(ctx, req)
		if err == nil {
			s.logger.Info("Chapter revised",
				zap.String("chapter", ch.ID),
				zap.Int("words_before", ch.WordCount()),
				zap.Duration("took", time.Since(start)))
			return s.newRevision(ch, resp), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to revise chapter %s after %d attempts: %w", ch.ID, s.opts.MaxRetries+1, lastErr)
}

// ReviseBook revises every chapter with text, in parallel, and returns the
// revisions in chapter order. The first failure cancels the remaining work.
func (s *Service) ReviseBook(ctx context.Context, chapters []*types.Chapter) ([]*types.Revision, error) {
	results := make([]*types.Revision, len(chapters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, ch := range chapters {
		if len(ch.Paragraphs()) == 0 {
			s.logger.Warn("Skipping chapter without text", zap.String("chapter", ch.ID))
			continue
		}

		g.Go(func() error {
			rev, err := s.ReviseChapter(gctx, ch)
			if err != nil {
				return err
			}
			results[i] = rev
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	revisions := make([]*types.Revision, 0, len(results))
	for _, rev := range results {
		if rev != nil {
			revisions = append(revisions, rev)
		}
	}
	return revisions, nil
}

func (s *Service) newRevision(ch *types.Chapter, resp *provider.ReviseResponse) *types.Revision {
	revised := &types.Chapter{
		ID:         ch.ID,
		BookID:     ch.BookID,
		Number:     ch.Number,
		Title:      ch.Title,
		SourcePath: ch.SourcePath,
	}
	revised.SetText(resp.RevisedChapter)

	return &types.Revision{
		ChapterID:   ch.ID,
		Number:      ch.Number,
		Title:       ch.Title,
		Summary:     resp.Summary,
		Revised:     revised,
		Provider:    s.llm.Name(),
		GeneratedAt: s.now(),
	}
}
