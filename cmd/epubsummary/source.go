package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/unalkalkan/EpubSummary/internal/parser"
	"github.com/unalkalkan/EpubSummary/internal/storage"
	"github.com/unalkalkan/EpubSummary/pkg/types"
)

// source is a book file loaded from disk or storage
type source struct {
	name   string // path or storage key as given
	format string
	data   []byte
}

// openStorage creates the configured storage adapter
func (a *app) openStorage(ctx context.Context) (storage.Adapter, error) {
	adapter, err := storage.NewAdapter(ctx, a.cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage adapter: %w", err)
	}
	return adapter, nil
}

// loadSource reads name from the local filesystem, falling back to the
// configured storage when no local file exists
func (a *app) loadSource(ctx context.Context, name string) (*source, error) {
	format := parser.FormatOf(name)

	if info, err := os.Stat(name); err == nil && info.Mode().IsRegular() {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		a.logger.Debug("Loaded local source", zap.String("path", name), zap.Int("bytes", len(data)))
		return &source{name: name, format: format, data: data}, nil
	}

	adapter, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	defer adapter.Close()

	reader, err := adapter.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	a.logger.Debug("Loaded source from storage", zap.String("key", name), zap.Int("bytes", len(data)))
	return &source{name: name, format: format, data: data}, nil
}

// parseSource loads and parses a book into chapters
func (a *app) parseSource(ctx context.Context, name string) (*source, []*types.Chapter, error) {
	src, err := a.loadSource(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	p, err := parser.NewFactory(a.logger).GetParser(src.format)
	if err != nil {
		return nil, nil, err
	}

	chapters, err := p.Parse(ctx, src.data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return src, chapters, nil
}

// textFormat maps a --format value to the chapter renderer and file extension
func textFormat(format string) (func(*types.Chapter) string, string, error) {
	switch strings.ToLower(format) {
	case "text", "txt":
		return (*types.Chapter).Text, "txt", nil
	case "markdown", "md":
		return parser.ChapterMarkdown, "md", nil
	}
	return nil, "", fmt.Errorf("unknown format %q (must be 'text' or 'markdown')", format)
}

func chapterHeading(ch *types.Chapter) string {
	return fmt.Sprintf("== %d. %s ==", ch.Number, ch.Title)
}

// bookTitle is the file name of a source without directory and extension
func bookTitle(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
