package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unalkalkan/EpubSummary/pkg/types"
)

// EPUBParser extracts chapters from ePUB archives. Chapter documents are
// picked and ordered from the archive member names alone; the OPF spine is
// not consulted.
type EPUBParser struct {
	logger       *zap.Logger
	maxEntrySize int64
}

// NewEPUBParser creates a new ePUB parser
func NewEPUBParser(logger *zap.Logger) *EPUBParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EPUBParser{
		logger:       logger.Named("parser"),
		maxEntrySize: maxEntrySize,
	}
}

// ChapterPaths returns the archive members holding chapters, in reading order
func (p *EPUBParser) ChapterPaths(data []byte) ([]string, error) {
	zr, err := openArchive(data)
	if err != nil {
		return nil, err
	}
	return ResolveChapterOrder(memberNames(zr)), nil
}

// Parse extracts the chapters of an ePUB file in reading order
func (p *EPUBParser) Parse(ctx context.Context, data []byte) ([]*types.Chapter, error) {
	start := time.Now()

	zr, err := openArchive(data)
	if err != nil {
		return nil, err
	}

	names := memberNames(zr)
	ordered := ResolveChapterOrder(names)
	if len(ordered) == 0 {
		return nil, ErrNoChapters
	}
	p.logger.Debug("Resolved chapter order",
		zap.Int("members", len(names)),
		zap.Int("chapters", len(ordered)))

	index := indexMembers(zr)
	chapters := make([]*types.Chapter, 0, len(ordered))
	for i, name := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := readMember(index[name], p.maxEntrySize)
		if err != nil {
			return nil, err
		}

		stem, _ := splitExt(name)
		chapter, err := newChapter(p.logger, raw, i+1, stem, name)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, chapter)
	}

	p.logger.Info("Parsed epub",
		zap.Int("chapters", len(chapters)),
		zap.Duration("took", time.Since(start)))
	return chapters, nil
}

// SupportedFormats returns the formats this parser supports
func (p *EPUBParser) SupportedFormats() []string {
	return []string{"epub"}
}

func openArchive(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	// Insecure member names are refused per member by readMember.
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && zr != nil) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEPUB, err)
	}
	return zr, nil
}
