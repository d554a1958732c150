package parser

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/unalkalkan/EpubSummary/pkg/types"
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n\r", " ", "\n", " ", "\r", " ")

var markdownConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// ExtractSections maps the <p> elements of the document body to paragraphs.
// Line breaks inside a paragraph become spaces and blank paragraphs are
// skipped. All paragraphs land in a single default section; a document
// without paragraphs yields no sections.
func ExtractSections(markup string) ([]types.Section, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var paragraphs []string
	doc.Find("body").First().Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(lineBreaks.Replace(s.Text()))
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return nil, nil
	}

	return []types.Section{{Title: types.DefaultSectionTitle, Paragraphs: paragraphs}}, nil
}

// documentTitle returns the trimmed <title> text, if any
func documentTitle(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// ChapterMarkdown renders the chapter HTML as CommonMark. The plain chapter
// text is returned when the chapter has no HTML or conversion yields nothing.
func ChapterMarkdown(ch *types.Chapter) string {
	if ch.HTML == "" {
		return ch.Text()
	}
	md, err := markdownConverter.ConvertString(ch.HTML)
	if err != nil || strings.TrimSpace(md) == "" {
		return ch.Text()
	}
	return strings.TrimSpace(md)
}

// newChapter builds a chapter from raw document bytes, logging the documents
// that carry no readable paragraphs.
func newChapter(logger *zap.Logger, data []byte, number int, title, sourcePath string) (*types.Chapter, error) {
	if !utf8.Valid(data) {
		logger.Warn("Chapter is not valid UTF-8, replacing invalid bytes", zap.String("chapter", title))
		data = []byte(strings.ToValidUTF8(string(data), "�"))
	}
	markup := string(data)

	sections, err := ExtractSections(markup)
	if err != nil {
		return nil, fmt.Errorf("failed to extract chapter %s: %w", sourcePath, err)
	}
	if len(sections) == 0 {
		logger.Warn("No paragraphs found in chapter", zap.String("chapter", title))
	}

	return &types.Chapter{
		ID:         fmt.Sprintf("chapter_%03d", number),
		Number:     number,
		Title:      title,
		SourcePath: sourcePath,
		HTML:       markup,
		Sections:   sections,
	}, nil
}

// HTMLParser parses a standalone HTML or XHTML document as a single chapter
type HTMLParser struct {
	logger *zap.Logger
}

// NewHTMLParser creates a new HTML parser
func NewHTMLParser(logger *zap.Logger) *HTMLParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTMLParser{logger: logger.Named("parser")}
}

// Parse extracts the paragraphs of the document into one chapter titled
// after the document <title>.
func (p *HTMLParser) Parse(ctx context.Context, data []byte) ([]*types.Chapter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data = stripBOM(data)
	title := documentTitle(string(data))
	if title == "" {
		title = "Main Content"
	}

	chapter, err := newChapter(p.logger, data, 1, title, "")
	if err != nil {
		return nil, err
	}
	if len(chapter.Sections) == 0 {
		return nil, fmt.Errorf("no content found in html document")
	}
	return []*types.Chapter{chapter}, nil
}

// SupportedFormats returns the formats this parser supports
func (p *HTMLParser) SupportedFormats() []string {
	return []string{"html", "xhtml", "htm"}
}
