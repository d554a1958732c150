package types

import (
	"html"
	"strings"
	"time"
)

// DefaultSectionTitle is the title of the section holding all paragraphs of a
// chapter when the source document has no finer structure.
const DefaultSectionTitle = "default"

// Book represents an extracted ebook
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	SourcePath    string    `json:"source_path"`
	Format        string    `json:"format"` // "epub", "html"
	ExtractedAt   time.Time `json:"extracted_at"`
	TotalChapters int       `json:"total_chapters"`
	ChapterOrder  []string  `json:"chapter_order"` // archive member paths in reading order
}

// Chapter represents a chapter in a book
type Chapter struct {
	ID         string    `json:"id"`
	BookID     string    `json:"book_id"`
	Number     int       `json:"number"` // 1-based reading order
	Title      string    `json:"title"`
	SourcePath string    `json:"source_path"`
	HTML       string    `json:"-"`
	Sections   []Section `json:"sections"`
}

// Section groups consecutive paragraphs of a chapter
type Section struct {
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs"`
}

// Text returns the section paragraphs separated by newlines
func (s Section) Text() string {
	return strings.Join(s.Paragraphs, "\n")
}

// Text returns the chapter sections separated by newlines
func (c *Chapter) Text() string {
	texts := make([]string, 0, len(c.Sections))
	for _, s := range c.Sections {
		texts = append(texts, s.Text())
	}
	return strings.Join(texts, "\n")
}

// Paragraphs returns every paragraph of the chapter in order
func (c *Chapter) Paragraphs() []string {
	var paragraphs []string
	for _, s := range c.Sections {
		paragraphs = append(paragraphs, s.Paragraphs...)
	}
	return paragraphs
}

// WordCount returns the number of whitespace separated words in the chapter
func (c *Chapter) WordCount() int {
	count := 0
	for _, p := range c.Paragraphs() {
		count += len(strings.Fields(p))
	}
	return count
}

// SetText replaces the chapter content with text, one paragraph per line.
// The HTML is rebuilt as a bare body of <p> elements.
func (c *Chapter) SetText(text string) {
	lines := strings.Split(text, "\n")

	var sb strings.Builder
	sb.WriteString("<body>")
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(line))
		sb.WriteString("</p>")
	}
	sb.WriteString("</body>")

	c.HTML = sb.String()
	c.Sections = []Section{{Title: DefaultSectionTitle, Paragraphs: lines}}
}

// Revision is the language-model rewrite of a single chapter
type Revision struct {
	ChapterID   string    `json:"chapter_id"`
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Revised     *Chapter  `json:"revised"`
	Provider    string    `json:"provider"`
	GeneratedAt time.Time `json:"generated_at"`
}
