package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/EpubSummary/pkg/types"
)

func TestExtractSections(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{
			name:   "paragraphs in order",
			markup: chapterDoc("t", "First.", "Second.", "Third."),
			want:   []string{"First.", "Second.", "Third."},
		},
		{
			name:   "line breaks become spaces",
			markup: "<body><p>one\r\ntwo\nthree\rfour</p></body>",
			want:   []string{"one two three four"},
		},
		{
			name:   "inline markup is flattened",
			markup: "<body><p>She said <em>no</em>, <a href='#'>twice</a>.</p></body>",
			want:   []string{"She said no, twice."},
		},
		{
			name:   "blank paragraphs skipped",
			markup: "<body><p>  </p><p>kept</p><p></p></body>",
			want:   []string{"kept"},
		},
		{
			name:   "nested paragraphs inside divs",
			markup: "<body><div class='chapter'><h1>Title</h1><div><p>deep</p></div></div></body>",
			want:   []string{"deep"},
		},
		{
			name:   "no paragraphs",
			markup: "<body><div>loose text</div></body>",
			want:   nil,
		},
		{
			name:   "empty document",
			markup: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections, err := ExtractSections(tt.markup)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, sections)
				return
			}
			require.Len(t, sections, 1)
			assert.Equal(t, types.DefaultSectionTitle, sections[0].Title)
			assert.Equal(t, tt.want, sections[0].Paragraphs)
		})
	}
}

func TestChapterMarkdown(t *testing.T) {
	t.Run("Converts HTML", func(t *testing.T) {
		ch := &types.Chapter{HTML: "<html><body><h1>Night</h1><p>It was <strong>dark</strong>.</p></body></html>"}
		md := ChapterMarkdown(ch)
		assert.Contains(t, md, "# Night")
		assert.Contains(t, md, "**dark**")
	})

	t.Run("Falls back to text", func(t *testing.T) {
		ch := &types.Chapter{}
		ch.Sections = []types.Section{{Title: "default", Paragraphs: []string{"plain"}}}
		assert.Equal(t, "plain", ChapterMarkdown(ch))
	})
}

func TestHTMLParser_Parse(t *testing.T) {
	parser := NewHTMLParser(nil)
	ctx := context.Background()

	t.Run("Single chapter titled after the document", func(t *testing.T) {
		chapters, err := parser.Parse(ctx, []byte(chapterDoc("Prologue", "Once.", "Twice.")))
		require.NoError(t, err)
		require.Len(t, chapters, 1)
		assert.Equal(t, "Prologue", chapters[0].Title)
		assert.Equal(t, 1, chapters[0].Number)
		assert.Equal(t, []string{"Once.", "Twice."}, chapters[0].Paragraphs())
	})

	t.Run("Untitled document", func(t *testing.T) {
		chapters, err := parser.Parse(ctx, []byte("<body><p>x</p></body>"))
		require.NoError(t, err)
		assert.Equal(t, "Main Content", chapters[0].Title)
	})

	t.Run("Empty document", func(t *testing.T) {
		_, err := parser.Parse(ctx, []byte("<html></html>"))
		assert.Error(t, err)
	})
}
