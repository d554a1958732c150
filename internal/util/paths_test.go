package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Moby Dick.epub", "moby-dick"},
		{"/home/me/books/The_Hobbit (1937).epub", "the-hobbit-1937"},
		{"C:\\books\\Dune.epub", "dune"},
		{"books/war-and-peace", "war-and-peace"},
		{"Анна Каренина.epub", "анна-каренина"},
		{"  --weird--name--.epub", "weird-name"},
		{".epub", "epub"},
		{"!!!.epub", "book"},
		{"", "book"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, BookID(tt.in))
		})
	}
}

func TestStoragePaths(t *testing.T) {
	assert.Equal(t, "books/dune/metadata.json", BookPath("dune"))
	assert.Equal(t, "books/dune/chapters/", ChaptersPrefix("dune"))
	assert.Equal(t, "books/dune/chapters/chapter_001.md", ChapterPath("dune", "chapter_001", "md"))
	assert.Equal(t, []string{"txt", "md"}, TextFormats())
}
