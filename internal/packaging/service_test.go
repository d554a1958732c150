package packaging

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/EpubSummary/internal/book"
	"github.com/unalkalkan/EpubSummary/internal/storage"
	"github.com/unalkalkan/EpubSummary/pkg/types"
)

func setupService(t *testing.T) (*Service, book.Repository) {
	t.Helper()
	storageAdapter, err := storage.NewLocalAdapter(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { storageAdapter.Close() })

	repo := book.NewRepository(storageAdapter)
	return NewService(repo, storageAdapter), repo
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = content
	}
	return files
}

func TestService_PackageBook(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupService(t)
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }

	testBook := &types.Book{
		ID:            "book_pkg_001",
		Title:         "Test Package Book",
		SourcePath:    "/books/test.epub",
		Format:        "epub",
		ExtractedAt:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		TotalChapters: 2,
	}
	require.NoError(t, repo.SaveBook(ctx, testBook))

	chapters := []*types.Chapter{
		{
			ID:         "chapter_001",
			BookID:     "book_pkg_001",
			Number:     1,
			Title:      "ch1",
			SourcePath: "OEBPS/ch1.xhtml",
			Sections: []types.Section{{Title: types.DefaultSectionTitle, Paragraphs: []string{
				"First paragraph here.",
				"Second paragraph.",
			}}},
		},
		{
			ID:         "chapter_002",
			BookID:     "book_pkg_001",
			Number:     2,
			Title:      "ch2",
			SourcePath: "OEBPS/ch2.xhtml",
			Sections: []types.Section{{Title: types.DefaultSectionTitle, Paragraphs: []string{
				"Third.",
			}}},
		},
	}
	for _, ch := range chapters {
		require.NoError(t, repo.SaveChapter(ctx, ch))
	}
	require.NoError(t, repo.SaveChapterText(ctx, "book_pkg_001", chapters[0], "md", "First paragraph here.\n\nSecond paragraph."))

	var buf bytes.Buffer
	require.NoError(t, svc.PackageBook(ctx, "book_pkg_001", &buf))

	files := readZip(t, buf.Bytes())
	assert.Contains(t, files, "manifest.json")
	assert.Contains(t, files, "toc.json")
	assert.Contains(t, files, "chapters/chapter_001.json")
	assert.Contains(t, files, "chapters/chapter_002.json")
	assert.Equal(t, "First paragraph here.\n\nSecond paragraph.", string(files["chapters/chapter_001.md"]))
	assert.NotContains(t, files, "chapters/chapter_002.md")

	var manifest Manifest
	require.NoError(t, json.Unmarshal(files["manifest.json"], &manifest))
	assert.Equal(t, "book_pkg_001", manifest.BookID)
	assert.Equal(t, "Test Package Book", manifest.Title)
	assert.Equal(t, 2, manifest.TotalChapters)
	assert.Equal(t, 6, manifest.TotalWords)
	assert.Equal(t, created, manifest.CreatedAt)
	assert.Equal(t, ManifestVersion, manifest.Version)

	var toc TOC
	require.NoError(t, json.Unmarshal(files["toc.json"], &toc))
	require.Len(t, toc.Chapters, 2)
	assert.Equal(t, "chapter_001", toc.Chapters[0].ID)
	assert.Equal(t, 5, toc.Chapters[0].Words)
	assert.Equal(t, []string{"chapters/chapter_001.json", "chapters/chapter_001.md"}, toc.Chapters[0].Files)
	assert.Equal(t, []string{"chapters/chapter_002.json"}, toc.Chapters[1].Files)
}

func TestService_PackageBookErrors(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupService(t)

	t.Run("MissingBook", func(t *testing.T) {
		err := svc.PackageBook(ctx, "missing", io.Discard)
		assert.ErrorIs(t, err, book.ErrBookNotFound)
	})

	t.Run("NoChapters", func(t *testing.T) {
		require.NoError(t, repo.SaveBook(ctx, &types.Book{ID: "empty"}))
		err := svc.PackageBook(ctx, "empty", io.Discard)
		assert.ErrorContains(t, err, "no chapters")
	})
}
