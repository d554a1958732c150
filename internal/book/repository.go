package book

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/unalkalkan/EpubSummary/internal/storage"
	"github.com/unalkalkan/EpubSummary/internal/util"
	"github.com/unalkalkan/EpubSummary/pkg/types"
)

// ErrBookNotFound is returned when a book has no stored metadata
var ErrBookNotFound = errors.New("book: not found")

// Repository handles persistence of extracted books
type Repository interface {
	// SaveBook stores book metadata
	SaveBook(ctx context.Context, book *types.Book) error

	// GetBook retrieves book metadata by ID
	GetBook(ctx context.Context, bookID string) (*types.Book, error)

	// ListBooks returns all books
	ListBooks(ctx context.Context) ([]*types.Book, error)

	// SaveChapter stores chapter data
	SaveChapter(ctx context.Context, chapter *types.Chapter) error

	// GetChapter retrieves chapter by ID
	GetChapter(ctx context.Context, bookID, chapterID string) (*types.Chapter, error)

	// ListChapters returns all chapters for a book in reading order
	ListChapters(ctx context.Context, bookID string) ([]*types.Chapter, error)

	// SaveChapterText stores a rendered form of a chapter next to its data
	SaveChapterText(ctx context.Context, bookID string, chapter *types.Chapter, ext, content string) error

	// DeleteBook removes a book and all its chapters
	DeleteBook(ctx context.Context, bookID string) error
}

// StorageRepository implements Repository using a storage adapter
type StorageRepository struct {
	storage storage.Adapter
}

// NewRepository creates a new book repository
func NewRepository(storageAdapter storage.Adapter) Repository {
	return &StorageRepository{
		storage: storageAdapter,
	}
}

// SaveBook stores book metadata
func (r *StorageRepository) SaveBook(ctx context.Context, book *types.Book) error {
	if book.ID == "" {
		return fmt.Errorf("book id is required")
	}
	return r.putJSON(ctx, util.BookPath(book.ID), book)
}

// GetBook retrieves book metadata by ID
func (r *StorageRepository) GetBook(ctx context.Context, bookID string) (*types.Book, error) {
	var book types.Book
	if err := r.getJSON(ctx, util.BookPath(bookID), &book); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
		}
		return nil, fmt.Errorf("failed to get book metadata: %w", err)
	}
	return &book, nil
}

// ListBooks returns all books, skipping metadata that cannot be read
func (r *StorageRepository) ListBooks(ctx context.Context) ([]*types.Book, error) {
	paths, err := r.storage.List(ctx, util.BooksPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	books := make([]*types.Book, 0)
	for _, p := range paths {
		// Only book-level metadata.json files
		if path.Base(p) != "metadata.json" || strings.Count(p, "/") != 2 {
			continue
		}

		var book types.Book
		if err := r.getJSON(ctx, p, &book); err != nil {
			continue
		}
		books = append(books, &book)
	}

	return books, nil
}

// SaveChapter stores chapter data
func (r *StorageRepository) SaveChapter(ctx context.Context, chapter *types.Chapter) error {
	if chapter.BookID == "" || chapter.ID == "" {
		return fmt.Errorf("chapter book id and id are required")
	}
	return r.putJSON(ctx, util.ChapterPath(chapter.BookID, chapter.ID, "json"), chapter)
}

// GetChapter retrieves chapter by ID
func (r *StorageRepository) GetChapter(ctx context.Context, bookID, chapterID string) (*types.Chapter, error) {
	var chapter types.Chapter
	if err := r.getJSON(ctx, util.ChapterPath(bookID, chapterID, "json"), &chapter); err != nil {
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

// ListChapters returns all chapters for a book ordered by chapter number
func (r *StorageRepository) ListChapters(ctx context.Context, bookID string) ([]*types.Chapter, error) {
	paths, err := r.storage.List(ctx, util.ChaptersPrefix(bookID))
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}

	chapters := make([]*types.Chapter, 0, len(paths))
	for _, p := range paths {
		if path.Ext(p) != ".json" {
			continue
		}

		var chapter types.Chapter
		if err := r.getJSON(ctx, p, &chapter); err != nil {
			continue
		}
		chapters = append(chapters, &chapter)
	}

	slices.SortStableFunc(chapters, func(a, b *types.Chapter) int {
		return a.Number - b.Number
	})
	return chapters, nil
}

// SaveChapterText stores a rendered form of a chapter next to its data
func (r *StorageRepository) SaveChapterText(ctx context.Context, bookID string, chapter *types.Chapter, ext, content string) error {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" || ext == "json" {
		return fmt.Errorf("invalid chapter text extension: %q", ext)
	}
	p := util.ChapterPath(bookID, chapter.ID, ext)
	if err := r.storage.Put(ctx, p, strings.NewReader(content)); err != nil {
		return fmt.Errorf("failed to store chapter text %s: %w", p, err)
	}
	return nil
}

// DeleteBook removes a book and all its chapters. Deleting a missing book is
// not an error.
func (r *StorageRepository) DeleteBook(ctx context.Context, bookID string) error {
	paths, err := r.storage.List(ctx, path.Join("books", bookID)+"/")
	if err != nil {
		return fmt.Errorf("failed to list book files: %w", err)
	}

	for _, p := range paths {
		if err := r.storage.Delete(ctx, p); err != nil {
			return fmt.Errorf("failed to delete %s: %w", p, err)
		}
	}
	return nil
}

func (r *StorageRepository) putJSON(ctx context.Context, p string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", p, err)
	}
	return r.storage.Put(ctx, p, bytes.NewReader(data))
}

func (r *StorageRepository) getJSON(ctx context.Context, p string, v any) error {
	reader, err := r.storage.Get(ctx, p)
	if err != nil {
		return err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", p, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", p, err)
	}
	return nil
}
