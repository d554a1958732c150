package packaging

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/unalkalkan/EpubSummary/internal/book"
	"github.com/unalkalkan/EpubSummary/internal/storage"
	"github.com/unalkalkan/EpubSummary/internal/util"
)

// ManifestVersion is the layout version written to manifest.json
const ManifestVersion = "1.0"

// Service packages dumped books into ZIP archives
type Service struct {
	bookRepo book.Repository
	storage  storage.Adapter
	now      func() time.Time
}

// NewService creates a new packaging service
func NewService(bookRepo book.Repository, storage storage.Adapter) *Service {
	return &Service{
		bookRepo: bookRepo,
		storage:  storage,
		now:      time.Now,
	}
}

// Manifest represents the top-level book manifest
type Manifest struct {
	BookID        string    `json:"book_id"`
	Title         string    `json:"title"`
	SourcePath    string    `json:"source_path"`
	TotalChapters int       `json:"total_chapters"`
	TotalWords    int       `json:"total_words"`
	ExtractedAt   time.Time `json:"extracted_at"`
	CreatedAt     time.Time `json:"created_at"`
	Version       string    `json:"version"`
}

// TOC represents the table of contents
type TOC struct {
	Chapters []TOCChapter `json:"chapters"`
}

// TOCChapter represents a chapter in the TOC
type TOCChapter struct {
	ID         string   `json:"id"`
	Number     int      `json:"number"`
	Title      string   `json:"title"`
	SourcePath string   `json:"source_path"`
	Words      int      `json:"words"`
	Files      []string `json:"files"` // archive paths of the chapter data and renderings
}

// PackageBook writes a ZIP archive of a dumped book to w: manifest.json,
// toc.json and chapters/<id>.<ext> for the chapter data and every stored
// text rendering.
func (s *Service) PackageBook(ctx context.Context, bookID string, w io.Writer) error {
	b, err := s.bookRepo.GetBook(ctx, bookID)
	if err != nil {
		return fmt.Errorf("failed to get book: %w", err)
	}

	chapters, err := s.bookRepo.ListChapters(ctx, bookID)
	if err != nil {
		return fmt.Errorf("failed to list chapters: %w", err)
	}
	if len(chapters) == 0 {
		return fmt.Errorf("book %s has no chapters", bookID)
	}

	zipWriter := zip.NewWriter(w)

	toc := &TOC{Chapters: make([]TOCChapter, 0, len(chapters))}
	totalWords := 0
	for _, ch := range chapters {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := TOCChapter{
			ID:         ch.ID,
			Number:     ch.Number,
			Title:      ch.Title,
			SourcePath: ch.SourcePath,
			Words:      ch.WordCount(),
		}
		totalWords += entry.Words

		dataPath := path.Join("chapters", ch.ID+".json")
		if err := s.addJSONFile(zipWriter, dataPath, ch); err != nil {
			return fmt.Errorf("failed to add chapter %s: %w", ch.ID, err)
		}
		entry.Files = append(entry.Files, dataPath)

		for _, ext := range util.TextFormats() {
			added, err := s.addStoredFile(ctx, zipWriter, util.ChapterPath(bookID, ch.ID, ext))
			if err != nil {
				return fmt.Errorf("failed to add chapter %s: %w", ch.ID, err)
			}
			if added != "" {
				entry.Files = append(entry.Files, added)
			}
		}

		toc.Chapters = append(toc.Chapters, entry)
	}

	manifest := &Manifest{
		BookID:        b.ID,
		Title:         b.Title,
		SourcePath:    b.SourcePath,
		TotalChapters: len(chapters),
		TotalWords:    totalWords,
		ExtractedAt:   b.ExtractedAt,
		CreatedAt:     s.now(),
		Version:       ManifestVersion,
	}
	if err := s.addJSONFile(zipWriter, "manifest.json", manifest); err != nil {
		return fmt.Errorf("failed to add manifest: %w", err)
	}
	if err := s.addJSONFile(zipWriter, "toc.json", toc); err != nil {
		return fmt.Errorf("failed to add toc: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to close zip: %w", err)
	}
	return nil
}

// addStoredFile copies a storage object into the ZIP under chapters/ and
// returns its archive path, or "" when the object does not exist
func (s *Service) addStoredFile(ctx context.Context, zipWriter *zip.Writer, key string) (string, error) {
	reader, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	defer reader.Close()

	zipPath := path.Join("chapters", path.Base(key))
	if err := s.addFileFromReader(zipWriter, zipPath, reader); err != nil {
		return "", err
	}
	return zipPath, nil
}

// addJSONFile adds a JSON file to the ZIP
func (s *Service) addJSONFile(zipWriter *zip.Writer, path string, data any) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	writer, err := zipWriter.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if _, err := writer.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	return nil
}

// addFileFromReader adds a file from an io.Reader to the ZIP
func (s *Service) addFileFromReader(zipWriter *zip.Writer, path string, reader io.Reader) error {
	writer, err := zipWriter.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if _, err := io.Copy(writer, reader); err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}

	return nil
}
