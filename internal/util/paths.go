package util

import (
	"fmt"
	"path"
	"strings"
	"unicode"
)

// BooksPrefix is the storage prefix under which every book is kept
const BooksPrefix = "books/"

// BookID derives a storage-safe book id from a source file path: the file
// stem lowercased, with runs of other characters collapsed to single dashes.
func BookID(sourcePath string) string {
	base := path.Base(strings.ReplaceAll(sourcePath, "\\", "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}

	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(base) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}

	if sb.Len() == 0 {
		return "book"
	}
	return sb.String()
}

// BookPath returns the storage path of a book's metadata
func BookPath(bookID string) string {
	return path.Join("books", bookID, "metadata.json")
}

// ChaptersPrefix returns the storage prefix of a book's chapter files
func ChaptersPrefix(bookID string) string {
	return path.Join("books", bookID, "chapters") + "/"
}

// ChapterPath returns the storage path of a chapter file with the given
// extension ("json", "txt", "md")
func ChapterPath(bookID, chapterID, ext string) string {
	return path.Join("books", bookID, "chapters", fmt.Sprintf("%s.%s", chapterID, ext))
}

// TextFormats returns the chapter text formats a book can be dumped in
func TextFormats() []string {
	return []string{"txt", "md"}
}
