package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// maxEntrySize bounds the decompressed size of a single archive member.
const maxEntrySize int64 = 256 * 1024 * 1024

// memberNames lists archive member names in central directory order
func memberNames(zr *zip.Reader) []string {
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

// indexMembers maps member names to entries. The first entry wins when a
// name is repeated.
func indexMembers(zr *zip.Reader) map[string]*zip.File {
	index := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if _, ok := index[f.Name]; !ok {
			index[f.Name] = f
		}
	}
	return index
}

// isSafePath reports whether p stays inside the archive root
func isSafePath(p string) bool {
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}

// stripBOM removes a leading UTF-8 byte order mark
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// readMember reads a whole archive member, refusing unsafe paths and members
// that decompress beyond limit.
func readMember(f *zip.File, limit int64) ([]byte, error) {
	if !isSafePath(f.Name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
	}
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%w: %s declares %d bytes", ErrEntryTooLarge, f.Name, f.UncompressedSize64)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	// The declared size may be forged, so read one byte past the limit.
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, f.Name)
	}
	return stripBOM(data), nil
}
