package parser

import "errors"

// Sentinel errors returned by the parser package.
var (
	// ErrInvalidEPUB indicates the data is not a readable ZIP archive.
	ErrInvalidEPUB = errors.New("parser: invalid epub archive")

	// ErrNoChapters indicates no member of the archive looks like a chapter document.
	ErrNoChapters = errors.New("parser: no chapter documents found")

	// ErrUnsafePath indicates an archive member path escapes the archive root.
	ErrUnsafePath = errors.New("parser: unsafe archive member path")

	// ErrEntryTooLarge indicates an archive member exceeds the decompression limit.
	ErrEntryTooLarge = errors.New("parser: archive member too large")
)
