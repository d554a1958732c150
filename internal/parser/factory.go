package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// DefaultFactory creates parsers for supported formats
type DefaultFactory struct {
	parsers map[string]Parser
}

// NewFactory creates a new parser factory with the ePUB and HTML parsers
func NewFactory(logger *zap.Logger) Factory {
	f := &DefaultFactory{
		parsers: make(map[string]Parser),
	}

	f.registerParser(NewEPUBParser(logger))
	f.registerParser(NewHTMLParser(logger))

	return f
}

// registerParser registers a parser for its supported formats
func (f *DefaultFactory) registerParser(p Parser) {
	for _, format := range p.SupportedFormats() {
		f.parsers[strings.ToLower(format)] = p
	}
}

// GetParser returns a parser for the given format
func (f *DefaultFactory) GetParser(format string) (Parser, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	parser, ok := f.parsers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return parser, nil
}

// Formats returns every registered format, sorted
func (f *DefaultFactory) Formats() []string {
	formats := make([]string, 0, len(f.parsers))
	for format := range f.parsers {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// FormatOf returns the lowercase extension of a file name without the dot
func FormatOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
