package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"
)

// member is an archive entry used to build test fixtures
type member struct {
	name    string
	content string
}

// buildArchive creates an in-memory ZIP archive with entries written in the
// given order and returns its bytes.
func buildArchive(t *testing.T, members ...member) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, m := range members {
		fw, err := zw.Create(m.name)
		if err != nil {
			t.Fatalf("buildArchive: create %s: %v", m.name, err)
		}
		if _, err := io.WriteString(fw, m.content); err != nil {
			t.Fatalf("buildArchive: write %s: %v", m.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildArchive: close writer: %v", err)
	}
	return buf.Bytes()
}

// openTestArchive returns a reader over an archive built from members
func openTestArchive(t *testing.T, members ...member) *zip.Reader {
	t.Helper()
	data := buildArchive(t, members...)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		t.Fatalf("openTestArchive: %v", err)
	}
	return zr
}

// chapterDoc wraps paragraphs in a minimal XHTML chapter document
func chapterDoc(title string, paragraphs ...string) string {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml"><head><title>`)
	b.WriteString(title)
	b.WriteString("</title></head><body>\n")
	for _, p := range paragraphs {
		b.WriteString("<p>")
		b.WriteString(p)
		b.WriteString("</p>\n")
	}
	b.WriteString("</body></html>")
	return b.String()
}
