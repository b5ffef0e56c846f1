// Package corpus reads the extracted-text directory produced by the text
// extraction step and turns every file into a Document with a stable id.
package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// Field names understood by the index builder.
const (
	FieldBody  = "body"
	FieldTitle = "title"
)

// Document is one unit of the corpus. Fields maps a field name to its raw
// text; every document from Load has a body.
type Document struct {
	ID     string
	Fields map[string]string
}

// Text returns all field texts joined with a space, title first.
func (d Document) Text() string {
	var b strings.Builder
	for i, name := range d.FieldNames() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d.Fields[name])
	}
	return b.String()
}

// FieldNames returns the document's fields in a fixed order: title, body,
// then any others alphabetically.
func (d Document) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for _, known := range []string{FieldTitle, FieldBody} {
		if _, ok := d.Fields[known]; ok {
			names = append(names, known)
		}
	}
	extra := make([]string, 0)
	for name := range d.Fields {
		if name != FieldTitle && name != FieldBody {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Options controls Load.
type Options struct {
	Dir           string
	Extension     string
	TitleFromPath bool
}

// Load walks opts.Dir in lexical order and returns one Document per file with
// the configured extension. The document id is the slash-separated relative
// path without extension.
func Load(ctx context.Context, opts Options) ([]Document, error) {
	ext := opts.Extension
	if ext == "" {
		ext = ".txt"
	}
	logger := slog.Default().With("component", "corpus")
	docs := make([]Document, 0, 64)
	err := filepath.WalkDir(opts.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}
		rel, err := filepath.Rel(opts.Dir, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if !utf8.Valid(data) {
			logger.Warn("invalid utf-8 replaced", "path", rel)
			data = []byte(strings.ToValidUTF8(string(data), "�"))
		}
		id := DocID(rel)
		doc := Document{
			ID:     id,
			Fields: map[string]string{FieldBody: string(data)},
		}
		if opts.TitleFromPath {
			doc.Fields[FieldTitle] = Title(id)
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking text directory %s: %w", opts.Dir, err)
	}
	logger.Info("corpus loaded", "dir", opts.Dir, "documents", len(docs))
	return docs, nil
}

// DocID derives the stable identifier from a path relative to the text
// directory.
func DocID(rel string) string {
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}

// Title returns a human-readable title for a document id: its base name with
// underscores and dashes turned into spaces.
func Title(id string) string {
	base := id
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return strings.Join(strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-'
	}), " ")
}

// Path returns the file path of a document id inside dir.
func Path(dir, id, ext string) string {
	if ext == "" {
		ext = ".txt"
	}
	return filepath.Join(dir, filepath.FromSlash(id)+ext)
}

// Store reads the text of a single document back from the text directory.
type Store struct {
	Dir       string
	Extension string
}

// Text returns the document's extracted text with invalid UTF-8 replaced.
func (s Store) Text(id string) (string, error) {
	data, err := os.ReadFile(Path(s.Dir, id, s.Extension))
	if err != nil {
		return "", fmt.Errorf("reading text of %s: %w", id, err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
