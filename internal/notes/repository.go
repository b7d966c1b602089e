// Package notes reads the note corpus from disk.
package notes

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kioku/internal/extract"
	"github.com/hyperjump/kioku/internal/fileid"
	"github.com/hyperjump/kioku/internal/models"
)

// Repository lists the documents under a corpus root.
type Repository interface {
	List(ctx context.Context, root string) (*Listing, error)
}

// Listing is the result of one corpus walk. Failures holds files that were found
// but could not be read; they do not fail the walk.
type Listing struct {
	Documents []*models.Document
	Failures  []Failure
}

// Failure records a file the repository could not turn into a document.
type Failure struct {
	Path string
	Err  error
}

// FileRepository walks a directory tree of note files.
type FileRepository struct {
	extensions map[string]bool
	extractor  *extract.Extractor
}

// NewFileRepository returns a repository accepting the given extensions (with leading dot).
// An empty list accepts only .md and .txt.
func NewFileRepository(extensions []string, extractor *extract.Extractor) *FileRepository {
	if len(extensions) == 0 {
		extensions = []string{".md", ".txt"}
	}
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return &FileRepository{extensions: set, extractor: extractor}
}

// Accepts reports whether path has an indexed extension.
func (r *FileRepository) Accepts(path string) bool {
	return r.extensions[strings.ToLower(filepath.Ext(path))]
}

// List walks root in lexical order, skipping hidden files and directories.
// A missing or unreadable root fails the whole listing.
func (r *FileRepository) List(ctx context.Context, root string) (*Listing, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", root)
	}

	listing := &Listing{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			listing.Failures = append(listing.Failures, Failure{Path: path, Err: walkErr})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !r.Accepts(path) {
			return nil
		}

		doc, err := r.read(root, path)
		if err != nil {
			listing.Failures = append(listing.Failures, Failure{Path: path, Err: err})
			return nil
		}
		listing.Documents = append(listing.Documents, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}
	return listing, nil
}

func (r *FileRepository) read(root, path string) (*models.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	text, err := r.extractor.Extract(path)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	var fm map[string]interface{}
	body := text
	if extract.IsPlainText(filepath.Ext(path)) {
		fm, body = SplitFrontMatter(text)
	}

	doc := &models.Document{
		ID:          fileid.DocID(rel),
		Path:        rel,
		Title:       documentTitle(fm, body, path),
		Content:     text,
		Body:        body,
		FrontMatter: fm,
		ModifiedAt:  info.ModTime(),
		CreatedAt:   info.ModTime(),
	}
	if t, ok := frontMatterTime(fm, "created", "date"); ok {
		doc.CreatedAt = t
	}
	return doc, nil
}

// documentTitle prefers a front-matter title, then the first level-one heading,
// then the file name without extension.
func documentTitle(fm map[string]interface{}, body, path string) string {
	if s, ok := fm["title"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
