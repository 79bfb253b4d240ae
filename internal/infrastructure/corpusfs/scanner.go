package corpusfs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

// Scanner reads raw corpus documents from a directory tree. The first
// path segment under the base names the collection and decides source
// type and jurisdiction:
//
//	statutes/   state statute text
//	case_law/   court decisions
//	training/   academy training material
//	policies/   department policy manuals (local jurisdiction)
type Scanner struct {
	basePath string
}

func New(basePath string) (*Scanner, error) {
	if basePath == "" {
		basePath = "./data/corpus"
	}
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("stat corpus dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path is not a directory: %s", basePath)
	}
	return &Scanner{basePath: basePath}, nil
}

func (s *Scanner) Scan(ctx context.Context) ([]domain.SourceDocument, error) {
	var docs []domain.SourceDocument

	err := filepath.WalkDir(s.basePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			return nil
		}

		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		if !utf8.Valid(raw) {
			return fmt.Errorf("not valid utf-8 text: %s", rel)
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			return nil
		}

		sourceType, jurisdiction := classifyCollection(rel)
		docs = append(docs, domain.SourceDocument{
			Path:         rel,
			Filename:     entry.Name(),
			SourceType:   sourceType,
			Jurisdiction: jurisdiction,
			Text:         text,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus dir: %w", err)
	}
	return docs, nil
}

func classifyCollection(rel string) (domain.SourceType, string) {
	collection := rel
	if idx := strings.IndexRune(filepath.ToSlash(rel), '/'); idx >= 0 {
		collection = filepath.ToSlash(rel)[:idx]
	}
	switch strings.ToLower(collection) {
	case "statutes":
		return domain.SourceStatute, "state"
	case "case_law":
		return domain.SourceCaseLaw, "state"
	case "training":
		return domain.SourceTraining, "state"
	case "policies":
		return domain.SourceTraining, "local_department"
	default:
		return domain.SourceUnknown, ""
	}
}
