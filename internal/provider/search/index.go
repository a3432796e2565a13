package search

import (
	"context"
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/watchpost/watchpost/internal/errors"
)

// FileDoc is one inventoried file in the local index.
type FileDoc struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// IndexService answers queries against the local file inventory index.
// The inventory command populates it; the search command queries it.
type IndexService struct {
	index bleve.Index
}

// OpenIndexService opens the bleve index at path, creating it if absent.
func OpenIndexService(path string) (*IndexService, error) {
	if path == "" {
		return nil, errors.ConfigError("search index path is not configured", nil)
	}

	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		mapping := bleve.NewIndexMapping()
		index, err = bleve.New(path, mapping)
	}
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	return &IndexService{index: index}, nil
}

// Name implements Service.
func (s *IndexService) Name() string { return "index" }

// IndexFiles adds documents to the index in one batch, keyed by path.
func (s *IndexService) IndexFiles(docs []FileDoc) error {
	batch := s.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.Path, doc); err != nil {
			return fmt.Errorf("index %s: %w", doc.Path, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("apply index batch: %w", err)
	}
	return nil
}

// Count returns the number of indexed documents.
func (s *IndexService) Count() (uint64, error) {
	return s.index.DocCount()
}

// Search implements Service using bleve query string syntax.
func (s *IndexService) Search(_ context.Context, query string, limit int) ([]Result, error) {
	if query == "" {
		return nil, errors.ValidationError("search query must not be empty", nil)
	}
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(query), limit, 0, false)
	req.Fields = []string{"name", "category", "path"}

	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	out := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		result := Result{URL: "file://" + hit.ID}
		if name, ok := hit.Fields["name"].(string); ok {
			result.Title = name
		}
		if category, ok := hit.Fields["category"].(string); ok {
			result.Snippet = category
		}
		out = append(out, result)
	}
	return out, nil
}

// Close releases the index.
func (s *IndexService) Close() error {
	return s.index.Close()
}

var _ Service = (*IndexService)(nil)
