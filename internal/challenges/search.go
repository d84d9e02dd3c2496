package challenges

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Index is a memory-only full-text index over the challenge catalog.
// The catalog is tiny; the index exists so /challenge queries can use
// real keyword matching instead of substring tricks.
type Index struct {
	index bleve.Index
	byID  map[string]Challenge
}

func buildChallengeMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Mode is matched as a whole token ("python_basic"), the text
	// fields go through the standard analyzer.
	modeField := bleve.NewTextFieldMapping()
	modeField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("mode", modeField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = standard.Name
	titleField.Store = false
	docMapping.AddFieldMappingsAt("title", titleField)

	descField := bleve.NewTextFieldMapping()
	descField.Analyzer = standard.Name
	descField.Store = false
	docMapping.AddFieldMappingsAt("description", descField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// NewIndex builds the in-memory index over the full catalog.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildChallengeMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge index: %w", err)
	}

	byID := make(map[string]Challenge, len(Catalog))
	batch := idx.NewBatch()
	for _, c := range Catalog {
		byID[c.ID] = c
		doc := map[string]any{
			"mode":        c.Mode,
			"title":       c.Title,
			"description": c.Description,
		}
		if err := batch.Index(c.ID, doc); err != nil {
			idx.Close()
			return nil, fmt.Errorf("failed to index challenge %s: %w", c.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("failed to build challenge index: %w", err)
	}

	return &Index{index: idx, byID: byID}, nil
}

// Search returns the best catalog matches for a free-text query, most
// relevant first.
func (i *Index) Search(query string, limit int) ([]Challenge, error) {
	if limit <= 0 {
		limit = 5
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("challenge search failed: %w", err)
	}

	out := make([]Challenge, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if c, ok := i.byID[hit.ID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}
