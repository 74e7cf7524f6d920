// Package index builds an in-memory full-text index over the study
// document for the search command.
package index

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/mwhite/vocabfill/pkg/vocab"
)

// searchDoc is the shape handed to bleve for each record.
type searchDoc struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Synonyms   string `json:"synonyms"`
	Difficulty string `json:"difficulty"`
}

// Hit is one ranked search result.
type Hit struct {
	ID    int
	Word  string
	Score float64
}

// Build indexes every record of doc into a memory-only bleve index. The
// caller owns the returned index and should Close it.
func Build(doc *vocab.Document) (bleve.Index, error) {
	docMapping := bleve.NewDocumentMapping()
	textField := bleve.NewTextFieldMapping()
	keywordField := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("word", textField)
	docMapping.AddFieldMappingsAt("definition", textField)
	docMapping.AddFieldMappingsAt("synonyms", textField)
	docMapping.AddFieldMappingsAt("difficulty", keywordField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	batch := idx.NewBatch()
	for i := range doc.Words {
		rec := &doc.Words[i]
		err := batch.Index(strconv.Itoa(rec.ID), searchDoc{
			Word:       rec.Word,
			Definition: rec.Definition,
			Synonyms:   strings.Join(rec.Synonyms, " "),
			Difficulty: rec.Difficulty,
		})
		if err != nil {
			idx.Close()
			return nil, fmt.Errorf("index record %d: %w", rec.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return idx, nil
}

// Search runs a query string (bleve syntax, e.g. `help`, `difficulty:basic`,
// `definition:resources`) and returns up to limit hits in rank order.
func Search(ctx context.Context, idx bleve.Index, queryString string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	query := bleve.NewQueryStringQuery(queryString)
	req := bleve.NewSearchRequest(query)
	req.Size = limit
	req.Fields = []string{"word"}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		word, _ := h.Fields["word"].(string)
		hits = append(hits, Hit{ID: id, Word: word, Score: h.Score})
	}
	return hits, nil
}
