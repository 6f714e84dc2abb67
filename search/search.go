// Package search maintains a full-text index over plan nodes so natural
// language references ("the museum on day 2") can be resolved to stable
// node IDs.
package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/vinayprograms/plankit/plan"
)

// Hit is one search result.
type Hit struct {
	// NodeID is the matched node's stable ID.
	NodeID string

	// DocumentID is the owning document.
	DocumentID string

	// Day is the day number the node sits on.
	Day int

	// Score is the relevance score.
	Score float64
}

// nodeDocument is the indexed representation of one plan node.
type nodeDocument struct {
	DocumentID string `json:"document_id"`
	Day        int    `json:"day"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Notes      string `json:"notes"`
}

// Index is an in-memory full-text index over plan nodes. Reindexing a
// document replaces its previous entries, so the index tracks the latest
// committed version.
type Index struct {
	mu    sync.Mutex
	index bleve.Index

	// docNodes remembers indexed node IDs per document for cleanup.
	docNodes map[string][]string
}

// NewIndex creates an empty in-memory index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{
		index:    idx,
		docNodes: make(map[string][]string),
	}, nil
}

// buildIndexMapping creates the node index mapping.
func buildIndexMapping() mapping.IndexMapping {
	nodeMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	numericFieldMapping := bleve.NewNumericFieldMapping()

	nodeMapping.AddFieldMappingsAt("title", textFieldMapping)
	nodeMapping.AddFieldMappingsAt("notes", textFieldMapping)
	nodeMapping.AddFieldMappingsAt("type", keywordFieldMapping)
	nodeMapping.AddFieldMappingsAt("document_id", keywordFieldMapping)
	nodeMapping.AddFieldMappingsAt("day", numericFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = nodeMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

// IndexDocument (re)indexes every node of a document, replacing any
// previously indexed state for it.
func (x *Index) IndexDocument(doc *plan.Document) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.removeLocked(doc.ID); err != nil {
		return err
	}

	batch := x.index.NewBatch()
	var ids []string
	for _, day := range doc.Days {
		for _, node := range day.Nodes {
			entry := nodeDocument{
				DocumentID: doc.ID,
				Day:        day.Number,
				Type:       node.Type,
				Title:      node.Title,
				Notes:      node.Notes,
			}
			if err := batch.Index(node.ID, entry); err != nil {
				return fmt.Errorf("index node %s: %w", node.ID, err)
			}
			ids = append(ids, node.ID)
		}
	}
	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("index batch: %w", err)
	}
	x.docNodes[doc.ID] = ids
	return nil
}

// RemoveDocument drops a document's nodes from the index.
func (x *Index) RemoveDocument(documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.removeLocked(documentID)
}

// removeLocked must be called with the mutex held.
func (x *Index) removeLocked(documentID string) error {
	ids := x.docNodes[documentID]
	if len(ids) == 0 {
		return nil
	}
	batch := x.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("remove batch: %w", err)
	}
	delete(x.docNodes, documentID)
	return nil
}

// Query searches a document's nodes by free text, most relevant first.
func (x *Index) Query(documentID, text string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 5
	}

	contentQuery := bleve.NewMatchQuery(text)

	docQuery := bleve.NewTermQuery(documentID)
	docQuery.SetField("document_id")

	boolQuery := bleve.NewBooleanQuery()
	boolQuery.AddMust(contentQuery)
	boolQuery.AddMust(docQuery)

	searchReq := bleve.NewSearchRequest(boolQuery)
	searchReq.Size = limit
	searchReq.Fields = []string{"document_id", "day"}

	result, err := x.index.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		h := Hit{
			NodeID: hit.ID,
			Score:  hit.Score,
		}
		if v, ok := hit.Fields["document_id"].(string); ok {
			h.DocumentID = v
		}
		if v, ok := hit.Fields["day"].(float64); ok {
			h.Day = int(v)
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// NodeCount returns how many nodes are indexed for a document.
func (x *Index) NodeCount(documentID string) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.docNodes[documentID])
}

// Close releases the index.
func (x *Index) Close() error {
	return x.index.Close()
}
