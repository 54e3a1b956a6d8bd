package document

import (
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"
)

// Document is one ingested source file after text extraction.
type Document struct {
	ID       string         `json:"id"`
	Title    string         `json:"title,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Chunk is the unit that gets embedded. Ordinal is its position within the
// document, starting at 0.
type Chunk struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Content    string         `json:"content"`
	Ordinal    int            `json:"ordinal"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Passage is a retrieved chunk text with its distance to the query.
// Smaller is closer; never negative.
type Passage struct {
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
}

// EnsureID gives an anonymous document a random ID. Named documents keep
// theirs so re-indexing the same source replaces its chunks.
func (d *Document) EnsureID() {
	if d != nil && d.ID == "" {
		d.ID = "doc-" + uuid.NewString()
	}
}

// NewChunk builds the chunk at ordinal. Its ID is derived from the document
// ID and ordinal, so chunking the same content twice yields the same IDs.
// meta is stored as given; pass nil for none.
func (d Document) NewChunk(ordinal int, content string, meta map[string]any) Chunk {
	return Chunk{
		ID:         fmt.Sprintf("%s#%d", d.ID, ordinal),
		DocumentID: d.ID,
		Content:    strings.TrimSpace(content),
		Ordinal:    ordinal,
		Metadata:   meta,
	}
}

func (d Document) Clone() Document {
	d.Metadata = maps.Clone(d.Metadata)
	return d
}

func (c Chunk) Clone() Chunk {
	c.Metadata = maps.Clone(c.Metadata)
	return c
}
