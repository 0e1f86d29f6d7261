// Package rag answers questions over a directory of documents. The Indexer
// keeps a vector index in sync with the directory and the Service only reads
// from that index.
package rag

import (
	"context"
	"errors"
)

const (
	// EmbeddingDimension is the size of text-embedding-ada-002 vectors.
	EmbeddingDimension = 1536

	// Metadata keys stored with every vector.
	metaText   = "text"
	metaSource = "source"
	metaPage   = "page"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrNotConfigured       = errors.New("document QA is not configured")
	ErrEmptyQuestion       = errors.New("question is required")
)

// Document is one loadable unit of text: a PDF page or a whole text file.
type Document struct {
	Source string
	Page   int
	Text   string
}

// Vector is an embedded document ready for the index.
type Vector struct {
	ID       string
	Values   []float32
	Document Document
}

// Match is a document returned by a similarity query.
type Match struct {
	Score    float32
	Document Document
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type VectorStore interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, vectors []Vector) error
	Delete(ctx context.Context, ids []string) error
	Query(ctx context.Context, values []float32, topK int) ([]Match, error)
}

// ManifestEntry records what was indexed for one file.
type ManifestEntry struct {
	Hash      string   `json:"hash"`
	VectorIDs []string `json:"vector_ids"`
}

type ManifestStore interface {
	Load(ctx context.Context) (map[string]ManifestEntry, error)
	Put(ctx context.Context, path string, entry ManifestEntry) error
	Delete(ctx context.Context, path string) error
}
