package rag

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
)

const (
	embedBatchSize = 64
	// Pinecone caps metadata at 40KB per vector.
	maxMetadataText = 32 * 1024
)

// vectorNamespace seeds the UUIDv5 ids of indexed pages.
var vectorNamespace = uuid.MustParse("5b0c7c8e-3f0a-4b8e-9d54-6f1de3c2a9a1")

// Indexer syncs the documents directory into the vector store. Only files
// whose content hash changed since the last sync are re-embedded.
type Indexer struct {
	dir      string
	embedder Embedder
	store    VectorStore
	manifest ManifestStore
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	mu sync.Mutex
}

func NewIndexer(dir string, embedder Embedder, store VectorStore, manifest ManifestStore, m *metrics.Metrics, logger zerolog.Logger) *Indexer {
	return &Indexer{
		dir:      dir,
		embedder: embedder,
		store:    store,
		manifest: manifest,
		metrics:  m,
		logger:   logger.With().Str("component", "rag_indexer").Logger(),
	}
}

// Sync brings the index in line with the directory. Concurrent calls run one
// after the other.
func (ix *Indexer) Sync(ctx context.Context) (*model.SyncResult, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	files, err := ListFiles(ix.dir)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := CheckSupported(f); err != nil {
			return nil, err
		}
	}

	if err := ix.store.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	manifest, err := ix.manifest.Load(ctx)
	if err != nil {
		return nil, err
	}

	result := &model.SyncResult{}
	present := make(map[string]bool, len(files))
	for _, path := range files {
		present[path] = true

		hash, err := HashFile(path)
		if err != nil {
			return result, fmt.Errorf("hash %s: %w", path, err)
		}
		prev, known := manifest[path]
		if known && prev.Hash == hash {
			result.Unchanged++
			ix.observe("unchanged")
			continue
		}

		if known && len(prev.VectorIDs) > 0 {
			if err := ix.store.Delete(ctx, prev.VectorIDs); err != nil {
				return result, fmt.Errorf("delete stale vectors for %s: %w", path, err)
			}
		}

		ids, err := ix.indexFile(ctx, path)
		if err != nil {
			return result, err
		}
		if err := ix.manifest.Put(ctx, path, ManifestEntry{Hash: hash, VectorIDs: ids}); err != nil {
			return result, err
		}
		result.Indexed++
		ix.observe("indexed")
		ix.logger.Info().Str("file", path).Int("vectors", len(ids)).Msg("indexed document")
	}

	for path, entry := range manifest {
		if present[path] {
			continue
		}
		if len(entry.VectorIDs) > 0 {
			if err := ix.store.Delete(ctx, entry.VectorIDs); err != nil {
				return result, fmt.Errorf("delete vectors for removed %s: %w", path, err)
			}
		}
		if err := ix.manifest.Delete(ctx, path); err != nil {
			return result, err
		}
		result.Removed++
		ix.observe("removed")
		ix.logger.Info().Str("file", path).Msg("removed document from index")
	}

	if ix.metrics != nil {
		ix.metrics.RAGIndexedFiles.Set(float64(len(files)))
	}
	return result, nil
}

func (ix *Indexer) indexFile(ctx context.Context, path string) ([]string, error) {
	docs, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(docs))
	for start := 0; start < len(docs); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Text
		}
		embeddings, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", path, err)
		}
		if len(embeddings) != len(batch) {
			return nil, fmt.Errorf("embed %s: got %d embeddings for %d documents", path, len(embeddings), len(batch))
		}

		vectors := make([]Vector, len(batch))
		for i, d := range batch {
			d.Text = truncate(d.Text, maxMetadataText)
			vectors[i] = Vector{ID: VectorID(d.Source, d.Page), Values: embeddings[i], Document: d}
			ids = append(ids, vectors[i].ID)
		}
		if err := ix.store.Upsert(ctx, vectors); err != nil {
			return nil, fmt.Errorf("upsert %s: %w", path, err)
		}
	}
	return ids, nil
}

func (ix *Indexer) observe(outcome string) {
	if ix.metrics != nil {
		ix.metrics.RAGSyncDocuments.WithLabelValues(outcome).Inc()
	}
}

// VectorID is stable for a given file and page, so re-upserts overwrite.
func VectorID(source string, page int) string {
	return uuid.NewSHA1(vectorNamespace, []byte(source+"#"+strconv.Itoa(page))).String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
