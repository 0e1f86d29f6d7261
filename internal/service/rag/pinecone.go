package rag

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jwalitptl/medrecords-api/pkg/circuitbreaker"
)

const (
	DefaultIndexName = "medical-records-index"
	upsertBatchSize  = 100
)

type PineconeConfig struct {
	APIKey    string
	IndexName string
	Cloud     string
	Region    string
	Namespace string
}

// PineconeStore implements VectorStore on a serverless Pinecone index. The
// index connection is opened lazily and reused.
type PineconeStore struct {
	client  *pinecone.Client
	cfg     PineconeConfig
	breaker *circuitbreaker.CircuitBreaker

	mu   sync.Mutex
	conn *pinecone.IndexConnection
}

func NewPineconeStore(cfg PineconeConfig, breaker *circuitbreaker.CircuitBreaker) (*PineconeStore, error) {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.Cloud == "" {
		cfg.Cloud = string(pinecone.Aws)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create pinecone client: %w", err)
	}
	return &PineconeStore{client: client, cfg: cfg, breaker: breaker}, nil
}

// EnsureIndex creates the index when it does not exist yet.
func (s *PineconeStore) EnsureIndex(ctx context.Context) error {
	return s.breaker.Execute(func() error {
		indexes, err := s.client.ListIndexes(ctx)
		if err != nil {
			return fmt.Errorf("list indexes: %w", err)
		}
		for _, idx := range indexes {
			if idx.Name == s.cfg.IndexName {
				return nil
			}
		}

		_, err = s.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
			Name:      s.cfg.IndexName,
			Dimension: EmbeddingDimension,
			Metric:    pinecone.Cosine,
			Cloud:     pinecone.Cloud(s.cfg.Cloud),
			Region:    s.cfg.Region,
		})
		if err != nil {
			return fmt.Errorf("create index %s: %w", s.cfg.IndexName, err)
		}
		return nil
	})
}

func (s *PineconeStore) index(ctx context.Context) (*pinecone.IndexConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}

	conn, err := circuitbreaker.Do(s.breaker, func() (*pinecone.IndexConnection, error) {
		idx, err := s.client.DescribeIndex(ctx, s.cfg.IndexName)
		if err != nil {
			return nil, fmt.Errorf("describe index %s: %w", s.cfg.IndexName, err)
		}
		return s.client.Index(pinecone.NewIndexConnParams{Host: idx.Host, Namespace: s.cfg.Namespace})
	})
	if err != nil {
		return nil, err
	}
	s.conn = conn
	return conn, nil
}

func (s *PineconeStore) Upsert(ctx context.Context, vectors []Vector) error {
	conn, err := s.index(ctx)
	if err != nil {
		return err
	}

	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(vectors) {
			end = len(vectors)
		}

		batch := make([]*pinecone.Vector, 0, end-start)
		for _, v := range vectors[start:end] {
			meta, err := structpb.NewStruct(map[string]interface{}{
				metaText:   v.Document.Text,
				metaSource: v.Document.Source,
				metaPage:   v.Document.Page,
			})
			if err != nil {
				return fmt.Errorf("encode metadata: %w", err)
			}
			batch = append(batch, &pinecone.Vector{Id: v.ID, Values: v.Values, Metadata: meta})
		}

		err := s.breaker.Execute(func() error {
			_, err := conn.UpsertVectors(ctx, batch)
			return err
		})
		if err != nil {
			return fmt.Errorf("upsert vectors: %w", err)
		}
	}
	return nil
}

func (s *PineconeStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	conn, err := s.index(ctx)
	if err != nil {
		return err
	}
	return s.breaker.Execute(func() error {
		if err := conn.DeleteVectorsById(ctx, ids); err != nil {
			return fmt.Errorf("delete vectors: %w", err)
		}
		return nil
	})
}

func (s *PineconeStore) Query(ctx context.Context, values []float32, topK int) ([]Match, error) {
	conn, err := s.index(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := circuitbreaker.Do(s.breaker, func() (*pinecone.QueryVectorsResponse, error) {
		return conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
			Vector:          values,
			TopK:            uint32(topK),
			IncludeMetadata: true,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		matches = append(matches, Match{Score: m.Score, Document: documentFromMetadata(m.Vector.Metadata)})
	}
	return matches, nil
}

func documentFromMetadata(meta *structpb.Struct) Document {
	var doc Document
	if meta == nil {
		return doc
	}
	fields := meta.GetFields()
	doc.Text = fields[metaText].GetStringValue()
	doc.Source = fields[metaSource].GetStringValue()
	doc.Page = int(fields[metaPage].GetNumberValue())
	return doc
}
