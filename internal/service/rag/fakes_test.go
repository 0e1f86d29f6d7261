package rag

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"
)

// fakeEmbedder returns a one-value vector per text holding its length.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (f *fakeEmbedder) embeddedTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []string
	for _, c := range f.calls {
		all = append(all, c...)
	}
	return all
}

// memoryStore is an in-memory VectorStore.
type memoryStore struct {
	mu       sync.Mutex
	vectors  map[string]Vector
	ensured  int
	ensureFn func() error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{vectors: map[string]Vector{}}
}

func (s *memoryStore) EnsureIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured++
	if s.ensureFn != nil {
		return s.ensureFn()
	}
	return nil
}

func (s *memoryStore) Upsert(ctx context.Context, vectors []Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		s.vectors[v.ID] = v
	}
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.vectors, id)
	}
	return nil
}

func (s *memoryStore) Query(ctx context.Context, values []float32, topK int) ([]Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Match
	for _, v := range s.vectors {
		out = append(out, Match{Document: v.Document})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Document.Source < out[j].Document.Source })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *memoryStore) sources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, v := range s.vectors {
		if !seen[v.Document.Source] {
			seen[v.Document.Source] = true
			out = append(out, v.Document.Source)
		}
	}
	sort.Strings(out)
	return out
}

type mockEmbedder struct{ mock.Mock }

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if v := args.Get(0); v != nil {
		return v.([][]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockVectorStore struct{ mock.Mock }

func (m *mockVectorStore) EnsureIndex(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockVectorStore) Upsert(ctx context.Context, vectors []Vector) error {
	return m.Called(ctx, vectors).Error(0)
}

func (m *mockVectorStore) Delete(ctx context.Context, ids []string) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *mockVectorStore) Query(ctx context.Context, values []float32, topK int) ([]Match, error) {
	args := m.Called(ctx, values, topK)
	if v := args.Get(0); v != nil {
		return v.([]Match), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
