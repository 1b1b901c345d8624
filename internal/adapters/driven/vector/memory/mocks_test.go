package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// fakeEmbedder returns fixed vectors per text and counts calls.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   atomic.Int32

	mu       sync.Mutex
	lastTask domain.TaskType
}

func (f *fakeEmbedder) task() domain.TaskType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastTask
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, task domain.TaskType) ([]float32, error) {
	out, err := f.EmbedBatch(ctx, []string{text}, task)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string, task domain.TaskType) ([][]float32, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastTask = task
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			return nil, errors.New("no vector for " + t)
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int              { return 2 }
func (f *fakeEmbedder) ModelName() string            { return "fake" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }
