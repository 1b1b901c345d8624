package local

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

func TestStream_EchoesContext(t *testing.T) {
	svc := NewLLMService()
	req := &domain.GenerationRequest{Context: "[bio.pdf p.1] Mitochondria produce ATP."}

	s, err := svc.Stream(context.Background(), req)
	require.NoError(t, err)
	defer s.Close()

	var parts []string
	for s.Next() {
		parts = append(parts, s.Text())
	}
	require.NoError(t, s.Err())
	assert.Greater(t, len(parts), 3)
	assert.Equal(t, answerPrefix+"[bio.pdf p.1] Mitochondria produce ATP.", strings.Join(parts, ""))
}

func TestStream_NoContext(t *testing.T) {
	for _, ctxText := range []string{"", domain.NoContextSentinel} {
		s, err := NewLLMService().Stream(context.Background(), &domain.GenerationRequest{Context: ctxText})
		require.NoError(t, err)

		var sb strings.Builder
		for s.Next() {
			sb.WriteString(s.Text())
		}
		assert.Equal(t, noAnswer, sb.String())
		assert.NoError(t, s.Close())
	}
}

func TestStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewLLMService().Stream(ctx, &domain.GenerationRequest{Context: "one two three"})
	require.NoError(t, err)

	require.True(t, s.Next())
	cancel()

	assert.False(t, s.Next())
	assert.ErrorIs(t, s.Err(), domain.ErrGenerationBackend)
	assert.ErrorIs(t, s.Err(), context.Canceled)
}

func TestStream_CloseStops(t *testing.T) {
	s, err := NewLLMService().Stream(context.Background(), &domain.GenerationRequest{Context: "one two three"})
	require.NoError(t, err)

	require.True(t, s.Next())
	require.NoError(t, s.Close())

	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"a ", "b\n\n", "c"}, splitWords("a b\n\nc"))
	assert.Equal(t, []string{"  lead ", "x"}, splitWords("  lead x"))
	assert.Empty(t, splitWords(""))
}

func TestService(t *testing.T) {
	svc := NewLLMService()
	assert.Equal(t, "echo", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
