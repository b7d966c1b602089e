package rag

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/prompt"
	"github.com/hyperjump/kioku/internal/retrieval"
	"github.com/hyperjump/kioku/internal/storage"
	"github.com/hyperjump/kioku/internal/vector"
)

type stubSearcher struct {
	chunks []models.ScoredChunk
	err    error
	gotK   int
}

func (s *stubSearcher) Search(_ context.Context, _ string, topK int) ([]models.ScoredChunk, error) {
	s.gotK = topK
	return s.chunks, s.err
}

type stubHistory struct {
	msgs []models.Message
	err  error
}

func (h stubHistory) Messages(context.Context, string, int) ([]models.Message, error) {
	return h.msgs, h.err
}

// recordingHistory remembers the limit it was asked for.
type recordingHistory struct {
	msgs     []models.Message
	gotLimit int
}

func (h *recordingHistory) Messages(_ context.Context, _ string, limit int) ([]models.Message, error) {
	h.gotLimit = limit
	if limit > 0 && len(h.msgs) > limit {
		return h.msgs[len(h.msgs)-limit:], nil
	}
	return h.msgs, nil
}

func chunk(path, text string, score float64, focus bool) models.ScoredChunk {
	return models.ScoredChunk{
		EmbeddedChunk: models.EmbeddedChunk{Chunk: models.Chunk{Path: path, Title: path, Text: text, PersonalFocus: focus}},
		Score:         score,
	}
}

func defaultOptions() Options {
	return Options{TopK: 3, ContextWindow: 4096, ResponseBuffer: 500, MinBudget: 100}
}

func TestBuildPrompt_ContextHistoryInput(t *testing.T) {
	searcher := &stubSearcher{chunks: []models.ScoredChunk{chunk("goals.md", "ship it", 0.9, true)}}
	history := stubHistory{msgs: []models.Message{
		{Role: models.RoleUser, Content: "hello"},
		{Role: models.RoleAssistant, Content: "hi there"},
	}}
	p := NewPipeline(searcher, history, prompt.NewBudgeter(prompt.NewCounter(false, nil)), defaultOptions())

	turn, err := p.BuildPrompt(context.Background(), "s1", "what are my goals?")
	require.NoError(t, err)

	assert.Equal(t, 3, searcher.gotK)
	assert.True(t, turn.Budget.ContextIncluded)
	assert.Equal(t, 2, turn.Budget.IncludedMessages)
	assert.Equal(t, 3596, turn.Budget.Budget)
	assert.True(t, strings.HasPrefix(turn.Prompt, prompt.PersonalFocusHeader))
	assert.Contains(t, turn.Prompt, prompt.EndMarker+"\n\nUser: hello\n\nAssistant: hi there\n\nUser: what are my goals?")
	assert.Nil(t, turn.RetrievalErr)
}

func TestBuildPrompt_NoContextWhenNothingRetrieved(t *testing.T) {
	p := NewPipeline(&stubSearcher{chunks: []models.ScoredChunk{}}, nil, nil, defaultOptions())

	turn, err := p.BuildPrompt(context.Background(), "", "plain question")
	require.NoError(t, err)

	assert.Equal(t, "", turn.Context)
	assert.False(t, turn.Budget.ContextIncluded)
	assert.Equal(t, "User: plain question", turn.Prompt)
}

func TestBuildPrompt_RetrievalFailureIsNonFatal(t *testing.T) {
	searcher := &stubSearcher{chunks: []models.ScoredChunk{}, err: fmt.Errorf("%w: down", embedding.ErrProviderFailed)}
	p := NewPipeline(searcher, nil, nil, defaultOptions())

	turn, err := p.BuildPrompt(context.Background(), "", "question")
	require.NoError(t, err)

	require.Error(t, turn.RetrievalErr)
	assert.ErrorIs(t, turn.RetrievalErr, embedding.ErrProviderFailed)
	assert.Equal(t, "User: question", turn.Prompt)
	assert.Empty(t, turn.Chunks)
}

func TestBuildPrompt_HistoryFailureIsReturned(t *testing.T) {
	boom := errors.New("db locked")
	p := NewPipeline(&stubSearcher{}, stubHistory{err: boom}, nil, defaultOptions())

	_, err := p.BuildPrompt(context.Background(), "s1", "question")
	assert.ErrorIs(t, err, boom)
}

func TestBuildPrompt_SystemPromptCounted(t *testing.T) {
	opts := defaultOptions()
	opts.ContextWindow, opts.ResponseBuffer, opts.MinBudget = 0, 0, 4
	opts.SystemPrompt = "be brief"
	history := stubHistory{msgs: []models.Message{{Role: models.RoleUser, Content: "x"}}}
	p := NewPipeline(&stubSearcher{}, history, nil, opts)

	turn, err := p.BuildPrompt(context.Background(), "s1", "q")
	require.NoError(t, err)

	assert.Equal(t, "be brief", turn.SystemPrompt)
	assert.Equal(t, 0, turn.Budget.IncludedMessages)
	assert.Equal(t, "User: q", turn.Prompt)
}

// Threshold 0.9 with no chunk above it yields no context block at all.
func TestBuildPrompt_ThresholdExcludesEverything(t *testing.T) {
	ctx := context.Background()
	embedder := embedding.NewMockEmbedder(128)
	vec, err := embedder.Embed(ctx, "cooking recipes for pasta")
	require.NoError(t, err)

	snap, err := vector.NewSnapshot([]models.EmbeddedChunk{{
		Chunk:  models.Chunk{ID: "c1", Path: "pasta.md", Text: "cooking recipes for pasta"},
		Vector: vec,
	}}, 1, embedder.Model())
	require.NoError(t, err)
	holder := vector.NewHolder()
	holder.Swap(snap)

	r := retrieval.NewRetriever(holder, embedder, retrieval.Options{Enabled: true, Threshold: 0.9})
	p := NewPipeline(r, nil, nil, defaultOptions())

	turn, err := p.BuildPrompt(ctx, "", "quarterly tax filing deadlines")
	require.NoError(t, err)
	assert.Empty(t, turn.Chunks)
	assert.Equal(t, "", turn.Context)
	assert.Equal(t, "User: quarterly tax filing deadlines", turn.Prompt)
}

func TestBuildPrompt_WithSQLiteHistory(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "conv.db"))
	require.NoError(t, err)
	defer store.Close()

	sess, err := store.CreateSession(ctx, "")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		require.NoError(t, store.AppendMessage(ctx, &models.Message{
			SessionID: sess.ID, Role: models.RoleUser, Content: fmt.Sprintf("note %d", i),
		}))
	}

	opts := defaultOptions()
	opts.HistoryLimit = 2
	p := NewPipeline(&stubSearcher{}, store, nil, opts)

	turn, err := p.BuildPrompt(ctx, sess.ID, "next")
	require.NoError(t, err)
	assert.Equal(t, "User: note 2\n\nUser: note 3\n\nUser: next", turn.Prompt)

	_, err = p.BuildPrompt(ctx, "unknown", "next")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestBuildPrompt_HistoryLimitPassedToStore(t *testing.T) {
	history := &recordingHistory{msgs: []models.Message{
		{Role: models.RoleUser, Content: "first"},
		{Role: models.RoleAssistant, Content: "second"},
		{Role: models.RoleUser, Content: "third"},
	}}
	opts := defaultOptions()
	opts.HistoryLimit = 2
	p := NewPipeline(&stubSearcher{}, history, nil, opts)

	turn, err := p.BuildPrompt(context.Background(), "s1", "question")
	require.NoError(t, err)
	assert.Equal(t, 2, history.gotLimit)
	assert.Equal(t, "Assistant: second\n\nUser: third\n\nUser: question", turn.Prompt)
}

func TestBuildPrompt_CancelledQueryEmbeddingIsReturned(t *testing.T) {
	embedder := embedding.NewMockEmbedder(16)
	vec, err := embedder.Embed(context.Background(), "notes")
	require.NoError(t, err)
	snap, err := vector.NewSnapshot([]models.EmbeddedChunk{{
		Chunk:  models.Chunk{ID: "c1", Path: "notes.md", Text: "notes"},
		Vector: vec,
	}}, 1, embedder.Model())
	require.NoError(t, err)
	holder := vector.NewHolder()
	holder.Swap(snap)

	r := retrieval.NewRetriever(holder, embedder, retrieval.Options{Enabled: true, Threshold: 0})
	p := NewPipeline(r, nil, nil, defaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	turn, err := p.BuildPrompt(ctx, "", "notes")
	assert.Nil(t, turn)
	assert.ErrorIs(t, err, context.Canceled)
}
