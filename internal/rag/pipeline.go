// Package rag wires retrieval, context assembly and budgeting into one prompt-building turn.
package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/prompt"
	"github.com/hyperjump/kioku/internal/storage"
)

// Searcher returns scored chunks for a query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]models.ScoredChunk, error)
}

// HistoryStore loads conversation history.
type HistoryStore interface {
	Messages(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
}

// Options holds the prompt-shaping settings of a pipeline.
type Options struct {
	TopK           int
	ContextWindow  int
	ResponseBuffer int
	MinBudget      int
	SystemPrompt   string
	// HistoryLimit caps how many stored messages are considered; 0 loads all.
	HistoryLimit int
}

// Turn is the outcome of building one prompt.
type Turn struct {
	SessionID    string               `json:"session_id,omitempty"`
	Prompt       string               `json:"prompt"`
	SystemPrompt string               `json:"system_prompt,omitempty"`
	Chunks       []models.ScoredChunk `json:"chunks"`
	Context      string               `json:"context"`
	Budget       prompt.Result        `json:"budget"`
	// RetrievalErr is set when retrieval failed and the prompt was built without context.
	RetrievalErr error `json:"-"`
}

// Pipeline builds prompts from the current index and a session's history.
type Pipeline struct {
	searcher  Searcher
	history   HistoryStore
	assembler *prompt.Assembler
	budgeter  *prompt.Budgeter
	opts      Options
	logger    *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithAssembler replaces the default context assembler.
func WithAssembler(a *prompt.Assembler) Option {
	return func(p *Pipeline) {
		if a != nil {
			p.assembler = a
		}
	}
}

// NewPipeline creates a pipeline. history may be nil for stateless prompts.
func NewPipeline(searcher Searcher, history HistoryStore, budgeter *prompt.Budgeter, opts Options, options ...Option) *Pipeline {
	p := &Pipeline{
		searcher:  searcher,
		history:   history,
		assembler: prompt.NewAssembler(""),
		budgeter:  budgeter,
		opts:      opts,
		logger:    zap.NewNop(),
	}
	if p.budgeter == nil {
		p.budgeter = prompt.NewBudgeter(nil)
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Budget returns the usable unit budget for one prompt.
func (p *Pipeline) Budget() int {
	return prompt.UsableBudget(p.opts.ContextWindow, p.opts.ResponseBuffer, p.opts.MinBudget)
}

// BuildPrompt loads the session's history, retrieves context for input, and budgets
// both into a prompt. An empty sessionID builds a prompt without history. Retrieval
// failures are recorded on the turn unless ctx was cancelled; history failures are
// returned.
func (p *Pipeline) BuildPrompt(ctx context.Context, sessionID, input string) (*Turn, error) {
	var history []models.Message
	if sessionID != "" && p.history != nil {
		msgs, err := p.history.Messages(ctx, sessionID, p.opts.HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
		history = msgs
	}

	turn := &Turn{SessionID: sessionID, SystemPrompt: p.opts.SystemPrompt, Chunks: []models.ScoredChunk{}}
	chunks, err := p.searcher.Search(ctx, input, p.opts.TopK)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("retrieval interrupted: %w", err)
		}
		p.logger.Warn("retrieval failed, continuing without context", zap.Error(err))
		turn.RetrievalErr = err
	} else {
		turn.Chunks = chunks
	}

	turn.Context = p.assembler.Assemble(turn.Chunks)
	turn.Budget = p.budgeter.Assemble(prompt.Request{
		History:      history,
		Input:        input,
		ContextBlock: turn.Context,
		SystemPrompt: p.opts.SystemPrompt,
		Budget:       p.Budget(),
	})
	turn.Prompt = turn.Budget.Prompt

	p.logger.Debug("prompt built",
		zap.String("session_id", sessionID),
		zap.Int("chunks", len(turn.Chunks)),
		zap.Bool("context_included", turn.Budget.ContextIncluded),
		zap.Int("history_included", turn.Budget.IncludedMessages),
		zap.Int("history_dropped", turn.Budget.DroppedMessages),
		zap.Int("used", turn.Budget.Used),
		zap.Int("budget", turn.Budget.Budget))
	return turn, nil
}

var _ HistoryStore = (storage.ConversationStore)(nil)
