package prompt

import (
	"strings"

	"github.com/hyperjump/kioku/internal/models"
)

// Coster measures text in budget units and never fails.
type Coster interface {
	Cost(text string) int
}

// UsableBudget is the context window minus the response reserve, never below minBudget.
func UsableBudget(contextWindow, responseBuffer, minBudget int) int {
	if b := contextWindow - responseBuffer; b > minBudget {
		return b
	}
	return minBudget
}

// Request is the input to one budgeting pass.
type Request struct {
	// History is chronological, oldest first.
	History      []models.Message
	Input        string
	ContextBlock string
	// SystemPrompt is counted against Budget but not included in the output.
	SystemPrompt string
	Budget       int
}

// Result is the budgeted prompt plus diagnostics on what was kept.
type Result struct {
	Prompt           string `json:"prompt"`
	ContextIncluded  bool   `json:"context_included"`
	ContextCost      int    `json:"context_cost"`
	IncludedMessages int    `json:"included_messages"`
	DroppedMessages  int    `json:"dropped_messages"`
	Used             int    `json:"used"`
	Budget           int    `json:"budget"`
	// Overflow is set when the input and system prompt alone exceed Budget.
	Overflow bool `json:"overflow"`
}

// Budgeter fits context and history into a unit budget.
type Budgeter struct {
	cost Coster
}

// NewBudgeter returns a budgeter measuring text with cost.
func NewBudgeter(cost Coster) *Budgeter {
	if cost == nil {
		cost = NewCounter(false, nil)
	}
	return &Budgeter{cost: cost}
}

// FormatMessage renders a history entry as "<Role>: <text>".
func FormatMessage(m models.Message) string {
	return m.Role.Label() + ": " + m.Content
}

// Assemble reserves room for the input and system prompt, keeps the context block
// only if it fits whole, then adds history newest first until the next older message
// does not fit. Output order is context, history oldest to newest, then the input,
// separated by blank lines.
func (b *Budgeter) Assemble(req Request) Result {
	res := Result{Budget: req.Budget}
	inputLine := FormatMessage(models.Message{Role: models.RoleUser, Content: req.Input})

	reserved := b.cost.Cost(inputLine)
	if req.SystemPrompt != "" {
		reserved += b.cost.Cost(req.SystemPrompt)
	}
	res.Used = reserved
	remaining := req.Budget - reserved
	if remaining < 0 {
		res.Overflow = true
		remaining = 0
	}

	if req.ContextBlock != "" {
		res.ContextCost = b.cost.Cost(req.ContextBlock)
		if res.ContextCost <= remaining {
			res.ContextIncluded = true
			remaining -= res.ContextCost
			res.Used += res.ContextCost
		}
	}

	first := len(req.History)
	for i := len(req.History) - 1; i >= 0; i-- {
		c := b.cost.Cost(FormatMessage(req.History[i]))
		if c > remaining {
			break
		}
		remaining -= c
		res.Used += c
		first = i
	}
	res.IncludedMessages = len(req.History) - first
	res.DroppedMessages = first

	parts := make([]string, 0, res.IncludedMessages+2)
	if res.ContextIncluded {
		parts = append(parts, req.ContextBlock)
	}
	for _, m := range req.History[first:] {
		parts = append(parts, FormatMessage(m))
	}
	parts = append(parts, inputLine)
	res.Prompt = strings.Join(parts, "\n\n")
	return res
}
