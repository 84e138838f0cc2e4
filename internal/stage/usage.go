package stage

import (
	"context"
	"sync"

	"github.com/storeforge/storeforge/api/schemas"
)

type usageCtxKey struct{}

// usageTotals accumulates token usage across every model call a stage makes.
// Stages may fan model calls out across goroutines, so the sum is guarded.
type usageTotals struct {
	mu sync.Mutex
	u  schemas.TokenUsage
}

func (t *usageTotals) add(u schemas.TokenUsage) {
	t.mu.Lock()
	t.u.PromptTokens += u.PromptTokens
	t.u.CompletionTokens += u.CompletionTokens
	t.u.TotalTokens += u.TotalTokens
	t.mu.Unlock()
}

// RecordUsage adds one model response's token usage to the running stage's
// totals. Outside a Run lifecycle it is a no-op, so stages can call it
// unconditionally after every successful invoke.
func RecordUsage(ctx context.Context, u schemas.TokenUsage) {
	t, ok := ctx.Value(usageCtxKey{}).(*usageTotals)
	if !ok {
		return
	}
	t.add(u)
}
