package session

import (
	"context"

	"github.com/rbright/tccc/internal/card"
)

// Committer persists the merged card once an attempt succeeds.
type Committer interface {
	Commit(context.Context, card.Card) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(context.Context, card.Card) error

func (f CommitFunc) Commit(ctx context.Context, c card.Card) error {
	return f(ctx, c)
}
