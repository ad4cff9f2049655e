package wallet

import (
	"context"

	"marketplace-wallet-go/internal/models"
)

// Publisher receives operation records once they are committed. Publishing
// happens after the wallet unit of work, so a failing publisher can never
// undo a committed mutation.
type Publisher interface {
	Publish(ctx context.Context, rec models.OperationRecord)
}

type notifier struct {
	publisher Publisher
}

// SetPublisher installs the post-commit publisher. nil disables publishing.
func (n *notifier) SetPublisher(p Publisher) {
	n.publisher = p
}

func (n *notifier) publish(ctx context.Context, recs ...models.OperationRecord) {
	if n.publisher == nil {
		return
	}
	for _, rec := range recs {
		n.publisher.Publish(ctx, rec)
	}
}
