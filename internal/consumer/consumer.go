package consumer

import (
	"context"
)

// MessageConsumer receives pregeneration and eviction requests from a
// broker and feeds them to the pregen service.
type MessageConsumer interface {
	Start(ctx context.Context) error

	Stop()
}
