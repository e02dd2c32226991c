package eventbus

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
)

// Noop descarta los cambios. Se usa cuando RABBITMQ_URL está vacío.
type Noop struct{}

func (Noop) Publish(context.Context, string, aggregate.Changes) error { return nil }

func (Noop) Close() error { return nil }
