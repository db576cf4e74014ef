package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/frontdesk/checkin-backend/internal/session"
)

// Gateway creates payment intents with the external payment provider. The
// provider's own API is not this system's concern; the lane only needs an
// intent id it can hand back to the register.
type Gateway interface {
	CreateIntent(ctx context.Context, quote session.Quote) (string, error)
}

// LocalGateway issues intent ids without talking to a provider. Used in dev
// and in every test; the production gateway lives in its own service.
type LocalGateway struct{}

func (LocalGateway) CreateIntent(_ context.Context, quote session.Quote) (string, error) {
	if quote.Total < 0 {
		return "", fmt.Errorf("negative quote total %d", quote.Total)
	}
	return "pi_" + uuid.NewString(), nil
}
