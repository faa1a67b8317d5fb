package interfaces

import (
	"context"

	"github.com/mnemo-lab/mnemo/pkg/domain/types"
)

// IdentityProvider supplies a stable per-user identifier. The memory store
// treats the returned value as an opaque partition key and never owns
// identity state itself.
type IdentityProvider interface {
	GetOrCreateUserID(ctx context.Context) (types.UserID, error)
}
