package chain

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// StaticSender simulates the wallet write capability with synthetic
// transaction references. Used in development when no settlement key is
// configured.
type StaticSender struct{}

// Submit approves the transaction with a synthetic reference.
func (StaticSender) Submit(_ context.Context, _ TxRequest) (string, error) {
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}
