package topup

import "log/slog"

// CardFundingRequest carries the hand-off parameters for the embedded card
// funding flow.
type CardFundingRequest struct {
	ChainID   int64
	AmountUSD string
}

// CardFunder hands a funding request to the external card flow. The flow
// reports nothing back, so there is deliberately no return value: the
// outcome stays unknown until a reconciliation mechanism exists.
type CardFunder interface {
	Initiate(address string, req CardFundingRequest)
}

// LoggerCardFunder records hand-offs in the structured log.
type LoggerCardFunder struct {
	logger *slog.Logger
}

// NewLoggerCardFunder constructs a logging card funder stub.
func NewLoggerCardFunder(logger *slog.Logger) *LoggerCardFunder {
	return &LoggerCardFunder{logger: logger}
}

// Initiate logs the hand-off.
func (f *LoggerCardFunder) Initiate(address string, req CardFundingRequest) {
	if f == nil || f.logger == nil {
		return
	}
	f.logger.Info("card funding hand-off", "address", address, "chain_id", req.ChainID, "amount_usd", req.AmountUSD)
}
