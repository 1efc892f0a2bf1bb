package topup

import "context"

// StaticBankClient simulates a funding partner that accepts every intent.
// Used in development when no partner credentials are configured.
type StaticBankClient struct{}

// SubmitIntent accepts the intent unconditionally.
func (StaticBankClient) SubmitIntent(context.Context, FundingIntent, string) error {
	return nil
}
