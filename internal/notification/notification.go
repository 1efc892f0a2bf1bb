package notification

import (
	"context"
	"log/slog"
)

const (
	// VariantDefault marks an informational notification.
	VariantDefault = "default"
	// VariantDestructive marks an error notification.
	VariantDestructive = "destructive"
)

// Action describes an optional follow-up the user can trigger from a
// notification, such as opening the card funding flow.
type Action struct {
	Label  string
	Kind   string
	Amount string
}

// ActionFundWallet asks the presentation layer to open the card funding flow.
const ActionFundWallet = "fund_wallet"

// Message describes a user-facing notification payload.
type Message struct {
	Title       string
	Description string
	Variant     string
	Action      *Action
}

// Notifier delivers notifications to the presentation layer.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	attrs := []any{"title", message.Title, "description", message.Description, "variant", message.Variant}
	if message.Action != nil {
		attrs = append(attrs, "action", message.Action.Kind)
	}
	n.logger.Info("notification", attrs...)
	return nil
}
