package notification

import (
	"log/slog"

	"github.com/lumenpay/lumenpay/internal/subscription"
)

// LoggerListener returns a subscription listener that writes every event
// to the structured logger. It is the downstream-notification stub wired
// by default for each event type; real push delivery replaces it without
// touching the registry.
func LoggerListener(logger *slog.Logger) subscription.Listener {
	return func(e subscription.Event) {
		if logger == nil {
			return
		}
		attrs := []any{
			slog.String("event", string(e.Type)),
			slog.String("account", e.Account),
		}
		switch {
		case e.Payment != nil:
			attrs = append(attrs,
				slog.String("from", e.Payment.From),
				slog.String("to", e.Payment.To),
				slog.String("amount", e.Payment.Amount))
		case e.Transaction != nil:
			attrs = append(attrs, slog.String("hash", e.Transaction.Hash))
		}
		if e.Err != nil {
			attrs = append(attrs, slog.Any("error", e.Err))
		}
		logger.Info("wallet event", attrs...)
	}
}

// RegisterAll wires the logger listener for every event type the registry
// can publish.
func RegisterAll(reg *subscription.Registry, logger *slog.Logger) {
	for _, eventType := range []subscription.EventType{
		subscription.EventAccountUpdated,
		subscription.EventPaymentReceived,
		subscription.EventPaymentSent,
		subscription.EventTransactionSubmitted,
		subscription.EventTransactionFailed,
	} {
		reg.AddListener(eventType, LoggerListener(logger))
	}
}
