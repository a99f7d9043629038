package subscription

import "github.com/lumenpay/lumenpay/internal/ledger"

// EventType classifies events fanned out to listeners.
type EventType string

const (
	EventAccountUpdated       EventType = "account_updated"
	EventPaymentReceived      EventType = "payment_received"
	EventPaymentSent          EventType = "payment_sent"
	EventTransactionSubmitted EventType = "transaction_submitted"
	EventTransactionFailed    EventType = "transaction_failed"
)

// Event is delivered to registered listeners. Exactly one payload field is
// set, matching Type: Snapshot for account updates, Payment for payment
// events, Transaction plus optionally Err for submission outcomes. Events
// are not persisted.
type Event struct {
	Type        EventType
	Account     string
	Snapshot    *ledger.AccountSnapshot
	Payment     *ledger.Payment
	Transaction *ledger.SubmissionResult
	Err         error
}

// Listener consumes events for one event type. Listener failures are
// isolated: a panic inside one listener is logged and does not prevent
// other listeners from firing.
type Listener func(Event)
