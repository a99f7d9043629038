package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lumenpay/lumenpay/internal/ledger"
)

const (
	accountPrefix  = "account-"
	paymentsPrefix = "payments-"
)

// Registry maintains at most one live ledger stream per (event class,
// account) key and fans incoming messages out to registered listeners.
//
// All registry state sits behind one mutex. Listeners are invoked outside
// the lock, so a listener may safely call back into the registry.
type Registry struct {
	gateway ledger.Gateway
	logger  *slog.Logger

	mu           sync.Mutex
	subs         map[string]ledger.CancelFunc
	listeners    map[EventType]map[int]Listener
	nextListener int
}

// NewRegistry builds an empty registry. Teardown is UnsubscribeAll; the
// registry holds no hidden process-wide state.
func NewRegistry(gateway ledger.Gateway, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		gateway:   gateway,
		logger:    logger,
		subs:      make(map[string]ledger.CancelFunc),
		listeners: make(map[EventType]map[int]Listener),
	}
}

// SubscribeToAccount opens a transaction stream for the account and
// publishes an account_updated event with a fresh snapshot on every
// transaction touching it. The subscription id is deterministic:
// "account-" + accountID. Re-subscribing the same account first closes
// the prior stream, so at most one underlying connection exists per key.
func (r *Registry) SubscribeToAccount(accountID string) (string, error) {
	id := accountPrefix + accountID
	return id, r.open(id, func() (ledger.CancelFunc, error) {
		return r.gateway.StreamTransactions(context.Background(), accountID, func(tx ledger.Transaction) {
			snapshot, err := r.gateway.LoadAccount(context.Background(), accountID)
			if err != nil {
				r.logger.Warn("account refresh after transaction failed",
					slog.String("account", accountID), slog.Any("error", err))
				return
			}
			r.Publish(Event{Type: EventAccountUpdated, Account: accountID, Snapshot: &snapshot})
		})
	})
}

// SubscribeToPayments opens a payment stream for the account. Each payment
// is classified by destination: to the account means payment_received,
// anything else payment_sent. That comparison is the only business logic
// in the streaming path. Deterministic id: "payments-" + accountID.
func (r *Registry) SubscribeToPayments(accountID string) (string, error) {
	id := paymentsPrefix + accountID
	return id, r.open(id, func() (ledger.CancelFunc, error) {
		return r.gateway.StreamPayments(context.Background(), accountID, func(p ledger.Payment) {
			eventType := EventPaymentSent
			if p.To == accountID {
				eventType = EventPaymentReceived
			}
			payment := p
			r.Publish(Event{Type: eventType, Account: accountID, Payment: &payment})
		})
	})
}

// open replaces any active subscription under id and stores the new cancel
// capability. UNSUBSCRIBED -> ACTIVE, with a forced ACTIVE -> UNSUBSCRIBED
// first when the key is already live.
func (r *Registry) open(id string, start func() (ledger.CancelFunc, error)) error {
	r.mu.Lock()
	prior := r.subs[id]
	delete(r.subs, id)
	r.mu.Unlock()

	if prior != nil {
		if err := prior(); err != nil {
			r.logger.Warn("cancel prior stream", slog.String("subscription", id), slog.Any("error", err))
		}
	}

	cancel, err := start()
	if err != nil {
		return fmt.Errorf("open stream %s: %w", id, err)
	}

	r.mu.Lock()
	r.subs[id] = cancel
	r.mu.Unlock()
	return nil
}

// Unsubscribe tears down the subscription with the given id. Returns false
// when no active subscription exists; absence is a normal outcome, not an
// error.
func (r *Registry) Unsubscribe(id string) bool {
	r.mu.Lock()
	cancel, ok := r.subs[id]
	delete(r.subs, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	if err := cancel(); err != nil {
		r.logger.Warn("cancel stream", slog.String("subscription", id), slog.Any("error", err))
	}
	return true
}

// UnsubscribeAll cancels every live subscription and clears the registry.
// Individual cancellation failures are swallowed and logged; teardown
// always completes.
func (r *Registry) UnsubscribeAll() {
	r.mu.Lock()
	subs := r.subs
	r.subs = make(map[string]ledger.CancelFunc)
	r.mu.Unlock()

	for id, cancel := range subs {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Warn("cancel panicked during teardown",
						slog.String("subscription", id), slog.Any("panic", rec))
				}
			}()
			if err := cancel(); err != nil {
				r.logger.Warn("cancel failed during teardown",
					slog.String("subscription", id), slog.Any("error", err))
			}
		}()
	}
}

// Active reports whether the id currently has a live subscription.
func (r *Registry) Active(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subs[id]
	return ok
}

// AddListener registers a callback for one event type and returns a handle
// for removal. Registration is independent of subscription lifecycle:
// listeners registered before any stream opens receive events once one
// does. Invocation order across listeners is not guaranteed.
func (r *Registry) AddListener(eventType EventType, listener Listener) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.listeners[eventType]
	if !ok {
		set = make(map[int]Listener)
		r.listeners[eventType] = set
	}
	handle := r.nextListener
	r.nextListener++
	set[handle] = listener
	return handle
}

// RemoveListener drops a previously registered listener. Unknown handles
// are ignored.
func (r *Registry) RemoveListener(eventType EventType, handle int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners[eventType], handle)
}

// Publish fans an event out to every listener registered for its type.
// Each listener's failure is isolated: a panic is recovered and logged,
// and remaining listeners still fire.
func (r *Registry) Publish(event Event) {
	r.mu.Lock()
	listeners := make([]Listener, 0, len(r.listeners[event.Type]))
	for _, l := range r.listeners[event.Type] {
		listeners = append(listeners, l)
	}
	r.mu.Unlock()

	for _, listener := range listeners {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Error("event listener panicked",
						slog.String("event", string(event.Type)), slog.Any("panic", rec))
				}
			}()
			listener(event)
		}()
	}
}
