// Package checkout drives the order → payment-intent → confirmation sequence
// as a small state machine per session:
//
//	IDLE → CREATING_INTENT → AWAITING_CONFIRMATION → SUCCEEDED | FAILED
//
// The orchestrator never decides that an order is paid. A successful
// confirmation only means the processor accepted the payment; the
// authoritative order status comes from a follow-up fetch, because
// settlement on the backend may complete asynchronously.
package checkout

import (
	"context"
	"log"
	"net/url"
	"sync"

	"github.com/fjod/go_shop/internal/checkout/journal"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/payment"
	"github.com/google/uuid"
)

// BackendAPI is the slice of the backend client the orchestrator needs.
type BackendAPI interface {
	Checkout(ctx context.Context, sid string) (*domain.CheckoutIntent, error)
	GetOrder(ctx context.Context, sid string, orderID int64) (*domain.Order, error)
}

// Status is the state-machine view exposed to the UI layer.
type Status struct {
	State         domain.CheckoutState   `json:"state"`
	Intent        *domain.CheckoutIntent `json:"intent,omitempty"`
	TransactionID string                 `json:"transaction_id,omitempty"`
	FailureReason string                 `json:"failure_reason,omitempty"`
}

// attempt is one live run of the state machine. Terminal attempts are
// replaced, not transitioned, when a fresh checkout starts.
type attempt struct {
	id            string
	state         domain.CheckoutState
	fingerprint   string
	intent        *domain.CheckoutIntent
	transactionID string
	failureReason string
}

type Orchestrator struct {
	api       BackendAPI
	confirmer payment.Confirmer
	journal   journal.Journal

	mu       sync.Mutex
	attempts map[string]*attempt
}

func NewOrchestrator(api BackendAPI, confirmer payment.Confirmer, j journal.Journal) *Orchestrator {
	return &Orchestrator{
		api:       api,
		confirmer: confirmer,
		journal:   j,
		attempts:  make(map[string]*attempt),
	}
}

// Begin snapshots the cart into an order and obtains a payment intent.
// A second Begin while one is pending is rejected (double-submit guard), and
// a Begin for unchanged cart content while an intent is already awaiting
// confirmation coalesces onto the existing intent instead of minting a
// second order.
func (o *Orchestrator) Begin(ctx context.Context, sid string, cart *domain.Cart) (*domain.CheckoutIntent, error) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}
	fp := cart.Fingerprint()

	o.mu.Lock()
	if a := o.attempts[sid]; a != nil {
		switch {
		case a.state == domain.CheckoutStateCreatingIntent:
			o.mu.Unlock()
			return nil, ErrCheckoutInProgress
		case a.state == domain.CheckoutStateAwaitingConfirmation && a.fingerprint == fp:
			// Same cart content, intent already minted: reuse it.
			intent := a.intent
			o.mu.Unlock()
			return intent, nil
		}
	}
	a := &attempt{
		id:          uuid.NewString(),
		state:       domain.CheckoutStateCreatingIntent,
		fingerprint: fp,
	}
	o.attempts[sid] = a
	o.mu.Unlock()

	// Advisory duplicate check across restarts. The backend owns the real
	// idempotency guarantee; this only logs what we are about to repeat.
	if prev, err := o.journal.ActiveByKey(ctx, sid, fp); err == nil {
		log.Printf("duplicate checkout detected for session %s: attempt %s is %s for order %d",
			sid, prev.ID, prev.State, prev.OrderID)
	}

	if err := o.journal.Record(ctx, &journal.Attempt{
		ID:             a.id,
		SID:            sid,
		IdempotencyKey: fp,
		State:          a.state,
	}); err != nil {
		log.Printf("failed to journal checkout attempt %s: %v", a.id, err)
	}

	intent, err := o.api.Checkout(ctx, sid)
	if err != nil {
		// Order creation failed (empty cart, pricing conflict, transport).
		// Back to IDLE; the error is surfaced, nothing is retried.
		o.transition(ctx, sid, a, domain.CheckoutStateIdle, err.Error())
		o.mu.Lock()
		delete(o.attempts, sid)
		o.mu.Unlock()
		return nil, err
	}

	o.mu.Lock()
	a.intent = intent
	o.mu.Unlock()
	o.transition(ctx, sid, a, domain.CheckoutStateAwaitingConfirmation, "")
	if err := o.journal.AttachOrder(ctx, a.id, intent.OrderID); err != nil {
		log.Printf("failed to attach order %d to attempt %s: %v", intent.OrderID, a.id, err)
	}

	return intent, nil
}

// Confirm hands the intent's client secret to the processor with the
// submitted payment details. From FAILED it first re-enters
// AWAITING_CONFIRMATION: the existing intent is re-submitted rather than a
// new order created.
func (o *Orchestrator) Confirm(ctx context.Context, sid string, method payment.Method) (Status, error) {
	o.mu.Lock()
	a := o.attempts[sid]
	if a == nil || a.intent == nil {
		o.mu.Unlock()
		return Status{State: domain.CheckoutStateIdle}, ErrNoActiveCheckout
	}
	state := a.state
	intent := *a.intent
	o.mu.Unlock()

	// A failed attempt re-enters AWAITING_CONFIRMATION for the retry,
	// reusing the existing order and intent. The edge goes through
	// transition so the journal mirrors it.
	if state == domain.CheckoutStateFailed {
		o.transition(ctx, sid, a, domain.CheckoutStateAwaitingConfirmation, "")
		state = domain.CheckoutStateAwaitingConfirmation
	}
	if state != domain.CheckoutStateAwaitingConfirmation {
		return o.State(sid), ErrIllegalTransition
	}

	result, err := o.confirmer.Confirm(ctx, intent, method)
	if err != nil {
		// Transport trouble: the attempt stays confirmable, nothing is known
		// about the payment either way.
		return o.State(sid), err
	}

	return o.settle(ctx, sid, a, result)
}

// HandleReturn resumes the state machine from a redirect-style confirmation:
// the processor sent the browser back with a status flag in the return URL.
func (o *Orchestrator) HandleReturn(ctx context.Context, sid string, values url.Values) (Status, error) {
	o.mu.Lock()
	a := o.attempts[sid]
	if a == nil || a.intent == nil {
		o.mu.Unlock()
		return Status{State: domain.CheckoutStateIdle}, ErrNoActiveCheckout
	}
	if secret := payment.ClientSecretFromReturn(values); secret != "" && secret != a.intent.ClientSecret {
		o.mu.Unlock()
		return o.State(sid), ErrNoActiveCheckout
	}
	if a.state != domain.CheckoutStateAwaitingConfirmation {
		o.mu.Unlock()
		return o.State(sid), ErrIllegalTransition
	}
	o.mu.Unlock()

	result, err := payment.ParseReturn(values)
	if err != nil {
		return o.State(sid), err
	}

	return o.settle(ctx, sid, a, result)
}

// settle applies the processor's verdict to the state machine. The attempt
// may have been reset or replaced while the processor ran; a verdict for a
// superseded attempt is discarded, never applied to the live one.
func (o *Orchestrator) settle(ctx context.Context, sid string, a *attempt, result payment.Result) (Status, error) {
	o.mu.Lock()
	if o.attempts[sid] != a {
		o.mu.Unlock()
		return o.State(sid), ErrNoActiveCheckout
	}
	if result.Status == payment.StatusSucceeded {
		a.transactionID = result.TransactionID
	}
	o.mu.Unlock()

	if result.Status == payment.StatusSucceeded {
		o.transition(ctx, sid, a, domain.CheckoutStateSucceeded, "")
		return o.State(sid), nil
	}

	payErr := &domain.PaymentError{Code: result.FailureCode, Reason: result.FailureReason}
	o.transition(ctx, sid, a, domain.CheckoutStateFailed, payErr.Error())
	return o.State(sid), payErr
}

// Order re-fetches the authoritative order for the session's current attempt.
// Its status may still be pending right after a successful confirmation if
// settlement is webhook-driven; that is the backend's call, not ours.
func (o *Orchestrator) Order(ctx context.Context, sid string) (*domain.Order, error) {
	o.mu.Lock()
	a := o.attempts[sid]
	if a == nil || a.intent == nil {
		o.mu.Unlock()
		return nil, ErrNoActiveCheckout
	}
	orderID := a.intent.OrderID
	o.mu.Unlock()

	return o.api.GetOrder(ctx, sid, orderID)
}

// State returns the current state-machine view, IDLE if nothing is running.
func (o *Orchestrator) State(sid string) Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	a := o.attempts[sid]
	if a == nil {
		return Status{State: domain.CheckoutStateIdle}
	}
	return Status{
		State:         a.state,
		Intent:        a.intent,
		TransactionID: a.transactionID,
		FailureReason: a.failureReason,
	}
}

// Reset abandons the session's attempt, e.g. after the user leaves checkout
// or logs out. The journal keeps its record.
func (o *Orchestrator) Reset(sid string) {
	o.mu.Lock()
	delete(o.attempts, sid)
	o.mu.Unlock()
}

// Forget drops everything the orchestrator holds for a session. Same effect
// as Reset, named for the session-teardown path.
func (o *Orchestrator) Forget(sid string) {
	o.Reset(sid)
}

// transition moves the live attempt and mirrors the change into the journal.
func (o *Orchestrator) transition(ctx context.Context, sid string, a *attempt, to domain.CheckoutState, reason string) {
	o.mu.Lock()
	if to != domain.CheckoutStateIdle && !domain.CanTransitionTo(a.state, to) {
		o.mu.Unlock()
		log.Printf("refusing transition %s -> %s for attempt %s", a.state, to, a.id)
		return
	}
	a.state = to
	a.failureReason = reason
	o.mu.Unlock()

	if err := o.journal.UpdateState(ctx, a.id, to, reason); err != nil {
		log.Printf("failed to journal state %s for attempt %s: %v", to, a.id, err)
	}
}
