package domain

// CheckoutIntent is the server-issued authorization for one payment attempt.
// Created once per checkout, immutable afterwards. A fresh checkout always
// requests a new intent.
type CheckoutIntent struct {
	OrderID        int64  `json:"order_id"`
	ClientSecret   string `json:"client_secret"`
	PublishableKey string `json:"publishable_key"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

// AmountMajor converts the minor-unit amount (cents) to the display value.
func (i CheckoutIntent) AmountMajor() float64 {
	return float64(i.Amount) / 100
}

type CheckoutState string

const (
	CheckoutStateIdle                 CheckoutState = "IDLE"
	CheckoutStateCreatingIntent       CheckoutState = "CREATING_INTENT"
	CheckoutStateAwaitingConfirmation CheckoutState = "AWAITING_CONFIRMATION"
	CheckoutStateSucceeded            CheckoutState = "SUCCEEDED"
	CheckoutStateFailed               CheckoutState = "FAILED"
)

// transitions is the legal edge set of the checkout state machine.
// FAILED -> AWAITING_CONFIRMATION is the retry path: the processor allowed
// re-submission against the same intent.
var transitions = map[CheckoutState][]CheckoutState{
	CheckoutStateIdle:                 {CheckoutStateCreatingIntent},
	CheckoutStateCreatingIntent:       {CheckoutStateAwaitingConfirmation, CheckoutStateIdle},
	CheckoutStateAwaitingConfirmation: {CheckoutStateSucceeded, CheckoutStateFailed},
	CheckoutStateFailed:               {CheckoutStateAwaitingConfirmation, CheckoutStateIdle},
}

func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further payment activity is possible.
// FAILED is deliberately not terminal: it is retry-capable.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateSucceeded
}

func (s CheckoutState) String() string {
	return string(s)
}
