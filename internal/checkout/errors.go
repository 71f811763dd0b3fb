package checkout

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutInProgress  = errors.New("a checkout is already being created for this session")
	ErrNoActiveCheckout    = errors.New("no checkout awaiting confirmation")
	ErrIllegalTransition = errors.New("illegal transition of checkout state")
)
