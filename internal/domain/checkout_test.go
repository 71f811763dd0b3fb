package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo_HappyPath(t *testing.T) {
	assert.True(t, CanTransitionTo(CheckoutStateIdle, CheckoutStateCreatingIntent))
	assert.True(t, CanTransitionTo(CheckoutStateCreatingIntent, CheckoutStateAwaitingConfirmation))
	assert.True(t, CanTransitionTo(CheckoutStateAwaitingConfirmation, CheckoutStateSucceeded))
}

func TestCanTransitionTo_FailureAndRetry(t *testing.T) {
	assert.True(t, CanTransitionTo(CheckoutStateAwaitingConfirmation, CheckoutStateFailed))
	assert.True(t, CanTransitionTo(CheckoutStateFailed, CheckoutStateAwaitingConfirmation))
	assert.True(t, CanTransitionTo(CheckoutStateFailed, CheckoutStateIdle))
	assert.True(t, CanTransitionTo(CheckoutStateCreatingIntent, CheckoutStateIdle))
}

func TestCanTransitionTo_IllegalEdges(t *testing.T) {
	assert.False(t, CanTransitionTo(CheckoutStateIdle, CheckoutStateSucceeded))
	assert.False(t, CanTransitionTo(CheckoutStateIdle, CheckoutStateAwaitingConfirmation))
	assert.False(t, CanTransitionTo(CheckoutStateSucceeded, CheckoutStateAwaitingConfirmation))
	assert.False(t, CanTransitionTo(CheckoutStateSucceeded, CheckoutStateIdle))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, CheckoutStateSucceeded.IsTerminal())
	assert.False(t, CheckoutStateFailed.IsTerminal())
	assert.False(t, CheckoutStateIdle.IsTerminal())
	assert.False(t, CheckoutStateAwaitingConfirmation.IsTerminal())
}

func TestAmountMajor(t *testing.T) {
	intent := CheckoutIntent{Amount: 2000, Currency: "eur"}
	assert.Equal(t, 20.00, intent.AmountMajor())
}
