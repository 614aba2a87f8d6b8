package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownAsset         = errors.New("unknown asset")
	ErrUnknownPosition      = errors.New("no position held")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrInvalidOrder         = errors.New("invalid order")
	ErrInvalidAsset         = errors.New("invalid asset")
	ErrDivisionUndefined    = errors.New("division undefined: zero cost basis")
)

// IsRejection reports whether err is an ordinary order rejection caused by
// user input (balance, holdings, unknown position) rather than caller misuse.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientHoldings) ||
		errors.Is(err, ErrUnknownPosition)
}

// TradeError describes why an order was rejected. It unwraps to one of the
// sentinel errors above.
type TradeError struct {
	Action Action
	Symbol string
	Amount decimal.Decimal
	Err    error
}

func (e *TradeError) Error() string {
	return fmt.Sprintf("%s %s %s rejected: %v", e.Action, e.Amount, e.Symbol, e.Err)
}

func (e *TradeError) Unwrap() error { return e.Err }

// Reason returns the short user-facing explanation.
func (e *TradeError) Reason() string {
	return RejectionReason(e.Err)
}

// RejectionReason maps an error to the message shown to the user.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return "Insufficient balance"
	case errors.Is(err, ErrInsufficientHoldings):
		return "Insufficient coins"
	case errors.Is(err, ErrUnknownPosition):
		return "No position"
	case errors.Is(err, ErrUnknownAsset):
		return "Unknown coin"
	case errors.Is(err, ErrInvalidOrder):
		return "Invalid order"
	case err == nil:
		return ""
	}
	return "Trade failed"
}
