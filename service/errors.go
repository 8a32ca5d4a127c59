package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAccountNotFound is returned when an operation references an unknown account
	ErrAccountNotFound = errors.New("account not found")
	// ErrTournamentNotFound is returned when an operation references an unknown tournament
	ErrTournamentNotFound = errors.New("tournament not found")
	// ErrInsufficientFunds is returned by checked debits when the balance cannot cover the amount
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount is returned for zero or negative amounts where a positive one is required
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidTournament is returned when tournament parameters fail validation
	ErrInvalidTournament = errors.New("invalid tournament")
	// ErrTournamentOverlap is returned when a new tournament window intersects an active one
	ErrTournamentOverlap = errors.New("tournament window overlaps an active tournament")
	// ErrSelfReferral is returned when an account tries to refer itself
	ErrSelfReferral = errors.New("account cannot refer itself")
	// ErrAlreadyReferred is returned when the new account already has a referrer
	ErrAlreadyReferred = errors.New("account already referred")
	// ErrBelowMinimumWithdrawal is returned when a withdrawal is smaller than the configured minimum
	ErrBelowMinimumWithdrawal = errors.New("withdrawal below minimum")
)

// BonusNotReadyError is returned when the daily bonus cooldown has not elapsed
type BonusNotReadyError struct {
	Remaining time.Duration
}

func (e *BonusNotReadyError) Error() string {
	return fmt.Sprintf("daily bonus not ready, %s remaining", e.Remaining.Round(time.Second))
}

// ErrBonusNotReady allows errors.Is checks against any BonusNotReadyError
var ErrBonusNotReady = &BonusNotReadyError{}

// Is matches any BonusNotReadyError regardless of the remaining time
func (e *BonusNotReadyError) Is(target error) bool {
	_, ok := target.(*BonusNotReadyError)
	return ok
}
