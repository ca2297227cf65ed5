// Package chainerr defines the error taxonomy shared by every
// contract-facing component: validation failures caught before any
// network call, connection-phase wallet errors, and classified
// contract reverts.
package chainerr

import (
	"errors"
	"fmt"
	"strings"
)

// Connection-phase sentinels.
var (
	// ErrWalletUnavailable is returned when no wallet provider was
	// injected at all.
	ErrWalletUnavailable = errors.New("wallet provider unavailable")

	// ErrWalletIncompatible is returned when the injected provider
	// cannot sign transactions.
	ErrWalletIncompatible = errors.New("wallet provider cannot sign transactions")

	// ErrUserRejected is returned when the account-access request was
	// declined.
	ErrUserRejected = errors.New("account access rejected")

	// ErrNetworkMismatch is returned when the active chain still does
	// not match the required chain after a switch attempt.
	ErrNetworkMismatch = errors.New("active chain does not match required network")

	// ErrUnknownChain is returned by a provider asked to switch to a
	// chain it has no network definition for.
	ErrUnknownChain = errors.New("chain not registered with provider")
)

// ValidationError reports malformed user input, caught before any
// network call is issued.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// NewValidation builds a ValidationError for a named field.
func NewValidation(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RevertCategory is a best-effort human label for a contract revert.
type RevertCategory string

const (
	CategoryBadDenominationAsset  RevertCategory = "bad-denomination-asset"
	CategoryInsufficientFunds     RevertCategory = "insufficient-funds"
	CategoryInsufficientAllowance RevertCategory = "insufficient-allowance"
	CategoryInsufficientBalance   RevertCategory = "insufficient-balance"
	CategoryMinShares             RevertCategory = "min-shares"
	CategoryUserCancelled         RevertCategory = "user-cancelled"
	CategoryUnclassified          RevertCategory = "unclassified"
)

// ChainRejected wraps any contract-level rejection. The underlying
// revert reason is always preserved verbatim; Category is only a label
// for display. None of these are retryable without user correction.
type ChainRejected struct {
	Category RevertCategory
	Reason   string
	Err      error
}

func (e *ChainRejected) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("chain rejected (%s): %s", e.Category, e.Reason)
	}
	return fmt.Sprintf("chain rejected (%s): %v", e.Category, e.Err)
}

func (e *ChainRejected) Unwrap() error { return e.Err }

// Human returns the display label for the category.
func (e *ChainRejected) Human() string {
	switch e.Category {
	case CategoryBadDenominationAsset:
		return "the denomination asset is not allowed by the factory"
	case CategoryInsufficientFunds:
		return "insufficient ETH to cover gas"
	case CategoryInsufficientAllowance:
		return "allowance too low, approve first"
	case CategoryInsufficientBalance:
		return "token balance too low"
	case CategoryMinShares:
		return "minimum share quantity computed as zero, retry"
	case CategoryUserCancelled:
		return "transaction cancelled"
	default:
		return "transaction reverted"
	}
}

// knownPatterns maps revert-reason substrings to categories. Matching is
// case-insensitive, first hit wins.
var knownPatterns = []struct {
	substr   string
	category RevertCategory
}{
	{"bad denomination asset", CategoryBadDenominationAsset},
	{"insufficient funds", CategoryInsufficientFunds},
	{"insufficient allowance", CategoryInsufficientAllowance},
	{"transfer amount exceeds allowance", CategoryInsufficientAllowance},
	{"insufficient balance", CategoryInsufficientBalance},
	{"transfer amount exceeds balance", CategoryInsufficientBalance},
	{"_minsharesquantity must be >0", CategoryMinShares},
	{"user rejected", CategoryUserCancelled},
	{"user denied", CategoryUserCancelled},
}

// Classify wraps err as a ChainRejected with a category derived from
// known revert-reason substrings. Already-classified errors and local
// taxonomy errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var rejected *ChainRejected
	if errors.As(err, &rejected) {
		return err
	}
	if IsValidation(err) ||
		errors.Is(err, ErrWalletUnavailable) ||
		errors.Is(err, ErrWalletIncompatible) ||
		errors.Is(err, ErrUserRejected) ||
		errors.Is(err, ErrNetworkMismatch) {
		return err
	}

	reason := err.Error()
	lowered := strings.ToLower(reason)
	category := CategoryUnclassified
	for _, pattern := range knownPatterns {
		if strings.Contains(lowered, pattern.substr) {
			category = pattern.category
			break
		}
	}

	return &ChainRejected{Category: category, Reason: reason, Err: err}
}
