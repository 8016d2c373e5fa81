package entity

import (
	"fmt"
	"strings"
)

// CredentialsError means PUBLIC_KEY or PRIVATE_KEY is missing or unusable.
// It is raised before any network call is attempted.
type CredentialsError struct {
	Missing []string
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("missing kraken credentials: %s", strings.Join(e.Missing, ", "))
}

// PriceFetchError means the ask price for a pair could not be resolved,
// either because the request failed or because the response did not carry
// ticker data for that pair.
type PriceFetchError struct {
	Pair string
	Err  error
}

func (e *PriceFetchError) Error() string {
	return fmt.Sprintf("failed to fetch ask price for %s: %v", e.Pair, e.Err)
}

func (e *PriceFetchError) Unwrap() error {
	return e.Err
}

// AuthError means the exchange rejected the request signature or API key.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("kraken rejected credentials: %s", e.Message)
}

// OrderRejectedError carries the exchange's order rejection text verbatim
// (insufficient funds, invalid volume precision, pair restrictions).
type OrderRejectedError struct {
	Messages []string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("order rejected: %s", strings.Join(e.Messages, "; "))
}
