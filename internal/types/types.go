// Common value objects shared across modules.
package types

// ID identifies users, rides and vehicles.
type ID string

// Money is a fixed-point amount in the smallest currency unit.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
