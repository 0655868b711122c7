package models

// BalanceAdjustment records one manual change of a member's balance.
// Reductions are stored with a negative Amount.
type BalanceAdjustment struct {
	// ID is the unique identifier for the adjustment (UUID format).
	ID string

	// GroupID is the group this adjustment belongs to.
	GroupID string

	// Phonenumber is the member whose balance changed.
	Phonenumber string

	// Amount is the signed change applied to the member balance.
	Amount float64

	// CreatedAt is the Unix timestamp when the adjustment was recorded.
	CreatedAt int64
}
