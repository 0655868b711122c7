// Package models defines the core domain models for Go-Dutch.
//
// # Models
//
//   - User: a phone-number account that can sign in and belong to groups
//   - Group: a shared wallet of members and the expense items they record
//   - Member: a phone number inside a group with a weight (family size) and
//     a manual balance adjustment
//   - Item: a recorded expense, split either by head count or by member weight
//   - BalanceAdjustment: one manual add/reduce of a member's balance
//
// # Design Principles
//
//  1. Members are identified by phone number, so people can be added to a group
//     before they register. Registration later links the account to its groups.
//  2. Settlement figures (credit, debt, balance) are derived on every read and
//     never stored.
//  3. Relationships use ID strings instead of pointers.
package models
