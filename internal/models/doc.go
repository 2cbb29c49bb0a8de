// Package models defines the domain models shared by splitledger's packages.
//
// # Models
//
//   - Member: a person in the group roster, identified by an opaque ID
//   - Entry: one ledger record, either an expense or a payment
//   - LineItem: a sub-component of an entry with its own amount and share weights
//   - GroupInfo: group name, default currency and exchange rates
//   - BalanceRecord: paid/owed/net totals for one member
//   - SuggestedTransfer: a payment that reduces outstanding balances
//
// All entities are owned by the remote ledger service. splitledger reads a
// snapshot per invocation and never persists anything itself.
//
// # Design Principles
//
//  1. Monetary values use decimal.Decimal, never float64
//  2. Relationships are expressed by member ID strings, not pointers
//  3. Orderings that reach the output (roster order, share-weight order,
//     balance order) are kept in slices, never in maps
package models
