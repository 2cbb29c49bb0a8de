// Package storage defines the boundary to the remote ledger service.
package storage

import (
	"context"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
)

// Ledger defines the operations splitledger needs from the ledger service.
// This abstraction allows swapping the backend (Parse REST, in-memory)
// without changing the service layer.
type Ledger interface {
	// LookupGroup resolves an invite code to a group ID.
	LookupGroup(ctx context.Context, inviteCode string) (string, error)

	// ListMembers returns the full roster of a group, active and deleted,
	// in roster order.
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)

	// ListEntries returns every entry of a group, deleted ones included.
	ListEntries(ctx context.Context, groupID string) ([]models.Entry, error)

	// GetGroupInfo returns the group's name and currency settings.
	GetGroupInfo(ctx context.Context, groupID string) (*models.GroupInfo, error)

	// CreateExpense submits a new expense entry.
	CreateExpense(ctx context.Context, req *models.ExpenseRequest) error

	// CreatePayment submits a new payment entry.
	CreatePayment(ctx context.Context, req *models.PaymentRequest) error
}

// RemoteError is any failure reported by or on the way to the ledger
// service, including network and authentication failures.
type RemoteError struct {
	// Op names the ledger call that failed (e.g. "list members").
	Op string

	// Status is the HTTP status code, 0 when no response was received.
	Status int

	Err error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("ledger service: %s failed (status %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("ledger service: %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
