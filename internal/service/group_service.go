package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/members"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/presenter"
	"github.com/mmynk/splitledger/internal/storage"
)

// GroupService answers read-only questions about the configured group.
type GroupService struct {
	ledger     storage.Ledger
	inviteCode string
}

// NewGroupService creates a GroupService for the group behind inviteCode.
func NewGroupService(ledger storage.Ledger, inviteCode string) *GroupService {
	return &GroupService{ledger: ledger, inviteCode: inviteCode}
}

// BalanceResult is the output of get-balance.
type BalanceResult struct {
	GroupName         string                    `json:"group_name"`
	Currency          string                    `json:"currency"`
	MemberBalances    []presenter.MemberBalance `json:"member_balances"`
	SuggestedPayments []presenter.Payment       `json:"suggested_payments"`
}

// MembersResult is the output of get-members.
type MembersResult struct {
	Members []presenter.MemberRef `json:"members"`
}

// lookupGroup resolves the configured invite code to a group ID.
func lookupGroup(ctx context.Context, ledger storage.Ledger, inviteCode string) (string, error) {
	groupID, err := ledger.LookupGroup(ctx, inviteCode)
	if err != nil {
		slog.Error("Group lookup failed", "error", err)
		return "", err
	}
	slog.Debug("Group resolved", "group_id", groupID)
	return groupID, nil
}

// GetBalance computes every active member's balance and the transfers that
// would settle the group.
func (s *GroupService) GetBalance(ctx context.Context) (*BalanceResult, error) {
	groupID, err := lookupGroup(ctx, s.ledger, s.inviteCode)
	if err != nil {
		return nil, err
	}

	var (
		info    *models.GroupInfo
		roster  []models.Member
		entries []models.Entry
		g       errgroup.Group
	)
	g.Go(func() (err error) {
		info, err = s.ledger.GetGroupInfo(ctx, groupID)
		return err
	})
	g.Go(func() (err error) {
		roster, err = s.ledger.ListMembers(ctx, groupID)
		return err
	})
	g.Go(func() (err error) {
		entries, err = s.ledger.ListEntries(ctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("GetBalance failed", "group_id", groupID, "error", err)
		return nil, err
	}

	active := members.Active(roster)
	names := models.NewNameLookup(active)

	balances := calculator.CalculateGroupBalances(active, entries, info)
	transfers := calculator.SuggestTransfers(balances)
	sheet := presenter.PresentBalances(balances, transfers, names)

	slog.Info("GetBalance successful",
		"group_id", groupID,
		"entries_count", len(entries),
		"members_count", len(sheet.MemberBalances),
		"payments_count", len(sheet.SuggestedPayments),
	)

	return &BalanceResult{
		GroupName:         info.Name,
		Currency:          info.DefaultCurrency,
		MemberBalances:    sheet.MemberBalances,
		SuggestedPayments: sheet.SuggestedPayments,
	}, nil
}

// GetMembers lists the active members of the group.
func (s *GroupService) GetMembers(ctx context.Context) (*MembersResult, error) {
	groupID, err := lookupGroup(ctx, s.ledger, s.inviteCode)
	if err != nil {
		return nil, err
	}

	roster, err := s.ledger.ListMembers(ctx, groupID)
	if err != nil {
		slog.Error("GetMembers failed", "group_id", groupID, "error", err)
		return nil, err
	}

	refs := presenter.PresentMembers(roster)
	slog.Info("GetMembers successful", "group_id", groupID, "count", len(refs))

	return &MembersResult{Members: refs}, nil
}
