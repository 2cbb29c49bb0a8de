// Package members resolves user-supplied names against a group roster.
package members

import (
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
)

// MemberNotFoundError is returned when a name matches no active member.
// The message lists every active member so the caller can retry.
type MemberNotFoundError struct {
	Name      string
	Available []string
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("Member \"%s\" not found. Available members: %s", e.Name, strings.Join(e.Available, ", "))
}

// Active returns the active members in roster order.
func Active(roster []models.Member) []models.Member {
	active := make([]models.Member, 0, len(roster))
	for _, m := range roster {
		if m.Active {
			active = append(active, m)
		}
	}
	return active
}

// Resolve returns the first active member whose lower-cased name equals the
// lower-cased, trimmed name. Member names themselves are not trimmed.
func Resolve(roster []models.Member, name string) (models.Member, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, m := range roster {
		if m.Active && strings.ToLower(m.Name) == want {
			return m, nil
		}
	}

	available := make([]string, 0, len(roster))
	for _, m := range roster {
		if m.Active {
			available = append(available, m.Name)
		}
	}
	return models.Member{}, &MemberNotFoundError{Name: name, Available: available}
}

// ResolveList resolves every name in order. Duplicates are kept.
// A nil list selects all active members.
func ResolveList(roster []models.Member, names []string) ([]models.Member, error) {
	if names == nil {
		return Active(roster), nil
	}
	resolved := make([]models.Member, 0, len(names))
	for _, name := range names {
		m, err := Resolve(roster, name)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, m)
	}
	return resolved, nil
}

// IDs returns the IDs of members in order.
func IDs(members []models.Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}
