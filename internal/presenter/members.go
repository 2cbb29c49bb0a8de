package presenter

import "github.com/mmynk/splitledger/internal/models"

// MemberRef is a presented roster member.
type MemberRef struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// PresentMembers lists active members in roster order.
func PresentMembers(roster []models.Member) []MemberRef {
	out := make([]MemberRef, 0, len(roster))
	for _, m := range roster {
		if m.Active {
			out = append(out, MemberRef{Name: m.Name, ID: m.ID})
		}
	}
	return out
}
