package models

// Member is a person in the group roster.
type Member struct {
	// ID is the opaque identifier assigned by the ledger service (GlobalId).
	ID string

	// Name is the display label. It may change and is not guaranteed to be
	// unique, even ignoring case.
	Name string

	// Active is false for members that were removed from the group.
	Active bool
}

// NameLookup maps member IDs to display names.
// It is built fresh for every invocation and passed explicitly.
type NameLookup map[string]string

// NewNameLookup builds a lookup over the given members.
func NewNameLookup(members []Member) NameLookup {
	lookup := make(NameLookup, len(members))
	for _, m := range members {
		lookup[m.ID] = m.Name
	}
	return lookup
}

// Name returns the display name for id, or id itself when it is unknown.
func (l NameLookup) Name(id string) string {
	if name, ok := l[id]; ok && name != "" {
		return name
	}
	return id
}
