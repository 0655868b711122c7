package models

// SplitPolicy decides how an item's cost is divided between members.
type SplitPolicy string

const (
	// ByHeadCount divides the cost evenly across all members regardless of weight.
	ByHeadCount SplitPolicy = "number-of-heads"
	// ByMemberWeight divides the cost proportionally to each member's weight.
	ByMemberWeight SplitPolicy = "number-of-members"
)

// Valid reports whether p is one of the known policies.
func (p SplitPolicy) Valid() bool {
	return p == ByHeadCount || p == ByMemberWeight
}

// Group is a shared expense group.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Trip to the north").
	Name string

	// Image is the stored filename of the group picture, if any.
	Image string

	// Key is the join code shared with members. It is never exposed in
	// group summaries.
	Key string

	// Wallet is the shared group balance.
	Wallet float64

	// Disabled marks a group that no longer accepts items.
	Disabled bool

	// Creator is the phone number of the member who created the group.
	Creator string

	// Members is ordered by join time and unique by phone number.
	Members []Member

	// Items is ordered by insertion time.
	Items []Item

	// Version is incremented on every write to the group.
	Version int64

	CreatedAt int64
	UpdatedAt int64
}

// Member is a phone number inside a group.
type Member struct {
	Phonenumber string

	// Num is the member weight (head count / family size), at least 1.
	Num int

	// Balance is the running manual adjustment. Zero when never adjusted.
	Balance float64
}

// Item is a recorded expense. Its total cost is Count * Unit.
type Item struct {
	ID      string
	Name    string
	Count   int
	Unit    float64
	Creator string
	Status  SplitPolicy

	CreatedAt int64
}

// Member returns the member with the given phone number.
func (g *Group) Member(phonenumber string) (Member, bool) {
	for _, m := range g.Members {
		if m.Phonenumber == phonenumber {
			return m, true
		}
	}
	return Member{}, false
}
