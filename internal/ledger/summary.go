// Package ledger builds the per-subject group views returned to clients:
// group fields selected for display, the subject's settlement, and the
// group's items bucketed by name.
package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/godutch/internal/calculator"
	"github.com/mmynk/godutch/internal/models"
)

// ErrDuplicateGroup is returned when a subject's group list holds the same
// group ID more than once.
var ErrDuplicateGroup = errors.New("group listed more than once")

// GroupSummary is the client view of one group for one subject.
// The join key and version counter are deliberately absent.
type GroupSummary struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Image     string                `json:"image,omitempty"`
	Wallet    float64               `json:"wallet"`
	Disabled  bool                  `json:"disabled"`
	Creator   string                `json:"creator"`
	Members   []MemberView          `json:"members"`
	CreatedAt int64                 `json:"createdAt"`
	UpdatedAt int64                 `json:"updatedAt"`
	Credit    float64               `json:"credit"`
	Debt      float64               `json:"debt"`
	Balance   float64               `json:"balance"`
	Items     map[string][]ItemView `json:"items"`
}

// MemberView is a group member as shown to clients.
type MemberView struct {
	Phonenumber string  `json:"phonenumber"`
	Num         int     `json:"num"`
	Balance     float64 `json:"balance"`
}

// ItemView is a recorded item as shown to clients.
type ItemView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	Unit      float64 `json:"unit"`
	Creator   string  `json:"creator"`
	Status    string  `json:"status"`
	CreatedAt int64   `json:"createdAt"`
}

// IsEmpty reports whether s is the empty result of a lookup with no match.
func (s *GroupSummary) IsEmpty() bool {
	return s == nil || s.ID == ""
}

// Facade turns stored groups into summaries for a subject.
type Facade struct {
	rule calculator.DebtRule
	// places is the number of decimal places figures are rounded to.
	places int32
}

// NewFacade creates a facade that settles with rule and presents figures
// rounded to places decimals.
func NewFacade(rule calculator.DebtRule, places int32) *Facade {
	return &Facade{rule: rule, places: places}
}

// Summarize builds one summary per group, in input order.
func (f *Facade) Summarize(subject string, groups []*models.Group) ([]GroupSummary, error) {
	summaries := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		s, err := f.summarize(subject, g)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// SummarizeOne returns the summary for groupID among groups. No match yields
// an empty summary and no error; more than one match is ErrDuplicateGroup.
func (f *Facade) SummarizeOne(subject string, groups []*models.Group, groupID string) (*GroupSummary, error) {
	var match *models.Group
	for _, g := range groups {
		if g.ID != groupID {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGroup, groupID)
		}
		match = g
	}
	if match == nil {
		return &GroupSummary{}, nil
	}

	s, err := f.summarize(subject, match)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (f *Facade) summarize(subject string, g *models.Group) (GroupSummary, error) {
	settlement, err := f.rule.Settle(subject, g.Items, g.Members)
	if err != nil {
		return GroupSummary{}, fmt.Errorf("group %s: %w", g.ID, err)
	}

	members := make([]MemberView, len(g.Members))
	for i, m := range g.Members {
		members[i] = MemberView{Phonenumber: m.Phonenumber, Num: m.Num, Balance: m.Balance}
	}

	buckets := calculator.GroupByName(g.Items)
	items := make(map[string][]ItemView, len(buckets))
	for name, bucket := range buckets {
		views := make([]ItemView, len(bucket))
		for i, item := range bucket {
			views[i] = itemView(item)
		}
		items[name] = views
	}

	return GroupSummary{
		ID:        g.ID,
		Name:      g.Name,
		Image:     g.Image,
		Wallet:    g.Wallet,
		Disabled:  g.Disabled,
		Creator:   g.Creator,
		Members:   members,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
		Credit:    settlement.Credit.Round(f.places).InexactFloat64(),
		Debt:      settlement.Debt.Round(f.places).InexactFloat64(),
		Balance:   settlement.Balance.Round(f.places).InexactFloat64(),
		Items:     items,
	}, nil
}

func itemView(item models.Item) ItemView {
	return ItemView{
		ID:        item.ID,
		Name:      item.Name,
		Count:     item.Count,
		Unit:      item.Unit,
		Creator:   item.Creator,
		Status:    string(item.Status),
		CreatedAt: item.CreatedAt,
	}
}
