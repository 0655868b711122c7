// Package calculator computes per-member credit, debt and balance for a
// group of shared expense items. Everything here is pure: no I/O, no
// shared state, inputs are never modified.
package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/godutch/internal/models"
)

var (
	// ErrNotAMember is returned when the subject is not in the member list.
	ErrNotAMember = errors.New("not a member of the group")
	// ErrDegenerateGroup is returned for groups with no members or no weight.
	ErrDegenerateGroup = errors.New("group has no members or zero total weight")
	// ErrInvalidItemReference is returned by ValidateItems when an item's
	// creator is not a member of the group.
	ErrInvalidItemReference = errors.New("item creator is not a member of the group")
)

// Settlement is one member's computed position in a group.
type Settlement struct {
	// Credit is what the member is owed back for items they paid for.
	Credit decimal.Decimal
	// Debt is what the member owes for items others paid for.
	Debt decimal.Decimal
	// Balance is Credit + manual balance - Debt.
	Balance decimal.Decimal
}

// DebtRule selects how the subject's debt on other members' items is computed.
type DebtRule int

const (
	// LiteralDebt charges the subject what the rest of the group bears of each
	// foreign item: (T/W)*(W-w) by weight, and (T/n)*n - 1 by head count.
	// The head-count form reproduces the historical arithmetic verbatim.
	LiteralDebt DebtRule = iota
	// OwnShareDebt charges the subject only its own share of each foreign
	// item: T*w/W by weight and T/n by head count. Balances sum to zero.
	OwnShareDebt
)

// String returns the configuration name of the rule.
func (r DebtRule) String() string {
	switch r {
	case LiteralDebt:
		return "literal"
	case OwnShareDebt:
		return "own-share"
	default:
		return fmt.Sprintf("DebtRule(%d)", int(r))
	}
}

// ParseDebtRule parses a configuration name. Empty means LiteralDebt.
func ParseDebtRule(s string) (DebtRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "literal":
		return LiteralDebt, nil
	case "own-share", "own_share", "ownshare":
		return OwnShareDebt, nil
	default:
		return 0, fmt.Errorf("unknown debt rule %q", s)
	}
}

// Settle computes the subject's settlement under LiteralDebt.
func Settle(subject string, items []models.Item, members []models.Member) (Settlement, error) {
	return LiteralDebt.Settle(subject, items, members)
}

// Settle computes credit, debt and balance for subject.
//
// Items whose creator is not a member are counted as debt for everyone;
// they are never dropped.
func (r DebtRule) Settle(subject string, items []models.Item, members []models.Member) (Settlement, error) {
	ros, err := newRoster(subject, members)
	if err != nil {
		return Settlement{}, err
	}

	credit := decimal.Zero
	debt := decimal.Zero
	for _, item := range items {
		total := itemTotal(item)
		if item.Creator == subject {
			credit = credit.Add(total.Sub(ros.subjectShare(item.Status, total)))
			continue
		}
		debt = debt.Add(r.debt(ros, item.Status, total))
	}

	return Settlement{
		Credit:  credit,
		Debt:    debt,
		Balance: credit.Add(ros.manual).Sub(debt),
	}, nil
}

func (r DebtRule) debt(ros roster, policy models.SplitPolicy, total decimal.Decimal) decimal.Decimal {
	switch r {
	case OwnShareDebt:
		return total.Sub(ros.othersShare(policy, total))
	default:
		if policy == models.ByHeadCount {
			// (T/n)*n - 1: the subtraction binds after the multiplication.
			return total.Div(ros.heads).Mul(ros.heads).Sub(decimal.NewFromInt(1))
		}
		return ros.othersShare(policy, total)
	}
}

// ValidateItems checks that every item's creator is a member.
func ValidateItems(items []models.Item, members []models.Member) error {
	known := make(map[string]struct{}, len(members))
	for _, m := range members {
		known[m.Phonenumber] = struct{}{}
	}
	for _, item := range items {
		if _, ok := known[item.Creator]; !ok {
			return fmt.Errorf("%w: item %q created by %s", ErrInvalidItemReference, item.Name, item.Creator)
		}
	}
	return nil
}

func itemTotal(item models.Item) decimal.Decimal {
	return decimal.NewFromFloat(item.Unit).Mul(decimal.NewFromInt(int64(item.Count)))
}
