package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/godutch/internal/models"
)

// settleThreshold ignores leftovers smaller than a cent when matching.
var settleThreshold = decimal.New(1, -2)

// MemberBalance is one member's settlement inside a group.
type MemberBalance struct {
	Phonenumber string
	Settlement
}

// Transfer is a suggested payment from one member to another.
type Transfer struct {
	From   string // member who owes
	To     string // member who is owed
	Amount decimal.Decimal
}

// GroupSettlement is the settled state of a whole group.
type GroupSettlement struct {
	// Members holds each member's figures under the requested rule, in
	// member order.
	Members []MemberBalance

	// Transfers clear the members' own-share positions. Those sum to the
	// manual balances only, so the transfers are the same for every rule.
	Transfers []Transfer

	// Unsettled is what the transfers leave open: the sum of the own-share
	// positions. It is zero unless manual balances fail to cancel out.
	Unsettled decimal.Decimal
}

// GroupBalances settles every member of the group and suggests the transfers
// that clear the positions.
//
// Algorithm:
//   - settle each member with rule (member order is preserved in the result)
//   - settle each member again with OwnShareDebt, since LiteralDebt figures
//     do not net to zero and cannot be cleared by transfers
//   - greedily match the largest debt with the largest credit of those
//     positions until one side runs out
func GroupBalances(items []models.Item, members []models.Member, rule DebtRule) (GroupSettlement, error) {
	if len(members) == 0 {
		return GroupSettlement{}, ErrDegenerateGroup
	}

	balances, err := settleAll(items, members, rule)
	if err != nil {
		return GroupSettlement{}, err
	}

	positions := balances
	if rule != OwnShareDebt {
		if positions, err = settleAll(items, members, OwnShareDebt); err != nil {
			return GroupSettlement{}, err
		}
	}

	unsettled := decimal.Zero
	for _, p := range positions {
		unsettled = unsettled.Add(p.Balance)
	}

	return GroupSettlement{
		Members:   balances,
		Transfers: SimplifyDebts(positions),
		Unsettled: unsettled,
	}, nil
}

func settleAll(items []models.Item, members []models.Member, rule DebtRule) ([]MemberBalance, error) {
	balances := make([]MemberBalance, 0, len(members))
	for _, m := range members {
		s, err := rule.Settle(m.Phonenumber, items, members)
		if err != nil {
			return nil, fmt.Errorf("failed to settle %s: %w", m.Phonenumber, err)
		}
		balances = append(balances, MemberBalance{Phonenumber: m.Phonenumber, Settlement: s})
	}
	return balances, nil
}

type position struct {
	phone  string
	amount decimal.Decimal // always positive
}

// SimplifyDebts matches debtors with creditors to minimize the number of
// transfers. The result is deterministic for a given input.
func SimplifyDebts(balances []MemberBalance) []Transfer {
	var debtors, creditors []position
	for _, b := range balances {
		switch b.Balance.Sign() {
		case -1:
			debtors = append(debtors, position{phone: b.Phonenumber, amount: b.Balance.Neg()})
		case 1:
			creditors = append(creditors, position{phone: b.Phonenumber, amount: b.Balance})
		}
	}
	sortPositions(debtors)
	sortPositions(creditors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := decimal.Min(debtor.amount, creditor.amount)
		if amount.GreaterThan(settleThreshold) {
			transfers = append(transfers, Transfer{From: debtor.phone, To: creditor.phone, Amount: amount})
		}

		debtor.amount = debtor.amount.Sub(amount)
		creditor.amount = creditor.amount.Sub(amount)

		if debtor.amount.LessThan(settleThreshold) {
			i++
		}
		if creditor.amount.LessThan(settleThreshold) {
			j++
		}
	}
	return transfers
}

// sortPositions orders by amount descending, then phone for stable output.
func sortPositions(ps []position) {
	sort.SliceStable(ps, func(a, b int) bool {
		if c := ps[a].amount.Cmp(ps[b].amount); c != 0 {
			return c > 0
		}
		return ps[a].phone < ps[b].phone
	})
}
