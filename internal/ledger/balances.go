package ledger

import (
	"fmt"

	"github.com/mmynk/godutch/internal/calculator"
	"github.com/mmynk/godutch/internal/models"
)

// MemberBalance is one member's settlement in the group balance report.
type MemberBalance struct {
	Phonenumber string  `json:"phonenumber"`
	Credit      float64 `json:"credit"`
	Debt        float64 `json:"debt"`
	Balance     float64 `json:"balance"`
}

// Transfer is a suggested payment that clears part of the group's debts.
type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// BalanceReport lists every member's position under the configured debt
// rule and the transfers that clear the members' own shares. Unsettled is
// the part no transfer covers, left by manual balances that do not cancel out.
type BalanceReport struct {
	GroupID   string          `json:"groupId"`
	Members   []MemberBalance `json:"members"`
	Transfers []Transfer      `json:"transfers"`
	Unsettled float64         `json:"unsettled"`
}

// Balances settles every member of g.
func (f *Facade) Balances(g *models.Group) (*BalanceReport, error) {
	settled, err := calculator.GroupBalances(g.Items, g.Members, f.rule)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.ID, err)
	}
	balances, transfers := settled.Members, settled.Transfers

	report := &BalanceReport{
		GroupID:   g.ID,
		Members:   make([]MemberBalance, len(balances)),
		Transfers: make([]Transfer, len(transfers)),
		Unsettled: settled.Unsettled.Round(f.places).InexactFloat64(),
	}
	for i, b := range balances {
		report.Members[i] = MemberBalance{
			Phonenumber: b.Phonenumber,
			Credit:      b.Credit.Round(f.places).InexactFloat64(),
			Debt:        b.Debt.Round(f.places).InexactFloat64(),
			Balance:     b.Balance.Round(f.places).InexactFloat64(),
		}
	}
	for i, t := range transfers {
		report.Transfers[i] = Transfer{
			From:   t.From,
			To:     t.To,
			Amount: t.Amount.Round(f.places).InexactFloat64(),
		}
	}
	return report, nil
}
