package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/godutch/internal/models"
)

// roster holds the group figures every split formula needs for one subject.
type roster struct {
	heads         decimal.Decimal // number of members
	weight        decimal.Decimal // sum of member weights
	subjectWeight decimal.Decimal
	manual        decimal.Decimal // subject's manual balance
}

func newRoster(subject string, members []models.Member) (roster, error) {
	if len(members) == 0 {
		return roster{}, ErrDegenerateGroup
	}

	var total int64
	found := false
	var self models.Member
	for _, m := range members {
		total += int64(m.Num)
		if !found && m.Phonenumber == subject {
			self = m
			found = true
		}
	}
	if total <= 0 {
		return roster{}, fmt.Errorf("%w: total weight %d", ErrDegenerateGroup, total)
	}
	if !found {
		return roster{}, fmt.Errorf("%w: %s", ErrNotAMember, subject)
	}

	return roster{
		heads:         decimal.NewFromInt(int64(len(members))),
		weight:        decimal.NewFromInt(total),
		subjectWeight: decimal.NewFromInt(int64(self.Num)),
		manual:        decimal.NewFromFloat(self.Balance),
	}, nil
}

// subjectShare is the part of total the subject bears under policy.
//
// Head count: T/n. Member weight: (T/W)*w.
func (r roster) subjectShare(policy models.SplitPolicy, total decimal.Decimal) decimal.Decimal {
	if policy == models.ByHeadCount {
		return total.Div(r.heads)
	}
	return total.Div(r.weight).Mul(r.subjectWeight)
}

// othersShare is the part of total everyone except the subject bears.
//
// Head count: (T/n)*(n-1). Member weight: (T/W)*(W-w).
func (r roster) othersShare(policy models.SplitPolicy, total decimal.Decimal) decimal.Decimal {
	if policy == models.ByHeadCount {
		return total.Div(r.heads).Mul(r.heads.Sub(decimal.NewFromInt(1)))
	}
	return total.Div(r.weight).Mul(r.weight.Sub(r.subjectWeight))
}
