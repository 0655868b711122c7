package calculator

import (
	"errors"
	"reflect"
	"testing"

	"github.com/matryer/is"
	"github.com/shopspring/decimal"

	"github.com/mmynk/godutch/internal/models"
)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// near reports whether a and b differ by less than 1e-9.
func near(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(decimal.New(1, -9))
}

func familyMembers() []models.Member {
	return []models.Member{
		{Phonenumber: "A", Num: 2},
		{Phonenumber: "B", Num: 1},
	}
}

func rice(status models.SplitPolicy) []models.Item {
	return []models.Item{{Name: "rice", Count: 1, Unit: 300, Creator: "A", Status: status}}
}

func TestSettle_ByMemberWeight(t *testing.T) {
	tests := []struct {
		name    string
		rule    DebtRule
		subject string
		want    Settlement
	}{
		{
			name:    "creator is credited everything but its weighted share",
			rule:    LiteralDebt,
			subject: "A",
			// share-to-self = (300/3)*2 = 200, credit = 100
			want: Settlement{Credit: dec(100), Debt: dec(0), Balance: dec(100)},
		},
		{
			name:    "literal debt is what the rest of the group bears",
			rule:    LiteralDebt,
			subject: "B",
			// (300/3)*(3-1) = 200
			want: Settlement{Credit: dec(0), Debt: dec(200), Balance: dec(-200)},
		},
		{
			name:    "own-share creator side matches literal",
			rule:    OwnShareDebt,
			subject: "A",
			want:    Settlement{Credit: dec(100), Debt: dec(0), Balance: dec(100)},
		},
		{
			name:    "own-share debt is the subject's weighted share",
			rule:    OwnShareDebt,
			subject: "B",
			// 300 - (300/3)*(3-1) = 100
			want: Settlement{Credit: dec(0), Debt: dec(100), Balance: dec(-100)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.rule.Settle(tt.subject, rice(models.ByMemberWeight), familyMembers())
			if err != nil {
				t.Fatalf("Settle() error = %v", err)
			}
			if !near(got.Credit, tt.want.Credit) {
				t.Errorf("credit = %s, want %s", got.Credit, tt.want.Credit)
			}
			if !near(got.Debt, tt.want.Debt) {
				t.Errorf("debt = %s, want %s", got.Debt, tt.want.Debt)
			}
			if !near(got.Balance, tt.want.Balance) {
				t.Errorf("balance = %s, want %s", got.Balance, tt.want.Balance)
			}
		})
	}
}

func TestSettle_ByHeadCount(t *testing.T) {
	is := is.New(t)
	items := rice(models.ByHeadCount)
	members := familyMembers()

	a, err := Settle("A", items, members)
	is.NoErr(err)
	is.True(near(a.Credit, dec(150))) // 300 - 300/2

	// Own-share: the two sides of a two-member group mirror each other.
	b, err := OwnShareDebt.Settle("B", items, members)
	is.NoErr(err)
	is.True(near(b.Debt, dec(150)))
	is.True(near(a.Credit, b.Debt))

	// Literal: (300/2)*2 - 1 = 299, which does not mirror the creator's credit.
	lit, err := LiteralDebt.Settle("B", items, members)
	is.NoErr(err)
	is.True(near(lit.Debt, dec(299)))
	is.True(!near(a.Credit, lit.Debt))
}

func TestSettle_ManualBalance(t *testing.T) {
	is := is.New(t)
	members := []models.Member{
		{Phonenumber: "A", Num: 1, Balance: 50},
		{Phonenumber: "B", Num: 1},
	}

	got, err := Settle("A", nil, members)
	is.NoErr(err)
	is.True(got.Credit.IsZero())
	is.True(got.Debt.IsZero())
	is.True(near(got.Balance, dec(50)))
}

func TestSettle_Errors(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		members []models.Member
		wantErr error
	}{
		{
			name:    "subject not in members",
			subject: "Z",
			members: familyMembers(),
			wantErr: ErrNotAMember,
		},
		{
			name:    "no members",
			subject: "A",
			members: nil,
			wantErr: ErrDegenerateGroup,
		},
		{
			name:    "zero total weight",
			subject: "A",
			members: []models.Member{{Phonenumber: "A", Num: 0}, {Phonenumber: "B", Num: 0}},
			wantErr: ErrDegenerateGroup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, rule := range []DebtRule{LiteralDebt, OwnShareDebt} {
				_, err := rule.Settle(tt.subject, rice(models.ByMemberWeight), tt.members)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("%s: error = %v, want %v", rule, err, tt.wantErr)
				}
			}
		})
	}
}

func TestSettle_ForeignCreatorCountsAsDebt(t *testing.T) {
	is := is.New(t)
	items := []models.Item{{Name: "gas", Count: 1, Unit: 90, Creator: "ghost", Status: models.ByMemberWeight}}

	lit, err := LiteralDebt.Settle("A", items, familyMembers())
	is.NoErr(err)
	is.True(near(lit.Debt, dec(30))) // (90/3)*(3-2)

	own, err := OwnShareDebt.Settle("A", items, familyMembers())
	is.NoErr(err)
	is.True(near(own.Debt, dec(60))) // 90*2/3

	is.True(errors.Is(ValidateItems(items, familyMembers()), ErrInvalidItemReference))
	is.NoErr(ValidateItems(rice(models.ByHeadCount), familyMembers()))
}

func TestSettle_UnknownStatusUsesMemberWeight(t *testing.T) {
	is := is.New(t)

	weighted, err := Settle("A", rice(models.ByMemberWeight), familyMembers())
	is.NoErr(err)
	unknown, err := Settle("A", rice(""), familyMembers())
	is.NoErr(err)
	is.True(weighted.Credit.Equal(unknown.Credit))
}

func TestSettle_OwnShareIsZeroSum(t *testing.T) {
	members := []models.Member{
		{Phonenumber: "A", Num: 1},
		{Phonenumber: "B", Num: 2},
		{Phonenumber: "C", Num: 4},
	}
	items := []models.Item{
		{Name: "bread", Count: 1, Unit: 70, Creator: "A", Status: models.ByMemberWeight},
		{Name: "fuel", Count: 3, Unit: 3.5, Creator: "B", Status: models.ByHeadCount},
		{Name: "room", Count: 1, Unit: 100, Creator: "C", Status: models.ByMemberWeight},
		{Name: "bread", Count: 2, Unit: 12.25, Creator: "C", Status: models.ByHeadCount},
	}

	sum := func(rule DebtRule) decimal.Decimal {
		total := decimal.Zero
		for _, m := range members {
			s, err := rule.Settle(m.Phonenumber, items, members)
			if err != nil {
				t.Fatalf("Settle(%s) error = %v", m.Phonenumber, err)
			}
			total = total.Add(s.Balance)
		}
		return total
	}

	if got := sum(OwnShareDebt); !near(got, decimal.Zero) {
		t.Errorf("own-share balances sum = %s, want 0", got)
	}
	// The literal rule charges each subject the others' part and is not zero-sum.
	if got := sum(LiteralDebt); near(got, decimal.Zero) {
		t.Errorf("literal balances sum = %s, expected divergence from 0", got)
	}
}

func TestSettle_DoesNotMutateInputs(t *testing.T) {
	members := familyMembers()
	items := append(rice(models.ByHeadCount), rice(models.ByMemberWeight)...)
	membersCopy := append([]models.Member(nil), members...)
	itemsCopy := append([]models.Item(nil), items...)

	first, err := Settle("B", items, members)
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	second, err := Settle("B", items, members)
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	if !reflect.DeepEqual(members, membersCopy) || !reflect.DeepEqual(items, itemsCopy) {
		t.Error("Settle modified its inputs")
	}
	if !first.Balance.Equal(second.Balance) {
		t.Errorf("Settle is not deterministic: %s vs %s", first.Balance, second.Balance)
	}
}

func TestParseDebtRule(t *testing.T) {
	tests := []struct {
		in      string
		want    DebtRule
		wantErr bool
	}{
		{in: "", want: LiteralDebt},
		{in: "literal", want: LiteralDebt},
		{in: "Own-Share", want: OwnShareDebt},
		{in: "own_share", want: OwnShareDebt},
		{in: "fair", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDebtRule(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDebtRule(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDebtRule(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
