package credits

import (
	"greenledger-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Summary totals a profile's ledger in credits.
//
// Available counts completed purchases and Used completed uses, so Net is what can
// still be retired. Pending counts purchases awaiting payment; PendingUse is reported
// on its own and never reduces Net.
type Summary struct {
	Available  int64           `json:"available"`
	Used       int64           `json:"used"`
	Pending    int64           `json:"pending"`
	PendingUse int64           `json:"pending_use"`
	Net        int64           `json:"net"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

// Summarize is a pure function of the rows; order does not matter.
func Summarize(rows []domain.Credit) Summary {
	s := Summary{TotalSpent: decimal.Zero}
	for _, c := range rows {
		switch {
		case c.TransactionType == domain.CreditPurchase && c.Status == domain.CreditCompleted:
			s.Available += c.Quantity
			s.TotalSpent = s.TotalSpent.Add(c.TotalAmount)
		case c.TransactionType == domain.CreditPurchase && c.Status == domain.CreditPending:
			s.Pending += c.Quantity
		case c.TransactionType == domain.CreditUse && c.Status == domain.CreditCompleted:
			s.Used += c.Quantity
		case c.TransactionType == domain.CreditUse && c.Status == domain.CreditPending:
			s.PendingUse += c.Quantity
		}
	}
	s.Net = s.Available - s.Used
	return s
}
