package file

import (
	"github.com/dustin/go-humanize"

	"github.com/aesanjagral/caseledger/pkg/ledger"
	"github.com/aesanjagral/caseledger/pkg/models"
	"github.com/aesanjagral/caseledger/pkg/storage"
)

// ReportingModel derives dashboard figures from the case store.
type ReportingModel struct {
	Store *storage.Store
}

// Summary rolls the whole store up into per-status counts and amounts.
// Statuses are recomputed from the payment lists, never read as stored.
func (m *ReportingModel) Summary() (*models.DashboardSummary, error) {
	cases, err := m.Store.Load()
	if err != nil {
		return nil, err
	}

	s := &models.DashboardSummary{}
	for i := range cases {
		c := &cases[i]
		final := ledger.ParseAmount(c.FinalAmount)
		paid := ledger.TotalPaid(c.Payments)

		s.TotalAmount += final
		s.TotalPaid += paid

		switch ledger.ComputeStatus(c) {
		case ledger.StatusPending:
			s.Pending.Count++
			s.Pending.Amount += final
		case ledger.StatusHalfPaid:
			s.HalfPaid.Count++
			s.HalfPaid.Amount += final - paid
		case ledger.StatusCompleted:
			s.Completed.Count++
			s.Completed.Amount += final
		case ledger.StatusOverpayment:
			s.Overpayment.Count++
			s.Overpayment.Amount += paid - final
		}
	}
	s.TotalRemaining = s.TotalAmount - s.TotalPaid

	s.TotalAmountText = humanize.CommafWithDigits(s.TotalAmount, 2)
	s.TotalPaidText = humanize.CommafWithDigits(s.TotalPaid, 2)
	s.RemainingText = humanize.CommafWithDigits(s.TotalRemaining, 2)
	return s, nil
}
