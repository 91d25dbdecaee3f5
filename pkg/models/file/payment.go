package file

import (
	"log"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/aesanjagral/caseledger/pkg/ledger"
	"github.com/aesanjagral/caseledger/pkg/models"
	"github.com/aesanjagral/caseledger/pkg/storage"
)

// PaymentModel maintains the payment lists of case records and keeps every
// touched case's payment status consistent before the store is written.
type PaymentModel struct {
	Store         *storage.Store
	PaymentLogger *log.Logger
}

func (m *PaymentModel) logf(format string, args ...interface{}) {
	if m.PaymentLogger != nil {
		m.PaymentLogger.Printf(format, args...)
	}
}

// sanitize brings an accepted entry into stored form: the amount is
// re-rendered with two decimals and cheque fields are blanked for
// non-cheque methods.
func sanitize(e models.PaymentEntry) models.PaymentEntry {
	e.AmountPaid = ledger.FormatAmount(ledger.ParseAmount(e.AmountPaid))
	if e.PaymentMethod != ledger.MethodCheque {
		e.ChequeNo = ""
		e.ChequeDate = ""
	}
	return e
}

// List returns the payment entries of a case in insertion order.
func (m *PaymentModel) List(fileNo string) ([]models.PaymentEntry, error) {
	cases, err := m.Store.Load()
	if err != nil {
		return nil, err
	}
	i := findCase(cases, fileNo)
	if i == -1 {
		return nil, models.ErrNoRecord
	}
	if cases[i].Payments == nil {
		return []models.PaymentEntry{}, nil
	}
	return cases[i].Payments, nil
}

// Add validates and appends a payment entry to a case. An entry that would
// push the total paid past the final amount is refused with ErrOverpayment
// unless the caller has confirmed; the entry is then appended anyway and
// the case lands in Overpayment status.
//
// When the case is linked to related cases by an earlier distribution, an
// independent copy of the entry, stamped with a fresh shared relationship
// id and marked as a related payment, is appended to each linked case as
// well. Copies are flat: deleting one later does not touch the others.
func (m *PaymentModel) Add(fileNo string, e models.PaymentEntry, confirmed bool) error {
	m.Store.Lock()
	defer m.Store.Unlock()

	cases, err := m.Store.Load()
	if err != nil {
		return err
	}
	i := findCase(cases, fileNo)
	if i == -1 {
		return models.ErrNoRecord
	}

	if err := ledger.ValidateEntry(e, time.Now()); err != nil {
		return err
	}
	e = sanitize(e)
	e.Status = "Completed"

	c := &cases[i]
	amount := ledger.ParseAmount(e.AmountPaid)
	if ledger.TotalPaid(c.Payments)+amount > ledger.ParseAmount(c.FinalAmount) && !confirmed {
		return models.ErrOverpayment
	}

	if len(c.RelatedCases) > 0 {
		e.RelationshipID = "rel_" + uuid.NewString()
		for _, related := range c.RelatedCases {
			j := findCase(cases, related)
			if j == -1 || j == i {
				continue
			}
			copied := e
			copied.RelatedPayment = true
			cases[j].Payments = append(cases[j].Payments, copied)
			cases[j].PaymentStatus = string(ledger.ComputeStatus(&cases[j]))
		}
	}

	c.Payments = append(c.Payments, e)
	c.PaymentStatus = string(ledger.ComputeStatus(c))

	if err := m.Store.Save(cases); err != nil {
		return err
	}

	m.logf("payment of %s via %s added to file %s (%s)",
		humanize.CommafWithDigits(amount, 2), e.PaymentMethod, c.FileNo, c.PaymentStatus)
	return nil
}

// Edit replaces the payment entry at index with the given fields after the
// same validation as Add. Provenance markers (relationship id, related and
// batch flags) survive the edit; the case's work status is never written.
func (m *PaymentModel) Edit(fileNo string, index int, e models.PaymentEntry) error {
	m.Store.Lock()
	defer m.Store.Unlock()

	cases, err := m.Store.Load()
	if err != nil {
		return err
	}
	i := findCase(cases, fileNo)
	if i == -1 {
		return models.ErrNoRecord
	}
	c := &cases[i]
	if index < 0 || index >= len(c.Payments) {
		return models.ErrPaymentNotFound
	}

	if err := ledger.ValidateEntry(e, time.Now()); err != nil {
		return err
	}
	e = sanitize(e)

	old := c.Payments[index]
	old.AmountPaid = e.AmountPaid
	old.PaymentDate = e.PaymentDate
	old.PaymentMethod = e.PaymentMethod
	old.Narration = e.Narration
	old.ChequeNo = e.ChequeNo
	old.ChequeDate = e.ChequeDate
	c.Payments[index] = old

	c.PaymentStatus = string(ledger.ComputeStatus(c))

	if err := m.Store.Save(cases); err != nil {
		return err
	}

	m.logf("payment %d of file %s modified to %s via %s (%s)",
		index, c.FileNo, old.AmountPaid, old.PaymentMethod, c.PaymentStatus)
	return nil
}

// Delete removes the payment entry at index. Copies propagated to related
// cases stay where they are.
func (m *PaymentModel) Delete(fileNo string, index int) error {
	m.Store.Lock()
	defer m.Store.Unlock()

	cases, err := m.Store.Load()
	if err != nil {
		return err
	}
	i := findCase(cases, fileNo)
	if i == -1 {
		return models.ErrNoRecord
	}
	c := &cases[i]
	if index < 0 || index >= len(c.Payments) {
		return models.ErrPaymentNotFound
	}

	removed := c.Payments[index]
	c.Payments = append(c.Payments[:index], c.Payments[index+1:]...)
	c.PaymentStatus = string(ledger.ComputeStatus(c))

	if err := m.Store.Save(cases); err != nil {
		return err
	}

	m.logf("payment of %s deleted from file %s (%s)",
		removed.AmountPaid, c.FileNo, c.PaymentStatus)
	return nil
}

// Distribute splits one incoming payment across the selected cases using
// the chosen strategy and appends each case's share as a new entry stamped
// with a shared relationship id and the batch marker. The operation is
// all-or-nothing: any
// validation failure returns before a single case is touched, and the store
// is written exactly once at the end. The selected cases are also linked to
// each other so later single-case payments propagate across the group.
func (m *PaymentModel) Distribute(fileNos []string, total float64, strategy ledger.Strategy, manual []float64, e models.PaymentEntry) (*models.Distribution, error) {
	m.Store.Lock()
	defer m.Store.Unlock()

	if len(fileNos) == 0 {
		return nil, models.ErrNoCasesSelected
	}

	cases, err := m.Store.Load()
	if err != nil {
		return nil, err
	}

	indexes := make([]int, len(fileNos))
	for n, fileNo := range fileNos {
		i := findCase(cases, fileNo)
		if i == -1 {
			return nil, models.ErrNoRecord
		}
		indexes[n] = i
	}

	probe := e
	probe.AmountPaid = ledger.FormatAmount(total)
	if err := ledger.ValidateEntry(probe, time.Now()); err != nil {
		return nil, err
	}

	remaining := make([]float64, len(indexes))
	for n, i := range indexes {
		remaining[n] = ledger.Remaining(&cases[i])
	}

	shares, err := ledger.Shares(remaining, total, strategy, manual)
	if err != nil {
		return nil, err
	}

	relationshipID := "rel_" + uuid.NewString()
	dist := &models.Distribution{RelationshipID: relationshipID}

	for n, i := range indexes {
		entry := sanitize(e)
		entry.AmountPaid = ledger.FormatAmount(shares[n])
		entry.Status = "Completed"
		entry.RelationshipID = relationshipID
		entry.BatchPayment = true

		c := &cases[i]
		c.Payments = append(c.Payments, entry)
		c.PaymentStatus = string(ledger.ComputeStatus(c))
		c.RelatedCases = linkRelated(c.RelatedCases, c.FileNo, fileNos)

		dist.Shares = append(dist.Shares, models.DistributionShare{
			FileNo: c.FileNo,
			Amount: shares[n],
		})
	}

	if err := m.Store.Save(cases); err != nil {
		return nil, err
	}

	m.logf("payment of %s distributed (%s) across %d files as %s",
		humanize.CommafWithDigits(total, 2), strategy, len(indexes), relationshipID)
	return dist, nil
}

// linkRelated merges the other selected file numbers into a case's related
// list, skipping itself and duplicates.
func linkRelated(existing []string, self string, selected []string) []string {
	for _, fileNo := range selected {
		if strings.EqualFold(fileNo, self) || containsFold(existing, fileNo) {
			continue
		}
		existing = append(existing, fileNo)
	}
	return existing
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
