package file

import (
	"strings"

	"github.com/aesanjagral/caseledger/pkg/ledger"
	"github.com/aesanjagral/caseledger/pkg/models"
	"github.com/aesanjagral/caseledger/pkg/storage"
)

// CaseModel wraps case-level operations over the file store.
type CaseModel struct {
	Store *storage.Store
}

// normalize repairs derived and legacy fields after a load: unknown work
// statuses collapse to Pending and the payment status is recomputed from
// the payment list rather than trusted as stored.
func normalize(cases []models.CaseRecord) {
	for i := range cases {
		c := &cases[i]
		if c.WorkStatus != "Pending" && c.WorkStatus != "Approved" {
			c.WorkStatus = "Pending"
		}
		c.PaymentStatus = string(ledger.ComputeStatus(c))
	}
}

func findCase(cases []models.CaseRecord, fileNo string) int {
	for i := range cases {
		if strings.EqualFold(cases[i].FileNo, fileNo) {
			return i
		}
	}
	return -1
}

// Insert creates a new case record. File numbers are unique
// case-insensitively; the final amount is immutable after this point.
func (m *CaseModel) Insert(c models.CaseRecord) error {
	m.Store.Lock()
	defer m.Store.Unlock()

	cases, err := m.Store.Load()
	if err != nil {
		return err
	}

	if findCase(cases, c.FileNo) != -1 {
		return models.ErrDuplicateFileNo
	}

	if c.WorkStatus == "" {
		c.WorkStatus = "Pending"
	}
	if c.Payments == nil {
		c.Payments = []models.PaymentEntry{}
	}
	c.PaymentStatus = string(ledger.ComputeStatus(&c))

	cases = append(cases, c)
	return m.Store.Save(cases)
}

// All returns every case with derived fields normalized.
func (m *CaseModel) All() ([]models.CaseRecord, error) {
	cases, err := m.Store.Load()
	if err != nil {
		return nil, err
	}
	normalize(cases)
	return cases, nil
}

// Get returns the case with the given file number.
func (m *CaseModel) Get(fileNo string) (*models.CaseDetail, error) {
	cases, err := m.All()
	if err != nil {
		return nil, err
	}
	i := findCase(cases, fileNo)
	if i == -1 {
		return nil, models.ErrNoRecord
	}
	c := cases[i]
	return &models.CaseDetail{
		CaseRecord: c,
		TotalPaid:  ledger.TotalPaid(c.Payments),
		Remaining:  ledger.Remaining(&c),
	}, nil
}

// Search filters cases by free text, payment status, month and year.
// Month and year match the case date (dd/MM/yyyy); empty filters match all.
func (m *CaseModel) Search(search, status, month, year string) ([]models.CaseRecord, error) {
	cases, err := m.All()
	if err != nil {
		return nil, err
	}

	search = strings.ToLower(strings.TrimSpace(search))
	results := []models.CaseRecord{}
	for _, c := range cases {
		if status != "" && c.PaymentStatus != status {
			continue
		}
		if month != "" || year != "" {
			parts := strings.Split(c.Date, "/")
			if len(parts) != 3 {
				continue
			}
			if month != "" && parts[1] != month {
				continue
			}
			if year != "" && parts[2] != year {
				continue
			}
		}
		if search != "" && !matchesSearch(&c, search) {
			continue
		}
		results = append(results, c)
	}
	return results, nil
}

func matchesSearch(c *models.CaseRecord, search string) bool {
	fields := []string{c.FileNo, c.CustomerName, c.Village, c.MobileNumber}
	fields = append(fields, c.WorkTypes...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// Approve moves a case's work status from Pending to Approved. This is the
// only transition; payment operations never touch the work status.
func (m *CaseModel) Approve(fileNo string) error {
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
	if cases[i].WorkStatus == "Approved" {
		return models.ErrAlreadyApproved
	}
	cases[i].WorkStatus = "Approved"
	return m.Store.Save(cases)
}

// Related returns the case and every other case sharing its customer
// identity (same customer name, case-insensitively, or same mobile number).
// The case itself always leads the result.
func (m *CaseModel) Related(fileNo string) ([]models.CaseRecord, error) {
	cases, err := m.All()
	if err != nil {
		return nil, err
	}
	i := findCase(cases, fileNo)
	if i == -1 {
		return nil, models.ErrNoRecord
	}

	current := cases[i]
	name := strings.ToLower(strings.TrimSpace(current.CustomerName))
	mobile := strings.TrimSpace(current.MobileNumber)

	related := []models.CaseRecord{current}
	for j := range cases {
		if j == i {
			continue
		}
		cName := strings.ToLower(strings.TrimSpace(cases[j].CustomerName))
		cMobile := strings.TrimSpace(cases[j].MobileNumber)
		if (name != "" && cName == name) || (mobile != "" && cMobile == mobile) {
			related = append(related, cases[j])
		}
	}
	return related, nil
}

// Settlements lists the cases eligible for the payment-done queue: payment
// completed and work approved.
func (m *CaseModel) Settlements() ([]models.CaseRecord, error) {
	cases, err := m.All()
	if err != nil {
		return nil, err
	}
	results := []models.CaseRecord{}
	for _, c := range cases {
		if c.PaymentStatus == string(ledger.StatusCompleted) && c.WorkStatus == "Approved" {
			results = append(results, c)
		}
	}
	return results, nil
}

// MarkPaymentDone settles a case's payment approval marker.
func (m *CaseModel) MarkPaymentDone(fileNo string) error {
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
	if strings.EqualFold(cases[i].PaymentApproval, "done") {
		return models.ErrAlreadyDone
	}
	cases[i].PaymentApproval = "done"
	return m.Store.Save(cases)
}
