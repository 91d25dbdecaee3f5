package models

import "errors"

var ErrNoRecord = errors.New("models: no matching record found")

var ErrDuplicateFileNo = errors.New("models: file number already exists")

// Payment entry validation failures. These are always raised before any
// mutation takes place.
var (
	ErrMissingAmount        = errors.New("models: amount paid is required")
	ErrInvalidAmount        = errors.New("models: amount paid must be a positive number")
	ErrInvalidMethod        = errors.New("models: unknown payment method")
	ErrMissingChequeDetails = errors.New("models: cheque number and cheque date are required for cheque payments")
	ErrFutureDatedPayment   = errors.New("models: payment date cannot be in the future")
	ErrInvalidDate          = errors.New("models: payment date is not a valid dd/MM/yyyy date")
)

// ErrOverpayment signals that a payment would push the total paid beyond the
// final amount. It is advisory: callers resubmit with explicit confirmation
// to proceed.
var ErrOverpayment = errors.New("models: payment exceeds the final amount; confirmation required")

var ErrPaymentNotFound = errors.New("models: no payment at the given index")

// Distribution failures. Nothing is mutated when one of these is returned.
var (
	ErrNoCasesSelected      = errors.New("models: at least one case must be selected")
	ErrDistributionMismatch = errors.New("models: the sum of distributed amounts must equal the total payment amount")
	ErrNothingRemaining     = errors.New("models: all selected cases are fully paid; proportional distribution is undefined")
	ErrUnknownStrategy      = errors.New("models: unknown distribution strategy")
)

var (
	ErrAlreadyApproved = errors.New("models: work is already approved")
	ErrAlreadyDone     = errors.New("models: payment is already marked as done")
)

// PaymentEntry is one recorded transaction against a case's final amount.
// JSON tags preserve the keys of the legacy data file so existing stores
// load unchanged.
type PaymentEntry struct {
	AmountPaid     string `json:"Amount Paid"`
	PaymentDate    string `json:"Payment Date"`
	PaymentMethod  string `json:"Payment Method"`
	Narration      string `json:"Narration,omitempty"`
	ChequeNo       string `json:"Cheque No."`
	ChequeDate     string `json:"Cheque Date"`
	Status         string `json:"Status,omitempty"`
	RelationshipID string `json:"Relationship ID,omitempty"`
	RelatedPayment bool   `json:"Related Payment,omitempty"`
	BatchPayment   bool   `json:"Batch Payment,omitempty"`
}

// CaseRecord is one unit of work/customer engagement, keyed by File No.
type CaseRecord struct {
	FileNo          string         `json:"File No."`
	Date            string         `json:"Date,omitempty"`
	CustomerName    string         `json:"Customer Name"`
	MobileNumber    string         `json:"Mobile Number,omitempty"`
	WorkTypes       []string       `json:"Work Types,omitempty"`
	Village         string         `json:"Village,omitempty"`
	RSBlockNo       string         `json:"R.S.No./ Block No.,omitempty"`
	NewNo           string         `json:"New No.,omitempty"`
	OldNo           string         `json:"Old No.,omitempty"`
	PlotNo          string         `json:"Plot No.,omitempty"`
	FinalAmount     string         `json:"Final Amount"`
	Payments        []PaymentEntry `json:"Payments"`
	PaymentStatus   string         `json:"Payment Status,omitempty"`
	WorkStatus      string         `json:"Work Status,omitempty"`
	PaymentApproval string         `json:"Payment Prrovel status,omitempty"` // legacy key, kept for data file compatibility
	RelatedCases    []string       `json:"related_cases,omitempty"`
}

// CaseDetail is a case record together with its derived ledger figures.
type CaseDetail struct {
	CaseRecord
	TotalPaid float64 `json:"total_paid"`
	Remaining float64 `json:"remaining"`
}

// DistributionShare is the amount allotted to one case by a distribution.
type DistributionShare struct {
	FileNo string  `json:"file_no"`
	Amount float64 `json:"amount"`
}

// Distribution reports how a single incoming payment was split across the
// selected cases. All shares carry the same relationship id.
type Distribution struct {
	RelationshipID string              `json:"relationship_id"`
	Shares         []DistributionShare `json:"shares"`
}

// Activity is one entry of the append-only activity log.
type Activity struct {
	Datetime string `json:"datetime"`
	Module   string `json:"module"`
	Action   string `json:"action"`
	Details  string `json:"details"`
}

// StatusSummary aggregates the cases in one payment status.
type StatusSummary struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// DashboardSummary is the per-status rollup shown on the dashboard.
type DashboardSummary struct {
	Pending         StatusSummary `json:"pending"`
	HalfPaid        StatusSummary `json:"half_paid"`
	Completed       StatusSummary `json:"completed"`
	Overpayment     StatusSummary `json:"overpayment"`
	TotalAmount     float64       `json:"total_amount"`
	TotalPaid       float64       `json:"total_paid"`
	TotalRemaining  float64       `json:"total_remaining"`
	TotalAmountText string        `json:"total_amount_text"`
	TotalPaidText   string        `json:"total_paid_text"`
	RemainingText   string        `json:"remaining_text"`
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type UserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}
