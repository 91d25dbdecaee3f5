package ledger

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aesanjagral/caseledger/pkg/models"
)

// DateFormat is the dd/MM/yyyy layout used by payment and cheque dates.
const DateFormat = "02/01/2006"

// Status classifies a case's payment completeness. It is always derived
// from the payment list, never stored as an independent fact.
type Status string

const (
	StatusPending     Status = "Pending"
	StatusHalfPaid    Status = "Half Paid"
	StatusCompleted   Status = "Completed"
	StatusOverpayment Status = "Overpayment"
)

const MethodCheque = "Cheque"

// PaymentMethods lists the accepted payment methods. ValidateEntry rejects
// entries carrying any other method.
var PaymentMethods = []string{"Cash", "UPI", "NEFT", "RTGS", "IMPS", MethodCheque}

func validMethod(m string) bool {
	for _, method := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// ParseAmount converts a stored decimal string to a float64. Empty, blank
// and "-" values, and values that fail to parse, yield 0. This tolerance is
// a deliberate policy for legacy stored data; new input goes through
// ValidateEntry instead.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// TotalPaid sums the amounts of the given payment entries.
func TotalPaid(payments []models.PaymentEntry) float64 {
	total := 0.0
	for _, p := range payments {
		total += ParseAmount(p.AmountPaid)
	}
	return total
}

// ComputeStatus derives the payment status of a case from its final amount
// and payment list. Pure function; safe to call at any time.
func ComputeStatus(c *models.CaseRecord) Status {
	paid := TotalPaid(c.Payments)
	final := ParseAmount(c.FinalAmount)
	switch {
	case paid == 0:
		return StatusPending
	case paid < final:
		return StatusHalfPaid
	case paid > final:
		return StatusOverpayment
	default:
		return StatusCompleted
	}
}

// Remaining returns the balance still owed on a case. Negative when the
// case is overpaid.
func Remaining(c *models.CaseRecord) float64 {
	return ParseAmount(c.FinalAmount) - TotalPaid(c.Payments)
}

// Round2 rounds to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount renders an amount the way the data file stores it.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ValidateEntry checks a new or edited payment entry. Checks run in the
// same order the entry form did: amount presence, method against the
// accepted set, cheque fields when the method is Cheque, amount numeric
// and positive, date well formed and not in the future. The first failure
// wins; nothing is mutated.
func ValidateEntry(e models.PaymentEntry, now time.Time) error {
	amount := strings.TrimSpace(e.AmountPaid)
	if amount == "" {
		return models.ErrMissingAmount
	}

	if !validMethod(e.PaymentMethod) {
		return models.ErrInvalidMethod
	}

	if e.PaymentMethod == MethodCheque {
		if strings.TrimSpace(e.ChequeNo) == "" || strings.TrimSpace(e.ChequeDate) == "" {
			return models.ErrMissingChequeDetails
		}
	}

	v, err := strconv.ParseFloat(amount, 64)
	if err != nil || v <= 0 {
		return models.ErrInvalidAmount
	}

	if e.PaymentDate != "" {
		d, err := time.Parse(DateFormat, e.PaymentDate)
		if err != nil {
			return models.ErrInvalidDate
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if d.After(today) {
			return models.ErrFutureDatedPayment
		}
	}

	return nil
}

// Strategy selects how a distribution splits its total across cases.
type Strategy string

const (
	StrategyProportional Strategy = "proportional"
	StrategyEqual        Strategy = "equal"
	StrategyManual       Strategy = "manual"
)

// ParseStrategy maps a request parameter to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyProportional:
		return StrategyProportional, nil
	case StrategyEqual:
		return StrategyEqual, nil
	case StrategyManual:
		return StrategyManual, nil
	}
	return "", models.ErrUnknownStrategy
}

// Shares computes the per-case amounts for a distribution. remaining holds
// each selected case's outstanding balance, in selection order; manual is
// consulted only for StrategyManual and must line up with remaining.
//
// Proportional shares are weighted by outstanding balance (overpaid cases
// weigh zero) and rounded to cents, with the rounding residue folded into
// the last share so the total always adds back up. A selection with nothing
// outstanding cannot be split proportionally and is rejected. Manual shares
// must sum to the total within 0.01.
//
// No case is mutated here; callers apply the returned shares only when the
// whole computation succeeded.
func Shares(remaining []float64, total float64, strategy Strategy, manual []float64) ([]float64, error) {
	if len(remaining) == 0 {
		return nil, models.ErrNoCasesSelected
	}
	if total <= 0 {
		return nil, models.ErrInvalidAmount
	}

	switch strategy {
	case StrategyEqual:
		share := total / float64(len(remaining))
		shares := make([]float64, len(remaining))
		for i := range shares {
			shares[i] = share
		}
		return shares, nil

	case StrategyManual:
		if len(manual) != len(remaining) {
			return nil, models.ErrDistributionMismatch
		}
		sum := 0.0
		for _, m := range manual {
			sum += m
		}
		if math.Abs(sum-total) > 0.01 {
			return nil, models.ErrDistributionMismatch
		}
		shares := make([]float64, len(manual))
		copy(shares, manual)
		return shares, nil

	case StrategyProportional:
		basis := make([]float64, len(remaining))
		sumRemaining := 0.0
		for i, r := range remaining {
			if r > 0 {
				basis[i] = r
				sumRemaining += r
			}
		}
		if sumRemaining == 0 {
			return nil, models.ErrNothingRemaining
		}
		shares := make([]float64, len(remaining))
		distributed := 0.0
		for i, b := range basis {
			shares[i] = Round2(total * (b / sumRemaining))
			distributed += shares[i]
		}
		if residue := Round2(total - distributed); residue != 0 {
			// fold the rounding residue into the last weighted share
			for i := len(shares) - 1; i >= 0; i-- {
				if basis[i] > 0 {
					shares[i] = Round2(shares[i] + residue)
					break
				}
			}
		}
		return shares, nil
	}

	return nil, models.ErrUnknownStrategy
}
