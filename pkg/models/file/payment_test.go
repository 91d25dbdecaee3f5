package file

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/aesanjagral/caseledger/pkg/ledger"
	"github.com/aesanjagral/caseledger/pkg/models"
	"github.com/aesanjagral/caseledger/pkg/storage"
)

func testModels(t *testing.T) (*CaseModel, *PaymentModel, *storage.Store) {
	t.Helper()
	store := storage.New(filepath.Join(t.TempDir(), "data.json"))
	return &CaseModel{Store: store}, &PaymentModel{Store: store}, store
}

func mustInsert(t *testing.T, cm *CaseModel, c models.CaseRecord) {
	t.Helper()
	if err := cm.Insert(c); err != nil {
		t.Fatalf("insert %s: %v", c.FileNo, err)
	}
}

func cashEntry(amount string) models.PaymentEntry {
	return models.PaymentEntry{AmountPaid: amount, PaymentDate: "15/01/2024", PaymentMethod: "Cash"}
}

func statusOf(t *testing.T, cm *CaseModel, fileNo string) string {
	t.Helper()
	d, err := cm.Get(fileNo)
	if err != nil {
		t.Fatalf("get %s: %v", fileNo, err)
	}
	return d.PaymentStatus
}

func TestAddPaymentLifecycle(t *testing.T) {
	cm, pm, _ := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", CustomerName: "Ramesh Patel", FinalAmount: "1000.00"})

	if got := statusOf(t, cm, "SRV-001"); got != "Pending" {
		t.Fatalf("new case status = %q, want Pending", got)
	}

	if err := pm.Add("SRV-001", cashEntry("400.00"), false); err != nil {
		t.Fatal(err)
	}
	if got := statusOf(t, cm, "SRV-001"); got != "Half Paid" {
		t.Fatalf("after 400: status = %q, want Half Paid", got)
	}

	if err := pm.Add("SRV-001", cashEntry("600.00"), false); err != nil {
		t.Fatal(err)
	}
	if got := statusOf(t, cm, "SRV-001"); got != "Completed" {
		t.Fatalf("after 1000: status = %q, want Completed", got)
	}
}

func TestAddPaymentOverpaymentGate(t *testing.T) {
	cm, pm, _ := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "1000.00"})
	if err := pm.Add("SRV-001", cashEntry("1000.00"), false); err != nil {
		t.Fatal(err)
	}

	err := pm.Add("SRV-001", cashEntry("50.00"), false)
	if !errors.Is(err, models.ErrOverpayment) {
		t.Fatalf("unconfirmed overpayment: got %v, want ErrOverpayment", err)
	}
	payments, err := pm.List("SRV-001")
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 {
		t.Fatalf("refused entry was stored: %d payments", len(payments))
	}

	if err := pm.Add("SRV-001", cashEntry("50.00"), true); err != nil {
		t.Fatalf("confirmed overpayment refused: %v", err)
	}
	if got := statusOf(t, cm, "SRV-001"); got != "Overpayment" {
		t.Fatalf("status = %q, want Overpayment", got)
	}
}

func TestAddPaymentValidation(t *testing.T) {
	cm, pm, _ := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "1000.00"})

	e := cashEntry("400.00")
	e.PaymentMethod = ledger.MethodCheque
	if err := pm.Add("SRV-001", e, false); !errors.Is(err, models.ErrMissingChequeDetails) {
		t.Errorf("cheque without details: got %v", err)
	}

	if err := pm.Add("SRV-001", cashEntry("-5"), false); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("negative amount: got %v", err)
	}

	e = cashEntry("400.00")
	e.PaymentMethod = "Barter"
	if err := pm.Add("SRV-001", e, false); !errors.Is(err, models.ErrInvalidMethod) {
		t.Errorf("unknown method: got %v", err)
	}

	if err := pm.Add("SRV-404", cashEntry("400.00"), false); !errors.Is(err, models.ErrNoRecord) {
		t.Errorf("unknown case: got %v", err)
	}

	payments, err := pm.List("SRV-001")
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 0 {
		t.Fatalf("rejected entries were stored: %d payments", len(payments))
	}
}

func TestAddPaymentSanitizes(t *testing.T) {
	cm, pm, _ := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "1000.00"})

	e := cashEntry("400.5")
	e.ChequeNo = "123456"
	e.ChequeDate = "15/01/2024"
	if err := pm.Add("SRV-001", e, false); err != nil {
		t.Fatal(err)
	}

	payments, _ := pm.List("SRV-001")
	got := payments[0]
	if got.AmountPaid != "400.50" {
		t.Errorf("amount = %q, want \"400.50\"", got.AmountPaid)
	}
	if got.ChequeNo != "" || got.ChequeDate != "" {
		t.Errorf("cheque fields kept for cash payment: %q %q", got.ChequeNo, got.ChequeDate)
	}
	if got.Status != "Completed" {
		t.Errorf("entry status = %q, want Completed", got.Status)
	}
}

func TestAddPaymentPropagatesToRelated(t *testing.T) {
	cm, pm, _ := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "1000.00",
		RelatedCases: []string{"SRV-002"}})
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-002", FinalAmount: "2000.00"})

	if err := pm.Add("SRV-001", cashEntry("400.00"), false); err != nil {
		t.Fatal(err)
	}

	p1, _ := pm.List("SRV-001")
	p2, _ := pm.List("SRV-002")
	if len(p1) != 1 || len(p2) != 1 {
		t.Fatalf("payments per case = %d, %d; want 1, 1", len(p1), len(p2))
	}
	if p1[0].RelationshipID == "" || p1[0].RelationshipID != p2[0].RelationshipID {
		t.Fatalf("relationship ids differ: %q vs %q", p1[0].RelationshipID, p2[0].RelationshipID)
	}
	if p1[0].RelatedPayment {
		t.Error("origin entry marked as a related payment")
	}
	if !p2[0].RelatedPayment {
		t.Error("propagated copy not marked as a related payment")
	}
	if got := statusOf(t, cm, "SRV-002"); got != "Half Paid" {
		t.Fatalf("related case status = %q, want Half Paid", got)
	}

	// copies are flat: deleting one leaves the other untouched
	if err := pm.Delete("SRV-001", 0); err != nil {
		t.Fatal(err)
	}
	p2, _ = pm.List("SRV-002")
	if len(p2) != 1 {
		t.Fatalf("delete removed the related copy too: %d payments", len(p2))
	}
}

func TestEditPayment(t *testing.T) {
	cm, pm, _ := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "1000.00"})
	if err := pm.Add("SRV-001", cashEntry("400.00"), false); err != nil {
		t.Fatal(err)
	}

	if err := pm.Edit("SRV-001", 0, cashEntry("1000.00")); err != nil {
		t.Fatal(err)
	}
	if got := statusOf(t, cm, "SRV-001"); got != "Completed" {
		t.Fatalf("status after edit = %q, want Completed", got)
	}

	if err := pm.Edit("SRV-001", 5, cashEntry("100.00")); !errors.Is(err, models.ErrPaymentNotFound) {
		t.Errorf("out of range index: got %v", err)
	}
	if err := pm.Edit("SRV-001", 0, cashEntry("abc")); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("invalid replacement: got %v", err)
	}
	payments, _ := pm.List("SRV-001")
	if payments[0].AmountPaid != "1000.00" {
		t.Fatalf("failed edit changed the entry: %q", payments[0].AmountPaid)
	}
}

func TestEditPaymentKeepsProvenance(t *testing.T) {
	cm, pm, store := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "1000.00"})

	cases, _ := store.Load()
	cases[0].Payments = append(cases[0].Payments, models.PaymentEntry{
		AmountPaid: "400.00", PaymentDate: "15/01/2024", PaymentMethod: "Cash",
		RelationshipID: "rel_abc", RelatedPayment: true,
	})
	if err := store.Save(cases); err != nil {
		t.Fatal(err)
	}

	if err := pm.Edit("SRV-001", 0, cashEntry("500.00")); err != nil {
		t.Fatal(err)
	}
	payments, _ := pm.List("SRV-001")
	if payments[0].RelationshipID != "rel_abc" || !payments[0].RelatedPayment {
		t.Fatalf("provenance fields lost: %+v", payments[0])
	}
}

func TestDeletePayment(t *testing.T) {
	cm, pm, _ := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "1000.00"})
	if err := pm.Add("SRV-001", cashEntry("1000.00"), false); err != nil {
		t.Fatal(err)
	}

	if err := pm.Delete("SRV-001", 0); err != nil {
		t.Fatal(err)
	}
	if got := statusOf(t, cm, "SRV-001"); got != "Pending" {
		t.Fatalf("status after deleting only payment = %q, want Pending", got)
	}

	if err := pm.Delete("SRV-001", 0); !errors.Is(err, models.ErrPaymentNotFound) {
		t.Errorf("empty list: got %v, want ErrPaymentNotFound", err)
	}
}

func TestPaymentOpsNeverTouchWorkStatus(t *testing.T) {
	cm, pm, _ := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "1000.00"})
	if err := cm.Approve("SRV-001"); err != nil {
		t.Fatal(err)
	}

	if err := pm.Add("SRV-001", cashEntry("400.00"), false); err != nil {
		t.Fatal(err)
	}
	if err := pm.Edit("SRV-001", 0, cashEntry("500.00")); err != nil {
		t.Fatal(err)
	}
	if err := pm.Delete("SRV-001", 0); err != nil {
		t.Fatal(err)
	}

	d, err := cm.Get("SRV-001")
	if err != nil {
		t.Fatal(err)
	}
	if d.WorkStatus != "Approved" {
		t.Fatalf("work status = %q after payment ops, want Approved", d.WorkStatus)
	}
}

func TestDistributeProportional(t *testing.T) {
	cm, pm, _ := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "600.00"})
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-002", FinalAmount: "300.00"})
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-003", FinalAmount: "100.00"})

	dist, err := pm.Distribute([]string{"SRV-001", "SRV-002", "SRV-003"}, 500,
		ledger.StrategyProportional, nil, cashEntry(""))
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]float64{"SRV-001": 300, "SRV-002": 150, "SRV-003": 50}
	for _, share := range dist.Shares {
		if share.Amount != want[share.FileNo] {
			t.Errorf("%s share = %v, want %v", share.FileNo, share.Amount, want[share.FileNo])
		}
	}

	for _, fileNo := range []string{"SRV-001", "SRV-002", "SRV-003"} {
		payments, err := pm.List(fileNo)
		if err != nil {
			t.Fatal(err)
		}
		if len(payments) != 1 {
			t.Fatalf("%s: %d payments, want 1", fileNo, len(payments))
		}
		p := payments[0]
		if p.RelationshipID != dist.RelationshipID {
			t.Errorf("%s: relationship id %q, want %q", fileNo, p.RelationshipID, dist.RelationshipID)
		}
		if !p.BatchPayment {
			t.Errorf("%s: entry not marked as batch payment", fileNo)
		}
	}
}

func TestDistributeLinksCases(t *testing.T) {
	cm, pm, store := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "600.00"})
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-002", FinalAmount: "300.00"})

	_, err := pm.Distribute([]string{"SRV-001", "SRV-002"}, 300, ledger.StrategyEqual, nil, cashEntry(""))
	if err != nil {
		t.Fatal(err)
	}

	cases, _ := store.Load()
	if !containsFold(cases[0].RelatedCases, "SRV-002") {
		t.Errorf("SRV-001 not linked to SRV-002: %v", cases[0].RelatedCases)
	}
	if !containsFold(cases[1].RelatedCases, "SRV-001") {
		t.Errorf("SRV-002 not linked to SRV-001: %v", cases[1].RelatedCases)
	}
	if containsFold(cases[0].RelatedCases, "SRV-001") {
		t.Errorf("SRV-001 linked to itself: %v", cases[0].RelatedCases)
	}
}

func TestDistributeAtomicOnMismatch(t *testing.T) {
	cm, pm, store := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "600.00"})
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-002", FinalAmount: "300.00"})

	before, _ := store.Load()

	_, err := pm.Distribute([]string{"SRV-001", "SRV-002"}, 400,
		ledger.StrategyManual, []float64{100, 100}, cashEntry(""))
	if !errors.Is(err, models.ErrDistributionMismatch) {
		t.Fatalf("got %v, want ErrDistributionMismatch", err)
	}

	after, _ := store.Load()
	for i := range before {
		if len(after[i].Payments) != len(before[i].Payments) {
			t.Fatalf("%s gained payments on a failed distribution", after[i].FileNo)
		}
		if len(after[i].RelatedCases) != len(before[i].RelatedCases) {
			t.Fatalf("%s gained links on a failed distribution", after[i].FileNo)
		}
	}
}

func TestDistributeUnknownCase(t *testing.T) {
	cm, pm, _ := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "600.00"})

	_, err := pm.Distribute([]string{"SRV-001", "SRV-404"}, 300, ledger.StrategyEqual, nil, cashEntry(""))
	if !errors.Is(err, models.ErrNoRecord) {
		t.Fatalf("got %v, want ErrNoRecord", err)
	}
	payments, _ := pm.List("SRV-001")
	if len(payments) != 0 {
		t.Fatalf("failed distribution left %d payments behind", len(payments))
	}
}

func TestDistributeNothingRemaining(t *testing.T) {
	cm, pm, _ := testModels(t)
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-001", FinalAmount: "500.00"})
	mustInsert(t, cm, models.CaseRecord{FileNo: "SRV-002", FinalAmount: "300.00"})
	if err := pm.Add("SRV-001", cashEntry("500.00"), false); err != nil {
		t.Fatal(err)
	}
	if err := pm.Add("SRV-002", cashEntry("300.00"), false); err != nil {
		t.Fatal(err)
	}

	_, err := pm.Distribute([]string{"SRV-001", "SRV-002"}, 200,
		ledger.StrategyProportional, nil, cashEntry(""))
	if !errors.Is(err, models.ErrNothingRemaining) {
		t.Fatalf("got %v, want ErrNothingRemaining", err)
	}
}
