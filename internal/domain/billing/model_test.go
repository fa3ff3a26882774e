package billing

import "testing"

func TestRecompute(t *testing.T) {
	l := &BillingLedger{
		BedCharges:     2000,
		NursingCharges: 300,
		LabCharges:     200,
		Discount:       100,
		Tax:            50,
		PaidAmount:     1000,
	}
	l.Recompute()

	if l.TotalAmount != 2450 {
		t.Errorf("expected total 2450, got %d", l.TotalAmount)
	}
	if l.BalanceAmount != 1450 {
		t.Errorf("expected balance 1450, got %d", l.BalanceAmount)
	}

	l.InsuranceApplied = 450
	l.Recompute()
	if l.BalanceAmount != 1000 {
		t.Errorf("expected balance 1000 after insurance, got %d", l.BalanceAmount)
	}
}

func TestAddCharge(t *testing.T) {
	l := &BillingLedger{}

	for _, ct := range []string{ChargeBed, ChargeICU, ChargeNursing, ChargeDoctor,
		ChargeLab, ChargeMedicine, ChargeProcedure, ChargeOther} {
		if !l.AddCharge(ct, 10) {
			t.Errorf("charge type %s should be accepted", ct)
		}
	}
	l.Recompute()
	if l.TotalAmount != 80 {
		t.Errorf("expected 80 across all buckets, got %d", l.TotalAmount)
	}

	if l.AddCharge("PARKING", 10) {
		t.Error("unknown charge type should be rejected")
	}
}
