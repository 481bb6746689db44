package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validCompensated() AssessmentRequest {
	docs := true
	return AssessmentRequest{
		IssueID:           "ISS-1",
		IssueType:         IssueTypeDamage,
		HasDocuments:      &docs,
		DocumentValue:     decPtr("1000000"),
		AssessmentRate:    decPtr("0.5"),
		FinalCompensation: decimal.NewFromInt(500000),
	}
}

func codes(msgs []Message) map[string]bool {
	out := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		out[m.Code] = true
	}
	return out
}

func TestValidateAcceptsCompensated(t *testing.T) {
	r := validCompensated()
	if msgs := r.Validate(); len(msgs) != 0 {
		t.Fatalf("expected 0 messages, got %v", msgs)
	}
}

func TestValidateAcceptsFraud(t *testing.T) {
	r := AssessmentRequest{IssueID: "ISS-1", IssueType: IssueTypeDamage, FraudDetected: true, FraudReason: "Fake"}
	if msgs := r.Validate(); len(msgs) != 0 {
		t.Fatalf("expected 0 messages, got %v", msgs)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *AssessmentRequest)
		code   string
	}{
		{"missing issue", func(r *AssessmentRequest) { r.IssueID = " " }, "MISSING_ISSUE_ID"},
		{"wrong type", func(r *AssessmentRequest) { r.IssueType = "LOSS" }, "INVALID_ISSUE_TYPE"},
		{"both bases", func(r *AssessmentRequest) { r.EstimatedMarketValue = decPtr("1") }, "BOTH_BASE_VALUES"},
		{"missing base", func(r *AssessmentRequest) { r.DocumentValue = nil }, "MISSING_BASE_VALUE"},
		{"zero base", func(r *AssessmentRequest) { r.DocumentValue = decPtr("0") }, "INVALID_BASE_VALUE"},
		{"no choice", func(r *AssessmentRequest) { r.HasDocuments = nil }, "MISSING_DOCUMENTS_CHOICE"},
		{"no rate", func(r *AssessmentRequest) { r.AssessmentRate = nil }, "MISSING_ASSESSMENT_RATE"},
		{"rate too high", func(r *AssessmentRequest) { r.AssessmentRate = decPtr("1.01") }, "INVALID_ASSESSMENT_RATE"},
		{"negative final", func(r *AssessmentRequest) { r.FinalCompensation = decimal.NewFromInt(-1) }, "INVALID_FINAL_COMPENSATION"},
		{"zero refund", func(r *AssessmentRequest) {
			r.Refund = &RefundRequest{BankName: "B", AccountNumber: "1", AccountHolder: "H"}
		}, "INVALID_REFUND_AMOUNT"},
		{"refund without bank", func(r *AssessmentRequest) {
			r.Refund = &RefundRequest{Amount: decimal.NewFromInt(1)}
		}, "MISSING_BANK_DETAILS"},
		{"fraud without reason", func(r *AssessmentRequest) {
			*r = AssessmentRequest{IssueID: "ISS-1", IssueType: IssueTypeDamage, FraudDetected: true}
		}, "MISSING_FRAUD_REASON"},
		{"fraud with rate", func(r *AssessmentRequest) {
			r.FraudDetected, r.FraudReason, r.FinalCompensation = true, "x", decimal.Zero
		}, "FRAUD_WITH_ASSESSMENT_FIELDS"},
		{"fraud with payout", func(r *AssessmentRequest) {
			*r = AssessmentRequest{IssueID: "ISS-1", IssueType: IssueTypeDamage, FraudDetected: true, FraudReason: "x", FinalCompensation: decimal.NewFromInt(1)}
		}, "FRAUD_WITH_COMPENSATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validCompensated()
			tt.mutate(&r)
			msgs := r.Validate()
			if !HasCritical(msgs) {
				t.Fatalf("expected a critical message, got %v", msgs)
			}
			if !codes(msgs)[tt.code] {
				t.Fatalf("expected %s, got %v", tt.code, msgs)
			}
		})
	}
}

func TestPreviewRequestBaseValue(t *testing.T) {
	r := PreviewRequest{HasDocuments: true, EstimatedMarketValue: decPtr("10")}
	if _, ok := r.BaseValue(); ok {
		t.Fatal("expected no base value for documented request with estimate only")
	}
	r.HasDocuments = false
	v, ok := r.BaseValue()
	if !ok || !v.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected 10, got %s (%v)", v, ok)
	}
}
