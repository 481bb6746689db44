package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

const IssueTypeDamage = "DAMAGE"

type PreviewRequest struct {
	HasDocuments         bool             `json:"hasDocuments"`
	DocumentValue        *decimal.Decimal `json:"documentValue,omitempty"`
	EstimatedMarketValue *decimal.Decimal `json:"estimatedMarketValue,omitempty"`
	AssessmentRate       decimal.Decimal  `json:"assessmentRate"`
}

// BaseValue returns the value the rate applies to for the chosen basis.
func (r PreviewRequest) BaseValue() (decimal.Decimal, bool) {
	v := r.EstimatedMarketValue
	if r.HasDocuments {
		v = r.DocumentValue
	}
	if v == nil {
		return decimal.Zero, false
	}
	return *v, true
}

// AssessmentRequest is the wire form of a resolution. Fraud requests carry
// only the fraud fields; compensated requests carry exactly one base value.
type AssessmentRequest struct {
	IssueID              string           `json:"issueId"`
	IssueType            string           `json:"issueType"`
	HasDocuments         *bool            `json:"hasDocuments,omitempty"`
	DocumentValue        *decimal.Decimal `json:"documentValue,omitempty"`
	EstimatedMarketValue *decimal.Decimal `json:"estimatedMarketValue,omitempty"`
	AssessmentRate       *decimal.Decimal `json:"assessmentRate,omitempty"`
	FinalCompensation    decimal.Decimal  `json:"finalCompensation"`
	StaffNotes           string           `json:"staffNotes,omitempty"`
	HandlerNotes         string           `json:"handlerNotes,omitempty"`
	FraudDetected        bool             `json:"fraudDetected"`
	FraudReason          string           `json:"fraudReason,omitempty"`
	AdjustReason         string           `json:"adjustReason,omitempty"`
	Refund               *RefundRequest   `json:"refund,omitempty"`
}

type RefundRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	BankName        string          `json:"bankName"`
	AccountNumber   string          `json:"accountNumber"`
	AccountHolder   string          `json:"accountHolder"`
	TransactionCode string          `json:"transactionCode,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// Attachment is an evidence file sent in the same multipart request as the
// assessment payload.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Validate checks the structural rules of the request at the client/server
// boundary. Client and sandbox server both run it.
func (r *AssessmentRequest) Validate() []Message {
	var msgs []Message

	if strings.TrimSpace(r.IssueID) == "" {
		msgs = append(msgs, critical("MISSING_ISSUE_ID", "issueId", "Issue id is required"))
	}
	if r.IssueType != IssueTypeDamage {
		msgs = append(msgs, critical("INVALID_ISSUE_TYPE", "issueType", "Only DAMAGE issues carry a compensation assessment"))
	}

	if r.FraudDetected {
		if strings.TrimSpace(r.FraudReason) == "" {
			msgs = append(msgs, critical("MISSING_FRAUD_REASON", "fraudReason", "Fraud reason is required"))
		}
		if !r.FinalCompensation.IsZero() {
			msgs = append(msgs, critical("FRAUD_WITH_COMPENSATION", "finalCompensation", "Fraud resolutions pay no compensation"))
		}
		if r.HasDocuments != nil || r.DocumentValue != nil || r.EstimatedMarketValue != nil || r.AssessmentRate != nil || r.Refund != nil {
			msgs = append(msgs, critical("FRAUD_WITH_ASSESSMENT_FIELDS", "", "Fraud resolutions carry no assessment or refund fields"))
		}
		return msgs
	}

	if r.HasDocuments == nil {
		msgs = append(msgs, critical("MISSING_DOCUMENTS_CHOICE", "hasDocuments", "Documents choice is required"))
	} else {
		want, other := r.EstimatedMarketValue, r.DocumentValue
		wantField := "estimatedMarketValue"
		if *r.HasDocuments {
			want, other = r.DocumentValue, r.EstimatedMarketValue
			wantField = "documentValue"
		}
		if other != nil {
			msgs = append(msgs, critical("BOTH_BASE_VALUES", "", "Exactly one of documentValue and estimatedMarketValue may be set"))
		}
		if want == nil {
			msgs = append(msgs, critical("MISSING_BASE_VALUE", wantField, "Base value is required"))
		} else if !want.IsPositive() {
			msgs = append(msgs, critical("INVALID_BASE_VALUE", wantField, "Base value must be positive"))
		}
	}

	if r.AssessmentRate == nil {
		msgs = append(msgs, critical("MISSING_ASSESSMENT_RATE", "assessmentRate", "Assessment rate is required"))
	} else if r.AssessmentRate.IsNegative() || r.AssessmentRate.GreaterThan(decimal.NewFromInt(1)) {
		msgs = append(msgs, critical("INVALID_ASSESSMENT_RATE", "assessmentRate", "Assessment rate must be between 0 and 1"))
	}

	if r.FinalCompensation.IsNegative() {
		msgs = append(msgs, critical("INVALID_FINAL_COMPENSATION", "finalCompensation", "Final compensation must be non-negative"))
	}

	if r.Refund != nil {
		if !r.Refund.Amount.IsPositive() {
			msgs = append(msgs, critical("INVALID_REFUND_AMOUNT", "refund.amount", "Refund amount must be positive"))
		}
		if strings.TrimSpace(r.Refund.BankName) == "" || strings.TrimSpace(r.Refund.AccountNumber) == "" || strings.TrimSpace(r.Refund.AccountHolder) == "" {
			msgs = append(msgs, critical("MISSING_BANK_DETAILS", "refund", "Bank name, account number and holder are required for a refund"))
		}
	}

	return msgs
}

func critical(code, field, message string) Message {
	return Message{Level: LevelCritical, Code: code, Field: field, Message: message}
}
