package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend speaks JSON numbers, not quoted decimals.
	decimal.MarshalJSONWithoutQuotes = true
}

type CompensationDetail struct {
	IssueID        string       `json:"issueId"`
	OrderContext   OrderContext `json:"orderContext"`
	PolicyInfo     PolicyInfo   `json:"policyInfo"`
	Assessment     *Assessment  `json:"assessment,omitempty"`
	RefundInfo     *RefundInfo  `json:"refundInfo,omitempty"`
	EvidenceImages []string     `json:"evidenceImages"`
}

// Resolved reports whether an assessment has already been recorded.
// A resolved detail never becomes editable again.
func (d *CompensationDetail) Resolved() bool {
	return d != nil && d.Assessment != nil
}

type OrderContext struct {
	OrderID             string          `json:"orderId"`
	OrderCode           string          `json:"orderCode"`
	PackageID           string          `json:"packageId"`
	DeclaredValue       decimal.Decimal `json:"declaredValue"`
	TransportFee        decimal.Decimal `json:"transportFee"`
	Weight              decimal.Decimal `json:"weight"`
	TotalWeight         decimal.Decimal `json:"totalWeight"`
	HasInsurance        bool            `json:"hasInsurance"`
	CategoryDescription string          `json:"categoryDescription"`
}

type PolicyInfo struct {
	Description                string          `json:"description"`
	MaxCompensationWithoutDocs decimal.Decimal `json:"maxCompensationWithoutDocs"`
}

type Assessment struct {
	ID                   string           `json:"id"`
	IssueID              string           `json:"issueId"`
	HasDocuments         bool             `json:"hasDocuments"`
	DocumentValue        *decimal.Decimal `json:"documentValue,omitempty"`
	EstimatedMarketValue *decimal.Decimal `json:"estimatedMarketValue,omitempty"`
	AssessmentRate       decimal.Decimal  `json:"assessmentRate"`
	FinalCompensation    decimal.Decimal  `json:"finalCompensation"`
	FraudDetected        bool             `json:"fraudDetected"`
	FraudReason          string           `json:"fraudReason,omitempty"`
	StaffNotes           string           `json:"staffNotes,omitempty"`
	HandlerNotes         string           `json:"handlerNotes,omitempty"`
	AdjustReason         string           `json:"adjustReason,omitempty"`
	DocumentImages       []string         `json:"documentImages,omitempty"`
	AssessedBy           string           `json:"assessedBy,omitempty"`
	AssessedAt           *time.Time       `json:"assessedAt,omitempty"`
}

type RefundInfo struct {
	ID              string          `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	BankName        string          `json:"bankName"`
	AccountNumber   string          `json:"accountNumber"`
	AccountHolder   string          `json:"accountHolder"`
	TransactionCode string          `json:"transactionCode,omitempty"`
	ProofImage      string          `json:"proofImage,omitempty"`
	ProcessedBy     string          `json:"processedBy,omitempty"`
	ProcessedAt     *time.Time      `json:"processedAt,omitempty"`
}

// Clone returns a deep copy, so cached or stored details can be handed out
// without sharing the assessment, refund or image slices.
func (d *CompensationDetail) Clone() *CompensationDetail {
	if d == nil {
		return nil
	}
	out := *d
	out.EvidenceImages = cloneStrings(d.EvidenceImages)
	if d.Assessment != nil {
		a := *d.Assessment
		a.DocumentValue = cloneDecimal(a.DocumentValue)
		a.EstimatedMarketValue = cloneDecimal(a.EstimatedMarketValue)
		a.DocumentImages = cloneStrings(a.DocumentImages)
		a.AssessedAt = cloneTime(a.AssessedAt)
		out.Assessment = &a
	}
	if d.RefundInfo != nil {
		r := *d.RefundInfo
		r.ProcessedAt = cloneTime(r.ProcessedAt)
		out.RefundInfo = &r
	}
	return &out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
