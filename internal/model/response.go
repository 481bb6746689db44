package model

import "github.com/shopspring/decimal"

const (
	CaseInsuredWithDocuments   = "INSURED_WITH_DOCUMENTS"
	CaseUninsuredWithDocuments = "UNINSURED_WITH_DOCUMENTS"
	CaseWithoutDocuments       = "WITHOUT_DOCUMENTS"
)

// CompensationBreakdown is a server-computed estimate. TotalCompensation is
// trusted as sent; the client never recomputes it.
type CompensationBreakdown struct {
	GoodsCompensation decimal.Decimal `json:"goodsCompensation"`
	FreightRefund     decimal.Decimal `json:"freightRefund"`
	TotalCompensation decimal.Decimal `json:"totalCompensation"`
	LegalLimit        decimal.Decimal `json:"legalLimit"`
	CompensationCase  string          `json:"compensationCase"`
	Explanation       string          `json:"explanation"`
}

type ErrorResponse struct {
	Status   int       `json:"status"`
	Message  string    `json:"message"`
	Messages []Message `json:"messages,omitempty"`
}
