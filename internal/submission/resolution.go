// Package submission turns a valid assessment draft into the resolve request.
package submission

import (
	"github.com/shopspring/decimal"

	"compensation-desk/internal/assessment"
	"compensation-desk/internal/model"
)

// Resolution is the closed set of outcomes a submission can carry:
// FraudResolution or CompensatedResolution.
type Resolution interface {
	isResolution()
}

type FraudResolution struct {
	Reason string
}

type Basis int

const (
	BasisDocumented Basis = iota + 1
	BasisEstimated
)

type CompensatedResolution struct {
	Basis             Basis
	BaseValue         decimal.Decimal
	RatePercent       decimal.Decimal
	FinalCompensation decimal.Decimal
	AdjustReason      string
	StaffNotes        string
	HandlerNotes      string
	Refund            *Refund
}

type Refund struct {
	Amount          decimal.Decimal
	BankName        string
	AccountNumber   string
	AccountHolder   string
	TransactionCode string
	Notes           string
}

func (FraudResolution) isResolution()       {}
func (CompensatedResolution) isResolution() {}

// Encode renders a resolution as the wire request of one issue.
func Encode(issueID string, r Resolution) model.AssessmentRequest {
	req := model.AssessmentRequest{IssueID: issueID, IssueType: model.IssueTypeDamage}
	switch r := r.(type) {
	case FraudResolution:
		req.FraudDetected = true
		req.FraudReason = r.Reason
		req.FinalCompensation = decimal.Zero
	case CompensatedResolution:
		has := r.Basis == BasisDocumented
		req.HasDocuments = &has
		base := r.BaseValue
		if has {
			req.DocumentValue = &base
		} else {
			req.EstimatedMarketValue = &base
		}
		rate := assessment.PercentToFraction(r.RatePercent)
		req.AssessmentRate = &rate
		req.FinalCompensation = r.FinalCompensation
		req.AdjustReason = r.AdjustReason
		req.StaffNotes = r.StaffNotes
		req.HandlerNotes = r.HandlerNotes
		if r.Refund != nil {
			req.Refund = &model.RefundRequest{
				Amount:          r.Refund.Amount,
				BankName:        r.Refund.BankName,
				AccountNumber:   r.Refund.AccountNumber,
				AccountHolder:   r.Refund.AccountHolder,
				TransactionCode: r.Refund.TransactionCode,
				Notes:           r.Refund.Notes,
			}
		}
	default:
		panic("submission: unknown resolution type")
	}
	return req
}
