package submission

import (
	"errors"
	"fmt"
	"strings"

	"compensation-desk/internal/assessment"
	"compensation-desk/internal/model"
)

var (
	ErrIncomplete     = errors.New("submission: required field missing")
	ErrNoDocumentMode = errors.New("submission: documents choice not made")
	ErrTooManyProofs  = errors.New("submission: at most one refund proof image")
)

// Attachments are the evidence files uploaded with the resolution.
type Attachments struct {
	DocumentImages []model.Attachment
	RefundProofs   []model.Attachment
}

// Submission is the assembled resolve call.
type Submission struct {
	Request        model.AssessmentRequest
	DocumentImages []model.Attachment
	RefundProof    *model.Attachment
}

// Assemble builds the resolve call from a draft. The required field set is
// the same one the form validates against, so a draft the form accepts
// always assembles.
func Assemble(issueID string, d assessment.Draft, files Attachments) (*Submission, error) {
	for _, f := range assessment.RequiredFields(d).Ordered() {
		if strings.TrimSpace(d.Value(f)) == "" {
			return nil, fmt.Errorf("%w: %s", ErrIncomplete, f)
		}
	}
	if len(files.RefundProofs) > 1 {
		return nil, ErrTooManyProofs
	}

	res, err := resolutionFromDraft(d)
	if err != nil {
		return nil, err
	}

	s := &Submission{Request: Encode(issueID, res)}
	if _, fraud := res.(FraudResolution); fraud {
		// Stale uploads from before fraud mode are not sent.
		return s, nil
	}
	s.DocumentImages = files.DocumentImages
	if s.Request.Refund != nil && len(files.RefundProofs) == 1 {
		proof := files.RefundProofs[0]
		s.RefundProof = &proof
	}
	return s, nil
}

func resolutionFromDraft(d assessment.Draft) (Resolution, error) {
	if d.Fraud {
		return FraudResolution{Reason: strings.TrimSpace(d.FraudReason)}, nil
	}

	var basis Basis
	switch d.Mode {
	case assessment.ModeHasDocuments:
		basis = BasisDocumented
	case assessment.ModeNoDocuments:
		basis = BasisEstimated
	default:
		return nil, ErrNoDocumentMode
	}

	res := CompensatedResolution{
		Basis:             basis,
		BaseValue:         d.BaseValue().Decimal,
		RatePercent:       d.DamageRate.Decimal,
		FinalCompensation: d.FinalCompensation.Decimal,
		StaffNotes:        d.StaffNotes,
		HandlerNotes:      d.HandlerNotes,
	}
	if d.Adjusted() {
		res.AdjustReason = strings.TrimSpace(d.AdjustReason)
	}
	if d.HasRefund() {
		res.Refund = &Refund{
			Amount:          d.RefundAmount.Decimal,
			BankName:        strings.TrimSpace(d.BankName),
			AccountNumber:   strings.TrimSpace(d.AccountNumber),
			AccountHolder:   strings.TrimSpace(d.AccountHolder),
			TransactionCode: strings.TrimSpace(d.TransactionCode),
			Notes:           d.RefundNotes,
		}
	}
	return res, nil
}
