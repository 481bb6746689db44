package sandbox

import (
	"time"

	"github.com/google/uuid"

	"compensation-desk/internal/model"
)

// resolution carries one resolve call through validation and apply.
type resolution struct {
	req         *model.AssessmentRequest
	documents   []Upload
	refundProof *Upload
	now         time.Time
}

// resolver validates business rules for one kind of resolution and records it.
type resolver interface {
	Validate(d *model.CompensationDetail, r *resolution) []model.Message
	Apply(d *model.CompensationDetail, r *resolution) []model.Message
}

var resolvers = map[bool]resolver{
	true:  &fraudResolver{},
	false: &compensationResolver{},
}

func resolverFor(req *model.AssessmentRequest) resolver {
	return resolvers[req.FraudDetected]
}

type fraudResolver struct{}

func (fraudResolver) Validate(d *model.CompensationDetail, r *resolution) []model.Message {
	var msgs []model.Message
	if len(r.documents) > 0 || r.refundProof != nil {
		msgs = append(msgs, model.Message{
			Level:   model.LevelCritical,
			Code:    "FRAUD_WITH_ATTACHMENTS",
			Message: "A fraud decision carries no evidence uploads",
		})
	}
	return msgs
}

func (fraudResolver) Apply(d *model.CompensationDetail, r *resolution) []model.Message {
	d.Assessment = newAssessment(r)
	return nil
}

type compensationResolver struct{}

func (compensationResolver) Validate(d *model.CompensationDetail, r *resolution) []model.Message {
	var msgs []model.Message
	req := r.req

	if req.HasDocuments != nil && *req.HasDocuments && len(r.documents) == 0 && len(d.EvidenceImages) == 0 {
		msgs = append(msgs, model.Message{
			Level:   model.LevelWarning,
			Code:    "DOCUMENTS_NOT_ATTACHED",
			Field:   "documentImages",
			Message: "Documented assessment without document images",
		})
	}

	if req.AssessmentRate != nil {
		preview := model.PreviewRequest{
			HasDocuments:         req.HasDocuments != nil && *req.HasDocuments,
			DocumentValue:        req.DocumentValue,
			EstimatedMarketValue: req.EstimatedMarketValue,
			AssessmentRate:       *req.AssessmentRate,
		}
		b, calcMsgs := Calculate(d.OrderContext, preview)
		if b == nil {
			return append(msgs, calcMsgs...)
		}
		if !req.FinalCompensation.Equal(b.TotalCompensation) && req.AdjustReason == "" {
			msgs = append(msgs, model.Message{
				Level:   model.LevelCritical,
				Code:    "MISSING_ADJUST_REASON",
				Field:   "adjustReason",
				Message: "A reason is required when the final compensation differs from the calculated total",
			})
		}
	}

	if req.Refund != nil && req.Refund.Amount.GreaterThan(req.FinalCompensation) {
		msgs = append(msgs, model.Message{
			Level:   model.LevelWarning,
			Code:    "REFUND_EXCEEDS_COMPENSATION",
			Field:   "refund.amount",
			Message: "Refund amount is greater than the final compensation",
		})
	}
	return msgs
}

func (compensationResolver) Apply(d *model.CompensationDetail, r *resolution) []model.Message {
	d.Assessment = newAssessment(r)
	for _, doc := range r.documents {
		d.Assessment.DocumentImages = append(d.Assessment.DocumentImages, uploadURL(r.req.IssueID, doc))
	}

	if ref := r.req.Refund; ref != nil {
		info := &model.RefundInfo{
			ID:              uuid.NewString(),
			Amount:          ref.Amount,
			BankName:        ref.BankName,
			AccountNumber:   ref.AccountNumber,
			AccountHolder:   ref.AccountHolder,
			TransactionCode: ref.TransactionCode,
			ProcessedBy:     processedBy,
			ProcessedAt:     &r.now,
		}
		if r.refundProof != nil {
			info.ProofImage = uploadURL(r.req.IssueID, *r.refundProof)
		}
		d.RefundInfo = info
	}
	return nil
}

const processedBy = "sandbox"

func newAssessment(r *resolution) *model.Assessment {
	req := r.req
	a := &model.Assessment{
		ID:                   uuid.NewString(),
		IssueID:              req.IssueID,
		DocumentValue:        req.DocumentValue,
		EstimatedMarketValue: req.EstimatedMarketValue,
		FinalCompensation:    req.FinalCompensation,
		FraudDetected:        req.FraudDetected,
		FraudReason:          req.FraudReason,
		StaffNotes:           req.StaffNotes,
		HandlerNotes:         req.HandlerNotes,
		AdjustReason:         req.AdjustReason,
		AssessedBy:           processedBy,
		AssessedAt:           &r.now,
	}
	if req.HasDocuments != nil {
		a.HasDocuments = *req.HasDocuments
	}
	if req.AssessmentRate != nil {
		a.AssessmentRate = *req.AssessmentRate
	}
	return a
}

func uploadURL(issueID string, u Upload) string {
	return "sandbox://issues/" + issueID + "/" + u.Filename
}
