package sandbox

import (
	"fmt"

	"github.com/shopspring/decimal"

	"compensation-desk/internal/model"
)

var (
	one             = decimal.NewFromInt(1)
	freightMultiple = decimal.NewFromInt(10)
)

// Calculate prices one preview request against an order. The formula is an
// illustrative stand-in for the production pricing engine:
//
//	goods   = min(base * rate, legal limit)
//	freight = transport fee * rate * package weight share
//	total   = goods + freight, in whole currency units
//
// The legal limit is the declared value for insured goods with documents and
// ten times the transport fee otherwise.
func Calculate(order model.OrderContext, req model.PreviewRequest) (*model.CompensationBreakdown, []model.Message) {
	var msgs []model.Message

	base, ok := req.BaseValue()
	if !ok {
		msgs = append(msgs, model.Message{
			Level:   model.LevelCritical,
			Code:    "MISSING_BASE_VALUE",
			Message: "A document value or an estimated market value is required",
		})
		return nil, msgs
	}
	if !base.IsPositive() {
		msgs = append(msgs, model.Message{
			Level:   model.LevelCritical,
			Code:    "INVALID_BASE_VALUE",
			Message: "Base value must be positive",
		})
		return nil, msgs
	}
	rate := req.AssessmentRate
	if rate.IsNegative() || rate.GreaterThan(one) {
		msgs = append(msgs, model.Message{
			Level:   model.LevelCritical,
			Code:    "INVALID_ASSESSMENT_RATE",
			Message: "Assessment rate must be between 0 and 1",
		})
		return nil, msgs
	}

	freightLimit := order.TransportFee.Mul(freightMultiple)
	var limit decimal.Decimal
	var compensationCase string
	switch {
	case req.HasDocuments && order.HasInsurance:
		compensationCase = model.CaseInsuredWithDocuments
		limit = order.DeclaredValue
		if !limit.IsPositive() {
			limit = base
			msgs = append(msgs, model.Message{
				Level:   model.LevelWarning,
				Code:    "DECLARED_VALUE_MISSING",
				Message: "Insured order has no declared value; the document value is used as limit",
			})
		}
	case req.HasDocuments:
		compensationCase = model.CaseUninsuredWithDocuments
		limit = freightLimit
		if order.DeclaredValue.IsPositive() {
			limit = decimal.Min(limit, order.DeclaredValue)
		}
	default:
		compensationCase = model.CaseWithoutDocuments
		limit = freightLimit
	}

	goods := base.Mul(rate)
	if goods.GreaterThan(limit) {
		msgs = append(msgs, model.Message{
			Level:   model.LevelWarning,
			Code:    "GOODS_CAPPED",
			Message: fmt.Sprintf("Goods compensation %s capped at legal limit %s", goods.Round(0), limit.Round(0)),
		})
		goods = limit
	}
	goods = goods.Round(0)

	share := one
	if order.Weight.IsPositive() && order.TotalWeight.IsPositive() && order.Weight.LessThan(order.TotalWeight) {
		share = order.Weight.Div(order.TotalWeight)
	}
	freight := order.TransportFee.Mul(rate).Mul(share).Round(0)

	return &model.CompensationBreakdown{
		GoodsCompensation: goods,
		FreightRefund:     freight,
		TotalCompensation: goods.Add(freight),
		LegalLimit:        limit.Round(0),
		CompensationCase:  compensationCase,
		Explanation:       explain(compensationCase, rate, share, msgs),
	}, msgs
}

func explain(compensationCase string, rate, share decimal.Decimal, msgs []model.Message) string {
	text := fmt.Sprintf("%s: goods at %s%% of base value, freight refund pro-rata %s of the order weight.",
		compensationCase, rate.Mul(decimal.NewFromInt(100)).String(), share.StringFixed(2))
	for _, m := range msgs {
		if m.Level == model.LevelWarning {
			text += " " + m.Message + "."
		}
	}
	return text
}
