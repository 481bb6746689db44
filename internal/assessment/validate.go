package assessment

import (
	"fmt"

	"compensation-desk/internal/model"
)

// Validate checks the draft against the fields visible in its current mode.
// Hidden fields are never reported.
func Validate(d Draft, policy model.PolicyInfo) []model.Message {
	var msgs []model.Message

	visible := VisibleFields(d)
	for _, f := range RequiredFields(d).Ordered() {
		if !d.present(f) {
			msgs = append(msgs, model.Message{
				Level:   model.LevelCritical,
				Code:    "REQUIRED_FIELD",
				Field:   string(f),
				Message: fmt.Sprintf("%s is required", f),
			})
		}
	}

	if d.Fraud {
		return msgs
	}

	if base := d.BaseValue(); base.Valid && !base.Decimal.IsPositive() {
		f := FieldDocumentValue
		if d.Mode == ModeNoDocuments {
			f = FieldEstimatedMarketValue
		}
		msgs = append(msgs, fieldMessage(model.LevelCritical, "INVALID_BASE_VALUE", f, "must be positive"))
	}

	if visible.Has(FieldDamageRate) && d.DamageRate.Valid {
		r := d.DamageRate.Decimal
		if r.IsNegative() || r.GreaterThan(hundred) {
			msgs = append(msgs, fieldMessage(model.LevelCritical, "INVALID_DAMAGE_RATE", FieldDamageRate, "must be between 0 and 100"))
		}
	}

	if d.FinalCompensation.Valid && d.FinalCompensation.Decimal.IsNegative() {
		msgs = append(msgs, fieldMessage(model.LevelCritical, "INVALID_FINAL_COMPENSATION", FieldFinalCompensation, "must not be negative"))
	}

	if d.RefundAmount.Valid {
		if d.RefundAmount.Decimal.IsNegative() {
			msgs = append(msgs, fieldMessage(model.LevelCritical, "INVALID_REFUND_AMOUNT", FieldRefundAmount, "must not be negative"))
		} else if d.FinalCompensation.Valid && d.RefundAmount.Decimal.GreaterThan(d.FinalCompensation.Decimal) {
			msgs = append(msgs, fieldMessage(model.LevelWarning, "REFUND_EXCEEDS_COMPENSATION", FieldRefundAmount, "exceeds the final compensation"))
		}
	}

	limit := policy.MaxCompensationWithoutDocs
	if d.Mode == ModeNoDocuments && d.FinalCompensation.Valid && limit.IsPositive() && d.FinalCompensation.Decimal.GreaterThan(limit) {
		msgs = append(msgs, fieldMessage(model.LevelWarning, "ABOVE_UNDOCUMENTED_LIMIT", FieldFinalCompensation,
			"exceeds the policy limit of "+limit.String()+" for claims without documents"))
	}

	return msgs
}

func fieldMessage(level, code string, f Field, text string) model.Message {
	return model.Message{Level: level, Code: code, Field: string(f), Message: fmt.Sprintf("%s %s", f, text)}
}
