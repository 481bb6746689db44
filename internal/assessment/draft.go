package assessment

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"compensation-desk/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Draft is the editable state of an assessment. DamageRate is kept on the
// 0-100 display scale; the wire uses a 0.0-1.0 fraction.
type Draft struct {
	Mode  Mode
	Fraud bool

	DocumentValue        decimal.NullDecimal
	EstimatedMarketValue decimal.NullDecimal
	DamageRate           decimal.NullDecimal
	FinalCompensation    decimal.NullDecimal
	AdjustReason         string
	StaffNotes           string
	HandlerNotes         string

	RefundAmount    decimal.NullDecimal
	BankName        string
	AccountNumber   string
	AccountHolder   string
	TransactionCode string
	RefundNotes     string

	FraudReason string

	// PreviewTotal is the total of the last committed preview.
	PreviewTotal decimal.NullDecimal
}

// Adjusted reports whether the final compensation diverges from the preview.
func (d Draft) Adjusted() bool {
	return d.FinalCompensation.Valid && d.PreviewTotal.Valid &&
		!d.FinalCompensation.Decimal.Equal(d.PreviewTotal.Decimal)
}

// BaseValue returns the value field required by the current mode.
func (d Draft) BaseValue() decimal.NullDecimal {
	switch d.Mode {
	case ModeHasDocuments:
		return d.DocumentValue
	case ModeNoDocuments:
		return d.EstimatedMarketValue
	default:
		return decimal.NullDecimal{}
	}
}

// HasRefund reports whether a refund record would be created.
func (d Draft) HasRefund() bool {
	return d.RefundAmount.Valid && d.RefundAmount.Decimal.IsPositive()
}

// Value renders a field for display. Empty means absent.
func (d Draft) Value(f Field) string {
	switch f {
	case FieldFraudDetected:
		return strconv.FormatBool(d.Fraud)
	case FieldHasDocuments:
		switch d.Mode {
		case ModeHasDocuments:
			return "true"
		case ModeNoDocuments:
			return "false"
		}
		return ""
	case FieldFraudReason:
		return d.FraudReason
	case FieldDocumentValue:
		return nullString(d.DocumentValue)
	case FieldEstimatedMarketValue:
		return nullString(d.EstimatedMarketValue)
	case FieldDamageRate:
		return nullString(d.DamageRate)
	case FieldFinalCompensation:
		return nullString(d.FinalCompensation)
	case FieldAdjustReason:
		return d.AdjustReason
	case FieldStaffNotes:
		return d.StaffNotes
	case FieldHandlerNotes:
		return d.HandlerNotes
	case FieldRefundAmount:
		return nullString(d.RefundAmount)
	case FieldBankName:
		return d.BankName
	case FieldAccountNumber:
		return d.AccountNumber
	case FieldAccountHolder:
		return d.AccountHolder
	case FieldTransactionCode:
		return d.TransactionCode
	case FieldRefundNotes:
		return d.RefundNotes
	}
	return ""
}

func (d Draft) present(f Field) bool {
	switch f {
	case FieldHasDocuments:
		return d.Mode != ModeUnset
	case FieldFraudDetected:
		return true
	}
	return strings.TrimSpace(d.Value(f)) != ""
}

// clearAssessment empties every field that fraud mode hides.
func (d *Draft) clearAssessment() {
	d.DocumentValue = decimal.NullDecimal{}
	d.EstimatedMarketValue = decimal.NullDecimal{}
	d.DamageRate = decimal.NullDecimal{}
	d.FinalCompensation = decimal.NullDecimal{}
	d.AdjustReason = ""
	d.StaffNotes = ""
	d.HandlerNotes = ""
	d.RefundAmount = decimal.NullDecimal{}
	d.BankName = ""
	d.AccountNumber = ""
	d.AccountHolder = ""
	d.TransactionCode = ""
	d.RefundNotes = ""
	d.PreviewTotal = decimal.NullDecimal{}
}

// DraftFromResolution rebuilds the draft of an already resolved issue.
func DraftFromResolution(a *model.Assessment, r *model.RefundInfo) Draft {
	var d Draft
	if a == nil {
		return d
	}
	d.Fraud = a.FraudDetected
	d.FraudReason = a.FraudReason
	if !a.FraudDetected {
		d.Mode = ModeNoDocuments
		if a.HasDocuments {
			d.Mode = ModeHasDocuments
		}
		d.DocumentValue = nullFrom(a.DocumentValue)
		d.EstimatedMarketValue = nullFrom(a.EstimatedMarketValue)
		d.DamageRate = decimal.NewNullDecimal(FractionToPercent(a.AssessmentRate))
		d.FinalCompensation = decimal.NewNullDecimal(a.FinalCompensation)
		d.AdjustReason = a.AdjustReason
		d.StaffNotes = a.StaffNotes
		d.HandlerNotes = a.HandlerNotes
	}
	if r != nil {
		d.RefundAmount = decimal.NewNullDecimal(r.Amount)
		d.BankName = r.BankName
		d.AccountNumber = r.AccountNumber
		d.AccountHolder = r.AccountHolder
		d.TransactionCode = r.TransactionCode
	}
	return d
}

// FractionToPercent converts a stored 0.0-1.0 rate to the 0-100 display scale.
func FractionToPercent(rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(hundred)
}

// PercentToFraction converts a 0-100 display rate to the stored 0.0-1.0 scale.
func PercentToFraction(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(hundred)
}

func nullString(n decimal.NullDecimal) string {
	if !n.Valid {
		return ""
	}
	return n.Decimal.String()
}

func nullFrom(p *decimal.Decimal) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*p)
}

// parseAmount accepts grouped input such as "10,000,000" or "10 000 000".
func parseAmount(raw string) (decimal.NullDecimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(",", "", "_", "", " ", "").Replace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(v), nil
}

var errPercentSeparator = errors.New("use a decimal point, not a comma")

// parsePercent reads a damage rate on the 0-100 scale. A comma is rejected,
// not dropped, so "1,5" never reads as 15.
func parsePercent(raw string) (decimal.NullDecimal, error) {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, ",") {
		return decimal.NullDecimal{}, errPercentSeparator
	}
	s = strings.TrimSuffix(s, "%")
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(v), nil
}
