package assessment

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"compensation-desk/internal/model"
)

// NoteWriter composes the notes generated from a preview.
type NoteWriter struct {
	printer  *message.Printer
	currency string
}

func NewNoteWriter(tag language.Tag, currency string) NoteWriter {
	return NoteWriter{printer: message.NewPrinter(tag), currency: currency}
}

// Money formats an amount in whole currency units with locale grouping.
func (w NoteWriter) Money(d decimal.Decimal) string {
	return w.printer.Sprintf("%d %s", d.Round(0).IntPart(), w.currency)
}

// AssessmentNote summarizes damage percentage, base value and total.
func (w NoteWriter) AssessmentNote(d Draft, b model.CompensationBreakdown) string {
	basis := "estimated market value"
	if d.Mode == ModeHasDocuments {
		basis = "documented value"
	}
	rate := "0"
	if d.DamageRate.Valid {
		rate = d.DamageRate.Decimal.String()
	}
	return w.printer.Sprintf("Damage assessed at %s%% of the %s %s. Total compensation %s (goods %s, freight refund %s).",
		rate, basis, w.Money(d.BaseValue().Decimal),
		w.Money(b.TotalCompensation), w.Money(b.GoodsCompensation), w.Money(b.FreightRefund))
}

// RefundNote summarizes the payout.
func (w NoteWriter) RefundNote(b model.CompensationBreakdown) string {
	return w.printer.Sprintf("Refund of %s to the customer for damaged goods.", w.Money(b.TotalCompensation))
}
