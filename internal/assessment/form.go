package assessment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"compensation-desk/internal/model"
)

var (
	ErrReadOnly     = errors.New("assessment: issue already resolved")
	ErrSubmitting   = errors.New("assessment: submission in progress")
	ErrFieldHidden  = errors.New("assessment: field not available in current mode")
	ErrInvalidValue = errors.New("assessment: invalid value")
	ErrInvalid      = errors.New("assessment: form has blocking validation errors")
)

// Change describes the effect of one edit.
type Change struct {
	Field Field
	// Preview is set when the edit requires a new compensation preview.
	Preview bool
}

// Form is the assessment/refund state machine for one issue. It is not safe
// for concurrent use; the panel serializes access.
type Form struct {
	phase     Phase
	detail    *model.CompensationDetail
	draft     Draft
	breakdown *model.CompensationBreakdown
	messages  []model.Message

	notes          NoteWriter
	lastStaffNote  string
	lastRefundNote string
}

type Option func(*Form)

// WithNotes sets the writer for generated notes.
func WithNotes(w NoteWriter) Option {
	return func(f *Form) { f.notes = w }
}

// NewForm builds the form for a fetched detail. A detail that already carries
// an assessment yields a read-only form populated from it.
func NewForm(detail *model.CompensationDetail, opts ...Option) *Form {
	f := &Form{
		phase:  PhaseEditing,
		detail: detail,
		notes:  NewNoteWriter(language.English, "VND"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if detail.Resolved() {
		f.phase = PhaseResolved
		f.draft = DraftFromResolution(detail.Assessment, detail.RefundInfo)
	}
	f.revalidate()
	return f
}

func (f *Form) Phase() Phase                      { return f.phase }
func (f *Form) Detail() *model.CompensationDetail { return f.detail }
func (f *Form) Draft() Draft                      { return f.draft }
func (f *Form) Messages() []model.Message         { return append([]model.Message(nil), f.messages...) }

// Breakdown returns the last committed preview, or nil.
func (f *Form) Breakdown() *model.CompensationBreakdown {
	if f.breakdown == nil {
		return nil
	}
	b := *f.breakdown
	return &b
}

// Visible returns the fields open for input. A resolved form exposes none.
func (f *Form) Visible() FieldSet {
	if f.phase == PhaseResolved {
		return FieldSet{}
	}
	return VisibleFields(f.draft)
}

func (f *Form) Required() FieldSet {
	if f.phase == PhaseResolved {
		return FieldSet{}
	}
	return RequiredFields(f.draft)
}

// Valid reports whether the draft can be submitted.
func (f *Form) Valid() bool {
	return f.phase == PhaseEditing && !model.HasCritical(f.messages)
}

func (f *Form) revalidate() {
	if f.phase == PhaseResolved {
		f.messages = nil
		return
	}
	f.messages = Validate(f.draft, f.detail.PolicyInfo)
}

func (f *Form) editable() error {
	switch f.phase {
	case PhaseResolved:
		return ErrReadOnly
	case PhaseSubmitting:
		return ErrSubmitting
	}
	return nil
}

// SelectDocuments chooses between the documented and estimated basis and
// clears the value field of the other basis.
func (f *Form) SelectDocuments(has bool) (Change, error) {
	if err := f.editable(); err != nil {
		return Change{}, err
	}
	if f.draft.Fraud {
		return Change{}, fmt.Errorf("%w: %s", ErrFieldHidden, FieldHasDocuments)
	}
	if has {
		f.draft.Mode = ModeHasDocuments
		f.draft.EstimatedMarketValue = decimal.NullDecimal{}
	} else {
		f.draft.Mode = ModeNoDocuments
		f.draft.DocumentValue = decimal.NullDecimal{}
	}
	f.revalidate()
	return Change{Field: FieldHasDocuments, Preview: TriggersPreview(f.draft, FieldHasDocuments)}, nil
}

// SetFraud switches fraud mode. Turning it on clears every assessment and
// refund field; turning it off starts from those cleared values.
func (f *Form) SetFraud(on bool) (Change, error) {
	if err := f.editable(); err != nil {
		return Change{}, err
	}
	if f.draft.Fraud == on {
		return Change{Field: FieldFraudDetected}, nil
	}
	f.draft.Fraud = on
	if on {
		f.draft.clearAssessment()
		f.breakdown = nil
		f.lastStaffNote, f.lastRefundNote = "", ""
	} else {
		f.draft.FraudReason = ""
	}
	f.revalidate()
	return Change{Field: FieldFraudDetected, Preview: !on && f.draft.BaseValue().Valid}, nil
}

// Set assigns a raw input value. An empty value clears the field.
func (f *Form) Set(field Field, raw string) (Change, error) {
	if err := f.editable(); err != nil {
		return Change{}, err
	}
	if field.Toggle() {
		on, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Change{}, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
		if field == FieldFraudDetected {
			return f.SetFraud(on)
		}
		return f.SelectDocuments(on)
	}
	if !VisibleFields(f.draft).Has(field) {
		return Change{}, fmt.Errorf("%w: %s", ErrFieldHidden, field)
	}

	if field.Numeric() {
		parse := parseAmount
		if field == FieldDamageRate {
			parse = parsePercent
		}
		v, err := parse(raw)
		if err != nil {
			return Change{}, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
		switch field {
		case FieldDocumentValue:
			f.draft.DocumentValue = v
		case FieldEstimatedMarketValue:
			f.draft.EstimatedMarketValue = v
		case FieldDamageRate:
			f.draft.DamageRate = v
		case FieldFinalCompensation:
			f.draft.FinalCompensation = v
			if !f.draft.Adjusted() {
				f.draft.AdjustReason = ""
			}
		case FieldRefundAmount:
			f.draft.RefundAmount = v
		}
	} else {
		switch field {
		case FieldFraudReason:
			f.draft.FraudReason = raw
		case FieldAdjustReason:
			f.draft.AdjustReason = raw
		case FieldStaffNotes:
			f.draft.StaffNotes = raw
		case FieldHandlerNotes:
			f.draft.HandlerNotes = raw
		case FieldBankName:
			f.draft.BankName = raw
		case FieldAccountNumber:
			f.draft.AccountNumber = raw
		case FieldAccountHolder:
			f.draft.AccountHolder = raw
		case FieldTransactionCode:
			f.draft.TransactionCode = raw
		case FieldRefundNotes:
			f.draft.RefundNotes = raw
		}
	}

	f.revalidate()
	return Change{Field: field, Preview: TriggersPreview(f.draft, field)}, nil
}

// PreviewRequest builds the preview call from the current draft. It reports
// false when no call should be made: fraud mode, no documents choice, or a
// missing base value. An absent damage rate is sent as zero.
func (f *Form) PreviewRequest() (model.PreviewRequest, bool) {
	if f.phase != PhaseEditing || f.draft.Fraud {
		return model.PreviewRequest{}, false
	}
	base := f.draft.BaseValue()
	if !base.Valid {
		return model.PreviewRequest{}, false
	}
	req := model.PreviewRequest{HasDocuments: f.draft.Mode == ModeHasDocuments}
	v := base.Decimal
	if req.HasDocuments {
		req.DocumentValue = &v
	} else {
		req.EstimatedMarketValue = &v
	}
	if f.draft.DamageRate.Valid {
		req.AssessmentRate = PercentToFraction(f.draft.DamageRate.Decimal)
	}
	return req, true
}

// ApplyPreview commits a preview result: the total is written into final
// compensation and refund amount, and generated notes are refreshed unless
// the user has edited them since they were generated.
func (f *Form) ApplyPreview(b model.CompensationBreakdown) error {
	if err := f.editable(); err != nil {
		return err
	}
	if f.draft.Fraud {
		return fmt.Errorf("%w: preview in fraud mode", ErrFieldHidden)
	}
	f.breakdown = &b
	total := decimal.NewNullDecimal(b.TotalCompensation)
	f.draft.PreviewTotal = total
	f.draft.FinalCompensation = total
	f.draft.RefundAmount = total
	f.draft.AdjustReason = ""

	if f.draft.StaffNotes == "" || f.draft.StaffNotes == f.lastStaffNote {
		f.lastStaffNote = f.notes.AssessmentNote(f.draft, b)
		f.draft.StaffNotes = f.lastStaffNote
	}
	if f.draft.RefundNotes == "" || f.draft.RefundNotes == f.lastRefundNote {
		f.lastRefundNote = f.notes.RefundNote(b)
		f.draft.RefundNotes = f.lastRefundNote
	}

	f.revalidate()
	return nil
}

// BeginSubmit moves an error-free form into the submitting phase.
func (f *Form) BeginSubmit() error {
	if err := f.editable(); err != nil {
		return err
	}
	f.revalidate()
	if model.HasCritical(f.messages) {
		return ErrInvalid
	}
	f.phase = PhaseSubmitting
	return nil
}

// SubmitFailed returns a submitting form to editing with its values intact.
func (f *Form) SubmitFailed() {
	if f.phase == PhaseSubmitting {
		f.phase = PhaseEditing
	}
}
