package assessment

// Mode is the documents choice of a compensated assessment.
type Mode int

const (
	ModeUnset Mode = iota
	ModeHasDocuments
	ModeNoDocuments
)

func (m Mode) String() string {
	switch m {
	case ModeHasDocuments:
		return "HAS_DOCUMENTS"
	case ModeNoDocuments:
		return "NO_DOCUMENTS"
	default:
		return "UNSET"
	}
}

// Phase is the lifecycle position of one issue's panel.
type Phase string

const (
	PhaseLoading    Phase = "LOADING"
	PhaseLoadFailed Phase = "LOAD_FAILED"
	PhaseEditing    Phase = "EDITING"
	PhaseSubmitting Phase = "SUBMITTING"
	PhaseResolved   Phase = "RESOLVED"
)

type Field string

const (
	FieldFraudDetected        Field = "fraudDetected"
	FieldFraudReason          Field = "fraudReason"
	FieldHasDocuments         Field = "hasDocuments"
	FieldDocumentValue        Field = "documentValue"
	FieldEstimatedMarketValue Field = "estimatedMarketValue"
	FieldDamageRate           Field = "damageRate"
	FieldFinalCompensation    Field = "finalCompensation"
	FieldAdjustReason         Field = "adjustReason"
	FieldStaffNotes           Field = "staffNotes"
	FieldHandlerNotes         Field = "handlerNotes"
	FieldRefundAmount         Field = "refundAmount"
	FieldBankName             Field = "bankName"
	FieldAccountNumber        Field = "accountNumber"
	FieldAccountHolder        Field = "accountHolder"
	FieldTransactionCode      Field = "transactionCode"
	FieldRefundNotes          Field = "refundNotes"
)

// fieldOrder is the rendering order of the form.
var fieldOrder = []Field{
	FieldFraudDetected,
	FieldFraudReason,
	FieldHasDocuments,
	FieldDocumentValue,
	FieldEstimatedMarketValue,
	FieldDamageRate,
	FieldFinalCompensation,
	FieldAdjustReason,
	FieldStaffNotes,
	FieldHandlerNotes,
	FieldRefundAmount,
	FieldBankName,
	FieldAccountNumber,
	FieldAccountHolder,
	FieldTransactionCode,
	FieldRefundNotes,
}

// AllFields returns every form field in rendering order.
func AllFields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindMoney
	kindPercent
	kindToggle
)

func (f Field) kind() fieldKind {
	switch f {
	case FieldDocumentValue, FieldEstimatedMarketValue, FieldFinalCompensation, FieldRefundAmount:
		return kindMoney
	case FieldDamageRate:
		return kindPercent
	case FieldHasDocuments, FieldFraudDetected:
		return kindToggle
	default:
		return kindText
	}
}

// Numeric reports whether the field holds an amount or a percentage.
func (f Field) Numeric() bool {
	k := f.kind()
	return k == kindMoney || k == kindPercent
}

// Toggle reports whether the field is a boolean choice.
func (f Field) Toggle() bool { return f.kind() == kindToggle }

// ParseField maps a wire or draft-file name onto a Field.
func ParseField(name string) (Field, bool) {
	for _, f := range fieldOrder {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// FieldSet is an unordered set of fields.
type FieldSet map[Field]struct{}

func newFieldSet(fields ...Field) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

func (s FieldSet) add(fields ...Field) {
	for _, f := range fields {
		s[f] = struct{}{}
	}
}

// Ordered returns the members in rendering order.
func (s FieldSet) Ordered() []Field {
	out := make([]Field, 0, len(s))
	for _, f := range fieldOrder {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}
