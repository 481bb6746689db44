package assessment

// VisibleFields returns the fields the current mode exposes for input.
func VisibleFields(d Draft) FieldSet {
	if d.Fraud {
		return newFieldSet(FieldFraudDetected, FieldFraudReason)
	}
	s := newFieldSet(
		FieldFraudDetected,
		FieldHasDocuments,
		FieldDamageRate,
		FieldFinalCompensation,
		FieldStaffNotes,
		FieldHandlerNotes,
		FieldRefundAmount,
		FieldBankName,
		FieldAccountNumber,
		FieldAccountHolder,
		FieldTransactionCode,
		FieldRefundNotes,
	)
	switch d.Mode {
	case ModeHasDocuments:
		s.add(FieldDocumentValue)
	case ModeNoDocuments:
		s.add(FieldEstimatedMarketValue)
	}
	if d.Adjusted() {
		s.add(FieldAdjustReason)
	}
	return s
}

// RequiredFields returns the fields that must be filled before submission.
// It is always a subset of VisibleFields, and both the validity check and the
// submission assembler consume it.
func RequiredFields(d Draft) FieldSet {
	if d.Fraud {
		return newFieldSet(FieldFraudReason)
	}
	s := newFieldSet(FieldHasDocuments, FieldDamageRate, FieldFinalCompensation)
	switch d.Mode {
	case ModeHasDocuments:
		s.add(FieldDocumentValue)
	case ModeNoDocuments:
		s.add(FieldEstimatedMarketValue)
	}
	if d.Adjusted() {
		s.add(FieldAdjustReason)
	}
	if d.HasRefund() {
		s.add(FieldBankName, FieldAccountNumber, FieldAccountHolder)
	}
	return s
}

// TriggersPreview reports whether a change to f should recalculate the
// compensation preview.
func TriggersPreview(d Draft, f Field) bool {
	if d.Fraud {
		return false
	}
	switch f {
	case FieldHasDocuments, FieldDocumentValue, FieldEstimatedMarketValue, FieldDamageRate:
		return true
	}
	return false
}
