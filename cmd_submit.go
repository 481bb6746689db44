package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"compensation-desk/internal/assessment"
	"compensation-desk/internal/model"
	"compensation-desk/internal/panel"
	"compensation-desk/internal/submission"
)

var (
	submitDraft       string
	submitDocuments   []string
	submitRefundProof string
)

var submitCmd = &cobra.Command{
	Use:   "submit ISSUE",
	Short: "Fill the assessment from a YAML draft and record the resolution",
	Long: `Applies a YAML draft (field name: value) to the issue's assessment form,
waits for the compensation preview, and submits the resolution with the given
evidence files.

Example draft:
  hasDocuments: true
  documentValue: 10,000,000
  damageRate: 50
  bankName: Vietcombank
  accountNumber: "0011004455667"
  accountHolder: Tran Thi B`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	f := submitCmd.Flags()
	f.StringVarP(&submitDraft, "draft", "d", "", "YAML draft file")
	f.StringArrayVar(&submitDocuments, "document", nil, "Document image to upload (repeatable)")
	f.StringVar(&submitRefundProof, "refund-proof", "", "Refund transfer proof image")
	_ = submitCmd.MarkFlagRequired("draft")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	values, err := loadDraft(submitDraft)
	if err != nil {
		return err
	}
	files, err := loadAttachments(submitDocuments, submitRefundProof)
	if err != nil {
		return err
	}

	notify, changes := panel.Notifier()
	client := newClient()
	defer client.Wait()
	p := panel.New(client, args[0],
		panel.WithLogger(logger),
		panel.WithDebounce(cfg.PreviewDebounce),
		panel.WithPreviewTimeout(cfg.RequestTimeout),
		panel.WithNotes(noteWriter()),
		panel.OnChange(notify))
	defer p.Close()

	ctx := cmd.Context()
	if err := p.Load(ctx); err != nil {
		return err
	}
	if p.State().Phase == assessment.PhaseResolved {
		return assessment.ErrReadOnly
	}

	// Preview inputs go first; the preview overwrites the amounts and notes
	// that the draft may then adjust.
	early, late := splitDraft(values)
	if err := applyDraft(p, early); err != nil {
		return err
	}
	if err := awaitPreview(ctx, p, changes, cfg.PreviewDebounce+cfg.RequestTimeout); err != nil {
		return err
	}
	if err := applyDraft(p, late); err != nil {
		return err
	}

	if err := p.Submit(ctx, files); err != nil {
		for _, m := range p.State().Messages {
			logger.Warn("draft finding", zap.String("code", m.Code), zap.String("field", m.Field), zap.String("message", m.Message))
		}
		if msg := p.State().SubmitError; msg != "" {
			return errors.New(msg)
		}
		return err
	}
	printDetail(cmd.OutOrStdout(), noteWriter(), p.State().Detail)
	return nil
}

type draftValue struct {
	field assessment.Field
	raw   string
}

// loadDraft reads field/value pairs and returns them in form order.
func loadDraft(path string) ([]draftValue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}
	byField := make(map[assessment.Field]string, len(doc))
	for name, v := range doc {
		f, ok := assessment.ParseField(name)
		if !ok {
			return nil, fmt.Errorf("draft: unknown field %q", name)
		}
		if v == nil {
			continue
		}
		byField[f] = fmt.Sprint(v)
	}
	var out []draftValue
	for _, f := range assessment.AllFields() {
		if v, ok := byField[f]; ok {
			out = append(out, draftValue{field: f, raw: v})
		}
	}
	return out, nil
}

func splitDraft(values []draftValue) (early, late []draftValue) {
	for _, v := range values {
		switch v.field {
		case assessment.FieldFinalCompensation, assessment.FieldAdjustReason,
			assessment.FieldRefundAmount, assessment.FieldStaffNotes, assessment.FieldRefundNotes:
			late = append(late, v)
		default:
			early = append(early, v)
		}
	}
	return early, late
}

func applyDraft(p *panel.Panel, values []draftValue) error {
	for _, v := range values {
		if err := p.Set(v.field, v.raw); err != nil {
			return fmt.Errorf("draft %s: %w", v.field, err)
		}
	}
	return nil
}

// awaitPreview blocks until the preview scheduled by the draft has been
// committed or has failed. Drafts that cannot be previewed return at once.
func awaitPreview(ctx context.Context, p *panel.Panel, changes <-chan struct{}, limit time.Duration) error {
	s := p.State()
	if s.Draft.Fraud || !s.Draft.BaseValue().Valid {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()
	for {
		s = p.State()
		switch {
		case s.PreviewError != "":
			return fmt.Errorf("preview: %s", s.PreviewError)
		case s.Breakdown != nil && !s.Calculating:
			return nil
		}
		select {
		case <-changes:
		case <-ctx.Done():
			return fmt.Errorf("preview: %w", ctx.Err())
		}
	}
}

func loadAttachments(documents []string, refundProof string) (submission.Attachments, error) {
	var files submission.Attachments
	for _, path := range documents {
		a, err := readAttachment(path)
		if err != nil {
			return files, err
		}
		files.DocumentImages = append(files.DocumentImages, a)
	}
	if refundProof != "" {
		a, err := readAttachment(refundProof)
		if err != nil {
			return files, err
		}
		files.RefundProofs = append(files.RefundProofs, a)
	}
	return files, nil
}

func readAttachment(path string) (model.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("read attachment: %w", err)
	}
	return model.Attachment{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Data:        data,
	}, nil
}
