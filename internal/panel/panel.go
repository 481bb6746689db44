// Package panel drives the compensation workflow of one issue: it loads the
// detail, applies edits to the assessment form, keeps the compensation
// preview current and submits the resolution.
package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"compensation-desk/internal/assessment"
	"compensation-desk/internal/backend"
	"compensation-desk/internal/model"
	"compensation-desk/internal/preview"
	"compensation-desk/internal/submission"
)

// ErrNotLoaded is returned by edits and submit before a detail is loaded.
var ErrNotLoaded = errors.New("panel: issue detail not loaded")

// Backend is the subset of the compensation API the panel needs.
type Backend interface {
	FetchDetail(ctx context.Context, issueID string) (*model.CompensationDetail, error)
	Preview(ctx context.Context, issueID string, req model.PreviewRequest) (*model.CompensationBreakdown, error)
	Resolve(ctx context.Context, req *model.AssessmentRequest, documents []model.Attachment, refundProof *model.Attachment) (*model.Assessment, error)
}

// State is a snapshot of the panel for rendering.
type State struct {
	IssueID      string
	Phase        assessment.Phase
	Detail       *model.CompensationDetail
	Draft        assessment.Draft
	Breakdown    *model.CompensationBreakdown
	Visible      assessment.FieldSet
	Required     assessment.FieldSet
	Messages     []model.Message
	Valid        bool
	Calculating  bool
	LoadError    string
	PreviewError string
	SubmitError  string
}

type Panel struct {
	backend        Backend
	issueID        string
	log            *zap.Logger
	previewTimeout time.Duration
	formOpts       []assessment.Option
	onSuccess      func(*model.CompensationDetail)
	onChange       func()
	debounce       time.Duration

	mu          sync.Mutex
	phase       assessment.Phase
	form        *assessment.Form
	loadErr     string
	previewErr  string
	submitErr   string
	calculating bool
	calcSeq     uint64

	debouncer *preview.Debouncer
}

type Option func(*Panel)

func WithLogger(l *zap.Logger) Option {
	return func(p *Panel) { p.log = l }
}

// WithDebounce sets the quiet period before a preview call.
func WithDebounce(d time.Duration) Option {
	return func(p *Panel) { p.debounce = d }
}

// WithPreviewTimeout bounds a single preview call.
func WithPreviewTimeout(d time.Duration) Option {
	return func(p *Panel) { p.previewTimeout = d }
}

func WithNotes(w assessment.NoteWriter) Option {
	return func(p *Panel) { p.formOpts = append(p.formOpts, assessment.WithNotes(w)) }
}

// OnSuccess registers a callback run after a resolution is recorded, with the
// refreshed detail.
func OnSuccess(fn func(*model.CompensationDetail)) Option {
	return func(p *Panel) { p.onSuccess = fn }
}

// OnChange registers a callback run whenever the state may have changed.
// It is called without the panel lock held and may come from any goroutine.
func OnChange(fn func()) Option {
	return func(p *Panel) { p.onChange = fn }
}

func New(b Backend, issueID string, opts ...Option) *Panel {
	p := &Panel{
		backend:        b,
		issueID:        issueID,
		log:            zap.NewNop(),
		previewTimeout: 10 * time.Second,
		phase:          assessment.PhaseLoading,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(zap.String("issue_id", issueID))
	p.debouncer = preview.NewDebouncer(p.debounce, p.runPreview)
	return p
}

func (p *Panel) IssueID() string { return p.issueID }

// Load fetches the detail and rebuilds the form from it.
func (p *Panel) Load(ctx context.Context) error {
	p.debouncer.Cancel()
	p.mu.Lock()
	p.phase = assessment.PhaseLoading
	p.form = nil
	p.loadErr, p.previewErr, p.submitErr = "", "", ""
	p.calculating = false
	p.mu.Unlock()
	p.notify()

	detail, err := p.backend.FetchDetail(ctx, p.issueID)

	p.mu.Lock()
	if err != nil {
		p.phase = assessment.PhaseLoadFailed
		p.loadErr = backend.UserMessage(err)
		p.mu.Unlock()
		p.log.Warn("load failed", zap.Error(err))
		p.notify()
		return err
	}
	p.setDetail(detail)
	p.mu.Unlock()
	p.notify()
	return nil
}

func (p *Panel) setDetail(detail *model.CompensationDetail) {
	p.form = assessment.NewForm(detail, p.formOpts...)
	p.phase = p.form.Phase()
}

// State returns a snapshot of the panel.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := State{
		IssueID:      p.issueID,
		Phase:        p.phase,
		Calculating:  p.calculating,
		LoadError:    p.loadErr,
		PreviewError: p.previewErr,
		SubmitError:  p.submitErr,
	}
	if p.form != nil {
		s.Phase = p.form.Phase()
		s.Detail = p.form.Detail()
		s.Draft = p.form.Draft()
		s.Breakdown = p.form.Breakdown()
		s.Visible = p.form.Visible()
		s.Required = p.form.Required()
		s.Messages = p.form.Messages()
		s.Valid = p.form.Valid()
	}
	return s
}

func (p *Panel) SelectDocuments(has bool) error {
	return p.edit(func(f *assessment.Form) (assessment.Change, error) { return f.SelectDocuments(has) })
}

func (p *Panel) SetFraud(on bool) error {
	err := p.edit(func(f *assessment.Form) (assessment.Change, error) { return f.SetFraud(on) })
	if err == nil && on {
		p.debouncer.Cancel()
		p.mu.Lock()
		p.calculating = false
		p.previewErr = ""
		p.mu.Unlock()
		p.notify()
	}
	return err
}

// Set assigns the raw input of one field.
func (p *Panel) Set(field assessment.Field, raw string) error {
	return p.edit(func(f *assessment.Form) (assessment.Change, error) { return f.Set(field, raw) })
}

func (p *Panel) edit(apply func(*assessment.Form) (assessment.Change, error)) error {
	p.mu.Lock()
	if p.form == nil {
		p.mu.Unlock()
		return ErrNotLoaded
	}
	change, err := apply(p.form)
	if err == nil && change.Preview {
		p.debouncer.Schedule()
	}
	p.mu.Unlock()
	if err == nil {
		p.notify()
	}
	return err
}

// runPreview is the debounced preview call. The request is built from the
// draft at fire time and the result is committed only while no newer call
// has been scheduled.
func (p *Panel) runPreview(ctx context.Context, seq uint64) {
	p.mu.Lock()
	if p.form == nil || !p.debouncer.Current(seq) {
		p.mu.Unlock()
		return
	}
	req, ok := p.form.PreviewRequest()
	if !ok {
		p.mu.Unlock()
		return
	}
	p.calculating = true
	p.calcSeq = seq
	p.mu.Unlock()
	p.notify()

	ctx, cancel := context.WithTimeout(ctx, p.previewTimeout)
	defer cancel()
	b, err := p.backend.Preview(ctx, p.issueID, req)

	p.mu.Lock()
	if p.calcSeq == seq {
		p.calculating = false
	}
	if !p.debouncer.Current(seq) || p.form == nil {
		p.mu.Unlock()
		p.log.Debug("stale preview dropped", zap.Uint64("seq", seq))
		p.notify()
		return
	}
	if err != nil {
		p.previewErr = backend.UserMessage(err)
		p.mu.Unlock()
		p.log.Warn("preview failed", zap.Error(err))
		p.notify()
		return
	}
	p.previewErr = ""
	if err := p.form.ApplyPreview(*b); err != nil {
		p.log.Debug("preview not applied", zap.Error(err))
	}
	p.mu.Unlock()
	p.notify()
}

// Submit assembles the draft with the given uploads and records the
// resolution. On success the detail is reloaded and the form becomes
// read-only; on failure the form returns to editing with its values kept.
func (p *Panel) Submit(ctx context.Context, files submission.Attachments) error {
	p.mu.Lock()
	if p.form == nil {
		p.mu.Unlock()
		return ErrNotLoaded
	}
	if err := p.form.BeginSubmit(); err != nil {
		p.mu.Unlock()
		return err
	}
	draft := p.form.Draft()
	prior := *p.form.Detail()
	p.submitErr = ""
	p.calculating = false
	p.mu.Unlock()
	p.debouncer.Cancel()
	p.notify()

	sub, err := submission.Assemble(p.issueID, draft, files)
	if err != nil {
		return p.submitFailed(err)
	}
	a, err := p.backend.Resolve(ctx, &sub.Request, sub.DocumentImages, sub.RefundProof)
	if err != nil {
		return p.submitFailed(err)
	}

	detail, err := p.backend.FetchDetail(ctx, p.issueID)
	if err != nil {
		// The resolution is recorded; show what was submitted.
		p.log.Warn("reload after resolve failed", zap.Error(err))
		prior.Assessment = a
		detail = &prior
	}

	p.mu.Lock()
	p.setDetail(detail)
	p.mu.Unlock()
	p.log.Info("issue resolved", zap.Bool("fraud", a.FraudDetected))
	if p.onSuccess != nil {
		p.onSuccess(detail)
	}
	p.notify()
	return nil
}

func (p *Panel) submitFailed(err error) error {
	p.mu.Lock()
	if p.form != nil {
		p.form.SubmitFailed()
	}
	p.submitErr = userMessage(err)
	p.mu.Unlock()
	p.log.Warn("submit failed", zap.Error(err))
	p.notify()
	return fmt.Errorf("submit %s: %w", p.issueID, err)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, submission.ErrIncomplete),
		errors.Is(err, submission.ErrNoDocumentMode),
		errors.Is(err, submission.ErrTooManyProofs):
		return err.Error()
	}
	return backend.UserMessage(err)
}

// Close aborts a pending preview and waits for an in-flight one to finish.
func (p *Panel) Close() {
	p.debouncer.Close()
}

// Notifier returns an OnChange hook and the channel it feeds. Bursts of
// changes coalesce into one pending signal, so the hook never blocks.
func Notifier() (func(), <-chan struct{}) {
	ch := make(chan struct{}, 1)
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}, ch
}

func (p *Panel) notify() {
	if p.onChange != nil {
		p.onChange()
	}
}
