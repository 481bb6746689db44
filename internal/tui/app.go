// Package tui is the interactive terminal panel for one issue.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"

	"compensation-desk/internal/assessment"
	"compensation-desk/internal/model"
	"compensation-desk/internal/panel"
	"compensation-desk/internal/submission"
)

var fieldLabels = map[assessment.Field]string{
	assessment.FieldFraudDetected:        "Fraud detected",
	assessment.FieldFraudReason:          "Fraud reason",
	assessment.FieldHasDocuments:         "Has documents",
	assessment.FieldDocumentValue:        "Document value",
	assessment.FieldEstimatedMarketValue: "Estimated market value",
	assessment.FieldDamageRate:           "Damage rate (%)",
	assessment.FieldFinalCompensation:    "Final compensation",
	assessment.FieldAdjustReason:         "Adjust reason",
	assessment.FieldStaffNotes:           "Staff notes",
	assessment.FieldHandlerNotes:         "Handler notes",
	assessment.FieldRefundAmount:         "Refund amount",
	assessment.FieldBankName:             "Bank name",
	assessment.FieldAccountNumber:        "Account number",
	assessment.FieldAccountHolder:        "Account holder",
	assessment.FieldTransactionCode:      "Transaction code",
	assessment.FieldRefundNotes:          "Refund notes",
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle    = lipgloss.NewStyle().Width(26)
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	requiredGlyph = focusStyle.Render("*")
)

type loadedMsg struct{ err error }

type changedMsg struct{}

type submittedMsg struct{ err error }

// App is the bubbletea model over a panel.
type App struct {
	ctx     context.Context
	panel   *panel.Panel
	changes <-chan struct{}
	notes   assessment.NoteWriter
	files   submission.Attachments

	inputs map[assessment.Field]*textinput.Model
	focus  assessment.Field
	// echo is the focused field's draft value as of the last keystroke;
	// typing marks a refresh caused by that keystroke.
	echo   string
	typing bool
	state  panel.State
	status string
	width  int
}

type AppOption func(*App)

// WithAttachments sets the evidence files sent on submit.
func WithAttachments(files submission.Attachments) AppOption {
	return func(a *App) { a.files = files }
}

// WithNotes sets the formatter used for amounts on screen.
func WithNotes(w assessment.NoteWriter) AppOption {
	return func(a *App) { a.notes = w }
}

// NewApp builds the model. changes must be fed by the panel's OnChange hook
// (see panel.Notifier).
func NewApp(ctx context.Context, p *panel.Panel, changes <-chan struct{}, opts ...AppOption) *App {
	a := &App{
		ctx:     ctx,
		panel:   p,
		changes: changes,
		notes:   assessment.NewNoteWriter(language.English, "VND"),
		inputs:  make(map[assessment.Field]*textinput.Model),
	}
	for _, opt := range opts {
		opt(a)
	}
	for _, f := range assessment.AllFields() {
		if f.Toggle() {
			continue
		}
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		a.inputs[f] = &in
	}
	a.state = p.State()
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.load(), a.waitForChange())
}

func (a *App) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: a.panel.Load(a.ctx)}
	}
}

func (a *App) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.changes:
			return changedMsg{}
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) submit() tea.Cmd {
	files := a.files
	return func() tea.Msg {
		return submittedMsg{err: a.panel.Submit(a.ctx, files)}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil

	case loadedMsg:
		a.refresh()
		if msg.err == nil {
			a.focusFirst()
		}
		return a, nil

	case changedMsg:
		a.refresh()
		return a, a.waitForChange()

	case submittedMsg:
		a.refresh()
		switch {
		case msg.err == nil:
			a.status = successStyle.Render("Resolution recorded.")
		case a.state.SubmitError == "":
			a.status = errorStyle.Render(msg.err.Error())
		default:
			a.status = ""
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return a, tea.Quit
	case "q":
		if a.state.Phase != assessment.PhaseEditing {
			return a, tea.Quit
		}
	case "r":
		if a.state.Phase == assessment.PhaseLoadFailed {
			return a, a.load()
		}
	case "tab", "down":
		a.moveFocus(1)
		return a, nil
	case "shift+tab", "up":
		a.moveFocus(-1)
		return a, nil
	case "ctrl+s":
		if a.state.Phase == assessment.PhaseEditing {
			a.status = mutedStyle.Render("Submitting...")
			return a, a.submit()
		}
		return a, nil
	}

	if a.state.Phase != assessment.PhaseEditing || a.focus == "" {
		return a, nil
	}
	if a.focus.Toggle() {
		switch msg.String() {
		case " ", "enter", "left", "right":
			a.toggle(a.focus)
		}
		return a, nil
	}

	in := a.inputs[a.focus]
	before := in.Value()
	next, cmd := in.Update(msg)
	*in = next
	if in.Value() != before {
		a.typing = true
		a.apply(a.panel.Set(a.focus, in.Value()))
	}
	return a, cmd
}

func (a *App) toggle(f assessment.Field) {
	d := a.state.Draft
	switch f {
	case assessment.FieldFraudDetected:
		a.apply(a.panel.SetFraud(!d.Fraud))
	case assessment.FieldHasDocuments:
		a.apply(a.panel.SelectDocuments(d.Mode != assessment.ModeHasDocuments))
	}
}

func (a *App) apply(err error) {
	if err != nil {
		a.status = errorStyle.Render(err.Error())
	} else {
		a.status = ""
	}
	a.refresh()
}

// refresh pulls a snapshot and mirrors the draft into the inputs. The focused
// input keeps the typed text unless its value was changed by something other
// than the user, such as a committed preview.
func (a *App) refresh() {
	a.state = a.panel.State()
	for f, in := range a.inputs {
		v := a.state.Draft.Value(f)
		if f != a.focus {
			in.SetValue(v)
			continue
		}
		if !a.typing && v != a.echo {
			in.SetValue(v)
			in.CursorEnd()
		}
		a.echo = v
	}
	a.typing = false
	if a.focus != "" && !a.state.Visible.Has(a.focus) {
		a.focusFirst()
	}
}

func (a *App) focusFirst() {
	a.setFocus("")
	if fields := a.state.Visible.Ordered(); len(fields) > 0 {
		a.setFocus(fields[0])
	}
}

func (a *App) moveFocus(delta int) {
	fields := a.state.Visible.Ordered()
	if len(fields) == 0 {
		return
	}
	idx := 0
	for i, f := range fields {
		if f == a.focus {
			idx = (i + delta + len(fields)) % len(fields)
			break
		}
	}
	a.setFocus(fields[idx])
}

func (a *App) setFocus(f assessment.Field) {
	if in, ok := a.inputs[a.focus]; ok {
		in.Blur()
		in.SetValue(a.state.Draft.Value(a.focus))
	}
	a.focus = f
	a.echo = a.state.Draft.Value(f)
	if in, ok := a.inputs[f]; ok {
		in.Focus()
		in.CursorEnd()
	}
}

func (a *App) View() string {
	s := a.state
	var b strings.Builder
	b.WriteString(titleStyle.Render("Compensation · " + s.IssueID))
	b.WriteString("\n\n")

	switch s.Phase {
	case assessment.PhaseLoading:
		b.WriteString(mutedStyle.Render("Loading issue..."))
		return b.String()
	case assessment.PhaseLoadFailed:
		b.WriteString(errorStyle.Render(s.LoadError))
		b.WriteString("\n\n" + mutedStyle.Render("r retry · q quit"))
		return b.String()
	}

	b.WriteString(boxStyle.Render(a.renderOrder(s.Detail)))
	b.WriteString("\n")

	if s.Phase == assessment.PhaseResolved {
		b.WriteString(a.renderResolution(s.Detail))
		b.WriteString("\n\n" + mutedStyle.Render("q quit"))
		return b.String()
	}

	b.WriteString(a.renderForm())
	b.WriteString("\n")
	if s.Breakdown != nil {
		b.WriteString(boxStyle.Render(a.renderBreakdown(*s.Breakdown)))
		b.WriteString("\n")
	}
	if s.Calculating {
		b.WriteString(mutedStyle.Render("Calculating..."))
		b.WriteString("\n")
	}
	if s.PreviewError != "" {
		b.WriteString(warningStyle.Render("Preview unavailable: " + s.PreviewError))
		b.WriteString("\n")
	}
	for _, m := range s.Messages {
		style := errorStyle
		if m.Level == model.LevelWarning {
			style = warningStyle
		}
		b.WriteString(style.Render("• " + m.Message))
		b.WriteString("\n")
	}
	if s.SubmitError != "" {
		b.WriteString(errorStyle.Render("Submit failed: " + s.SubmitError))
		b.WriteString("\n")
	}
	if a.status != "" {
		b.WriteString(a.status)
		b.WriteString("\n")
	}
	b.WriteString("\n" + mutedStyle.Render("tab/↑↓ move · space toggle · ctrl+s submit · esc quit"))
	return b.String()
}

func (a *App) renderOrder(d *model.CompensationDetail) string {
	if d == nil {
		return ""
	}
	o := d.OrderContext
	insured := "no"
	if o.HasInsurance {
		insured = "yes"
	}
	lines := []string{
		fmt.Sprintf("Order %s (%s) · package %s · %s", o.OrderCode, o.OrderID, o.PackageID, o.CategoryDescription),
		fmt.Sprintf("Declared value %s · transport fee %s · insured %s", a.notes.Money(o.DeclaredValue), a.notes.Money(o.TransportFee), insured),
		fmt.Sprintf("Weight %s of %s", o.Weight, o.TotalWeight),
	}
	if d.PolicyInfo.Description != "" {
		lines = append(lines, mutedStyle.Render(d.PolicyInfo.Description))
	}
	if n := len(d.EvidenceImages); n > 0 {
		lines = append(lines, fmt.Sprintf("%d evidence image(s)", n))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderForm() string {
	var lines []string
	for _, f := range a.state.Visible.Ordered() {
		label := fieldLabels[f]
		if a.state.Required.Has(f) {
			label += " " + requiredGlyph
		}
		cursor := "  "
		if f == a.focus {
			cursor = focusStyle.Render("> ")
		}
		var value string
		if f.Toggle() {
			value = toggleValue(a.state.Draft.Value(f))
		} else {
			value = a.inputs[f].View()
		}
		lines = append(lines, cursor+labelStyle.Render(label)+value)
	}
	return strings.Join(lines, "\n")
}

func toggleValue(v string) string {
	switch v {
	case "true":
		return "[x] yes"
	case "false":
		return "[ ] no"
	}
	return mutedStyle.Render("[?] choose")
}

func (a *App) renderBreakdown(b model.CompensationBreakdown) string {
	return strings.Join([]string{
		fmt.Sprintf("Goods %s · freight refund %s · total %s",
			a.notes.Money(b.GoodsCompensation), a.notes.Money(b.FreightRefund), a.notes.Money(b.TotalCompensation)),
		fmt.Sprintf("Legal limit %s · %s", a.notes.Money(b.LegalLimit), b.CompensationCase),
		mutedStyle.Render(b.Explanation),
	}, "\n")
}

func (a *App) renderResolution(d *model.CompensationDetail) string {
	as := d.Assessment
	var lines []string
	if as.FraudDetected {
		lines = append(lines, errorStyle.Render("Resolved as fraud: "+as.FraudReason))
	} else {
		lines = append(lines,
			successStyle.Render("Resolved · final compensation "+a.notes.Money(as.FinalCompensation)),
			fmt.Sprintf("Damage rate %s%%", assessment.FractionToPercent(as.AssessmentRate)))
		if as.AdjustReason != "" {
			lines = append(lines, "Adjusted: "+as.AdjustReason)
		}
		if as.StaffNotes != "" {
			lines = append(lines, mutedStyle.Render(as.StaffNotes))
		}
	}
	if r := d.RefundInfo; r != nil {
		lines = append(lines, fmt.Sprintf("Refund %s to %s (%s, %s)", a.notes.Money(r.Amount), r.AccountHolder, r.BankName, r.AccountNumber))
	}
	if as.AssessedBy != "" {
		lines = append(lines, mutedStyle.Render("Assessed by "+as.AssessedBy))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
