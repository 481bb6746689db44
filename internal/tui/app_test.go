package tui

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/valyala/fasthttp/fasthttputil"

	"compensation-desk/internal/assessment"
	"compensation-desk/internal/backend"
	"compensation-desk/internal/panel"
	"compensation-desk/internal/sandbox"
)

func newTestApp(t *testing.T, issueID string) *App {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := sandbox.NewServer(sandbox.NewStore(sandbox.DefaultIssues()...), nil)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})
	client := backend.New(backend.Config{BaseURL: "http://sandbox", Timeout: 2 * time.Second},
		backend.WithDial(func(string) (net.Conn, error) { return ln.Dial() }))

	notify, changes := panel.Notifier()
	p := panel.New(client, issueID, panel.WithDebounce(10*time.Millisecond), panel.OnChange(notify))
	t.Cleanup(p.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app := NewApp(ctx, p, changes)
	update(t, app, app.load()())
	return app
}

func update(t *testing.T, app *App, msg tea.Msg) {
	t.Helper()
	model, _ := app.Update(msg)
	if model != app {
		t.Fatalf("unexpected model %T", model)
	}
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typeText(t *testing.T, app *App, s string) {
	t.Helper()
	update(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestOpenIssueRendersForm(t *testing.T) {
	app := newTestApp(t, "ISS-1001")

	if app.state.Phase != assessment.PhaseEditing {
		t.Fatalf("expected EDITING, got %s", app.state.Phase)
	}
	if app.focus != assessment.FieldFraudDetected {
		t.Fatalf("expected focus on fraud toggle, got %s", app.focus)
	}
	view := app.View()
	for _, want := range []string{"HN-SG-58231", "12,000,000 VND", "Has documents", "[?] choose"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q, got:\n%s", want, view)
		}
	}
	if strings.Contains(view, "Document value") {
		t.Fatalf("document value must be hidden before the documents choice")
	}
}

func TestEditingTriggersPreview(t *testing.T) {
	app := newTestApp(t, "ISS-1001")

	update(t, app, key(tea.KeyTab))
	if app.focus != assessment.FieldHasDocuments {
		t.Fatalf("expected focus on documents toggle, got %s", app.focus)
	}
	update(t, app, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if app.state.Draft.Mode != assessment.ModeHasDocuments {
		t.Fatalf("expected documents mode, got %s", app.state.Draft.Mode)
	}

	update(t, app, key(tea.KeyTab))
	if app.focus != assessment.FieldDocumentValue {
		t.Fatalf("expected focus on document value, got %s", app.focus)
	}
	typeText(t, app, "10000000")
	update(t, app, key(tea.KeyTab))
	typeText(t, app, "50")

	deadline := time.Now().Add(2 * time.Second)
	for {
		update(t, app, changedMsg{})
		if app.state.Breakdown != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("preview never arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}

	view := app.View()
	if !strings.Contains(view, "total 5,075,000 VND") {
		t.Fatalf("expected breakdown total in view, got:\n%s", view)
	}
	if got := app.inputs[assessment.FieldFinalCompensation].Value(); got != "5075000" {
		t.Fatalf("expected final compensation input 5075000, got %q", got)
	}
}

func TestFocusedInputFollowsPreview(t *testing.T) {
	app := newTestApp(t, "ISS-1001")

	update(t, app, key(tea.KeyTab))
	update(t, app, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	update(t, app, key(tea.KeyTab))
	typeText(t, app, "10000000")
	update(t, app, key(tea.KeyTab))
	typeText(t, app, "50")
	update(t, app, key(tea.KeyTab))
	if app.focus != assessment.FieldFinalCompensation {
		t.Fatalf("expected focus on final compensation, got %s", app.focus)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		update(t, app, changedMsg{})
		if b := app.state.Breakdown; b != nil && b.TotalCompensation.String() == "5075000" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("preview never arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := app.inputs[assessment.FieldFinalCompensation].Value(); got != "5075000" {
		t.Fatalf("expected focused input to show 5075000, got %q", got)
	}

	typeText(t, app, "1")
	if got := app.state.Draft.Value(assessment.FieldFinalCompensation); got != "50750001" {
		t.Fatalf("expected keystroke to extend the previewed total, got %q", got)
	}
	if !app.state.Visible.Has(assessment.FieldAdjustReason) {
		t.Fatal("expected adjust reason after diverging from the preview")
	}
}

func TestFocusedInputKeepsTypedText(t *testing.T) {
	app := newTestApp(t, "ISS-1001")

	update(t, app, key(tea.KeyTab))
	update(t, app, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	update(t, app, key(tea.KeyTab))
	typeText(t, app, "10,000")
	if got := app.inputs[assessment.FieldDocumentValue].Value(); got != "10,000" {
		t.Fatalf("expected typed text to stay as entered, got %q", got)
	}
	update(t, app, changedMsg{})
	if got := app.inputs[assessment.FieldDocumentValue].Value(); got != "10,000" {
		t.Fatalf("expected typed text to survive a refresh, got %q", got)
	}
}

func TestSubmitInvalidShowsError(t *testing.T) {
	app := newTestApp(t, "ISS-1001")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	update(t, app, cmd())

	if app.state.Phase != assessment.PhaseEditing {
		t.Fatalf("expected EDITING after rejected submit, got %s", app.state.Phase)
	}
	if !strings.Contains(app.View(), "blocking validation errors") {
		t.Fatalf("expected validation error in view, got:\n%s", app.View())
	}
}

func TestResolvedIssueIsReadOnly(t *testing.T) {
	app := newTestApp(t, "ISS-1003")

	if app.state.Phase != assessment.PhaseResolved {
		t.Fatalf("expected RESOLVED, got %s", app.state.Phase)
	}
	view := app.View()
	if !strings.Contains(view, "Resolved as fraud") {
		t.Fatalf("expected fraud resolution in view, got:\n%s", view)
	}
	if strings.Contains(view, "ctrl+s") {
		t.Fatalf("resolved issue must not offer submit")
	}

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Fatal("expected no submit command for resolved issue")
	}
}

func TestLoadFailureOffersRetry(t *testing.T) {
	app := newTestApp(t, "ISS-404")

	if app.state.Phase != assessment.PhaseLoadFailed {
		t.Fatalf("expected LOAD_FAILED, got %s", app.state.Phase)
	}
	view := app.View()
	if !strings.Contains(view, "Issue ISS-404 not found") || !strings.Contains(view, "r retry") {
		t.Fatalf("unexpected view:\n%s", view)
	}
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("expected retry command")
	}
}
