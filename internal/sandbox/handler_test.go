package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"compensation-desk/internal/model"
)

func serve(t *testing.T, h *Handler, method, uri, body string) *fasthttp.RequestCtx {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
		ctx.Request.Header.SetContentType("application/json")
	}
	h.Serve(&ctx)
	return &ctx
}

func TestHandlerDetail(t *testing.T) {
	h := NewHandler(NewStore(DefaultIssues()...), nil)

	ctx := serve(t, h, fasthttp.MethodGet, "/issues/ISS-1001/compensation", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
	var d model.CompensationDetail
	if err := json.Unmarshal(ctx.Response.Body(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.IssueID != "ISS-1001" || !d.OrderContext.HasInsurance {
		t.Fatalf("unexpected detail %+v", d)
	}
}

func TestHandlerPreview(t *testing.T) {
	h := NewHandler(NewStore(DefaultIssues()...), nil)

	ctx := serve(t, h, fasthttp.MethodPost, "/issues/ISS-1001/compensation/preview",
		`{"hasDocuments":true,"documentValue":10000000,"assessmentRate":0.5}`)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var b model.CompensationBreakdown
	if err := json.Unmarshal(ctx.Response.Body(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.TotalCompensation.String() != "5075000" {
		t.Fatalf("expected total 5075000, got %s", b.TotalCompensation)
	}
}

func TestHandlerErrors(t *testing.T) {
	h := NewHandler(NewStore(DefaultIssues()...), nil)

	tests := []struct {
		name   string
		method string
		uri    string
		body   string
		status int
	}{
		{"unknown issue", fasthttp.MethodGet, "/issues/NOPE/compensation", "", fasthttp.StatusNotFound},
		{"unknown route", fasthttp.MethodGet, "/orders/1", "", fasthttp.StatusNotFound},
		{"wrong method", fasthttp.MethodDelete, "/issues/ISS-1001/compensation", "", fasthttp.StatusMethodNotAllowed},
		{"bad body", fasthttp.MethodPost, "/issues/ISS-1001/compensation/preview", "{", fasthttp.StatusBadRequest},
		{"invalid rate", fasthttp.MethodPost, "/issues/ISS-1001/compensation/preview", `{"estimatedMarketValue":5,"assessmentRate":3}`, fasthttp.StatusUnprocessableEntity},
		{"resolve without form", fasthttp.MethodPost, "/issues/ISS-1001/compensation/resolve", `{}`, fasthttp.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := serve(t, h, tt.method, tt.uri, tt.body)
			if ctx.Response.StatusCode() != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, ctx.Response.StatusCode())
			}
			var e model.ErrorResponse
			if err := json.Unmarshal(ctx.Response.Body(), &e); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if e.Status != tt.status || e.Message == "" {
				t.Fatalf("unexpected error body %+v", e)
			}
		})
	}
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	raw := `issues:
  - id: ISS-2001
    order_code: HCM-01
    declared_value: "2500000"
    transport_fee: "80000"
    weight: "1.5"
    total_weight: "3"
    insured: true
    category: Books
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	issues, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	d := issues[0]
	if d.OrderContext.Weight.String() != "1.5" {
		t.Fatalf("expected weight 1.5, got %s", d.OrderContext.Weight)
	}
	if d.PolicyInfo.MaxCompensationWithoutDocs.String() != "800000" {
		t.Fatalf("expected limit 800000, got %s", d.PolicyInfo.MaxCompensationWithoutDocs)
	}
	if d.EvidenceImages == nil {
		t.Fatal("expected empty evidence list, got nil")
	}
}

func TestLoadSeedRejectsBadAmount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("issues:\n  - id: X\n    transport_fee: abc\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSeed(path); err == nil {
		t.Fatal("expected error for bad amount")
	}
}
