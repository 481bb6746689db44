package backend

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"compensation-desk/internal/model"
	"compensation-desk/internal/sandbox"
)

func newSandboxClient(t *testing.T) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := sandbox.NewServer(sandbox.NewStore(sandbox.DefaultIssues()...), nil)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})

	return New(Config{BaseURL: "http://sandbox/", Timeout: 2 * time.Second},
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }))
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestFetchDetail(t *testing.T) {
	c := newSandboxClient(t)

	d, err := c.FetchDetail(context.Background(), "ISS-1001")
	require.NoError(t, err)
	assert.Equal(t, "ISS-1001", d.IssueID)
	assert.False(t, d.Resolved())
	assert.True(t, d.OrderContext.DeclaredValue.Equal(decimal.NewFromInt(12_000_000)))
	assert.True(t, d.PolicyInfo.MaxCompensationWithoutDocs.Equal(decimal.NewFromInt(3_000_000)))
}

func TestFetchDetailCachesResolvedOnly(t *testing.T) {
	c := newSandboxClient(t)
	ctx := context.Background()

	_, err := c.FetchDetail(ctx, "ISS-1001")
	require.NoError(t, err)
	_, cached := c.resolved.Load("ISS-1001")
	assert.False(t, cached)

	d, err := c.FetchDetail(ctx, "ISS-1003")
	require.NoError(t, err)
	require.True(t, d.Resolved())
	_, cached = c.resolved.Load("ISS-1003")
	assert.True(t, cached)

	want := d.Assessment.FraudReason
	d.Assessment.FraudReason = "mutated"
	d.EvidenceImages[0] = "tampered"
	again, err := c.FetchDetail(ctx, "ISS-1003")
	require.NoError(t, err)
	assert.Equal(t, want, again.Assessment.FraudReason)
	assert.NotEqual(t, "tampered", again.EvidenceImages[0])

	again.Assessment.FraudReason = "mutated again"
	third, err := c.FetchDetail(ctx, "ISS-1003")
	require.NoError(t, err)
	assert.Equal(t, want, third.Assessment.FraudReason)
}

func TestFetchDetailNotFound(t *testing.T) {
	c := newSandboxClient(t)

	_, err := c.FetchDetail(context.Background(), "ISS-404")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "Issue ISS-404 not found", UserMessage(err))
}

func TestPreview(t *testing.T) {
	c := newSandboxClient(t)

	b, err := c.Preview(context.Background(), "ISS-1001", model.PreviewRequest{
		HasDocuments:   true,
		DocumentValue:  decPtr("10000000"),
		AssessmentRate: decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "5075000", b.TotalCompensation.String())
	assert.Equal(t, model.CaseInsuredWithDocuments, b.CompensationCase)
}

func TestPreviewServerRejection(t *testing.T) {
	c := newSandboxClient(t)

	_, err := c.Preview(context.Background(), "ISS-1001", model.PreviewRequest{
		EstimatedMarketValue: decPtr("100"),
		AssessmentRate:       decimal.NewFromInt(5),
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
	require.Len(t, apiErr.Messages, 1)
	assert.Equal(t, "INVALID_ASSESSMENT_RATE", apiErr.Messages[0].Code)
	assert.Equal(t, "Assessment rate must be between 0 and 1", UserMessage(err))
}

func TestResolveMultipart(t *testing.T) {
	c := newSandboxClient(t)
	ctx := context.Background()
	docs := true

	a, err := c.Resolve(ctx, &model.AssessmentRequest{
		IssueID:           "ISS-1001",
		IssueType:         model.IssueTypeDamage,
		HasDocuments:      &docs,
		DocumentValue:     decPtr("10000000"),
		AssessmentRate:    decPtr("0.5"),
		FinalCompensation: decimal.NewFromInt(5_075_000),
		Refund: &model.RefundRequest{
			Amount:        decimal.NewFromInt(5_075_000),
			BankName:      "Vietcombank",
			AccountNumber: "0011004455667",
			AccountHolder: "Tran Thi B",
		},
	}, []model.Attachment{
		{Filename: "invoice.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}},
		{Filename: `odd "name".png`, Data: []byte("png")},
	}, &model.Attachment{Filename: "transfer.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Len(t, a.DocumentImages, 2)

	d, err := c.FetchDetail(ctx, "ISS-1001")
	require.NoError(t, err)
	require.True(t, d.Resolved())
	require.NotNil(t, d.RefundInfo)
	assert.Equal(t, "sandbox://issues/ISS-1001/transfer.png", d.RefundInfo.ProofImage)

	_, err = c.Resolve(ctx, &model.AssessmentRequest{
		IssueID:       "ISS-1001",
		IssueType:     model.IssueTypeDamage,
		FraudDetected: true,
		FraudReason:   "late",
	}, nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "Issue ISS-1001 has already been assessed", UserMessage(err))
}

func TestResolveValidatesBeforeSending(t *testing.T) {
	c := newSandboxClient(t)

	_, err := c.Resolve(context.Background(), &model.AssessmentRequest{
		IssueID:       "ISS-1002",
		IssueType:     model.IssueTypeDamage,
		FraudDetected: true,
	}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidRequest)

	d, err := c.FetchDetail(context.Background(), "ISS-1002")
	require.NoError(t, err)
	assert.False(t, d.Resolved())
}

func TestCanceledContext(t *testing.T) {
	c := newSandboxClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchDetail(ctx, "ISS-1001")
	require.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, genericFailure, UserMessage(err))
}

func TestCanceledCallIsBoundedByTimeout(t *testing.T) {
	release := make(chan struct{})
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
	}}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		close(release)
		_ = srv.Shutdown()
		_ = ln.Close()
	})

	timeout := 300 * time.Millisecond
	c := New(Config{BaseURL: "http://sandbox", Timeout: timeout},
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	_, err := c.FetchDetail(ctx, "ISS-1001")
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), timeout)

	waited := make(chan struct{})
	go func() {
		c.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("abandoned request outlived its deadline")
	}
}
