package sandbox

import (
	"errors"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"compensation-desk/internal/model"
)

const (
	issuesPrefix      = "/issues/"
	compensationRoute = "/compensation"
)

// Handler serves the compensation endpoints over a Store.
type Handler struct {
	store *Store
	log   *zap.Logger
}

func NewHandler(store *Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, log: log}
}

// Serve routes one request.
func (h *Handler) Serve(ctx *fasthttp.RequestCtx) {
	issueID, action, ok := splitPath(string(ctx.Path()))
	if !ok {
		writeError(ctx, fasthttp.StatusNotFound, "Unknown route", nil)
		return
	}

	switch {
	case action == "" && ctx.IsGet():
		h.detail(ctx, issueID)
	case action == "/preview" && ctx.IsPost():
		h.preview(ctx, issueID)
	case action == "/resolve" && ctx.IsPost():
		h.resolve(ctx, issueID)
	default:
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

func splitPath(path string) (issueID, action string, ok bool) {
	rest, found := strings.CutPrefix(path, issuesPrefix)
	if !found {
		return "", "", false
	}
	idx := strings.Index(rest, compensationRoute)
	if idx <= 0 {
		return "", "", false
	}
	issueID, action = rest[:idx], rest[idx+len(compensationRoute):]
	switch action {
	case "", "/preview", "/resolve":
		return issueID, action, true
	}
	return "", "", false
}

func (h *Handler) detail(ctx *fasthttp.RequestCtx, issueID string) {
	d, err := h.store.Get(issueID)
	if err != nil {
		writeError(ctx, fasthttp.StatusNotFound, "Issue "+issueID+" not found", nil)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, d)
}

func (h *Handler) preview(ctx *fasthttp.RequestCtx, issueID string) {
	d, err := h.store.Get(issueID)
	if err != nil {
		writeError(ctx, fasthttp.StatusNotFound, "Issue "+issueID+" not found", nil)
		return
	}
	var req model.PreviewRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error(), nil)
		return
	}
	b, msgs := Calculate(d.OrderContext, req)
	if b == nil {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, firstCritical(msgs), msgs)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, b)
}

func (h *Handler) resolve(ctx *fasthttp.RequestCtx, issueID string) {
	form, err := ctx.MultipartForm()
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Expected a multipart form: "+err.Error(), nil)
		return
	}
	payload := form.Value["payload"]
	if len(payload) != 1 {
		writeError(ctx, fasthttp.StatusBadRequest, "Exactly one payload field is required", nil)
		return
	}
	var req model.AssessmentRequest
	if err := json.Unmarshal([]byte(payload[0]), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid payload: "+err.Error(), nil)
		return
	}
	if req.IssueID != issueID {
		writeError(ctx, fasthttp.StatusBadRequest, "Payload issue id does not match the route", nil)
		return
	}

	var documents []Upload
	for _, fh := range form.File["documentImages"] {
		documents = append(documents, Upload{Filename: fh.Filename})
	}
	var proof *Upload
	switch proofs := form.File["refundProofImage"]; len(proofs) {
	case 0:
	case 1:
		proof = &Upload{Filename: proofs[0].Filename}
	default:
		writeError(ctx, fasthttp.StatusBadRequest, "At most one refund proof image is accepted", nil)
		return
	}

	a, msgs, err := h.store.Resolve(&req, documents, proof)
	switch {
	case errors.Is(err, ErrIssueNotFound):
		writeError(ctx, fasthttp.StatusNotFound, "Issue "+issueID+" not found", nil)
		return
	case errors.Is(err, ErrAlreadyResolved):
		writeError(ctx, fasthttp.StatusConflict, "Issue "+issueID+" has already been assessed", nil)
		return
	case errors.Is(err, ErrRejected):
		writeError(ctx, fasthttp.StatusUnprocessableEntity, firstCritical(msgs), msgs)
		return
	case err != nil:
		h.log.Error("resolve failed", zap.String("issue_id", issueID), zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "Internal error", nil)
		return
	}

	h.log.Info("issue resolved",
		zap.String("issue_id", issueID),
		zap.Bool("fraud", a.FraudDetected),
		zap.String("final_compensation", a.FinalCompensation.String()),
		zap.Int("warnings", len(msgs)))
	writeJSON(ctx, fasthttp.StatusOK, a)
}

func firstCritical(msgs []model.Message) string {
	for _, m := range msgs {
		if m.Level == model.LevelCritical {
			return m.Message
		}
	}
	return "Request rejected"
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "Encoding failed", nil)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string, msgs []model.Message) {
	body, _ := json.Marshal(model.ErrorResponse{
		Status:   status,
		Message:  message,
		Messages: msgs,
	})
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
