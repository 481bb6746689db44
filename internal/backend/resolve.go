package backend

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"compensation-desk/internal/model"
)

// Multipart field names of the resolve call.
const (
	FieldPayload          = "payload"
	FieldDocumentImages   = "documentImages"
	FieldRefundProofImage = "refundProofImage"
)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Resolve records an assessment. Evidence files travel in the same multipart
// request as the payload.
func (c *Client) Resolve(ctx context.Context, req *model.AssessmentRequest, documents []model.Attachment, refundProof *model.Attachment) (*model.Assessment, error) {
	if msgs := req.Validate(); model.HasCritical(msgs) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, msgs[0].Message)
	}
	if req.FraudDetected && refundProof != nil {
		return nil, fmt.Errorf("%w: fraud resolutions carry no refund proof", ErrInvalidRequest)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	contentType, err := writeResolveBody(buf, req, documents, refundProof)
	if err != nil {
		return nil, fmt.Errorf("encode resolve request: %w", err)
	}

	var a model.Assessment
	if err := c.do(ctx, fasthttp.MethodPost, issuePath(req.IssueID, "/resolve"), buf.B, contentType, &a); err != nil {
		return nil, fmt.Errorf("resolve compensation %s: %w", req.IssueID, err)
	}
	c.resolved.Delete(req.IssueID)
	c.log.Info("compensation resolved",
		zap.String("issue_id", req.IssueID),
		zap.Bool("fraud", req.FraudDetected),
		zap.Int("documents", len(documents)),
		zap.Bool("refund", req.Refund != nil))
	return &a, nil
}

func writeResolveBody(buf *bytebufferpool.ByteBuffer, req *model.AssessmentRequest, documents []model.Attachment, refundProof *model.Attachment) (string, error) {
	w := multipart.NewWriter(buf)
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	if err := w.WriteField(FieldPayload, string(payload)); err != nil {
		return "", err
	}
	for _, doc := range documents {
		if err := writeFile(w, FieldDocumentImages, doc); err != nil {
			return "", err
		}
	}
	if refundProof != nil {
		if err := writeFile(w, FieldRefundProofImage, *refundProof); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field string, a model.Attachment) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, quoteEscaper.Replace(a.Filename)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(a.Data)
	return err
}
