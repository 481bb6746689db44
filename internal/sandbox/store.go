package sandbox

import (
	"errors"
	"sync"
	"time"

	"compensation-desk/internal/model"
)

var (
	ErrIssueNotFound   = errors.New("sandbox: issue not found")
	ErrAlreadyResolved = errors.New("sandbox: issue already resolved")
	ErrRejected        = errors.New("sandbox: request rejected")
)

// Store keeps compensation details in memory.
type Store struct {
	mu     sync.RWMutex
	issues map[string]*model.CompensationDetail
	nowFn  func() time.Time
}

func NewStore(details ...model.CompensationDetail) *Store {
	s := &Store{
		issues: make(map[string]*model.CompensationDetail, len(details)),
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for i := range details {
		s.issues[details[i].IssueID] = details[i].Clone()
	}
	return s
}

// Get returns a copy of the detail of one issue.
func (s *Store) Get(issueID string) (*model.CompensationDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.issues[issueID]
	if !ok {
		return nil, ErrIssueNotFound
	}
	return d.Clone(), nil
}

// Upload is the stored name of an uploaded evidence file.
type Upload struct {
	Filename string
}

// Resolve records an assessment for an open issue. Messages are returned
// with ErrRejected when a critical rule fails, and alongside the assessment
// when only warnings were raised.
func (s *Store) Resolve(req *model.AssessmentRequest, documents []Upload, refundProof *Upload) (*model.Assessment, []model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.issues[req.IssueID]
	if !ok {
		return nil, nil, ErrIssueNotFound
	}
	if d.Resolved() {
		return nil, nil, ErrAlreadyResolved
	}

	msgs := req.Validate()
	if model.HasCritical(msgs) {
		return nil, msgs, ErrRejected
	}

	r := &resolution{
		req:         req,
		documents:   documents,
		refundProof: refundProof,
		now:         s.nowFn(),
	}
	h := resolverFor(req)
	msgs = append(msgs, h.Validate(d, r)...)
	if model.HasCritical(msgs) {
		return nil, msgs, ErrRejected
	}

	next := d.Clone()
	msgs = append(msgs, h.Apply(next, r)...)
	if model.HasCritical(msgs) {
		return nil, msgs, ErrRejected
	}
	s.issues[req.IssueID] = next

	return next.Clone().Assessment, msgs, nil
}
